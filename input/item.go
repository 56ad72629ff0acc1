package input

import (
	"encoding/json"
	"strings"
)

type itemType int

const (
	unknownItem itemType = iota
	httpHeaderItem
	httpHeaderUnsetItem
	httpHeaderEmptyItem
	urlParameterItem
	dataFieldItem
	dataFieldFromFileItem
	rawJSONFieldItem
	rawJSONFromFileItem
	formFileFieldItem
	rawBodyFromFileItem
)

// item is one classified request item. For *FromFile kinds value holds the
// filesystem path ("-" means stdin).
type item struct {
	kind  itemType
	name  string
	value string
}

// Separators, longest match first. "==" must be tried before "=@" so that
// "a==@b" stays a URL parameter with value "@b".
var separators = []string{":=@", "==", ":=", "=@", "=", "@", ":", ";"}

func isSeparatorByte(c byte) bool {
	return c == ':' || c == '=' || c == '@' || c == ';'
}

// splitItem scans s for the first unescaped separator and splits around it.
// The key has separator escapes removed; the value is returned verbatim so
// that the classifier can distinguish "@file" from "\@literal".
func splitItem(s string) (key string, separator string, value string, ok bool) {
	var keyBuilder strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+1 < len(s) && isSeparatorByte(s[i+1]) {
			keyBuilder.WriteByte(s[i+1])
			i += 2
			continue
		}
		for _, sep := range separators {
			if strings.HasPrefix(s[i:], sep) {
				return keyBuilder.String(), sep, s[i+len(sep):], true
			}
		}
		keyBuilder.WriteByte(s[i])
		i++
	}
	return "", "", "", false
}

// unescapeValue removes backslashes that escape separator characters.
// Backslashes before anything else are kept as-is.
func unescapeValue(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+1 < len(s) && isSeparatorByte(s[i+1]) {
			b.WriteByte(s[i+1])
			i += 2
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// parseItemToken tokenizes and classifies one request item.
func parseItemToken(s string) (item, error) {
	key, separator, value, ok := splitItem(s)
	if !ok {
		return item{}, newParseError(s, "is not a valid value")
	}

	switch separator {
	case ":":
		if value == "" {
			if key == "" {
				return item{}, newParseError(s, "header name is empty")
			}
			return item{kind: httpHeaderUnsetItem, name: key}, nil
		}
		return item{kind: httpHeaderItem, name: key, value: value}, nil
	case ";":
		if value != "" {
			return item{}, newParseError(s, "header with an empty value must not have a value")
		}
		if key == "" {
			return item{}, newParseError(s, "header name is empty")
		}
		return item{kind: httpHeaderEmptyItem, name: key}, nil
	case "==":
		if key == "" {
			return item{}, newParseError(s, "parameter name is empty")
		}
		return item{kind: urlParameterItem, name: key, value: value}, nil
	case "=":
		if key == "" {
			return item{}, newParseError(s, "field name is empty")
		}
		return item{kind: dataFieldItem, name: key, value: value}, nil
	case "=@":
		if key == "" {
			return item{}, newParseError(s, "field name is empty")
		}
		return item{kind: dataFieldFromFileItem, name: key, value: unescapeValue(value)}, nil
	case ":=":
		if key == "" {
			return item{}, newParseError(s, "field name is empty")
		}
		jsonValue := unescapeValue(value)
		if err := validateJSONValue(s, jsonValue); err != nil {
			return item{}, err
		}
		return item{kind: rawJSONFieldItem, name: key, value: jsonValue}, nil
	case ":=@":
		if key == "" {
			return item{}, newParseError(s, "field name is empty")
		}
		return item{kind: rawJSONFromFileItem, name: key, value: unescapeValue(value)}, nil
	case "@":
		path := unescapeValue(value)
		if key == "" {
			// "@file" with no field name sends the file as the whole body.
			return item{kind: rawBodyFromFileItem, value: path}, nil
		}
		return item{kind: formFileFieldItem, name: key, value: path}, nil
	}
	return item{}, newParseError(s, "is not a valid value")
}

func validateJSONValue(token, value string) error {
	var v interface{}
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		return &JSONValueError{Token: token, Err: err}
	}
	return nil
}
