package input

import (
	"io"
	"io/ioutil"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var (
	reMethod          = regexp.MustCompile(`^[a-zA-Z]+$`)
	reHeaderFieldName = regexp.MustCompile("^[-!#$%&'*+.^_|~a-zA-Z0-9]+$")
	reScheme          = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+-.]*://`)
	emptyMethod       = Method("")
)

type state struct {
	preferredBodyType BodyType
	explicitBodyType  bool
	stdinPending      bool
	stdinConsumed     bool
}

// ParseArgs folds "[METHOD] URL [REQUEST_ITEM ...]" into an Input. Items are
// processed in command-line order in a single pass; conflicts between body
// sources are reported at the offending item.
func ParseArgs(args []string, stdin io.Reader, options *Options) (*Input, error) {
	var argMethod string
	var argURL string
	var argItems []string
	switch len(args) {
	case 0:
		return nil, newUsageError("URL is required")
	case 1:
		argURL = args[0]
	default:
		if reMethod.MatchString(args[0]) {
			argMethod = args[0]
			argURL = args[1]
			argItems = args[2:]
		} else {
			argURL = args[0]
			argItems = args[1:]
		}
	}

	in := Input{}
	in.Body.Multipart = options.Multipart
	state := state{stdinPending: options.ReadStdin}

	u, err := parseURL(argURL)
	if err != nil {
		return nil, err
	}
	in.URL = u

	if err := determinePreferredBodyType(options, &state); err != nil {
		return nil, err
	}

	for _, arg := range argItems {
		if err := parseItem(arg, stdin, &state, &in); err != nil {
			return nil, err
		}
	}
	if state.stdinPending && !state.stdinConsumed {
		if in.Body.BodyType != EmptyBody {
			return nil, newExclusivityError("request body (from stdin) and request item (key=value) cannot be mixed")
		}
		in.Body.BodyType = RawBody
		in.Body.Raw = NewReaderSource(stdin)
		state.stdinConsumed = true
	}

	if argMethod != "" {
		method, err := parseMethod(argMethod)
		if err != nil {
			return nil, err
		}
		in.Method = method
	} else {
		in.Method = guessMethod(&in)
	}

	return &in, nil
}

func determinePreferredBodyType(options *Options, state *state) error {
	modes := 0
	for _, enabled := range []bool{options.JSON, options.Form, options.Multipart} {
		if enabled {
			modes++
		}
	}
	if modes > 1 {
		return newModeConflictError("only one of --json, --form and --multipart can be specified")
	}
	switch {
	case options.Form, options.Multipart:
		state.preferredBodyType = FormBody
		state.explicitBodyType = true
	case options.JSON:
		state.preferredBodyType = JSONBody
		state.explicitBodyType = true
	default:
		state.preferredBodyType = JSONBody
	}
	return nil
}

func parseMethod(s string) (Method, error) {
	if !reMethod.MatchString(s) {
		return emptyMethod, errors.Errorf("METHOD must consist of alphabets: %s", s)
	}
	return Method(strings.ToUpper(s)), nil
}

func guessMethod(in *Input) Method {
	if in.Body.BodyType == EmptyBody {
		return Method("GET")
	}
	return Method("POST")
}

func parseURL(s string) (*url.URL, error) {
	defaultScheme := "http"
	defaultHost := "localhost"

	// ex) :8080/hello or /hello
	if strings.HasPrefix(s, ":") || strings.HasPrefix(s, "/") {
		s = defaultHost + s
	}

	// ex) example.com/hello
	if !reScheme.MatchString(s) {
		s = defaultScheme + "://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, newUsageError("Invalid URL: " + s)
	}
	u.Host = strings.TrimSuffix(u.Host, ":")
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}

func parseItem(s string, stdin io.Reader, state *state, in *Input) error {
	it, err := parseItemToken(s)
	if err != nil {
		return err
	}

	switch it.kind {
	case httpHeaderItem:
		if !isValidHeaderFieldName(it.name) {
			return newParseError(s, "invalid header field name")
		}
		field, err := parseField(it.name, it.value, stdin, state)
		if err != nil {
			return err
		}
		setHeaderField(in, HeaderField{Name: field.Name, Value: field.Value, IsFile: field.IsFile})
	case httpHeaderUnsetItem:
		if !isValidHeaderFieldName(it.name) {
			return newParseError(s, "invalid header field name")
		}
		setHeaderField(in, HeaderField{Name: it.name, Unset: true})
	case httpHeaderEmptyItem:
		if !isValidHeaderFieldName(it.name) {
			return newParseError(s, "invalid header field name")
		}
		setHeaderField(in, HeaderField{Name: it.name, Value: ""})
	case urlParameterItem:
		field, err := parseField(it.name, it.value, stdin, state)
		if err != nil {
			return err
		}
		in.Parameters = append(in.Parameters, field)
	case dataFieldItem, dataFieldFromFileItem:
		bodyField, err := parseBodyField(it, stdin, state)
		if err != nil {
			return err
		}
		if err := enterDataMode(state, in, state.preferredBodyType, "request item (key=value)"); err != nil {
			return err
		}
		in.Body.Fields = append(in.Body.Fields, bodyField)
	case rawJSONFieldItem, rawJSONFromFileItem:
		if state.preferredBodyType != JSONBody {
			return newModeConflictError("raw JSON field item cannot be used in non-JSON body")
		}
		bodyField, err := parseBodyField(it, stdin, state)
		if err != nil {
			return err
		}
		bodyField.RawJSON = true
		if err := enterDataMode(state, in, JSONBody, "request item (key=value)"); err != nil {
			return err
		}
		in.Body.Fields = append(in.Body.Fields, bodyField)
	case formFileFieldItem:
		if state.preferredBodyType != FormBody {
			if state.explicitBodyType {
				return newModeConflictError("form file field item cannot be used in non-form body (perhaps you meant --form?)")
			}
			if hasRawJSONField(in) {
				// A raw JSON field already locked the request into JSON mode.
				return newModeConflictError("form file field item cannot be used in JSON body")
			}
			// A file upload flips an implicitly-JSON request into form mode.
			state.preferredBodyType = FormBody
		}
		field, err := parseUploadField(it, stdin, state)
		if err != nil {
			return err
		}
		if err := enterDataMode(state, in, FormBody, "file upload (key@path)"); err != nil {
			return err
		}
		in.Body.Files = append(in.Body.Files, field)
	case rawBodyFromFileItem:
		if in.Body.BodyType != EmptyBody {
			return newExclusivityError("request body (from file) and request item (key=value) cannot be mixed")
		}
		if state.stdinPending && !state.stdinConsumed {
			return newExclusivityError("request body (from stdin) and request body (from file) cannot be mixed")
		}
		if err := statFile(it.value); err != nil {
			return err
		}
		in.Body.BodyType = RawBody
		in.Body.Raw = NewFileSource(it.value)
	default:
		return newParseError(s, "unknown request item")
	}
	return nil
}

// enterDataMode moves the body into target mode, rejecting combinations with
// an already-claimed raw body source. Errors point at the offending token
// and name its kind.
func enterDataMode(state *state, in *Input, target BodyType, itemKind string) error {
	if state.stdinPending && !state.stdinConsumed {
		return newExclusivityError("request body (from stdin) and " + itemKind + " cannot be mixed")
	}
	if in.Body.BodyType == RawBody {
		return newExclusivityError("request body (from file) and " + itemKind + " cannot be mixed")
	}
	in.Body.BodyType = target
	return nil
}

func hasRawJSONField(in *Input) bool {
	for _, field := range in.Body.Fields {
		if field.RawJSON {
			return true
		}
	}
	return false
}

func setHeaderField(in *Input, field HeaderField) {
	// Later occurrences overwrite in place so that header order reflects
	// first insertion.
	for i := range in.Header.Fields {
		if strings.EqualFold(in.Header.Fields[i].Name, field.Name) {
			in.Header.Fields[i] = field
			return
		}
	}
	in.Header.Fields = append(in.Header.Fields, field)
}

func isValidHeaderFieldName(s string) bool {
	return reHeaderFieldName.MatchString(s)
}

// parseField resolves a header or parameter value. A value of "@path" reads
// the named file at encode time; "@-" consumes stdin immediately.
func parseField(name, rawValue string, stdin io.Reader, state *state) (Field, error) {
	if strings.HasPrefix(rawValue, "@") {
		path := unescapeValue(rawValue[1:])
		return fileOrStdinField(name, path, stdin, state)
	}
	return Field{Name: name, Value: unescapeValue(rawValue)}, nil
}

func parseBodyField(it item, stdin io.Reader, state *state) (BodyField, error) {
	if it.kind == dataFieldFromFileItem || it.kind == rawJSONFromFileItem {
		field, err := fileOrStdinField(it.name, it.value, stdin, state)
		if err != nil {
			return BodyField{}, err
		}
		return BodyField{Name: field.Name, Value: field.Value, IsFile: field.IsFile}, nil
	}
	return BodyField{Name: it.name, Value: unescapeValue(it.value)}, nil
}

func parseUploadField(it item, stdin io.Reader, state *state) (Field, error) {
	return fileOrStdinField(it.name, it.value, stdin, state)
}

func fileOrStdinField(name, path string, stdin io.Reader, state *state) (Field, error) {
	if path == "-" {
		b, err := ioutil.ReadAll(stdin)
		if err != nil {
			return Field{}, errors.Wrapf(err, "reading stdin for '%s'", name)
		}
		state.stdinConsumed = true
		return Field{Name: name, Value: string(b)}, nil
	}
	if err := statFile(path); err != nil {
		return Field{}, err
	}
	return Field{Name: name, Value: path, IsFile: true}, nil
}

func statFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.WithStack(&FileNotFoundError{Path: path, Err: err})
	}
	return nil
}
