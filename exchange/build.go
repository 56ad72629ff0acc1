package exchange

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/adamlesniak/httpie/input"
	"github.com/adamlesniak/httpie/version"
	"github.com/pkg/errors"
)

func BuildHTTPRequest(in *input.Input, options *Options) (*http.Request, error) {
	u, err := buildURL(in, options)
	if err != nil {
		return nil, err
	}

	header, unset, err := buildHTTPHeader(in)
	if err != nil {
		return nil, err
	}

	bodyTuple, err := buildHTTPBody(in)
	if err != nil {
		return nil, err
	}

	applyDefaultHeaders(header, unset, in, bodyTuple.contentType)

	if options.Auth.Enabled && header.Get("Authorization") == "" {
		credentials := options.Auth.UserName + ":" + options.Auth.Password
		header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(credentials)))
	}

	r := http.Request{
		Method:        string(in.Method),
		URL:           u,
		Header:        header,
		Host:          header.Get("Host"),
		Body:          bodyTuple.body,
		GetBody:       bodyTuple.getBody,
		ContentLength: bodyTuple.contentLength,
	}
	return &r, nil
}

// applyDefaultHeaders fills in the headers this client always sends, unless
// the user set them explicitly or unset them with a trailing-colon item.
func applyDefaultHeaders(header http.Header, unset map[string]bool, in *input.Input, contentType string) {
	defaults := []struct {
		name  string
		value string
	}{
		{"Content-Type", contentType},
		{"User-Agent", fmt.Sprintf("httpie-go/%s", version.Current())},
		{"Accept", defaultAccept(in)},
	}
	for _, d := range defaults {
		if d.value == "" {
			continue
		}
		if unset[textproto.CanonicalMIMEHeaderKey(d.name)] {
			continue
		}
		// Presence check, not Get: an explicitly empty header ("Accept;")
		// still overrides the default.
		if _, ok := header[textproto.CanonicalMIMEHeaderKey(d.name)]; !ok {
			header.Set(d.name, d.value)
		}
	}
}

func defaultAccept(in *input.Input) string {
	if in.Body.BodyType == input.JSONBody {
		return "application/json, */*;q=0.5"
	}
	return "*/*"
}

func buildURL(in *input.Input, options *Options) (*url.URL, error) {
	u := *in.URL
	if !options.PathAsIs {
		u.Path = normalizePath(u.Path)
		u.RawPath = ""
	}

	// Query parameters are appended in command-line order; anything already
	// present on the URL is preserved verbatim, never deduplicated.
	var query strings.Builder
	query.WriteString(u.RawQuery)
	for _, field := range in.Parameters {
		value, err := resolveValue(field.Value, field.IsFile)
		if err != nil {
			return nil, err
		}
		if query.Len() > 0 {
			query.WriteByte('&')
		}
		query.WriteString(url.QueryEscape(field.Name))
		query.WriteByte('=')
		query.WriteString(url.QueryEscape(value))
	}
	u.RawQuery = query.String()
	return &u, nil
}

// normalizePath collapses "." and ".." segments; ".." segments above the
// root are dropped rather than rejected. Idempotent.
func normalizePath(p string) string {
	if p == "" {
		return ""
	}
	trailingSlash := strings.HasSuffix(p, "/")
	cleaned := path.Clean(p)
	if trailingSlash && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

// buildHTTPHeader folds header items into an http.Header. Later items with
// the same name have already overwritten earlier ones during parsing, so
// each name appears at most once. The returned set records names the user
// explicitly unset so that defaults can be suppressed as well.
func buildHTTPHeader(in *input.Input) (http.Header, map[string]bool, error) {
	header := make(http.Header)
	unset := make(map[string]bool)
	for _, field := range in.Header.Fields {
		if field.Unset {
			unset[textproto.CanonicalMIMEHeaderKey(field.Name)] = true
			continue
		}
		value, err := resolveValue(field.Value, field.IsFile)
		if err != nil {
			return nil, nil, err
		}
		header.Set(field.Name, value)
	}
	return header, unset, nil
}

type bodyTuple struct {
	body          io.ReadCloser
	contentLength int64
	contentType   string
	getBody       func() (io.ReadCloser, error)
}

func bufferedBodyTuple(body []byte, contentType string) bodyTuple {
	return bodyTuple{
		body:          ioutil.NopCloser(bytes.NewReader(body)),
		contentLength: int64(len(body)),
		contentType:   contentType,
		getBody: func() (io.ReadCloser, error) {
			return ioutil.NopCloser(bytes.NewReader(body)), nil
		},
	}
}

func buildHTTPBody(in *input.Input) (bodyTuple, error) {
	switch in.Body.BodyType {
	case input.EmptyBody:
		return bodyTuple{}, nil
	case input.JSONBody:
		return buildJSONBody(in)
	case input.FormBody:
		if len(in.Body.Files) > 0 || in.Body.Multipart {
			return buildMultipartBody(in)
		}
		return buildFormBody(in)
	case input.RawBody:
		return buildRawBody(in)
	default:
		return bodyTuple{}, errors.Errorf("unknown body type: %v", in.Body.BodyType)
	}
}

// buildJSONBody serializes fields in insertion order. Go maps cannot keep
// key order, so the object is assembled by hand; raw JSON values go through
// json.Compact, which preserves their internal order too.
func buildJSONBody(in *input.Input) (bodyTuple, error) {
	fields := foldBodyFields(in.Body.Fields)
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		name, err := json.Marshal(field.Name)
		if err != nil {
			return bodyTuple{}, errors.Wrapf(err, "marshaling field name '%s'", field.Name)
		}
		buf.Write(name)
		buf.WriteString(": ")

		value, err := resolveValue(field.Value, field.IsFile)
		if err != nil {
			return bodyTuple{}, err
		}
		if field.RawJSON {
			var compacted bytes.Buffer
			if err := json.Compact(&compacted, []byte(value)); err != nil {
				return bodyTuple{}, errors.WithStack(&input.JSONValueError{Token: field.Name, Err: err})
			}
			buf.Write(compacted.Bytes())
		} else {
			encoded, err := json.Marshal(value)
			if err != nil {
				return bodyTuple{}, errors.Wrapf(err, "marshaling value of '%s'", field.Name)
			}
			buf.Write(encoded)
		}
	}
	buf.WriteByte('}')
	return bufferedBodyTuple(buf.Bytes(), "application/json"), nil
}

// foldBodyFields keeps the last value of each repeated name at the position
// of its first occurrence.
func foldBodyFields(fields []input.BodyField) []input.BodyField {
	var folded []input.BodyField
	position := make(map[string]int)
	for _, field := range fields {
		if i, ok := position[field.Name]; ok {
			folded[i] = field
			continue
		}
		position[field.Name] = len(folded)
		folded = append(folded, field)
	}
	return folded
}

// buildFormBody URL-encodes fields in command-line order, repeats preserved.
func buildFormBody(in *input.Input) (bodyTuple, error) {
	var body strings.Builder
	for i, field := range in.Body.Fields {
		value, err := resolveValue(field.Value, field.IsFile)
		if err != nil {
			return bodyTuple{}, err
		}
		if i > 0 {
			body.WriteByte('&')
		}
		body.WriteString(url.QueryEscape(field.Name))
		body.WriteByte('=')
		body.WriteString(url.QueryEscape(value))
	}
	return bufferedBodyTuple([]byte(body.String()), "application/x-www-form-urlencoded; charset=utf-8"), nil
}

func buildMultipartBody(in *input.Input) (bodyTuple, error) {
	var buf bytes.Buffer
	multipartWriter := multipart.NewWriter(&buf)
	for _, field := range in.Body.Fields {
		value, err := resolveValue(field.Value, field.IsFile)
		if err != nil {
			return bodyTuple{}, err
		}
		if err := writeMultipartField(multipartWriter, field.Name, value); err != nil {
			return bodyTuple{}, err
		}
	}
	for _, file := range in.Body.Files {
		if err := writeMultipartFile(multipartWriter, file); err != nil {
			return bodyTuple{}, err
		}
	}
	if err := multipartWriter.Close(); err != nil {
		return bodyTuple{}, errors.Wrap(err, "closing multipart writer")
	}
	return bufferedBodyTuple(buf.Bytes(), multipartWriter.FormDataContentType()), nil
}

func writeMultipartField(w *multipart.Writer, name, value string) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", contentDisposition(name, ""))
	part, err := w.CreatePart(header)
	if err != nil {
		return errors.Wrapf(err, "creating multipart field '%s'", name)
	}
	if _, err := part.Write([]byte(value)); err != nil {
		return errors.Wrapf(err, "writing multipart field '%s'", name)
	}
	return nil
}

// writeMultipartFile streams one file into its part. A file field whose
// content was already read from stdin (IsFile is false) becomes a part
// without a filename.
func writeMultipartFile(w *multipart.Writer, file input.Field) error {
	if !file.IsFile {
		return writeMultipartField(w, file.Name, file.Value)
	}

	fileName := filepath.Base(file.Value)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", contentDisposition(file.Name, fileName))
	header.Set("Content-Type", contentTypeByExtension(fileName))
	part, err := w.CreatePart(header)
	if err != nil {
		return errors.Wrapf(err, "creating multipart file part '%s'", file.Name)
	}

	f, err := os.Open(file.Value)
	if err != nil {
		return errors.WithStack(&input.FileNotFoundError{Path: file.Value, Err: err})
	}
	defer f.Close()
	if _, err := io.Copy(part, f); err != nil {
		return errors.Wrapf(err, "reading file of '%s'", file.Name)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, `\"`)

func contentDisposition(name, fileName string) string {
	if fileName == "" {
		return fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(name))
	}
	return fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(name), quoteEscaper.Replace(fileName))
}

func contentTypeByExtension(fileName string) string {
	if contentType := mime.TypeByExtension(filepath.Ext(fileName)); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

// buildRawBody passes the raw source through without buffering. No content
// type is inferred for stream sources; file sources report one derived from
// their extension.
func buildRawBody(in *input.Input) (bodyTuple, error) {
	body, contentLength, err := in.Body.Raw.Open()
	if err != nil {
		return bodyTuple{}, errors.Wrap(err, "opening request body source")
	}
	if contentLength < 0 {
		contentLength = 0 // unknown; the transport falls back to chunked
	}
	return bodyTuple{
		body:          body,
		contentLength: contentLength,
		contentType:   in.Body.Raw.ContentType(),
	}, nil
}

func resolveValue(value string, isFile bool) (string, error) {
	if !isFile {
		return value, nil
	}
	data, err := ioutil.ReadFile(value)
	if err != nil {
		return "", errors.WithStack(&input.FileNotFoundError{Path: value, Err: err})
	}
	return string(data), nil
}
