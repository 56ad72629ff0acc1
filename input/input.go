package input

import (
	"io"
	"io/ioutil"
	"mime"
	"net/url"
	"os"
	"path/filepath"
)

type Input struct {
	Method     Method
	URL        *url.URL
	Parameters []Field
	Header     Header
	Body       Body
}

type Method string

type Header struct {
	Fields []HeaderField
}

// HeaderField is one header item from the command line.
// "Name:value" sets, "Name:" unsets (Unset=true), "Name;" sets an empty value.
type HeaderField struct {
	Name   string
	Value  string
	IsFile bool
	Unset  bool
}

type BodyType int

const (
	EmptyBody BodyType = iota
	JSONBody
	FormBody
	RawBody
)

type Body struct {
	BodyType  BodyType
	Fields    []BodyField // ordered as given on the command line
	Files     []Field     // form file uploads; multipart iff non-empty
	Multipart bool        // force multipart encoding even without files
	Raw       RawSource   // used only when BodyType == RawBody
}

// BodyField is one data item. RawJSON fields keep their value verbatim so
// that key order inside the value survives serialization.
type BodyField struct {
	Name    string
	Value   string
	IsFile  bool
	RawJSON bool
}

type Field struct {
	Name   string
	Value  string
	IsFile bool
}

// RawSource supplies a whole-request body. It is opened once, at encode
// time, and must be closed by the consumer.
type RawSource interface {
	Open() (io.ReadCloser, int64, error)
	ContentType() string
}

type readerSource struct {
	reader io.Reader
}

// NewReaderSource wraps an already-open stream (typically stdin) as a
// RawSource of unknown length.
func NewReaderSource(reader io.Reader) RawSource {
	return &readerSource{reader: reader}
}

func (s *readerSource) Open() (io.ReadCloser, int64, error) {
	return ioutil.NopCloser(s.reader), -1, nil
}

func (s *readerSource) ContentType() string {
	return ""
}

type fileSource struct {
	path string
}

// NewFileSource defers opening path until the body is encoded.
func NewFileSource(path string) RawSource {
	return &fileSource{path: path}
}

func (s *fileSource) Open() (io.ReadCloser, int64, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, 0, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, err
	}
	return file, info.Size(), nil
}

func (s *fileSource) ContentType() string {
	return mime.TypeByExtension(filepath.Ext(s.path))
}
