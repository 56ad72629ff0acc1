package output

import (
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/pkg/errors"
)

type PlainPrinter struct {
	writer io.Writer
}

func NewPlainPrinter(writer io.Writer) Printer {
	return &PlainPrinter{writer: writer}
}

func (p *PlainPrinter) PrintStatusLine(proto string, status string, statusCode int) error {
	fmt.Fprintf(p.writer, "%s %s\n", proto, status)
	return nil
}

func (p *PlainPrinter) PrintRequestLine(request *http.Request) error {
	fmt.Fprintf(p.writer, "%s %s %s\n", request.Method, request.URL.RequestURI(), requestProto(request))
	return nil
}

func (p *PlainPrinter) PrintHeader(header http.Header) error {
	for _, name := range sortedHeaderNames(header) {
		for _, value := range header[name] {
			fmt.Fprintf(p.writer, "%s: %s\n", name, value)
		}
	}
	fmt.Fprintln(p.writer)
	return nil
}

func (p *PlainPrinter) PrintBody(body io.Reader, contentType string) error {
	if _, err := io.Copy(p.writer, body); err != nil {
		return errors.Wrap(err, "printing body")
	}
	return nil
}

func requestProto(request *http.Request) string {
	if request.Proto != "" {
		return request.Proto
	}
	return "HTTP/1.1"
}

func sortedHeaderNames(header http.Header) []string {
	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
