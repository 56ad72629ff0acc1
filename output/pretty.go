package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"mime"
	"net/http"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"
)

type PrettyPrinter struct {
	writer        io.Writer
	aurora        aurora.Aurora
	headerPalette *HeaderPalette
	jsonPalette   *JSONPalette
}

type PrettyPrinterConfig struct {
	Writer      io.Writer
	EnableColor bool
}

type HeaderPalette struct {
	Method              aurora.Color
	URL                 aurora.Color
	Proto               aurora.Color
	SuccessfulStatus    aurora.Color
	NonSuccessfulStatus aurora.Color
	FieldName           aurora.Color
	FieldValue          aurora.Color
	FieldSeparator      aurora.Color
}

var defaultHeaderPalette = HeaderPalette{
	Method:              aurora.WhiteFg | aurora.BoldFm,
	URL:                 aurora.GreenFg,
	Proto:               aurora.BlueFg,
	SuccessfulStatus:    aurora.GreenFg | aurora.BoldFm,
	NonSuccessfulStatus: aurora.BrownFg | aurora.BoldFm,
	FieldName:           aurora.WhiteFg,
	FieldValue:          aurora.CyanFg,
	FieldSeparator:      aurora.WhiteFg,
}

type JSONPalette struct {
	Key     aurora.Color
	String  aurora.Color
	Number  aurora.Color
	Boolean aurora.Color
	Null    aurora.Color
	Symbol  aurora.Color
}

var defaultJSONPalette = JSONPalette{
	Key:     aurora.BlueFg,
	String:  aurora.BrownFg,
	Number:  aurora.CyanFg,
	Boolean: aurora.MagentaFg | aurora.BoldFm,
	Null:    aurora.MagentaFg | aurora.BoldFm,
	Symbol:  aurora.WhiteFg,
}

const indentWidth = 4

func NewPrettyPrinter(config PrettyPrinterConfig) Printer {
	return &PrettyPrinter{
		writer:        config.Writer,
		aurora:        aurora.NewAurora(config.EnableColor),
		headerPalette: &defaultHeaderPalette,
		jsonPalette:   &defaultJSONPalette,
	}
}

func (p *PrettyPrinter) PrintStatusLine(proto string, status string, statusCode int) error {
	statusColor := p.headerPalette.NonSuccessfulStatus
	if 200 <= statusCode && statusCode < 300 {
		statusColor = p.headerPalette.SuccessfulStatus
	}
	fmt.Fprintf(p.writer, "%s %s\n",
		p.aurora.Colorize(proto, p.headerPalette.Proto),
		p.aurora.Colorize(status, statusColor))
	return nil
}

func (p *PrettyPrinter) PrintRequestLine(request *http.Request) error {
	fmt.Fprintf(p.writer, "%s %s %s\n",
		p.aurora.Colorize(request.Method, p.headerPalette.Method),
		p.aurora.Colorize(request.URL.RequestURI(), p.headerPalette.URL),
		p.aurora.Colorize(requestProto(request), p.headerPalette.Proto))
	return nil
}

func (p *PrettyPrinter) PrintHeader(header http.Header) error {
	for _, name := range sortedHeaderNames(header) {
		for _, value := range header[name] {
			fmt.Fprintf(p.writer, "%s%s %s\n",
				p.aurora.Colorize(name, p.headerPalette.FieldName),
				p.aurora.Colorize(":", p.headerPalette.FieldSeparator),
				p.aurora.Colorize(value, p.headerPalette.FieldValue))
		}
	}
	fmt.Fprintln(p.writer)
	return nil
}

func (p *PrettyPrinter) PrintBody(body io.Reader, contentType string) error {
	content, err := ioutil.ReadAll(body)
	if err != nil {
		return errors.Wrap(err, "reading body")
	}
	if !isJSON(contentType) {
		_, err := p.writer.Write(content)
		return err
	}

	var formatted bytes.Buffer
	if err := p.formatJSON(&formatted, content); err != nil {
		// Not actually JSON; print the payload untouched.
		_, err := p.writer.Write(content)
		return err
	}
	_, err = p.writer.Write(formatted.Bytes())
	return err
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	// Accept structured-syntax suffixes such as application/problem+json.
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// formatJSON re-indents a JSON document using a token walk, so key order is
// kept exactly as received.
func (p *PrettyPrinter) formatJSON(w *bytes.Buffer, content []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.UseNumber()
	if err := p.formatValue(decoder, w, 0); err != nil {
		return err
	}
	if decoder.More() {
		return errors.New("trailing data after JSON value")
	}
	w.WriteByte('\n')
	return nil
}

func (p *PrettyPrinter) formatValue(decoder *json.Decoder, w *bytes.Buffer, depth int) error {
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	return p.formatToken(decoder, w, token, depth)
}

func (p *PrettyPrinter) formatToken(decoder *json.Decoder, w *bytes.Buffer, token json.Token, depth int) error {
	switch t := token.(type) {
	case json.Delim:
		switch t {
		case '{':
			return p.formatObject(decoder, w, depth)
		case '[':
			return p.formatArray(decoder, w, depth)
		default:
			return errors.Errorf("unexpected token: %v", t)
		}
	case string:
		encoded, err := json.Marshal(t)
		if err != nil {
			return err
		}
		p.writeColored(w, string(encoded), p.jsonPalette.String)
	case json.Number:
		p.writeColored(w, t.String(), p.jsonPalette.Number)
	case bool:
		p.writeColored(w, fmt.Sprintf("%t", t), p.jsonPalette.Boolean)
	case nil:
		p.writeColored(w, "null", p.jsonPalette.Null)
	default:
		return errors.Errorf("unexpected token: %v", token)
	}
	return nil
}

func (p *PrettyPrinter) formatObject(decoder *json.Decoder, w *bytes.Buffer, depth int) error {
	if !decoder.More() {
		if _, err := decoder.Token(); err != nil { // consume '}'
			return err
		}
		p.writeColored(w, "{}", p.jsonPalette.Symbol)
		return nil
	}
	p.writeColored(w, "{", p.jsonPalette.Symbol)
	first := true
	for decoder.More() {
		if !first {
			p.writeColored(w, ",", p.jsonPalette.Symbol)
		}
		first = false
		w.WriteByte('\n')
		p.writeIndent(w, depth+1)

		keyToken, err := decoder.Token()
		if err != nil {
			return err
		}
		key, ok := keyToken.(string)
		if !ok {
			return errors.Errorf("unexpected object key: %v", keyToken)
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return err
		}
		p.writeColored(w, string(encodedKey), p.jsonPalette.Key)
		p.writeColored(w, ":", p.jsonPalette.Symbol)
		w.WriteByte(' ')
		if err := p.formatValue(decoder, w, depth+1); err != nil {
			return err
		}
	}
	if _, err := decoder.Token(); err != nil { // consume '}'
		return err
	}
	w.WriteByte('\n')
	p.writeIndent(w, depth)
	p.writeColored(w, "}", p.jsonPalette.Symbol)
	return nil
}

func (p *PrettyPrinter) formatArray(decoder *json.Decoder, w *bytes.Buffer, depth int) error {
	if !decoder.More() {
		if _, err := decoder.Token(); err != nil { // consume ']'
			return err
		}
		p.writeColored(w, "[]", p.jsonPalette.Symbol)
		return nil
	}
	p.writeColored(w, "[", p.jsonPalette.Symbol)
	first := true
	for decoder.More() {
		if !first {
			p.writeColored(w, ",", p.jsonPalette.Symbol)
		}
		first = false
		w.WriteByte('\n')
		p.writeIndent(w, depth+1)
		if err := p.formatValue(decoder, w, depth+1); err != nil {
			return err
		}
	}
	if _, err := decoder.Token(); err != nil { // consume ']'
		return err
	}
	w.WriteByte('\n')
	p.writeIndent(w, depth)
	p.writeColored(w, "]", p.jsonPalette.Symbol)
	return nil
}

func (p *PrettyPrinter) writeColored(w *bytes.Buffer, value string, color aurora.Color) {
	w.WriteString(p.aurora.Colorize(value, color).String())
}

func (p *PrettyPrinter) writeIndent(w *bytes.Buffer, depth int) {
	w.WriteString(strings.Repeat(" ", indentWidth*depth))
}
