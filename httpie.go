package httpie

import (
	"bufio"
	"bytes"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"strconv"

	"github.com/adamlesniak/httpie/exchange"
	"github.com/adamlesniak/httpie/flags"
	"github.com/adamlesniak/httpie/input"
	"github.com/adamlesniak/httpie/output"
	"github.com/adamlesniak/httpie/version"
	"github.com/pkg/errors"
)

type Options struct {
	// Transport lets embedders and tests replace the network transport.
	Transport http.RoundTripper
}

func Main(options *Options) error {
	args, printUsage, optionSet, err := flags.Parse(os.Args[1:])
	if err != nil {
		return err
	}

	if optionSet.PrintVersion {
		fmt.Println(version.Current())
		return nil
	}
	if optionSet.PrintLicense {
		version.PrintLicenses(os.Stdout)
		return nil
	}
	if options != nil && options.Transport != nil {
		optionSet.ExchangeOptions.Transport = options.Transport
	}

	// Parse positional arguments
	in, err := input.ParseArgs(args, os.Stdin, &optionSet.InputOptions)
	if _, ok := errors.Cause(err).(*input.UsageError); ok {
		printUsage(os.Stderr)
		return err
	}
	if err != nil {
		return err
	}

	req, err := exchange.BuildHTTPRequest(in, &optionSet.ExchangeOptions)
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(os.Stdout)
	defer writer.Flush()
	printer := output.NewPrinter(writer, &optionSet.OutputOptions)

	if optionSet.ExchangeOptions.Offline {
		return printRequest(printer, req, true, true)
	}

	if optionSet.OutputOptions.PrintRequestHeader || optionSet.OutputOptions.PrintRequestBody {
		err := printRequest(printer, req,
			optionSet.OutputOptions.PrintRequestHeader,
			optionSet.OutputOptions.PrintRequestBody)
		if err != nil {
			return err
		}
		fmt.Fprintln(writer)
		writer.Flush()
	}

	resp, err := exchange.SendRequest(req, &optionSet.ExchangeOptions)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if optionSet.OutputOptions.Download {
		fileWriter := output.NewFileWriter(req.URL, &optionSet.OutputOptions)
		return fileWriter.Download(resp)
	}

	if optionSet.OutputOptions.PrintResponseHeader {
		if err := printer.PrintStatusLine(resp.Proto, resp.Status, resp.StatusCode); err != nil {
			return err
		}
		if err := printer.PrintHeader(resp.Header); err != nil {
			return err
		}
		writer.Flush()
	}
	if optionSet.OutputOptions.PrintResponseBody {
		if err := printer.PrintBody(resp.Body, resp.Header.Get("Content-Type")); err != nil {
			return err
		}
	}
	return nil
}

// printRequest renders the request the way it would go over the wire. The
// request stays sendable afterwards: buffered bodies are re-created through
// GetBody and streaming bodies are read into memory once.
func printRequest(printer output.Printer, request *http.Request, withHeader bool, withBody bool) error {
	if withHeader {
		if err := printer.PrintRequestLine(request); err != nil {
			return err
		}
		if err := printer.PrintHeader(requestHeaderForDisplay(request)); err != nil {
			return err
		}
	}
	if !withBody || request.Body == nil {
		return nil
	}

	contentType := request.Header.Get("Content-Type")
	if request.GetBody != nil {
		body, err := request.GetBody()
		if err != nil {
			return err
		}
		defer body.Close()
		return printer.PrintBody(body, contentType)
	}

	data, err := ioutil.ReadAll(request.Body)
	if err != nil {
		return errors.Wrap(err, "reading request body")
	}
	request.Body.Close()
	request.Body = ioutil.NopCloser(bytes.NewReader(data))
	return printer.PrintBody(bytes.NewReader(data), contentType)
}

// requestHeaderForDisplay adds the headers the transport fills in on its
// own, so the rendering matches what is sent.
func requestHeaderForDisplay(request *http.Request) http.Header {
	header := make(http.Header, len(request.Header))
	for name, values := range request.Header {
		header[name] = values
	}
	if header.Get("Host") == "" {
		host := request.Host
		if host == "" {
			host = request.URL.Host
		}
		header.Set("Host", host)
	}
	if header.Get("Content-Length") == "" && request.ContentLength > 0 {
		header.Set("Content-Length", strconv.FormatInt(request.ContentLength, 10))
	}
	return header
}
