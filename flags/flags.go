package flags

import (
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/adamlesniak/httpie/exchange"
	"github.com/adamlesniak/httpie/input"
	"github.com/adamlesniak/httpie/output"
	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt"
	"github.com/pkg/errors"
)

var reNumber = regexp.MustCompile(`^[0-9.]+$`)

type OptionSet struct {
	InputOptions    input.Options
	ExchangeOptions exchange.Options
	OutputOptions   output.Options

	PrintVersion bool
	PrintLicense bool
}

type terminalInfo struct {
	stdinIsTerminal  bool
	stdoutIsTerminal bool
}

// Parse parses command-line flags (without the program name) and returns the
// remaining positional arguments, a usage printer, and the option set.
func Parse(args []string) ([]string, func(io.Writer), *OptionSet, error) {
	return parse(args, terminalInfo{
		stdinIsTerminal:  isatty.IsTerminal(os.Stdin.Fd()),
		stdoutIsTerminal: isatty.IsTerminal(os.Stdout.Fd()),
	})
}

func parse(args []string, terminal terminalInfo) ([]string, func(io.Writer), *OptionSet, error) {
	inputOptions := input.Options{}
	exchangeOptions := exchange.Options{}
	outputOptions := output.Options{}
	var ignoreStdin bool
	var authFlag string
	var verboseFlag bool
	var printVersion bool
	var printLicense bool
	verifyFlag := "yes"
	printFlag := "\000" // "\000" is a special value that indicates user did not specify --print
	timeout := "30s"

	flagSet := getopt.New()
	flagSet.SetParameters("[METHOD] URL [REQUEST_ITEM [REQUEST_ITEM ...]]")
	flagSet.BoolVarLong(&inputOptions.JSON, "json", 'j', "data items are serialized as a JSON object (default)")
	flagSet.BoolVarLong(&inputOptions.Form, "form", 'f', "serialize body in application/x-www-form-urlencoded")
	flagSet.BoolVarLong(&inputOptions.Multipart, "multipart", 0, "serialize body in multipart/form-data even without files")
	flagSet.BoolVarLong(&ignoreStdin, "ignore-stdin", 0, "do not attempt to read stdin")
	flagSet.BoolVarLong(&exchangeOptions.Offline, "offline", 0, "build and print the request but do not send it")
	flagSet.BoolVarLong(&exchangeOptions.PathAsIs, "path-as-is", 0, "bypass dot segment (/../ or /./) URL squashing")
	flagSet.BoolVarLong(&exchangeOptions.FollowRedirects, "follow", 'F', "follow 30x Location redirects")
	flagSet.BoolVarLong(&exchangeOptions.ForceHTTP1, "http1", 0, "force HTTP/1.1 protocol")
	flagSet.StringVarLong(&authFlag, "auth", 'a', "username:password pair; prompts for the password when omitted")
	flagSet.StringVarLong(&verifyFlag, "verify", 0, "verify the server's TLS certificate (yes|no)")
	flagSet.StringVarLong(&printFlag, "print", 'p', "specifies what the output should contain (HBhb)")
	flagSet.BoolVarLong(&verboseFlag, "verbose", 'v', "print the whole request as well as the response")
	flagSet.StringVarLong(&timeout, "timeout", 0, "timeout seconds that you allow the whole operation to take")
	flagSet.BoolVarLong(&outputOptions.Download, "download", 'd', "save the response body to a file instead of printing it")
	flagSet.StringVarLong(&outputOptions.OutputFile, "output", 'o', "save output to FILE instead of stdout")
	flagSet.BoolVarLong(&outputOptions.Overwrite, "overwrite", 0, "overwrite existing files when downloading")
	flagSet.BoolVarLong(&printVersion, "version", 0, "print version and exit")
	flagSet.BoolVarLong(&printLicense, "license", 0, "print license information and exit")
	flagSet.Parse(append([]string{"ht"}, args...))

	// Check stdin
	if !ignoreStdin && !terminal.stdinIsTerminal {
		inputOptions.ReadStdin = true
	}

	// Parse --print
	if err := parsePrintFlag(printFlag, verboseFlag, terminal, &outputOptions); err != nil {
		return nil, nil, nil, err
	}

	// Parse --timeout
	d, err := parseDurationOrSeconds(timeout)
	if err != nil {
		return nil, nil, nil, err
	}
	exchangeOptions.Timeout = d

	// Parse --auth
	if authFlag != "" {
		auth, err := parseAuth(authFlag)
		if err != nil {
			return nil, nil, nil, err
		}
		exchangeOptions.Auth = auth
	}

	// Parse --verify
	switch strings.ToLower(verifyFlag) {
	case "yes":
		// default
	case "no":
		exchangeOptions.SkipVerify = true
	default:
		return nil, nil, nil, errors.Errorf("Value of --verify must be 'yes' or 'no': %s", verifyFlag)
	}

	// Color
	outputOptions.EnableColor = terminal.stdoutIsTerminal
	outputOptions.EnableFormat = terminal.stdoutIsTerminal

	optionSet := &OptionSet{
		InputOptions:    inputOptions,
		ExchangeOptions: exchangeOptions,
		OutputOptions:   outputOptions,
		PrintVersion:    printVersion,
		PrintLicense:    printLicense,
	}
	usage := func(w io.Writer) {
		flagSet.PrintUsage(w)
	}
	return flagSet.Args(), usage, optionSet, nil
}

func parsePrintFlag(printFlag string, verbose bool, terminal terminalInfo, outputOptions *output.Options) error {
	if printFlag == "\000" {
		// --print is not specified
		if verbose {
			outputOptions.PrintRequestHeader = true
			outputOptions.PrintRequestBody = true
			outputOptions.PrintResponseHeader = true
			outputOptions.PrintResponseBody = true
		} else if terminal.stdoutIsTerminal {
			outputOptions.PrintResponseHeader = true
			outputOptions.PrintResponseBody = true
		} else {
			outputOptions.PrintResponseBody = true
		}
		return nil
	}
	for _, c := range printFlag {
		switch c {
		case 'H':
			outputOptions.PrintRequestHeader = true
		case 'B':
			outputOptions.PrintRequestBody = true
		case 'h':
			outputOptions.PrintResponseHeader = true
		case 'b':
			outputOptions.PrintResponseBody = true
		default:
			return errors.Errorf("Invalid char in --print value (must be consist of HBhb): %c", c)
		}
	}
	return nil
}

func parseAuth(authFlag string) (exchange.AuthOptions, error) {
	auth := exchange.AuthOptions{Enabled: true}
	if i := strings.IndexByte(authFlag, ':'); i >= 0 {
		auth.UserName = authFlag[:i]
		auth.Password = authFlag[i+1:]
		return auth, nil
	}
	auth.UserName = authFlag
	password, err := askPassword()
	if err != nil {
		return exchange.AuthOptions{}, err
	}
	auth.Password = password
	return auth, nil
}

func parseDurationOrSeconds(timeout string) (time.Duration, error) {
	if reNumber.MatchString(timeout) {
		timeout += "s"
	}
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return time.Duration(0), errors.Errorf("Value of --timeout must be a number or duration string: %v", timeout)
	}
	return d, nil
}
