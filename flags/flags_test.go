package flags

import (
	"reflect"
	"testing"
	"time"

	"github.com/adamlesniak/httpie/exchange"
	"github.com/adamlesniak/httpie/input"
	"github.com/adamlesniak/httpie/output"
)

func TestParse(t *testing.T) {
	bothTerminal := terminalInfo{stdinIsTerminal: true, stdoutIsTerminal: true}

	testCases := []struct {
		title         string
		args          []string
		terminal      terminalInfo
		expectedArgs  []string
		expectedSet   *OptionSet
		shouldBeError bool
	}{
		{
			title:        "Defaults on a terminal",
			args:         []string{"example.com"},
			terminal:     bothTerminal,
			expectedArgs: []string{"example.com"},
			expectedSet: &OptionSet{
				ExchangeOptions: exchange.Options{
					Timeout: 30 * time.Second,
				},
				OutputOptions: output.Options{
					PrintResponseHeader: true,
					PrintResponseBody:   true,
					EnableColor:         true,
					EnableFormat:        true,
				},
			},
		},
		{
			title:        "Redirected stdin enables reading the body from stdin",
			args:         []string{"example.com"},
			terminal:     terminalInfo{stdinIsTerminal: false, stdoutIsTerminal: true},
			expectedArgs: []string{"example.com"},
			expectedSet: &OptionSet{
				InputOptions: input.Options{
					ReadStdin: true,
				},
				ExchangeOptions: exchange.Options{
					Timeout: 30 * time.Second,
				},
				OutputOptions: output.Options{
					PrintResponseHeader: true,
					PrintResponseBody:   true,
					EnableColor:         true,
					EnableFormat:        true,
				},
			},
		},
		{
			title:        "Ignore stdin",
			args:         []string{"--ignore-stdin", "example.com"},
			terminal:     terminalInfo{stdinIsTerminal: false, stdoutIsTerminal: true},
			expectedArgs: []string{"example.com"},
			expectedSet: &OptionSet{
				ExchangeOptions: exchange.Options{
					Timeout: 30 * time.Second,
				},
				OutputOptions: output.Options{
					PrintResponseHeader: true,
					PrintResponseBody:   true,
					EnableColor:         true,
					EnableFormat:        true,
				},
			},
		},
		{
			title:        "Piped stdout prints only the response body",
			args:         []string{"example.com"},
			terminal:     terminalInfo{stdinIsTerminal: true, stdoutIsTerminal: false},
			expectedArgs: []string{"example.com"},
			expectedSet: &OptionSet{
				ExchangeOptions: exchange.Options{
					Timeout: 30 * time.Second,
				},
				OutputOptions: output.Options{
					PrintResponseBody: true,
				},
			},
		},
		{
			title:        "Body mode and transport flags",
			args:         []string{"--form", "--offline", "--path-as-is", "--follow", "--http1", "example.com"},
			terminal:     bothTerminal,
			expectedArgs: []string{"example.com"},
			expectedSet: &OptionSet{
				InputOptions: input.Options{
					Form: true,
				},
				ExchangeOptions: exchange.Options{
					Timeout:         30 * time.Second,
					FollowRedirects: true,
					ForceHTTP1:      true,
					PathAsIs:        true,
					Offline:         true,
				},
				OutputOptions: output.Options{
					PrintResponseHeader: true,
					PrintResponseBody:   true,
					EnableColor:         true,
					EnableFormat:        true,
				},
			},
		},
		{
			title:        "Multipart flag",
			args:         []string{"--multipart", "example.com"},
			terminal:     bothTerminal,
			expectedArgs: []string{"example.com"},
			expectedSet: &OptionSet{
				InputOptions: input.Options{
					Multipart: true,
				},
				ExchangeOptions: exchange.Options{
					Timeout: 30 * time.Second,
				},
				OutputOptions: output.Options{
					PrintResponseHeader: true,
					PrintResponseBody:   true,
					EnableColor:         true,
					EnableFormat:        true,
				},
			},
		},
		{
			title:        "Explicit print selection",
			args:         []string{"--print", "Hb", "example.com"},
			terminal:     bothTerminal,
			expectedArgs: []string{"example.com"},
			expectedSet: &OptionSet{
				ExchangeOptions: exchange.Options{
					Timeout: 30 * time.Second,
				},
				OutputOptions: output.Options{
					PrintRequestHeader: true,
					PrintResponseBody:  true,
					EnableColor:        true,
					EnableFormat:       true,
				},
			},
		},
		{
			title:        "Verbose prints everything",
			args:         []string{"--verbose", "example.com"},
			terminal:     bothTerminal,
			expectedArgs: []string{"example.com"},
			expectedSet: &OptionSet{
				ExchangeOptions: exchange.Options{
					Timeout: 30 * time.Second,
				},
				OutputOptions: output.Options{
					PrintRequestHeader:  true,
					PrintRequestBody:    true,
					PrintResponseHeader: true,
					PrintResponseBody:   true,
					EnableColor:         true,
					EnableFormat:        true,
				},
			},
		},
		{
			title:        "Auth with inline password",
			args:         []string{"--auth", "alice:secret", "example.com"},
			terminal:     bothTerminal,
			expectedArgs: []string{"example.com"},
			expectedSet: &OptionSet{
				ExchangeOptions: exchange.Options{
					Timeout: 30 * time.Second,
					Auth: exchange.AuthOptions{
						Enabled:  true,
						UserName: "alice",
						Password: "secret",
					},
				},
				OutputOptions: output.Options{
					PrintResponseHeader: true,
					PrintResponseBody:   true,
					EnableColor:         true,
					EnableFormat:        true,
				},
			},
		},
		{
			title:        "Skip TLS verification",
			args:         []string{"--verify", "no", "example.com"},
			terminal:     bothTerminal,
			expectedArgs: []string{"example.com"},
			expectedSet: &OptionSet{
				ExchangeOptions: exchange.Options{
					Timeout:    30 * time.Second,
					SkipVerify: true,
				},
				OutputOptions: output.Options{
					PrintResponseHeader: true,
					PrintResponseBody:   true,
					EnableColor:         true,
					EnableFormat:        true,
				},
			},
		},
		{
			title:        "Numeric timeout is in seconds",
			args:         []string{"--timeout", "2.5", "example.com"},
			terminal:     bothTerminal,
			expectedArgs: []string{"example.com"},
			expectedSet: &OptionSet{
				ExchangeOptions: exchange.Options{
					Timeout: 2500 * time.Millisecond,
				},
				OutputOptions: output.Options{
					PrintResponseHeader: true,
					PrintResponseBody:   true,
					EnableColor:         true,
					EnableFormat:        true,
				},
			},
		},
		{
			title:        "Download options",
			args:         []string{"--download", "--output", "out.bin", "--overwrite", "example.com"},
			terminal:     bothTerminal,
			expectedArgs: []string{"example.com"},
			expectedSet: &OptionSet{
				ExchangeOptions: exchange.Options{
					Timeout: 30 * time.Second,
				},
				OutputOptions: output.Options{
					PrintResponseHeader: true,
					PrintResponseBody:   true,
					EnableColor:         true,
					EnableFormat:        true,
					Download:            true,
					OutputFile:          "out.bin",
					Overwrite:           true,
				},
			},
		},
		{
			title:        "Version flag",
			args:         []string{"--version"},
			terminal:     bothTerminal,
			expectedArgs: []string{},
			expectedSet: &OptionSet{
				ExchangeOptions: exchange.Options{
					Timeout: 30 * time.Second,
				},
				OutputOptions: output.Options{
					PrintResponseHeader: true,
					PrintResponseBody:   true,
					EnableColor:         true,
					EnableFormat:        true,
				},
				PrintVersion: true,
			},
		},
		{
			title:         "Invalid print value",
			args:          []string{"--print", "Hx", "example.com"},
			terminal:      bothTerminal,
			shouldBeError: true,
		},
		{
			title:         "Invalid verify value",
			args:          []string{"--verify", "maybe", "example.com"},
			terminal:      bothTerminal,
			shouldBeError: true,
		},
		{
			title:         "Invalid timeout value",
			args:          []string{"--timeout", "banana", "example.com"},
			terminal:      bothTerminal,
			shouldBeError: true,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			args, usage, optionSet, err := parse(tt.args, tt.terminal)
			if (err != nil) != tt.shouldBeError {
				t.Fatalf("unexpected error: shouldBeError=%v, err=%v", tt.shouldBeError, err)
			}
			if err != nil {
				return
			}
			if usage == nil {
				t.Fatalf("usage printer must not be nil")
			}
			if len(args) != len(tt.expectedArgs) {
				t.Errorf("unexpected args: expected=%v, actual=%v", tt.expectedArgs, args)
			} else {
				for i := range args {
					if args[i] != tt.expectedArgs[i] {
						t.Errorf("unexpected args: expected=%v, actual=%v", tt.expectedArgs, args)
						break
					}
				}
			}
			if !reflect.DeepEqual(optionSet, tt.expectedSet) {
				t.Errorf("unexpected option set: expected=%+v, actual=%+v", tt.expectedSet, optionSet)
			}
		})
	}
}

func TestParseDurationOrSeconds(t *testing.T) {
	testCases := []struct {
		input         string
		expected      time.Duration
		shouldBeError bool
	}{
		{input: "30", expected: 30 * time.Second},
		{input: "0.5", expected: 500 * time.Millisecond},
		{input: "30s", expected: 30 * time.Second},
		{input: "2m", expected: 2 * time.Minute},
		{input: "banana", shouldBeError: true},
	}
	for _, tt := range testCases {
		d, err := parseDurationOrSeconds(tt.input)
		if (err != nil) != tt.shouldBeError {
			t.Fatalf("unexpected error: input=%v, shouldBeError=%v, err=%v", tt.input, tt.shouldBeError, err)
		}
		if err != nil {
			continue
		}
		if d != tt.expected {
			t.Errorf("unexpected duration: input=%v, expected=%v, actual=%v", tt.input, tt.expected, d)
		}
	}
}
