package exchange

import (
	"net/http"
	"testing"
	"time"
)

func TestBuildHTTPClient(t *testing.T) {
	t.Run("redirects are not followed by default", func(t *testing.T) {
		client, err := BuildHTTPClient(&Options{Timeout: 30 * time.Second})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.CheckRedirect == nil {
			t.Errorf("CheckRedirect must be set when redirects are disabled")
		}
		if client.Timeout != 30*time.Second {
			t.Errorf("unexpected timeout: %v", client.Timeout)
		}
	})

	t.Run("follow enables the default redirect policy", func(t *testing.T) {
		client, err := BuildHTTPClient(&Options{FollowRedirects: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.CheckRedirect != nil {
			t.Errorf("CheckRedirect must be nil when redirects are enabled")
		}
	})

	t.Run("skip verify reaches the TLS config", func(t *testing.T) {
		client, err := BuildHTTPClient(&Options{SkipVerify: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		transport, ok := client.Transport.(*http.Transport)
		if !ok {
			t.Fatalf("unexpected transport type: %T", client.Transport)
		}
		if !transport.TLSClientConfig.InsecureSkipVerify {
			t.Errorf("InsecureSkipVerify must be set")
		}
	})

	t.Run("http1 disables the h2 upgrade", func(t *testing.T) {
		client, err := BuildHTTPClient(&Options{ForceHTTP1: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		transport, ok := client.Transport.(*http.Transport)
		if !ok {
			t.Fatalf("unexpected transport type: %T", client.Transport)
		}
		if transport.TLSNextProto == nil || len(transport.TLSNextProto) != 0 {
			t.Errorf("TLSNextProto must be an empty, non-nil map")
		}
		if len(transport.TLSClientConfig.NextProtos) == 0 {
			t.Errorf("NextProtos must pin HTTP/1")
		}
	})

	t.Run("custom transport is used as-is", func(t *testing.T) {
		custom := http.RoundTripper(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return nil, nil
		}))
		client, err := BuildHTTPClient(&Options{Transport: custom})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := client.Transport.(roundTripperFunc); !ok {
			t.Errorf("unexpected transport type: %T", client.Transport)
		}
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
