package exchange

import (
	"net/http"
	"time"
)

type Options struct {
	Timeout         time.Duration
	FollowRedirects bool
	Auth            AuthOptions
	SkipVerify      bool
	ForceHTTP1      bool

	// PathAsIs leaves "." and ".." segments of the request path untouched.
	PathAsIs bool
	// Offline assembles and renders the request without sending it.
	Offline bool

	// Transport overrides the default transport. Used by tests.
	Transport http.RoundTripper
}

type AuthOptions struct {
	Enabled  bool
	UserName string
	Password string
}
