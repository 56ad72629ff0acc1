package exchange

import (
	"net/http"

	"github.com/pkg/errors"
)

func SendRequest(request *http.Request, options *Options) (*http.Response, error) {
	client, err := BuildHTTPClient(options)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(request)
	if err != nil {
		return nil, errors.Wrap(err, "sending HTTP request")
	}

	return resp, nil
}
