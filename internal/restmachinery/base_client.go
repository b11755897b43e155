package restmachinery

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/pkg/errors"
)

// APIStatusError is returned when an endpoint responds with an unexpected
// HTTP status. The raw response body is retained so callers can inspect
// whatever the server had to say about the failure.
type APIStatusError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *APIStatusError) Error() string {
	return fmt.Sprintf("received %d from API server", e.StatusCode)
}

// BaseClient performs credentialed GET requests against the backend auth
// endpoints. Credentials ride along via the HTTP client's cookie jar, and
// the CSRF token found in the configured cookie (if any) is echoed back to
// the server in the configured header.
type BaseClient struct {
	HTTPClient     *http.Client
	CSRFCookieName string
	CSRFHeaderName string
}

// Get performs a GET request against the specified URL and returns the raw
// response body. A non-success status is surfaced as an *APIStatusError.
func (b *BaseClient) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := b.SubmitRequest(
		ctx,
		OutboundRequest{
			Method: http.MethodGet,
			URL:    url,
		},
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBodyBytes, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "error reading response body")
	}
	return respBodyBytes, nil
}

func (b *BaseClient) SubmitRequest(
	ctx context.Context,
	req OutboundRequest,
) (*http.Response, error) {
	r, err := http.NewRequest(req.Method, req.URL, nil)
	if err != nil {
		return nil, errors.Wrapf(
			err,
			"error creating request %s %s",
			req.Method,
			req.URL,
		)
	}
	r = r.WithContext(ctx)
	if len(req.QueryParams) > 0 {
		q := r.URL.Query()
		for k, v := range req.QueryParams {
			q.Set(k, v)
		}
		r.URL.RawQuery = q.Encode()
	}
	for k, v := range req.Headers {
		r.Header.Add(k, v)
	}
	if b.CSRFCookieName != "" &&
		b.CSRFHeaderName != "" &&
		b.HTTPClient.Jar != nil {
		for _, cookie := range b.HTTPClient.Jar.Cookies(r.URL) {
			if cookie.Name == b.CSRFCookieName {
				r.Header.Set(b.CSRFHeaderName, cookie.Value)
				break
			}
		}
	}

	resp, err := b.HTTPClient.Do(r)
	if err != nil {
		return nil, errors.Wrap(err, "error invoking API")
	}

	successCode := req.SuccessCode
	if successCode == 0 {
		successCode = http.StatusOK
	}
	if resp.StatusCode != successCode {
		defer resp.Body.Close()
		// The body, if it can be read at all, is retained verbatim. No attempt
		// is made to interpret it.
		bodyBytes, _ := ioutil.ReadAll(resp.Body)
		return nil, &APIStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       bodyBytes,
		}
	}
	return resp, nil
}
