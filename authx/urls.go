package authx

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/tidemark/authclient/meta"
)

// returnURLParam is the query string parameter the login page uses to send
// the user back where they came from after authenticating.
const returnURLParam = "return_url"

// resolveLoginURL appends a return_url parameter equal to currentURL to the
// login URL unless one is already present, in which case the URL is
// preserved untouched. currentURL may be empty, in which case there is
// nothing to append.
func resolveLoginURL(loginURL, currentURL string) (string, error) {
	u, err := url.Parse(loginURL)
	if err != nil {
		return "", meta.NewErrInvalidLoginURL(
			fmt.Sprintf("cannot parse login URL %q", loginURL),
		)
	}
	q := u.Query()
	if q.Get(returnURLParam) != "" || currentURL == "" {
		return loginURL, nil
	}
	q.Set(returnURLParam, currentURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// validateEndpointURL enforces that raw is an absolute http(s) URL. The
// session and token endpoints are fetched by this process, so a relative
// path has nothing to be resolved against.
func validateEndpointURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Errorf("cannot parse URL %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("URL %q is not an absolute http(s) URL", raw)
	}
	return nil
}

// validateNavigationURL enforces that raw is either an absolute http(s) URL
// or a rooted path. Navigation URLs are interpreted by the host environment,
// which can resolve a rooted path against its own origin.
func validateNavigationURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Errorf("cannot parse URL %q", raw)
	}
	if u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.Errorf("URL %q is not an http(s) URL", raw)
		}
		return nil
	}
	if !strings.HasPrefix(raw, "/") {
		return errors.Errorf("URL %q is neither absolute nor rooted", raw)
	}
	return nil
}
