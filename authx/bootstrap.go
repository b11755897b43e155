package authx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	"github.com/tidemark/authclient/internal/restmachinery"
	"github.com/tidemark/authclient/internal/retries"
	"github.com/tidemark/authclient/meta"
)

const (
	maxFetchAttempts = 3
	retryDelay       = 100 * time.Millisecond
)

// SessionResponse is the payload returned by the session endpoint.
type SessionResponse struct {
	UserID   string                 `json:"userId"`
	TenantID string                 `json:"tenantId"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

var sessionResponseSchemaLoader = gojsonschema.NewStringLoader(`
	{
		"$schema": "http://json-schema.org/draft-04/schema#",
		"type": "object",
		"required": ["userId", "tenantId"],
		"properties": {
			"userId": {
				"type": "string",
				"minLength": 1
			},
			"tenantId": {
				"type": "string",
				"minLength": 1
			},
			"metadata": {
				"type": "object"
			}
		}
	}`,
)

// Bootstrap drives the one-time transition from LOADING to a terminal auth
// status by querying the session endpoint. Repeat calls return the outcome
// of the first without touching the network again.
//
// A valid response commits the identity to the State and, if configured, the
// OnSessionSuccess hook is awaited first, so anything observing
// AUTHENTICATED can rely on the hook having completed. On terminal failure
// the Client either stores the classified error on the State (redirect
// disabled) or navigates to the resolved login URL.
func (c *Client) Bootstrap(ctx context.Context) error {
	c.bootstrapOnce.Do(func() {
		c.bootstrapErr = c.bootstrap(ctx)
	})
	return c.bootstrapErr
}

func (c *Client) bootstrap(ctx context.Context) error {
	var sessionRes SessionResponse
	err := retries.ManageRetries(
		ctx,
		c.log,
		"establish session",
		maxFetchAttempts,
		retryDelay,
		func() (bool, error) {
			respBodyBytes, err := c.rest.Get(ctx, c.config.SessionURL)
			if err != nil {
				return classifySessionFetchError(err)
			}
			res, err := parseSessionResponse(respBodyBytes)
			if err != nil {
				return false, err
			}
			if hook := c.config.OnSessionSuccess; hook != nil {
				if err := hook(ctx, res); err != nil {
					return true, errors.Wrap(err, "error running session success hook")
				}
			}
			sessionRes = res
			return false, nil
		},
	)
	if err == nil {
		metadata := sessionRes.Metadata
		if transform := c.config.TransformSessionMetadata; transform != nil {
			metadata = transform(metadata)
		}
		c.state.setAuthenticated(
			Session{
				UserID:   sessionRes.UserID,
				TenantID: sessionRes.TenantID,
				Metadata: metadata,
			},
		)
		return nil
	}

	authErr, ok := err.(*meta.AuthError)
	if !ok {
		authErr = meta.NewErrSessionFetchFailed(err)
	}
	// A malformed response is a contract violation between the application
	// and its backend. Bouncing the user to the login page can't fix that,
	// so it always surfaces, even when redirect is enabled.
	if c.config.DisableRedirectOnUnauthenticated ||
		authErr.Code == meta.ErrCodeInvalidSessionResponse {
		c.state.setUnauthenticated(authErr)
		return authErr
	}
	return c.redirectToLogin()
}

// classifySessionFetchError sorts a session fetch failure into retryable and
// non-retryable buckets per the bootstrap's policy: 401 means the user
// simply has no session, any other 4xx is a permanent failure, and
// everything else (5xx, transport trouble) is worth another attempt.
func classifySessionFetchError(err error) (bool, error) {
	if statusErr, ok :=
		errors.Cause(err).(*restmachinery.APIStatusError); ok {
		switch {
		case statusErr.StatusCode == http.StatusUnauthorized:
			return false, meta.NewErrUnauthenticated(statusErr)
		case statusErr.StatusCode >= 400 && statusErr.StatusCode < 500:
			return false, meta.NewErrSessionFetchFailed(statusErr)
		}
	}
	return true, err
}

func parseSessionResponse(respBodyBytes []byte) (SessionResponse, error) {
	sessionRes := SessionResponse{}
	validationResult, err := gojsonschema.Validate(
		sessionResponseSchemaLoader,
		gojsonschema.NewBytesLoader(respBodyBytes),
	)
	if err != nil {
		// The schema itself is known-good, so the response body wasn't valid
		// JSON at all.
		return sessionRes, meta.NewErrInvalidSessionResponse(err.Error())
	}
	if !validationResult.Valid() {
		verrStrs := make([]string, len(validationResult.Errors()))
		for i, verr := range validationResult.Errors() {
			verrStrs[i] = verr.String()
		}
		return sessionRes, meta.NewErrInvalidSessionResponse(verrStrs...)
	}
	if err := json.Unmarshal(respBodyBytes, &sessionRes); err != nil {
		return sessionRes, meta.NewErrInvalidSessionResponse(err.Error())
	}
	return sessionRes, nil
}

func (c *Client) redirectToLogin() error {
	currentURL, err := c.navigator.CurrentURL()
	if err != nil {
		return errors.Wrap(err, "error determining current URL")
	}
	loginURL, err := resolveLoginURL(c.config.LoginURL, currentURL)
	if err != nil {
		return err
	}
	// The error is deliberately not stored: with redirect enabled the user
	// experiences a navigation, not an in-app failure.
	c.state.reset()
	return c.navigator.Navigate(loginURL)
}
