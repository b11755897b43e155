package authx

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/tidemark/authclient/internal/restmachinery"
	"github.com/tidemark/authclient/internal/retries"
	"github.com/tidemark/authclient/meta"
)

// tokenExpiryBuffer is how much remaining validity a cached token must have
// to be served without a fresh fetch.
const tokenExpiryBuffer = 30 * time.Second

// TokenResponse is the payload returned by the token endpoint. ExpiresAt is
// epoch milliseconds.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   int64  `json:"expiresAt"`
}

var tokenResponseSchemaLoader = gojsonschema.NewStringLoader(`
	{
		"$schema": "http://json-schema.org/draft-04/schema#",
		"type": "object",
		"required": ["accessToken", "expiresAt"],
		"properties": {
			"accessToken": {
				"type": "string",
				"minLength": 1
			},
			"expiresAt": {
				"type": "number",
				"minimum": 0
			}
		}
	}`,
)

type cachedToken struct {
	value     string
	expiresAt time.Time
}

func (c *cachedToken) valid(now time.Time) bool {
	return now.Add(tokenExpiryBuffer).Before(c.expiresAt)
}

// tokenFetch is a single in-flight fetch whose outcome is shared by every
// caller that arrived while it was pending. value and err may only be read
// after done is closed.
type tokenFetch struct {
	done  chan struct{}
	value string
	err   error
}

// TokenManager provides valid bearer tokens for authenticated API calls,
// transparently caching and coalescing concurrent fetches so the token
// endpoint sees at most one request per cache-miss episode.
type TokenManager struct {
	mu       sync.Mutex
	cached   *cachedToken
	inFlight *tokenFetch

	rest     *restmachinery.BaseClient
	tokenURL string
	state    *State
	log      *zap.SugaredLogger
	now      func() time.Time
}

// GetToken returns a valid bearer token, serving from cache when possible.
// When a fetch is already in flight, the caller waits for its outcome rather
// than starting another; arbitrarily many concurrent callers produce at most
// one network request.
func (t *TokenManager) GetToken(ctx context.Context) (string, error) {
	if t.tokenURL == "" {
		return "", meta.NewErrInvalidTokenURL("no token URL is configured")
	}
	if !t.state.IsAuthenticated() {
		return "", meta.NewErrUnauthenticated(nil)
	}

	t.mu.Lock()
	if t.cached != nil && t.cached.valid(t.now()) {
		value := t.cached.value
		t.mu.Unlock()
		return value, nil
	}
	if fetch := t.inFlight; fetch != nil {
		t.mu.Unlock()
		select {
		case <-fetch.done:
			return fetch.value, fetch.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	fetch := &tokenFetch{
		done: make(chan struct{}),
	}
	t.inFlight = fetch
	t.mu.Unlock()

	fetch.value, fetch.err = t.fetchToken(ctx, fetch)

	t.mu.Lock()
	// ClearToken may have detached this fetch already; don't clobber a
	// successor's slot.
	if t.inFlight == fetch {
		t.inFlight = nil
	}
	t.mu.Unlock()
	close(fetch.done)

	return fetch.value, fetch.err
}

// ClearToken synchronously discards the cached token and detaches any
// in-flight fetch. The next GetToken call will always go to the network.
func (t *TokenManager) ClearToken() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cached = nil
	t.inFlight = nil
}

func (t *TokenManager) fetchToken(
	ctx context.Context,
	fetch *tokenFetch,
) (string, error) {
	var tokenRes TokenResponse
	err := retries.ManageRetries(
		ctx,
		t.log,
		"fetch access token",
		maxFetchAttempts,
		retryDelay,
		func() (bool, error) {
			respBodyBytes, err := t.rest.Get(ctx, t.tokenURL)
			if err != nil {
				return t.classifyTokenFetchError(err)
			}
			res, err := parseTokenResponse(respBodyBytes)
			if err != nil {
				return false, err
			}
			tokenRes = res
			return false, nil
		},
	)
	if err != nil {
		if authErr, ok := err.(*meta.AuthError); ok {
			return "", authErr
		}
		return "", meta.NewErrTokenFetchFailed(err)
	}

	expiresAt := time.Unix(0, tokenRes.ExpiresAt*int64(time.Millisecond))
	t.mu.Lock()
	// A ClearToken while this fetch was in flight detached it; its result
	// still answers the callers that were waiting on it, but it must not
	// repopulate the cache.
	if t.inFlight == fetch {
		t.cached = &cachedToken{
			value:     tokenRes.AccessToken,
			expiresAt: expiresAt,
		}
	}
	t.mu.Unlock()
	return tokenRes.AccessToken, nil
}

// classifyTokenFetchError mirrors the bootstrap's retry policy, with one
// addition: a 401 means the session backing the token endpoint has gone
// away, so the cache is dropped on the spot.
func (t *TokenManager) classifyTokenFetchError(err error) (bool, error) {
	if statusErr, ok :=
		errors.Cause(err).(*restmachinery.APIStatusError); ok {
		switch {
		case statusErr.StatusCode == http.StatusUnauthorized:
			t.mu.Lock()
			t.cached = nil
			t.mu.Unlock()
			return false, meta.NewErrUnauthenticated(statusErr)
		case statusErr.StatusCode >= 400 && statusErr.StatusCode < 500:
			return false, meta.NewErrTokenFetchFailed(statusErr)
		}
	}
	return true, err
}

func parseTokenResponse(respBodyBytes []byte) (TokenResponse, error) {
	tokenRes := TokenResponse{}
	validationResult, err := gojsonschema.Validate(
		tokenResponseSchemaLoader,
		gojsonschema.NewBytesLoader(respBodyBytes),
	)
	if err != nil {
		return tokenRes, meta.NewErrInvalidTokenResponse(err.Error())
	}
	if !validationResult.Valid() {
		verrStrs := make([]string, len(validationResult.Errors()))
		for i, verr := range validationResult.Errors() {
			verrStrs[i] = verr.String()
		}
		return tokenRes, meta.NewErrInvalidTokenResponse(verrStrs...)
	}
	if err := json.Unmarshal(respBodyBytes, &tokenRes); err != nil {
		return tokenRes, meta.NewErrInvalidTokenResponse(err.Error())
	}
	return tokenRes, nil
}
