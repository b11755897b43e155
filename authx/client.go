package authx

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tidemark/authclient/internal/restmachinery"
	"github.com/tidemark/authclient/meta"
)

const (
	DefaultCSRFCookieName = "CSRF-TOKEN"
	DefaultCSRFHeaderName = "X-CSRF-TOKEN"
)

// Config encapsulates everything a Client needs to know about the backend
// auth endpoints and how failures should be handled.
type Config struct {
	// SessionURL is the absolute URL of the session endpoint. Required.
	SessionURL string
	// TokenURL is the absolute URL of the token endpoint. Optional; when
	// unset, GetToken fails with INVALID_TOKEN_URL.
	TokenURL string
	// LoginURL is where unauthenticated users are sent. Required. It may be
	// absolute or a rooted path.
	LoginURL string
	// LogoutURL is where the host may send users to terminate their
	// server-side session. Optional. The session bootstrap never navigates
	// here; it is provided for the benefit of the embedding application.
	LogoutURL string
	// CSRFCookieName is the cookie the CSRF token is read from. Defaults to
	// DefaultCSRFCookieName.
	CSRFCookieName string
	// CSRFHeaderName is the header the CSRF token is echoed back in.
	// Defaults to DefaultCSRFHeaderName.
	CSRFHeaderName string
	// DisableRedirectOnUnauthenticated, when set, stores terminal bootstrap
	// failures on the State instead of navigating to the login URL.
	DisableRedirectOnUnauthenticated bool
	// OnSessionSuccess, if set, is invoked with the raw session response
	// after a successful fetch and must complete before the Client commits
	// to the AUTHENTICATED state.
	OnSessionSuccess func(context.Context, SessionResponse) error
	// TransformSessionMetadata, if set, derives the stored session metadata
	// from the raw server-provided metadata. It must be a pure function.
	TransformSessionMetadata func(map[string]interface{}) map[string]interface{}
	// Navigator handles navigation on terminal bootstrap failure. Defaults
	// to a NopNavigator.
	Navigator Navigator
	// HTTPClient is the client used for all endpoint calls. Defaults to a
	// client with a fresh in-memory cookie jar.
	HTTPClient *http.Client
	// Logger receives diagnostic output. Defaults to a no-op logger.
	Logger *zap.Logger
}

func (c *Config) validate() error {
	if c.SessionURL == "" {
		return meta.NewErrInvalidSessionURL("no session URL is configured")
	}
	if err := validateEndpointURL(c.SessionURL); err != nil {
		return meta.NewErrInvalidSessionURL(err.Error())
	}
	if c.LoginURL == "" {
		return meta.NewErrInvalidLoginURL("no login URL is configured")
	}
	if err := validateNavigationURL(c.LoginURL); err != nil {
		return meta.NewErrInvalidLoginURL(err.Error())
	}
	if c.TokenURL != "" {
		if err := validateEndpointURL(c.TokenURL); err != nil {
			return meta.NewErrInvalidTokenURL(err.Error())
		}
	}
	if c.LogoutURL != "" {
		if err := validateNavigationURL(c.LogoutURL); err != nil {
			return meta.NewErrInvalidLogoutURL(err.Error())
		}
	}
	return nil
}

// Client is the entry point to client-side session and token management. A
// Client bootstraps a session exactly once, exposes the resulting auth state,
// and (when a token endpoint is configured) hands out cached short-lived
// access tokens.
type Client struct {
	config    Config
	state     *State
	tokens    *TokenManager
	rest      *restmachinery.BaseClient
	navigator Navigator
	log       *zap.SugaredLogger

	bootstrapOnce sync.Once
	bootstrapErr  error
}

// NewClient validates the specified configuration and returns a Client in
// the LOADING state. Nothing touches the network until Bootstrap is called.
func NewClient(config Config) (*Client, error) {
	if config.CSRFCookieName == "" {
		config.CSRFCookieName = DefaultCSRFCookieName
	}
	if config.CSRFHeaderName == "" {
		config.CSRFHeaderName = DefaultCSRFHeaderName
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	if config.HTTPClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, errors.Wrap(err, "error creating cookie jar")
		}
		config.HTTPClient = &http.Client{
			Jar: jar,
		}
	}
	if config.Navigator == nil {
		config.Navigator = &NopNavigator{}
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	log := config.Logger.Sugar()
	state := NewState()
	rest := &restmachinery.BaseClient{
		HTTPClient:     config.HTTPClient,
		CSRFCookieName: config.CSRFCookieName,
		CSRFHeaderName: config.CSRFHeaderName,
	}
	return &Client{
		config:    config,
		state:     state,
		rest:      rest,
		navigator: config.Navigator,
		log:       log,
		tokens: &TokenManager{
			rest:     rest,
			tokenURL: config.TokenURL,
			state:    state,
			log:      log,
			now:      time.Now,
		},
	}, nil
}

// State returns the auth state container shared by the session bootstrap and
// the token engine.
func (c *Client) State() *State {
	return c.state
}

// GetToken returns a valid bearer token for the authenticated session,
// fetching one from the token endpoint only when the cache cannot satisfy
// the request. See TokenManager.GetToken.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	return c.tokens.GetToken(ctx)
}

// ClearToken discards any cached token and detaches any in-flight fetch so
// the next GetToken call starts fresh.
func (c *Client) ClearToken() {
	c.tokens.ClearToken()
}

// ClearAuthData performs a full client-side sign-out: auth state, identity,
// metadata, and token cache are all reset. No network calls are made and the
// server-side session, if any, is untouched.
func (c *Client) ClearAuthData() {
	c.state.reset()
	c.tokens.ClearToken()
}

// UpdateMetadata shallow-merges the specified fields into the session
// metadata.
func (c *Client) UpdateMetadata(partial map[string]interface{}) {
	c.state.UpdateMetadata(partial)
}
