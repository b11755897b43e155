package authx

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidemark/authclient/meta"
)

func TestNewClient(t *testing.T) {
	testCases := []struct {
		name       string
		config     Config
		assertions func(t *testing.T, client *Client, err error)
	}{
		{
			name: "no session URL",
			config: Config{
				LoginURL: testLoginURL,
			},
			assertions: func(t *testing.T, client *Client, err error) {
				require.Error(t, err)
				require.Equal(t, meta.ErrCodeInvalidSessionURL, meta.CodeOf(err))
			},
		},
		{
			name: "relative session URL",
			config: Config{
				SessionURL: "/api/auth/session",
				LoginURL:   testLoginURL,
			},
			assertions: func(t *testing.T, client *Client, err error) {
				require.Error(t, err)
				require.Equal(t, meta.ErrCodeInvalidSessionURL, meta.CodeOf(err))
			},
		},
		{
			name: "no login URL",
			config: Config{
				SessionURL: "https://app.example.com/api/auth/session",
			},
			assertions: func(t *testing.T, client *Client, err error) {
				require.Error(t, err)
				require.Equal(t, meta.ErrCodeInvalidLoginURL, meta.CodeOf(err))
			},
		},
		{
			name: "malformed login URL",
			config: Config{
				SessionURL: "https://app.example.com/api/auth/session",
				LoginURL:   "login",
			},
			assertions: func(t *testing.T, client *Client, err error) {
				require.Error(t, err)
				require.Equal(t, meta.ErrCodeInvalidLoginURL, meta.CodeOf(err))
			},
		},
		{
			name: "malformed token URL",
			config: Config{
				SessionURL: "https://app.example.com/api/auth/session",
				LoginURL:   testLoginURL,
				TokenURL:   "/api/auth/token",
			},
			assertions: func(t *testing.T, client *Client, err error) {
				require.Error(t, err)
				require.Equal(t, meta.ErrCodeInvalidTokenURL, meta.CodeOf(err))
			},
		},
		{
			name: "malformed logout URL",
			config: Config{
				SessionURL: "https://app.example.com/api/auth/session",
				LoginURL:   testLoginURL,
				LogoutURL:  "logout",
			},
			assertions: func(t *testing.T, client *Client, err error) {
				require.Error(t, err)
				require.Equal(t, meta.ErrCodeInvalidLogoutURL, meta.CodeOf(err))
			},
		},
		{
			name: "defaults applied",
			config: Config{
				SessionURL: "https://app.example.com/api/auth/session",
				LoginURL:   testLoginURL,
			},
			assertions: func(t *testing.T, client *Client, err error) {
				require.NoError(t, err)
				require.Equal(
					t,
					DefaultCSRFCookieName,
					client.rest.CSRFCookieName,
				)
				require.Equal(
					t,
					DefaultCSRFHeaderName,
					client.rest.CSRFHeaderName,
				)
				require.NotNil(t, client.config.HTTPClient)
				require.NotNil(t, client.config.HTTPClient.Jar)
				require.IsType(t, &NopNavigator{}, client.navigator)
				require.Equal(t, StatusLoading, client.State().Status())
			},
		},
		{
			name: "custom CSRF names",
			config: Config{
				SessionURL:     "https://app.example.com/api/auth/session",
				LoginURL:       testLoginURL,
				CSRFCookieName: "MY-CSRF",
				CSRFHeaderName: "X-MY-CSRF",
			},
			assertions: func(t *testing.T, client *Client, err error) {
				require.NoError(t, err)
				require.Equal(t, "MY-CSRF", client.rest.CSRFCookieName)
				require.Equal(t, "X-MY-CSRF", client.rest.CSRFHeaderName)
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			client, err := NewClient(testCase.config)
			testCase.assertions(t, client, err)
		})
	}
}
