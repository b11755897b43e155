package authx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tidemark/authclient/meta"
)

const testAccessToken = "opensesame"

// authenticatedClient returns a Client whose bootstrap already succeeded and
// whose token endpoint is the specified server.
func authenticatedClient(t *testing.T, tokenURL string) *Client {
	config := Config{
		SessionURL: "https://app.example.com/api/auth/session",
		LoginURL:   testLoginURL,
	}
	if tokenURL != "" {
		config.TokenURL = tokenURL
	}
	client, err := NewClient(config)
	require.NoError(t, err)
	client.state.setAuthenticated(
		Session{
			UserID:   testUserID,
			TenantID: testTenantID,
		},
	)
	return client
}

func tokenResponseBody(token string, expiresAt time.Time) string {
	return fmt.Sprintf(
		`{"accessToken":%q,"expiresAt":%d}`,
		token,
		expiresAt.UnixNano()/int64(time.Millisecond),
	)
}

func TestGetTokenRequiresTokenURL(t *testing.T) {
	client := authenticatedClient(t, "")
	_, err := client.GetToken(context.Background())
	require.Error(t, err)
	require.Equal(t, meta.ErrCodeInvalidTokenURL, meta.CodeOf(err))
}

func TestGetTokenRequiresAuthentication(t *testing.T) {
	client, err := NewClient(
		Config{
			SessionURL: "https://app.example.com/api/auth/session",
			TokenURL:   "https://app.example.com/api/auth/token",
			LoginURL:   testLoginURL,
		},
	)
	require.NoError(t, err)
	_, err = client.GetToken(context.Background())
	require.Error(t, err)
	require.Equal(t, meta.ErrCodeUnauthenticated, meta.CodeOf(err))
}

func TestGetTokenFetchesThenServesFromCache(t *testing.T) {
	var fetchCount int32
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&fetchCount, 1)
				require.Equal(t, http.MethodGet, r.Method)
				w.WriteHeader(http.StatusOK)
				w.Write( // nolint: errcheck
					[]byte(tokenResponseBody(testAccessToken, time.Now().Add(time.Hour))),
				)
			},
		),
	)
	defer server.Close()
	client := authenticatedClient(t, server.URL)

	token, err := client.GetToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, testAccessToken, token)
	require.Equal(t, int32(1), atomic.LoadInt32(&fetchCount))

	token, err = client.GetToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, testAccessToken, token)
	// Second call was answered from cache
	require.Equal(t, int32(1), atomic.LoadInt32(&fetchCount))
}

func TestGetTokenCacheValidityBuffer(t *testing.T) {
	var fetchCount int32
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&fetchCount, 1)
				w.WriteHeader(http.StatusOK)
				w.Write( // nolint: errcheck
					[]byte(tokenResponseBody(testAccessToken, time.Now().Add(time.Hour))),
				)
			},
		),
	)
	defer server.Close()

	testCases := []struct {
		name               string
		remainingValidity  time.Duration
		expectedFetchCount int32
	}{
		{
			name:               "just outside the buffer",
			remainingValidity:  31 * time.Second,
			expectedFetchCount: 0,
		},
		{
			name:               "just inside the buffer",
			remainingValidity:  29 * time.Second,
			expectedFetchCount: 1,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			atomic.StoreInt32(&fetchCount, 0)
			client := authenticatedClient(t, server.URL)
			now := time.Now()
			client.tokens.now = func() time.Time { return now }
			client.tokens.cached = &cachedToken{
				value:     "cached",
				expiresAt: now.Add(testCase.remainingValidity),
			}
			_, err := client.GetToken(context.Background())
			require.NoError(t, err)
			require.Equal(
				t,
				testCase.expectedFetchCount,
				atomic.LoadInt32(&fetchCount),
			)
		})
	}
}

func TestGetTokenCoalescesConcurrentCallers(t *testing.T) {
	const callers = 10
	var fetchCount int32
	gate := make(chan struct{})
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&fetchCount, 1)
				<-gate
				w.WriteHeader(http.StatusOK)
				w.Write( // nolint: errcheck
					[]byte(tokenResponseBody(testAccessToken, time.Now().Add(time.Hour))),
				)
			},
		),
	)
	defer server.Close()
	client := authenticatedClient(t, server.URL)

	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = client.GetToken(context.Background())
		}(i)
	}
	// Give all callers a chance to arrive while the fetch is pending
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&fetchCount))
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, testAccessToken, tokens[i])
	}
}

func TestGetTokenWaiterHonorsOwnContext(t *testing.T) {
	gate := make(chan struct{})
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				<-gate
				w.WriteHeader(http.StatusOK)
				w.Write( // nolint: errcheck
					[]byte(tokenResponseBody(testAccessToken, time.Now().Add(time.Hour))),
				)
			},
		),
	)
	defer server.Close()
	client := authenticatedClient(t, server.URL)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		client.GetToken(context.Background()) // nolint: errcheck
	}()
	require.Eventually(
		t,
		func() bool {
			client.tokens.mu.Lock()
			defer client.tokens.mu.Unlock()
			return client.tokens.inFlight != nil
		},
		time.Second,
		5*time.Millisecond,
	)

	// A waiter whose own context is already canceled gives up without
	// disturbing the in-flight fetch
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GetToken(ctx)
	require.Equal(t, context.Canceled, err)

	close(gate)
	wg.Wait()
	token, err := client.GetToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, testAccessToken, token)
}

func TestClearTokenDetachesInFlightFetch(t *testing.T) {
	var fetchCount int32
	gate := make(chan struct{})
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&fetchCount, 1)
				<-gate
				w.WriteHeader(http.StatusOK)
				w.Write( // nolint: errcheck
					[]byte(tokenResponseBody(testAccessToken, time.Now().Add(time.Hour))),
				)
			},
		),
	)
	defer server.Close()
	client := authenticatedClient(t, server.URL)

	var wg sync.WaitGroup
	wg.Add(1)
	var token string
	var err error
	go func() {
		defer wg.Done()
		token, err = client.GetToken(context.Background())
	}()
	require.Eventually(
		t,
		func() bool {
			return atomic.LoadInt32(&fetchCount) == 1
		},
		time.Second,
		5*time.Millisecond,
	)
	client.ClearToken()
	close(gate)
	wg.Wait()

	// The detached fetch still answers the caller that was waiting on it
	require.NoError(t, err)
	require.Equal(t, testAccessToken, token)
	// but its result must not repopulate the cache
	require.Nil(t, client.tokens.cached)

	_, err = client.GetToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&fetchCount))
}

func TestGetToken401ClearsCacheAndDoesNotRetry(t *testing.T) {
	var fetchCount int32
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&fetchCount, 1)
				w.WriteHeader(http.StatusUnauthorized)
			},
		),
	)
	defer server.Close()
	client := authenticatedClient(t, server.URL)
	// Plant an expired entry to prove the 401 wipes it
	client.tokens.cached = &cachedToken{
		value:     "stale",
		expiresAt: time.Now().Add(-time.Minute),
	}

	_, err := client.GetToken(context.Background())
	require.Error(t, err)
	require.Equal(t, meta.ErrCodeUnauthenticated, meta.CodeOf(err))
	require.Equal(t, int32(1), atomic.LoadInt32(&fetchCount))
	require.Nil(t, client.tokens.cached)
}

func TestGetTokenOther4xxNotRetried(t *testing.T) {
	var fetchCount int32
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&fetchCount, 1)
				w.WriteHeader(http.StatusBadRequest)
			},
		),
	)
	defer server.Close()
	client := authenticatedClient(t, server.URL)
	_, err := client.GetToken(context.Background())
	require.Error(t, err)
	require.Equal(t, meta.ErrCodeTokenFetchFailed, meta.CodeOf(err))
	require.Equal(t, int32(1), atomic.LoadInt32(&fetchCount))
}

func TestGetTokenRetriesServerErrors(t *testing.T) {
	var fetchCount int32
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&fetchCount, 1)
				w.WriteHeader(http.StatusServiceUnavailable)
			},
		),
	)
	defer server.Close()
	client := authenticatedClient(t, server.URL)
	_, err := client.GetToken(context.Background())
	require.Error(t, err)
	require.Equal(t, meta.ErrCodeTokenFetchFailed, meta.CodeOf(err))
	require.Equal(t, int32(3), atomic.LoadInt32(&fetchCount))
}

func TestGetTokenInvalidResponseNotRetried(t *testing.T) {
	testCases := []struct {
		name         string
		responseBody string
	}{
		{
			name:         "missing accessToken",
			responseBody: `{"expiresAt":1700000000000}`,
		},
		{
			name:         "blank accessToken",
			responseBody: `{"accessToken":"","expiresAt":1700000000000}`,
		},
		{
			name:         "negative expiresAt",
			responseBody: `{"accessToken":"abc","expiresAt":-1}`,
		},
		{
			name:         "expiresAt not a number",
			responseBody: `{"accessToken":"abc","expiresAt":"soon"}`,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var fetchCount int32
			server := httptest.NewServer(
				http.HandlerFunc(
					func(w http.ResponseWriter, r *http.Request) {
						atomic.AddInt32(&fetchCount, 1)
						w.WriteHeader(http.StatusOK)
						w.Write([]byte(testCase.responseBody)) // nolint: errcheck
					},
				),
			)
			defer server.Close()
			client := authenticatedClient(t, server.URL)
			_, err := client.GetToken(context.Background())
			require.Error(t, err)
			require.Equal(t, meta.ErrCodeInvalidTokenResponse, meta.CodeOf(err))
			require.Equal(t, int32(1), atomic.LoadInt32(&fetchCount))
		})
	}
}

func TestGetTokenInFlightMarkerClearedAfterFailure(t *testing.T) {
	var fetchCount int32
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				if atomic.AddInt32(&fetchCount, 1) == 1 {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				w.WriteHeader(http.StatusOK)
				w.Write( // nolint: errcheck
					[]byte(tokenResponseBody(testAccessToken, time.Now().Add(time.Hour))),
				)
			},
		),
	)
	defer server.Close()
	client := authenticatedClient(t, server.URL)

	_, err := client.GetToken(context.Background())
	require.Error(t, err)

	// The failed fetch must not wedge the engine
	token, err := client.GetToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, testAccessToken, token)
}

func TestClearTokenForcesRefetch(t *testing.T) {
	var fetchCount int32
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&fetchCount, 1)
				w.WriteHeader(http.StatusOK)
				w.Write( // nolint: errcheck
					[]byte(tokenResponseBody(testAccessToken, time.Now().Add(time.Hour))),
				)
			},
		),
	)
	defer server.Close()
	client := authenticatedClient(t, server.URL)

	_, err := client.GetToken(context.Background())
	require.NoError(t, err)
	client.ClearToken()
	_, err = client.GetToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&fetchCount))
}

func TestClearAuthData(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write( // nolint: errcheck
					[]byte(tokenResponseBody(testAccessToken, time.Now().Add(time.Hour))),
				)
			},
		),
	)
	defer server.Close()
	client := authenticatedClient(t, server.URL)
	client.UpdateMetadata(
		map[string]interface{}{
			"role": "admin",
		},
	)
	_, err := client.GetToken(context.Background())
	require.NoError(t, err)
	require.NotNil(t, client.tokens.cached)

	client.ClearAuthData()

	state := client.State()
	require.Equal(t, StatusUnauthenticated, state.Status())
	require.Nil(t, state.Err())
	require.Equal(t, Session{}, state.Session())
	require.Nil(t, client.tokens.cached)

	// Once signed out, tokens are off the table
	_, err = client.GetToken(context.Background())
	require.Error(t, err)
	require.Equal(t, meta.ErrCodeUnauthenticated, meta.CodeOf(err))
}
