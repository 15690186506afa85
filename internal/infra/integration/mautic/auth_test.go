package mautic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuthServer answers /oauth/v2/token with a counting token (tok-1,
// tok-2, ...) unless failing is set.
type fakeAuthServer struct {
	calls   atomic.Int64
	failing atomic.Bool
	srv     *httptest.Server
}

func newFakeAuthServer(t *testing.T) *fakeAuthServer {
	t.Helper()
	f := &fakeAuthServer{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/v2/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "client_credentials", r.FormValue("grant_type"))

		n := f.calls.Add(1)
		if f.failing.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":3600,"token_type":"bearer"}`, n)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func TestGetTokenCachesWithinExpiryWindow(t *testing.T) {
	f := newFakeAuthServer(t)
	cache := NewTokenCache(f.srv.URL, "id", "secret", nil)

	tok, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.EqualValues(t, 1, f.calls.Load())

	tok, err = cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.EqualValues(t, 1, f.calls.Load(), "second call within the window must not re-authenticate")
}

func TestGetTokenRefreshesAfterExpiry(t *testing.T) {
	f := newFakeAuthServer(t)
	cache := NewTokenCache(f.srv.URL, "id", "secret", nil)

	_, err := cache.GetToken(context.Background())
	require.NoError(t, err)

	// jump past the declared 3600s lifetime
	cache.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	tok, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestGetTokenSafetyMargin(t *testing.T) {
	f := newFakeAuthServer(t)
	cache := NewTokenCache(f.srv.URL, "id", "secret", nil)

	_, err := cache.GetToken(context.Background())
	require.NoError(t, err)

	// 30s before the declared expiry: inside the safety margin, refresh
	cache.now = func() time.Time { return time.Now().Add(3600*time.Second - 30*time.Second) }

	tok, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
}

func TestResetForcesReauthentication(t *testing.T) {
	f := newFakeAuthServer(t)
	cache := NewTokenCache(f.srv.URL, "id", "secret", nil)

	_, err := cache.GetToken(context.Background())
	require.NoError(t, err)

	cache.Reset()

	tok, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestFailedRefreshDoesNotPoisonCache(t *testing.T) {
	f := newFakeAuthServer(t)
	cache := NewTokenCache(f.srv.URL, "id", "secret", nil)

	f.failing.Store(true)
	_, err := cache.GetToken(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.NotContains(t, apiErr.Error(), "secret")

	// recovery works without a Reset: the cache stayed empty
	f.failing.Store(false)
	tok, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
}

func TestFailedRefreshKeepsPriorToken(t *testing.T) {
	f := newFakeAuthServer(t)
	cache := NewTokenCache(f.srv.URL, "id", "secret", nil)

	_, err := cache.GetToken(context.Background())
	require.NoError(t, err)

	cache.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	f.failing.Store(true)

	_, err = cache.GetToken(context.Background())
	require.Error(t, err)
	assert.Equal(t, "tok-1", cache.token, "a failed refresh must not clear the prior entry")
}

func TestConcurrentCallersShareOneRefresh(t *testing.T) {
	f := newFakeAuthServer(t)
	cache := NewTokenCache(f.srv.URL, "id", "secret", nil)

	var wg sync.WaitGroup
	tokens := make([]string, 20)
	errs := make([]error, 20)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = cache.GetToken(context.Background())
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, f.calls.Load(), "single-flight: one auth call for all callers")
	for i := range tokens {
		require.NoError(t, errs[i])
		assert.Equal(t, "tok-1", tokens[i])
	}
}

func TestGetTokenUnreachableEndpoint(t *testing.T) {
	cache := NewTokenCache("http://127.0.0.1:1", "id", "secret", &http.Client{Timeout: 200 * time.Millisecond})

	_, err := cache.GetToken(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failure is not an API error")
}
