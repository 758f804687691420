package bitable

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, calls *int32, respond func(w http.ResponseWriter, n int32)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, tokenPath, r.URL.Path)
		var req tokenRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cli_a", req.AppID)
		assert.Equal(t, "s3cret", req.AppSecret)
		n := atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		respond(w, n)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTokenManager_CachesUntilExpiry(t *testing.T) {
	var calls int32
	srv := newTokenServer(t, &calls, func(w http.ResponseWriter, n int32) {
		_, _ = w.Write([]byte(`{"code":0,"msg":"ok","tenant_access_token":"t-` + string(rune('0'+n)) + `","expire":120}`))
	})

	now := time.Unix(1_700_000_000, 0)
	m := NewTokenManager(srv.Client(), srv.URL, "cli_a", "s3cret")
	m.now = func() time.Time { return now }

	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t-1", tok)
	assert.Equal(t, now.Add(60*time.Second), m.Credential().ExpiresAt)

	// Still valid one second before the adjusted expiry.
	now = now.Add(59 * time.Second)
	tok, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t-1", tok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	now = now.Add(time.Second)
	tok, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t-2", tok)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTokenManager_DefaultExpire(t *testing.T) {
	var calls int32
	srv := newTokenServer(t, &calls, func(w http.ResponseWriter, _ int32) {
		_, _ = w.Write([]byte(`{"code":0,"msg":"ok","tenant_access_token":"t-x"}`))
	})

	now := time.Unix(1_700_000_000, 0)
	m := NewTokenManager(srv.Client(), srv.URL, "cli_a", "s3cret")
	m.now = func() time.Time { return now }

	_, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(7200*time.Second-60*time.Second), m.Credential().ExpiresAt)
}

func TestTokenManager_NonZeroCode(t *testing.T) {
	var calls int32
	srv := newTokenServer(t, &calls, func(w http.ResponseWriter, _ int32) {
		_, _ = w.Write([]byte(`{"code":10014,"msg":"app secret invalid"}`))
	})

	m := NewTokenManager(srv.Client(), srv.URL, "cli_a", "s3cret")
	_, err := m.Token(context.Background())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 10014, authErr.Code)
	assert.Contains(t, err.Error(), "app secret invalid")
	assert.False(t, IsRetryable(err))
}

func TestTokenManager_HTTPFailure(t *testing.T) {
	var calls int32
	srv := newTokenServer(t, &calls, func(w http.ResponseWriter, _ int32) {
		w.WriteHeader(http.StatusBadGateway)
	})

	m := NewTokenManager(srv.Client(), srv.URL, "cli_a", "s3cret")
	_, err := m.Token(context.Background())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "token exchange is never retried")
}

func TestTokenManager_ConcurrentCallersShareRefresh(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	srv := newTokenServer(t, &calls, func(w http.ResponseWriter, _ int32) {
		<-release
		_, _ = w.Write([]byte(`{"code":0,"msg":"ok","tenant_access_token":"t-shared","expire":7200}`))
	})

	m := NewTokenManager(srv.Client(), srv.URL, "cli_a", "s3cret")

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := m.Token(context.Background())
			assert.NoError(t, err)
			tokens[i] = tok
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, tok := range tokens {
		assert.Equal(t, "t-shared", tok)
	}
}

func TestTokenManager_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	srv := newTokenServer(t, &calls, func(w http.ResponseWriter, _ int32) {
		close(started)
		<-release
		_, _ = w.Write([]byte(`{"code":0,"msg":"ok","tenant_access_token":"t-late","expire":7200}`))
	})

	m := NewTokenManager(srv.Client(), srv.URL, "cli_a", "s3cret")

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := m.Token(ctx)
		firstErr <- err
	}()
	<-started

	second := make(chan string, 1)
	go func() {
		tok, err := m.Token(context.Background())
		assert.NoError(t, err)
		second <- tok
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	assert.Equal(t, "t-late", <-second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTokenManager_Invalidate(t *testing.T) {
	var calls int32
	srv := newTokenServer(t, &calls, func(w http.ResponseWriter, _ int32) {
		_, _ = w.Write([]byte(`{"code":0,"msg":"ok","tenant_access_token":"t-a","expire":7200}`))
	})

	m := NewTokenManager(srv.Client(), srv.URL, "cli_a", "s3cret")
	_, err := m.Token(context.Background())
	require.NoError(t, err)

	m.Invalidate()
	assert.False(t, m.Credential().Valid(time.Now()))

	_, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
