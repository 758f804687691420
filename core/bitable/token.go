package bitable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	tokenPath = "/auth/v3/tenant_access_token/internal"

	// defaultTokenExpire applies when the auth response omits "expire".
	defaultTokenExpire = 7200
	// tokenSafetyMargin is subtracted from the server expiry.
	tokenSafetyMargin = 60 * time.Second
)

// TokenSource yields a bearer token for the current request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Credential is a cached tenant access token.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether c can still be used at now.
func (c Credential) Valid(now time.Time) bool {
	return c.Token != "" && now.Before(c.ExpiresAt)
}

// TokenManager exchanges the app id and secret for a tenant access token
// and caches it until shortly before it expires.
type TokenManager struct {
	httpClient *http.Client
	baseURL    string
	appID      string
	appSecret  string
	now        func() time.Time

	mu    sync.RWMutex
	cred  Credential
	group singleflight.Group
}

// NewTokenManager creates a TokenManager. A nil httpClient uses http.DefaultClient.
func NewTokenManager(httpClient *http.Client, baseURL, appID, appSecret string) *TokenManager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TokenManager{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		appID:      appID,
		appSecret:  appSecret,
		now:        time.Now,
	}
}

// Token returns the cached token, refreshing it when expired. Concurrent
// callers share a single in-flight refresh, which outlives any one caller;
// a cancelled caller stops waiting without failing the others.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	cred := m.cred
	m.mu.RUnlock()
	if cred.Valid(m.now()) {
		return cred.Token, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := m.group.DoChan("tenant", func() (any, error) {
		// Another caller may have refreshed while we waited.
		m.mu.RLock()
		cred := m.cred
		m.mu.RUnlock()
		if cred.Valid(m.now()) {
			return cred.Token, nil
		}

		fresh, err := m.fetch(shared)
		if err != nil {
			return "", err
		}
		m.mu.Lock()
		m.cred = fresh
		m.mu.Unlock()
		return fresh.Token, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Credential returns a snapshot of the cached credential.
func (m *TokenManager) Credential() Credential {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred
}

// Invalidate drops the cached credential.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.cred = Credential{}
	m.mu.Unlock()
}

type tokenRequest struct {
	AppID     string `json:"app_id"`
	AppSecret string `json:"app_secret"`
}

type tokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            *int   `json:"expire"`
}

func (m *TokenManager) fetch(ctx context.Context) (Credential, error) {
	payload, err := json.Marshal(tokenRequest{AppID: m.appID, AppSecret: m.appSecret})
	if err != nil {
		return Credential{}, &AuthError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+tokenPath, bytes.NewReader(payload))
	if err != nil {
		return Credential{}, &AuthError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Credential{}, &AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credential{}, &AuthError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Credential{}, &AuthError{Err: fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Credential{}, &AuthError{Err: fmt.Errorf("decode token response: %w", err)}
	}
	if tr.Code != 0 {
		return Credential{}, &AuthError{Code: tr.Code, Message: tr.Msg}
	}

	expire := defaultTokenExpire
	if tr.Expire != nil {
		expire = *tr.Expire
	}

	return Credential{
		Token:     tr.TenantAccessToken,
		ExpiresAt: m.now().Add(time.Duration(expire)*time.Second - tokenSafetyMargin),
	}, nil
}
