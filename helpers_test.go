package goSession

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// fakeIDP is an in-process identity provider covering both the modern
// /auth/v2 surface and the legacy /auth surface. Failure knobs return the
// configured status with a structured message; zero means success.
type fakeIDP struct {
	srv *httptest.Server

	mu sync.Mutex

	loginCalls      int
	legacyCalls     int
	refreshCalls    int
	meCalls         int
	legacyMeCalls   int
	logoutCalls     int
	logoutAllCalls  int
	permissionCalls int

	failLogin      int
	failLoginMsg   string
	failGoogleURL  int
	failRefresh    int
	refreshDelay   time.Duration
	failMe         int
	failLegacyMe   int
	failLogout     int
	failLogoutAll  int
	failPermission int
	hasAccess      bool

	tokenSeq int
}

func newFakeIDP() *fakeIDP {
	f := &fakeIDP{hasAccess: true}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *fakeIDP) Close() {
	f.srv.Close()
}

func (f *fakeIDP) URL() string {
	return f.srv.URL
}

// configure adjusts failure knobs under the lock, for use while requests may
// already be in flight.
func (f *fakeIDP) configure(fn func(*fakeIDP)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type idpCounts struct {
	login, legacy, refresh, me, legacyMe, logout, logoutAll, permission int
}

func (f *fakeIDP) counts() idpCounts {
	f.mu.Lock()
	defer f.mu.Unlock()
	return idpCounts{
		login:      f.loginCalls,
		legacy:     f.legacyCalls,
		refresh:    f.refreshCalls,
		me:         f.meCalls,
		legacyMe:   f.legacyMeCalls,
		logout:     f.logoutCalls,
		logoutAll:  f.logoutAllCalls,
		permission: f.permissionCalls,
	}
}

func (f *fakeIDP) modernUserBody() map[string]any {
	return map[string]any{
		"id":             "u1",
		"email":          "alice@example.com",
		"display_name":   "Alice",
		"email_verified": true,
		"is_active":      true,
		"created_at":     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeIDP) nextTokens() (string, string) {
	f.tokenSeq++
	return fmt.Sprintf("access-%d", f.tokenSeq), fmt.Sprintf("refresh-%d", f.tokenSeq)
}

func (f *fakeIDP) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()

	switch r.Method + " " + r.URL.Path {
	case "POST /auth/v2/login":
		f.loginCalls++
		if f.failLogin != 0 {
			status, msg := f.failLogin, f.failLoginMsg
			f.mu.Unlock()
			writeJSONStatus(w, status, map[string]any{"message": msg})
			return
		}
		access, refresh := f.nextTokens()
		body := map[string]any{
			"access_token":  access,
			"refresh_token": refresh,
			"user":          f.modernUserBody(),
		}
		f.mu.Unlock()
		writeJSONStatus(w, http.StatusOK, body)

	case "GET /auth/v2/google/url":
		status := f.failGoogleURL
		f.mu.Unlock()
		if status != 0 {
			writeJSONStatus(w, status, map[string]any{"message": "google flow unavailable"})
			return
		}
		writeJSONStatus(w, http.StatusOK, map[string]any{
			"auth_url": "https://accounts.google.com/o/oauth2/auth?client_id=abc",
		})

	case "POST /auth/v2/google/callback":
		f.loginCalls++
		access, refresh := f.nextTokens()
		body := map[string]any{
			"access_token":  access,
			"refresh_token": refresh,
			"user":          f.modernUserBody(),
		}
		f.mu.Unlock()
		writeJSONStatus(w, http.StatusOK, body)

	case "POST /auth/v2/register",
		"POST /auth/v2/verify-email",
		"POST /auth/v2/resend-verification",
		"POST /auth/v2/forgot-password",
		"POST /auth/v2/reset-password",
		"POST /auth/v2/change-password":
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)

	case "POST /auth/v2/refresh":
		f.refreshCalls++
		status, delay := f.failRefresh, f.refreshDelay
		var body map[string]any
		if status == 0 {
			access, refresh := f.nextTokens()
			body = map[string]any{
				"access_token":  access,
				"refresh_token": refresh,
				"user":          f.modernUserBody(),
			}
		}
		f.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
		if status != 0 {
			writeJSONStatus(w, status, map[string]any{"message": "refresh rejected"})
			return
		}
		writeJSONStatus(w, http.StatusOK, body)

	case "POST /auth/v2/logout":
		f.logoutCalls++
		status := f.failLogout
		f.mu.Unlock()
		if status != 0 {
			writeJSONStatus(w, status, map[string]any{"message": "logout failed"})
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case "POST /auth/v2/logout-all":
		f.logoutAllCalls++
		status := f.failLogoutAll
		f.mu.Unlock()
		if status != 0 {
			writeJSONStatus(w, status, map[string]any{"message": "logout all failed"})
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case "GET /auth/v2/me":
		f.meCalls++
		status := f.failMe
		body := f.modernUserBody()
		f.mu.Unlock()
		if status != 0 {
			writeJSONStatus(w, status, map[string]any{"message": "token rejected"})
			return
		}
		writeJSONStatus(w, http.StatusOK, body)

	case "POST /auth/login":
		f.legacyCalls++
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "legacy-pass" {
			f.mu.Unlock()
			writeJSONStatus(w, http.StatusUnauthorized, map[string]any{"message": "bad legacy credentials"})
			return
		}
		f.tokenSeq++
		body := map[string]any{
			"access_token": fmt.Sprintf("legacy-access-%d", f.tokenSeq),
			"user": map[string]any{
				"id":       int64(len(req.Username)),
				"username": req.Username,
				"uid":      "uid-" + req.Username,
			},
		}
		f.mu.Unlock()
		writeJSONStatus(w, http.StatusOK, body)

	case "GET /auth/me":
		f.legacyMeCalls++
		status := f.failLegacyMe
		f.mu.Unlock()
		if status != 0 {
			writeJSONStatus(w, status, map[string]any{"message": "legacy token rejected"})
			return
		}
		writeJSONStatus(w, http.StatusOK, map[string]any{
			"id":       int64(3),
			"username": "bob",
			"uid":      "uid-bob",
		})

	case "POST /auth/check-permission":
		f.permissionCalls++
		status, hasAccess := f.failPermission, f.hasAccess
		f.mu.Unlock()
		if status != 0 {
			writeJSONStatus(w, status, map[string]any{"message": "permission backend error"})
			return
		}
		writeJSONStatus(w, http.StatusOK, map[string]any{"has_access": hasAccess})

	default:
		f.mu.Unlock()
		writeJSONStatus(w, http.StatusNotFound, map[string]any{"message": "no such endpoint"})
	}
}

func writeJSONStatus(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func sessionTestConfig(idp *fakeIDP) Config {
	cfg := DefaultConfig()
	cfg.Provider.ModernBaseURL = idp.URL()
	cfg.Provider.LegacyBaseURL = idp.URL()
	cfg.Store.RedisPrefix = "gosessiontest"
	return cfg
}

func newTestManager(t *testing.T) (*Manager, *fakeIDP, *miniredis.Miniredis, func()) {
	t.Helper()

	idp := newFakeIDP()
	mr, rdb := newTestRedis(t)

	manager, err := New().
		WithConfig(sessionTestConfig(idp)).
		WithRedis(rdb).
		Build(t.Context())
	if err != nil {
		idp.Close()
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return manager, idp, mr, func() {
		manager.Close()
		idp.Close()
		mr.Close()
	}
}
