// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/traceofthetides/tides-go/internal/cache"
	"github.com/traceofthetides/tides-go/internal/catalog"
	"github.com/traceofthetides/tides-go/internal/identity"
	"github.com/traceofthetides/tides-go/internal/middleware"
	"github.com/traceofthetides/tides-go/internal/service"
	"github.com/traceofthetides/tides-go/internal/store"
	"github.com/traceofthetides/tides-go/internal/testutil"
)

// testEnv is a fully wired API stack served over httptest with a
// cookie-keeping client, so session flows behave like a browser.
type testEnv struct {
	server *httptest.Server
	client *http.Client
	db     *sql.DB
	cache  *cache.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.TestDB(t)

	if err := store.Seed(context.Background(), db); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}

	cacheMgr := cache.NewManagerWithBackend(cache.NewSimpleMemoryCache(time.Minute), cat, time.Minute)

	sm := scs.New()
	sm.Lifetime = time.Hour

	guard := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit: 1000, // keep tests fast; lockout paths are tested in middleware
		IPBurst:     1000,
	})
	t.Cleanup(guard.Close)

	h := NewHandler(HandlerConfig{
		DB:            db,
		Catalog:       cat,
		Cache:         cacheMgr,
		Identity:      identity.New(db),
		Sessions:      sm,
		Contributions: service.NewContributionService(db, t.TempDir()),
		Events:        service.NewEventService(db),
		LoginGuard:    guard,
	})

	server := httptest.NewServer(sm.LoadAndSave(h.Routes()))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}

	return &testEnv{
		server: server,
		client: &http.Client{Jar: jar},
		db:     db,
		cache:  cacheMgr,
	}
}

// do issues a request and decodes the JSON body into out (when non-nil).
func (e *testEnv) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (e *testEnv) get(t *testing.T, path string, out any) int {
	return e.do(t, http.MethodGet, path, nil, out)
}

func (e *testEnv) post(t *testing.T, path string, body, out any) int {
	return e.do(t, http.MethodPost, path, body, out)
}

// signup registers and signs in a fresh account through the API.
func (e *testEnv) signup(t *testing.T, email, password, name string) {
	t.Helper()
	status := e.post(t, "/auth/signup", SignupRequest{
		Email:       email,
		Password:    password,
		DisplayName: name,
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("signup status = %d, want 201", status)
	}
}

// login signs in an existing account.
func (e *testEnv) login(t *testing.T, email, password string) {
	t.Helper()
	status := e.post(t, "/auth/login", LoginRequest{Email: email, Password: password}, nil)
	if status != http.StatusOK {
		t.Fatalf("login status = %d, want 200", status)
	}
}

// logout ends the current session.
func (e *testEnv) logout(t *testing.T) {
	t.Helper()
	if status := e.post(t, "/auth/logout", map[string]string{}, nil); status != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", status)
	}
}

// itemsEnvelope decodes list responses carrying catalog items.
type itemsEnvelope struct {
	Data []catalog.Item `json:"data"`
	Meta *Meta          `json:"meta"`
}
