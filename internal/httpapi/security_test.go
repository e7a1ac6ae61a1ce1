package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"papeleria/backend/internal/domain"
	"papeleria/backend/internal/export"
	"papeleria/backend/internal/service"
	"papeleria/backend/internal/store"
)

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if got := res.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options nosniff, got %q", got)
	}
	if got := res.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected X-Frame-Options DENY, got %q", got)
	}
	if got := res.Header().Get("Referrer-Policy"); got == "" {
		t.Fatalf("expected Referrer-Policy to be set")
	}
}

func TestLoginRateLimitReturns429(t *testing.T) {
	api := newTestAPI(t)
	body, _ := json.Marshal(domain.LoginRequest{Email: "admin@papeleria.local", Password: "wrong-pass"})

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "127.0.0.1:5000"
		res := httptest.NewRecorder()

		api.Handler().ServeHTTP(res, req)

		if i < 5 && res.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d expected 401 before limit, got %d", i+1, res.Code)
		}
		if i == 5 && res.Code != http.StatusTooManyRequests {
			t.Fatalf("attempt 6 expected 429, got %d", res.Code)
		}
	}
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	api := newTestAPI(t)
	veryLong := strings.Repeat("a", (1<<20)+1024)
	body := fmt.Sprintf(`{"email":"%s","password":"x"}`, veryLong)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest && res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 400 or 413 for too large body, got %d", res.Code)
	}
}

func TestProtectedRoutesNeedBearerToken(t *testing.T) {
	api := newTestAPI(t)

	for _, header := range []string{"", "Basic abc", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		res := httptest.NewRecorder()
		api.Handler().ServeHTTP(res, req)
		if res.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, res.Code)
		}
	}
}

func TestAdminRoutesRejectCashier(t *testing.T) {
	api := newTestAPI(t)
	token := login(t, api, "cajero@papeleria.local", "cajero123")

	for _, path := range []string{"/api/v1/users", "/api/v1/purchase-orders", "/api/v1/audit-logs", "/api/v1/exports/sales"} {
		res := doJSON(t, api, http.MethodGet, path, token, nil)
		if res.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", path, res.Code)
		}
	}
	res := doJSON(t, api, http.MethodPost, "/api/v1/products", token, domain.ProductRequest{Name: "Goma", SalePriceCents: 500})
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 creating a product as cashier, got %d", res.Code)
	}
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: missing", store.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: bad phone", store.ErrInvalid), http.StatusBadRequest},
		{export.ErrNoData, http.StatusBadRequest},
		{store.ErrConflict, http.StatusConflict},
		{store.ErrOrderClosed, http.StatusConflict},
		{store.ErrInsufficientStock, http.StatusUnprocessableEntity},
		{store.ErrOverpayment, http.StatusUnprocessableEntity},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusForError(tc.err); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestInternalErrorsAreMasked(t *testing.T) {
	res := httptest.NewRecorder()
	writeServiceError(res, errors.New("pq: relation \"ventas\" does not exist"))

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	if strings.Contains(res.Body.String(), "relation") {
		t.Fatalf("expected internal error details to be hidden, got %s", res.Body.String())
	}
}

func TestParsePositiveLimitCaps(t *testing.T) {
	if got := parsePositiveLimit("9999", 50, 200); got != 200 {
		t.Fatalf("expected capped limit 200, got %d", got)
	}
	if got := parsePositiveLimit("", 50, 200); got != 50 {
		t.Fatalf("expected fallback limit 50, got %d", got)
	}
	if got := parsePositiveLimit("invalid", 50, 200); got != 50 {
		t.Fatalf("expected fallback on invalid input, got %d", got)
	}
}

func TestClientKey(t *testing.T) {
	cases := map[string]string{
		"127.0.0.1:5000": "127.0.0.1",
		"[::1]:8080":     "::1",
		"10.0.0.7":       "10.0.0.7",
		"::1":            "::1",
		"":               "unknown",
	}
	for remote, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		if got := clientKey(req); got != want {
			t.Fatalf("%q: expected %q, got %q", remote, want, got)
		}
	}
}

func TestLoginRateLimitIgnoresForwardingHeaders(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	body, _ := json.Marshal(domain.LoginRequest{Email: "admin@papeleria.local", Password: "wrong-pass"})

	limited := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i+1))
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("192.0.2.%d", i+1))
		req.RemoteAddr = "203.0.113.9:5000"
		res := httptest.NewRecorder()

		handler.ServeHTTP(res, req)
		if res.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 15 {
		t.Fatalf("expected 15 limited attempts from one socket address, got %d", limited)
	}
	if got := len(api.loginLimiter.entries); got != 1 {
		t.Fatalf("expected a single limiter key, got %d", got)
	}
}

func TestAttemptLimiterPrunesExpiredKeys(t *testing.T) {
	limiter := newAttemptLimiter(2, time.Minute)
	start := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return start }

	for i := 0; i < 50; i++ {
		limiter.Allow(fmt.Sprintf("10.0.0.%d", i))
	}
	if got := len(limiter.entries); got != 50 {
		t.Fatalf("expected 50 keys, got %d", got)
	}

	limiter.now = func() time.Time { return start.Add(2 * time.Minute) }
	if !limiter.Allow("10.0.0.1") {
		t.Fatalf("expected attempt after the window to be allowed")
	}
	if got := len(limiter.entries); got != 1 {
		t.Fatalf("expected expired keys to be pruned, got %d", got)
	}
}
