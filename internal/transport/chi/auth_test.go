package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func authHandler(apiKeys []string) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return BearerAuthMiddleware(apiKeys, zap.NewNop())(next)
}

func TestBearerAuth_DisabledWhenNoKeys(t *testing.T) {
	rec := httptest.NewRecorder()
	authHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/x/history", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected pass-through, got %d", rec.Code)
	}
}

func TestBearerAuth_ValidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/conversations", nil)
	req.Header.Set("Authorization", "Bearer secret")

	rec := httptest.NewRecorder()
	authHandler([]string{"secret"}).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestBearerAuth_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic secret"},
		{"wrong token", "Bearer nope"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/conversations", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			rec := httptest.NewRecorder()
			authHandler([]string{"secret"}).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestBearerAuth_ExemptPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		rec := httptest.NewRecorder()
		authHandler([]string{"secret"}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected exempt 200, got %d", path, rec.Code)
		}
	}
}
