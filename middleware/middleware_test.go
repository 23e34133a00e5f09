package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelydev/apiUsuarios/logging"
)

const testSecret = "test-secret"

func signed(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func subjectEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(Subject(r.Context())))
	})
}

func TestJWTMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := JWTMiddleware(testSecret, logger)(subjectEcho())

	valid := signed(t, testSecret, jwt.RegisteredClaims{
		Subject:   "admin-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	expired := signed(t, testSecret, jwt.RegisteredClaims{
		Subject:   "admin-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	otherKey := signed(t, "another-secret", jwt.RegisteredClaims{Subject: "admin-1"})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, "admin-1"},
		{"lower-case scheme", "bearer " + valid, http.StatusOK, "admin-1"},
		{"missing header", "", http.StatusUnauthorized, "Authorization header required"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Bearer {token}"},
		{"malformed", "Bearer not-a-token", http.StatusUnauthorized, "Malformed token"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "expired"},
		{"wrong secret", "Bearer " + otherKey, http.StatusUnauthorized, "Invalid token signature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/usuarios", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestJWTMiddleware_ErrorBodyIsJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	rec := httptest.NewRecorder()
	JWTMiddleware(testSecret, logger)(subjectEcho()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/usuarios", nil))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Authorization header required", body["error"])
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Setup("apiUsuarios", "test", "json", &buf)

	var seen string
	h := RequestID(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("generates an id", func(t *testing.T) {
		buf.Reset()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		id := rec.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, seen)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "http request", entry["msg"])
		assert.Equal(t, id, entry["request_id"])
		assert.Equal(t, float64(http.StatusTeapot), entry["status"])
		assert.Equal(t, "/healthz", entry["path"])
	})

	t.Run("keeps a valid incoming id", func(t *testing.T) {
		incoming := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(RequestIDHeader, incoming)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, incoming, rec.Header().Get(RequestIDHeader))
		assert.Equal(t, incoming, seen)
	})

	t.Run("replaces a garbage incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(RequestIDHeader, "<script>")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.NotEqual(t, "<script>", rec.Header().Get(RequestIDHeader))
	})
}

type observation struct {
	route, method string
	status        int
}

type fakeObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (f *fakeObserver) ObserveHTTP(route, method string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.obs = append(f.obs, observation{route, method, status})
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	obs := &fakeObserver{}
	r := mux.NewRouter()
	r.Use(Metrics(obs))
	r.HandleFunc("/usuarios/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/usuarios/42", nil))

	require.Len(t, obs.obs, 1)
	assert.Equal(t, observation{"/usuarios/{id}", http.MethodGet, http.StatusNotFound}, obs.obs[0])
}
