package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, method string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/brands", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORSListedOrigin(t *testing.T) {
	h := CORS(CORSOptions{
		AllowedOrigins: []string{"https://admin.example.com"},
		AllowedMethods: []string{"GET", "PATCH"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         60,
	})(ok)

	rec := serve(h, http.MethodGet, map[string]string{"Origin": "https://admin.example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Request-ID", rec.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))

	rec = serve(h, http.MethodOptions, map[string]string{
		"Origin":                        "https://admin.example.com",
		"Access-Control-Request-Method": "PATCH",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, PATCH", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "60", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORSUnlistedOrigin(t *testing.T) {
	h := CORS(CORSOptions{AllowedOrigins: []string{"https://admin.example.com"}})(ok)

	rec := serve(h, http.MethodOptions, map[string]string{
		"Origin":                        "https://evil.example.com",
		"Access-Control-Request-Method": "DELETE",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(h, http.MethodGet, map[string]string{"Origin": "https://evil.example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcard(t *testing.T) {
	h := CORS(DefaultCORSOptions())(ok)
	rec := serve(h, http.MethodGet, map[string]string{"Origin": "http://localhost:5173"})
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(h, http.MethodGet, nil)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitPerClient(t *testing.T) {
	h := RateLimit(2, time.Hour)(ok)

	a := map[string]string{"X-Forwarded-For": "10.0.0.1"}
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, a).Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, a).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodGet, a).Code)

	b := map[string]string{"X-Forwarded-For": "10.0.0.2, 172.16.0.1"}
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, b).Code)
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimit(0, time.Minute)(ok)
	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, serve(h, http.MethodGet, nil).Code)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := serve(h, http.MethodGet, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
}
