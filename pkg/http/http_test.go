package http_test

import (
	"context"
	"encoding/json"
	"io"
	gohttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storeadmin/pkg/http"
)

func TestSend_JSONBodyAndBearer(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		assert.Equal(t, gohttp.MethodPut, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Blue", body["value"])

		w.WriteHeader(gohttp.StatusOK)
		_, _ = w.Write([]byte(`{"id":9}`))
	}))
	defer srv.Close()

	resp, err := http.New(gohttp.MethodPut, srv.URL+"/p_specification/9").
		Bearer("tok").
		Body(map[string]any{"value": "Blue"}).
		Send()
	require.NoError(t, err)
	assert.True(t, resp.OK())

	var out struct{ ID int64 }
	require.NoError(t, resp.JSON(&out))
	assert.Equal(t, int64(9), out.ID)
}

func TestSend_EmptyBearerIsSkipped(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	_, err := http.New(gohttp.MethodGet, srv.URL).Bearer("").Send()
	require.NoError(t, err)
}

func TestSend_Multipart(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "photo.jpg", hdr.Filename)
		assert.Equal(t, "binary", string(data))
		_, _ = w.Write([]byte(`"https://cdn/photo.jpg"`))
	}))
	defer srv.Close()

	resp, err := http.New(gohttp.MethodPost, srv.URL+"/files").File("file", "photo.jpg", strings.NewReader("binary")).Send()
	require.NoError(t, err)

	var url string
	require.NoError(t, resp.JSON(&url))
	assert.Equal(t, "https://cdn/photo.jpg", url)
}

func TestSend_NonSuccessIsNotTransportError(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		gohttp.Error(w, "nope", gohttp.StatusNotFound)
	}))
	defer srv.Close()

	resp, err := http.New(gohttp.MethodDelete, srv.URL).Send()
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, gohttp.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Text(), "nope")
}

func TestSend_SingleAttemptByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		calls.Add(1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := http.New(gohttp.MethodGet, srv.URL).Timeout(20 * time.Millisecond).Send()
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSend_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := http.New(gohttp.MethodGet, srv.URL).WithContext(ctx).Send()
	assert.ErrorIs(t, err, context.Canceled)
}
