package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientCrawlSuccess(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/crawl", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var err error
		gotBody, err = json.Marshal(map[string]any{"echo": true})
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"results":[{"url":"https://example.com","success":true}]}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer srv.Close()

	client := NewClient(5*time.Second, nil)
	payload, err := client.Crawl(context.Background(), srv.URL, json.RawMessage(`{"urls":["https://example.com"]}`))
	require.NoError(t, err)
	require.Contains(t, string(payload), "example.com")
	require.NotNil(t, gotBody)
}

func TestClientCrawlRemoteErrorExtractsMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte(`{"message":"browser pool exhausted"}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer srv.Close()

	client := NewClient(5*time.Second, nil)
	_, err := client.Crawl(context.Background(), srv.URL, json.RawMessage(`{}`))

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	require.Equal(t, http.StatusServiceUnavailable, gwErr.StatusCode)
	require.Equal(t, "browser pool exhausted", gwErr.Message)
}

func TestClientCrawlRemoteErrorFallbackMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte("<html>oops</html>")); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer srv.Close()

	client := NewClient(5*time.Second, nil)
	_, err := client.Crawl(context.Background(), srv.URL, json.RawMessage(`{}`))

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	require.Equal(t, http.StatusInternalServerError, gwErr.StatusCode)
	require.Equal(t, "Crawl failed", gwErr.Message)
}

func TestClientCrawlTransportError(t *testing.T) {
	t.Parallel()

	// Grab a port that nothing listens on.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := NewClient(time.Second, nil)
	_, err := client.Crawl(context.Background(), srv.URL, json.RawMessage(`{}`))

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	require.Equal(t, http.StatusBadGateway, gwErr.StatusCode)
	require.NotEmpty(t, gwErr.Message)
}

func TestClientMonitoringEndpoints(t *testing.T) {
	t.Parallel()

	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if _, err := w.Write([]byte(`{"ok":true}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer srv.Close()

	client := NewClient(5*time.Second, nil)
	ctx := context.Background()

	_, err := client.Health(ctx, srv.URL)
	require.NoError(t, err)
	_, err = client.Requests(ctx, srv.URL)
	require.NoError(t, err)
	_, err = client.Cleanup(ctx, srv.URL)
	require.NoError(t, err)

	require.Equal(t, []string{
		"GET /monitor/health",
		"GET /monitor/requests",
		"POST /monitor/actions/cleanup",
	}, paths)
}

func TestErrorImplementsError(t *testing.T) {
	t.Parallel()

	err := error(&Error{StatusCode: 500, Message: "boom"})
	require.Contains(t, err.Error(), "boom")
	require.True(t, errors.As(err, new(*Error)))
}
