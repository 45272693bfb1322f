package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransport_ReturnsNon2xxAsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"x":1}`, string(b))
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`slow down`))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(nil)
	resp, err := tr.Do(context.Background(), Request{
		Method:  http.MethodPost,
		URL:     srv.URL,
		Header:  http.Header{"Authorization": {"Bearer secret"}},
		Body:    []byte(`{"x":1}`),
		Timeout: time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.Status)
	assert.False(t, resp.OK())
	assert.Equal(t, "slow down", string(resp.Body))
}

func TestHTTPTransport_DeadlineIsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	tr := NewHTTPTransport(nil)
	_, err := tr.Do(context.Background(), Request{URL: srv.URL, Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.False(t, IsRetryable(err))
}

func TestHTTPTransport_CallerCancelIsCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewHTTPTransport(nil).Do(ctx, Request{URL: srv.URL, Timeout: 5 * time.Second})
	require.Error(t, err)
	assert.Equal(t, KindCanceled, KindOf(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestHTTPTransport_ConnectionFailureIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPTransport(nil).Do(context.Background(), Request{URL: url, Timeout: time.Second})
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.True(t, IsRetryable(err))
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{HTTPStatus(500, "API request failed with status 500"), "http_error: API request failed with status 500"},
		{NotConfigured("missing API key"), "not_configured: missing API key"},
		{&Error{Kind: KindNetwork, Err: errors.New("reset")}, "network_error: reset"},
		{&Error{Kind: KindTimeout}, "timeout"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := errors.Join(errors.New("context"), Malformed("bad date", nil))
	assert.Equal(t, KindMalformed, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}
