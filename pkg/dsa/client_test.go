package dsa_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foomo/barctl/pkg/dsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...dsa.Option) *dsa.Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	opts = append([]dsa.Option{dsa.WithRetryDelay(time.Millisecond, 5*time.Millisecond)}, opts...)
	c, err := dsa.New(zaptest.NewLogger(t), server.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	l := zaptest.NewLogger(t)

	_, err := dsa.New(l, "")
	require.Error(t, err)

	_, err = dsa.New(l, "ftp://dsc:9090")
	require.Error(t, err)

	_, err = dsa.New(l, "https://")
	require.Error(t, err)

	c, err := dsa.New(l, "https://dsc:9090")
	require.NoError(t, err)
	assert.Equal(t, "https://dsc:9090/", c.BaseURL())
}

func TestClientDo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/"+dsa.EndpointDiskFileSystem, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"fileSystems":[{"fileSystemPath":"/backup","maxFiles":10}]}`, string(body))
		_, _ = w.Write([]byte(`{"status":"CONFIG_DISK_FILE_SYSTEM_SUCCESSFUL","valid":true}`))
	}, dsa.WithBasicAuth("admin", "secret"))

	resp, err := c.Do(t.Context(), &dsa.Request{
		Method:   http.MethodPost,
		Endpoint: dsa.EndpointDiskFileSystem,
		Body:     dsa.FileSystemList{FileSystems: []dsa.FileSystem{{FileSystemPath: "/backup", MaxFiles: 10}}},
	})
	require.NoError(t, err)
	assert.True(t, resp.Succeeded(dsa.StatusConfigDiskFileSystemSuccessful))
}

func TestClientDoParams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dsa/components/mediaservers/ms%201", r.URL.EscapedPath())
		assert.Equal(t, "true", r.URL.Query().Get("virtual"))
		_, _ = w.Write([]byte(`{"valid":true}`))
	})

	resp, err := c.Do(t.Context(), &dsa.Request{
		Method:   http.MethodDelete,
		Endpoint: dsa.MediaServerEndpoint(" ms 1 "),
		Params:   map[string][]string{"virtual": {"true"}},
	})
	require.NoError(t, err)
	assert.True(t, resp.IsValid())
}

func TestClientDoEnvelopeOnErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"FAILED","valid":false,"validationlist":{"clientValidationList":[{"code":"C1","message":"bad"}]}}`))
	})

	resp, err := c.Do(t.Context(), &dsa.Request{Method: http.MethodGet, Endpoint: dsa.EndpointAWSS3})
	require.NoError(t, err)
	assert.False(t, resp.IsValid())
	require.Len(t, resp.Validations(), 1)
	assert.Equal(t, dsa.OriginClient, resp.Validations()[0].Origin)
}

func TestClientDoHTTPError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}, dsa.WithRetries(3))

	_, err := c.Do(t.Context(), &dsa.Request{Method: http.MethodGet, Endpoint: dsa.EndpointAWSS3})
	require.Error(t, err)
	var httpErr *dsa.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load(), "500 is not retried")
}

func TestClientDoRetriesTemporary(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"valid":true}`))
	}, dsa.WithRetries(3))

	resp, err := c.Do(t.Context(), &dsa.Request{Method: http.MethodGet, Endpoint: dsa.EndpointMediaServers})
	require.NoError(t, err)
	assert.True(t, resp.IsValid())
	assert.Equal(t, int32(3), calls.Load())
}

// dropFirst closes the connection of the first request after reading its body,
// so the server may have applied it while the client sees a transport error.
func dropFirst(t *testing.T, calls *atomic.Int32) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.ReadAll(r.Body)
		if calls.Add(1) == 1 {
			conn, _, err := http.NewResponseController(w).Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte(`{"status":"CONFIG_DISK_FILE_SYSTEM_SUCCESSFUL","valid":true}`))
	}
}

func TestClientDoDoesNotReplayPost(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, dropFirst(t, &calls), dsa.WithRetries(3))

	_, err := c.Do(t.Context(), &dsa.Request{
		Method:   http.MethodPost,
		Endpoint: dsa.EndpointMediaServers,
		Body:     map[string]string{"serverName": "ms1"},
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "a create must not be sent twice")
}

func TestClientDoReplaysIdempotentPost(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, dropFirst(t, &calls), dsa.WithRetries(3))

	resp, err := c.Do(t.Context(), &dsa.Request{
		Method:     http.MethodPost,
		Endpoint:   dsa.EndpointDiskFileSystem,
		Body:       map[string]any{"fileSystems": []any{}},
		Idempotent: true,
	})
	require.NoError(t, err)
	assert.True(t, resp.IsValid())
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientDoPostStatusRetries(t *testing.T) {
	tests := []struct {
		name   string
		status int
		calls  int32
	}{
		{name: "bad gateway", status: http.StatusBadGateway, calls: 1},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, calls: 1},
		{name: "unavailable", status: http.StatusServiceUnavailable, calls: 3},
		{name: "too many requests", status: http.StatusTooManyRequests, calls: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				http.Error(w, "upstream", tt.status)
			}, dsa.WithRetries(2))

			_, err := c.Do(t.Context(), &dsa.Request{Method: http.MethodDelete, Endpoint: dsa.MediaServerEndpoint("ms1")})
			require.Error(t, err)
			assert.Equal(t, tt.calls, calls.Load())
		})
	}
}

func TestClientDoInvalidJSON(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}, dsa.WithRetries(3))

	_, err := c.Do(t.Context(), &dsa.Request{Method: http.MethodGet, Endpoint: dsa.EndpointMediaServers})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientDoEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	resp, err := c.Do(t.Context(), &dsa.Request{Method: http.MethodDelete, Endpoint: dsa.MediaServerEndpoint("ms1")})
	require.NoError(t, err)
	assert.False(t, resp.Succeeded(""))
}
