package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y0f/fsclient/internal/config"
)

func testConfig(t *testing.T, srv *httptest.Server) config.APIConfig {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	cfg := config.Defaults().API
	cfg.Scheme = "http"
	cfg.Host = u.Hostname()
	cfg.Port = port
	cfg.ProjectID = 119
	cfg.FeatureStoreID = 67
	cfg.APIKey = "secret-key"
	cfg.RateLimitPerSec = 1000
	cfg.RateLimitBurst = 100
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestSendRequest(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"ok"}`))
	}))
	defer srv.Close()

	c := New(testConfig(t, srv))
	assert.Equal(t, int64(119), c.ProjectID())

	query := url.Values{"temporaryCredentials": {"true"}}
	body, err := c.SendRequest(context.Background(), http.MethodGet,
		[]string{"project", "119", "featurestores", "67", "storageconnectors", "my conn"}, query, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"ok"}`, string(body))

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/hopsworks-api/api/project/119/featurestores/67/storageconnectors/my conn", got.URL.Path)
	assert.Equal(t, "/hopsworks-api/api/project/119/featurestores/67/storageconnectors/my%20conn", got.URL.EscapedPath())
	assert.Equal(t, "true", got.URL.Query().Get("temporaryCredentials"))
	assert.Equal(t, "ApiKey secret-key", got.Header.Get("Authorization"))
	assert.Equal(t, "fsctl", got.Header.Get("User-Agent"))
	assert.NotEmpty(t, got.Header.Get("X-Request-ID"))
	assert.Empty(t, got.Header.Get("Content-Type"))
}

func TestSendRequestWithBody(t *testing.T) {
	var gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(testConfig(t, srv))
	_, err := c.SendRequest(context.Background(), http.MethodPost, []string{"project", "119"}, nil, []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, gotBody)
	assert.Equal(t, "application/json", gotType)
}

func TestSendRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errorCode":270042,"errorMsg":"Cannot find storage connector with name","usrMsg":"name: missing"}`))
	}))
	defer srv.Close()

	c := New(testConfig(t, srv))
	_, err := c.SendRequest(context.Background(), http.MethodGet, []string{"project", "119"}, nil, nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnauthorized(err))

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, 270042, reqErr.ErrorCode)
	assert.Equal(t, "Cannot find storage connector with name", reqErr.ErrorMsg)
	assert.Equal(t, "name: missing", reqErr.UserMsg)
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.Contains(t, err.Error(), "error code 270042")
}

func TestSendRequestPlainErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(testConfig(t, srv))
	_, err := c.SendRequest(context.Background(), http.MethodGet, []string{"project"}, nil, nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "denied")
}

func TestSendRequestNoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(testConfig(t, srv))
	_, err := c.SendRequest(context.Background(), http.MethodGet, []string{"project"}, nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSendRequestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := testConfig(t, srv)
	cfg.MaxRetries = 2
	c := New(cfg)
	_, err := c.SendRequest(context.Background(), http.MethodGet, []string{"project"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendRequestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv)
	cfg.MaxRetries = 3
	c := New(cfg)
	_, err := c.SendRequest(context.Background(), http.MethodGet, []string{"project"}, nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSendRequestCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(testConfig(t, srv))
	_, err := c.SendRequest(ctx, http.MethodGet, []string{"project"}, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "project/1/featurestores/2", JoinPath("project", "1", "featurestores", "2"))
	assert.Equal(t, "a%2Fb/c%3Fd", JoinPath("a/b", "c?d"))
	assert.Equal(t, "", JoinPath())
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, backoff(1))
	assert.Equal(t, 400*time.Millisecond, backoff(2))
	assert.Equal(t, 800*time.Millisecond, backoff(3))
	assert.Equal(t, maxBackoff, backoff(10))
	for _, attempt := range []int{40, 64, 1000} {
		assert.Equal(t, maxBackoff, backoff(attempt), "attempt %d", attempt)
	}
}

func TestSendRequestBodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.CopyN(w, zeroReader{}, maxBodyRead+1)
	}))
	defer srv.Close()

	c := New(testConfig(t, srv))
	_, err := c.SendRequest(context.Background(), http.MethodGet, []string{"project"}, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestSendRequestBodyAtLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.CopyN(w, zeroReader{}, maxBodyRead)
	}))
	defer srv.Close()

	c := New(testConfig(t, srv))
	data, err := c.SendRequest(context.Background(), http.MethodGet, []string{"project"}, nil, nil)
	require.NoError(t, err)
	assert.Len(t, data, maxBodyRead)
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = '0'
	}
	return len(p), nil
}
