package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newUserServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimPrefix(r.URL.Path, "/users/")
		switch userID {
		case "user123":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id": "user123"}`))
		case "broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPDirectory_Exists(t *testing.T) {
	srv := newUserServer(t)
	dir := NewHTTPDirectory(srv.URL+"/users/", 2*time.Second, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = dir.Close() })

	ok, err := dir.Exists(context.Background(), "user123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dir.Exists(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = dir.Exists(context.Background(), "broken")
	assert.Error(t, err)
}

func TestHTTPDirectory_Unreachable(t *testing.T) {
	srv := newUserServer(t)
	url := srv.URL
	srv.Close()

	dir := NewHTTPDirectory(url+"/users", time.Second, nil)
	_, err := dir.Exists(context.Background(), "user123")
	assert.Error(t, err)
}

func TestStaticDirectory(t *testing.T) {
	dir := NewStaticDirectory("U1", " U2 ", "")
	for id, want := range map[string]bool{"U1": true, "U2": true, "U3": false, "": false} {
		got, err := dir.Exists(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
	}
}
