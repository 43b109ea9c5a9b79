package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadToTempFile(t *testing.T) {
	payload := make([]byte, 100*1024)
	for i := range payload {
		payload[i] = byte(i)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	d, err := New("", 10*time.Millisecond)
	require.NoError(t, err)

	path, err := d.DownloadToTempFile(context.Background(), server.URL)
	require.NoError(t, err)
	defer os.Remove(path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDownloadRetriesOnce(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("installer bytes"))
	}))
	defer server.Close()

	d, err := New("", 10*time.Millisecond)
	require.NoError(t, err)

	path, err := d.DownloadToTempFile(context.Background(), server.URL)
	require.NoError(t, err)
	defer os.Remove(path)

	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "installer bytes", string(got))
}

func TestDownloadFailureLeavesNoFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	d, err := New("", 10*time.Millisecond)
	require.NoError(t, err)

	path, err := d.DownloadToTempFile(context.Background(), server.URL)
	require.Error(t, err)
	assert.Empty(t, path)
}

func TestDownloadTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	d, err := New("", 10*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = d.DownloadToTempFile(ctx, server.URL)
	assert.Error(t, err)
}
