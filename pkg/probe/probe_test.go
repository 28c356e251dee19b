package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stevedore/pkg/backoff"
)

func TestFetch_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Hello, this is my simple web app!")
	}))
	defer srv.Close()

	err := New().Fetch(context.Background(), srv.URL, "simple web app")
	assert.NoError(t, err)
}

func TestFetch_EmptyWantChecksStatusOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "anything at all")
	}))
	defer srv.Close()

	err := New().Fetch(context.Background(), srv.URL, "")
	assert.NoError(t, err)
}

func TestFetch_WrongBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "some other process entirely")
	}))
	defer srv.Close()

	err := New().Fetch(context.Background(), srv.URL, "Hello, this is my simple web app!")
	assert.True(t, errors.Is(err, ErrWrongBody))
}

func TestFetch_BadStatus(t *testing.T) {
	tests := []struct {
		name string
		code int
	}{
		{name: "server error", code: http.StatusInternalServerError},
		{name: "not found", code: http.StatusNotFound},
		{name: "redirect not followed to success", code: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			}))
			defer srv.Close()

			err := New().Fetch(context.Background(), srv.URL, "")
			assert.True(t, errors.Is(err, ErrBadStatus))
		})
	}
}

func TestFetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := New().Fetch(context.Background(), url, "")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrBadStatus))
	assert.False(t, errors.Is(err, ErrWrongBody))
}

func TestWaitReachable_EventuallyUp(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "ready now")
	}))
	defer srv.Close()

	cfg := backoff.Config{MaxWait: 2 * time.Second, Interval: 5 * time.Millisecond}
	err := New().WaitReachable(context.Background(), srv.URL, "ready now", cfg)

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, atomic.LoadInt64(&hits), int64(3))
}

func TestWaitReachable_NeverUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := backoff.Config{MaxWait: 25 * time.Millisecond, Interval: 5 * time.Millisecond}
	err := New().WaitReachable(context.Background(), srv.URL, "", cfg)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadStatus), "final error should carry the last probe failure")
}
