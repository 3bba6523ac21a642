package webscraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkValidator_Check(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/moved-away", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/nowhere", http.StatusFound)
	})
	mux.HandleFunc("/created", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/error", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tests := []struct {
		name    string
		path    string
		verdict Verdict
		status  int
		reason  string
	}{
		{"ok", "/ok", Alive, http.StatusOK, ""},
		{"redirect to ok", "/moved", Alive, http.StatusOK, ""},
		{"redirect to missing", "/moved-away", Dead, http.StatusNotFound, "status 404"},
		{"missing", "/missing", Dead, http.StatusNotFound, "status 404"},
		{"non-200 success", "/created", Dead, http.StatusCreated, "status 201"},
		{"server error", "/error", Dead, http.StatusServiceUnavailable, "status 503"},
	}

	validator := NewLinkValidator(srv.Client())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := validator.Check(context.Background(), srv.URL+tt.path)

			assert.Equal(t, tt.verdict, outcome.Verdict)
			assert.Equal(t, tt.status, outcome.StatusCode)
			assert.Equal(t, tt.reason, outcome.Reason)
			assert.Nil(t, outcome.Err)
		})
	}
}

func TestLinkValidator_UsesHead(t *testing.T) {
	methods := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods <- r.Method
	}))
	defer srv.Close()

	NewLinkValidator(srv.Client()).Check(context.Background(), srv.URL+"/")
	assert.Equal(t, http.MethodHead, <-methods)
}

func TestLinkValidator_FailClosed(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	tests := []struct {
		name   string
		client *http.Client
		url    string
		reason string
	}{
		{"refused", http.DefaultClient, closedURL + "/", "refused"},
		{"timeout", &http.Client{Timeout: 50 * time.Millisecond}, slow.URL + "/", "timeout"},
		{"invalid", http.DefaultClient, "http://bad host/", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := NewLinkValidator(tt.client).Check(context.Background(), tt.url)

			assert.True(t, outcome.IsDead())
			assert.Equal(t, tt.reason, outcome.Reason)
			require.NotNil(t, outcome.Err)
			assert.Equal(t, tt.url, outcome.Err.URL)
		})
	}
}

func TestLinkValidator_SharesConcurrentChecks(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
	}))
	defer srv.Close()

	validator := NewLinkValidator(srv.Client())
	var wg sync.WaitGroup
	outcomes := make([]Outcome, 5)
	for i := range outcomes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = validator.Check(context.Background(), srv.URL+"/")
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	for _, o := range outcomes {
		assert.Equal(t, Alive, o.Verdict)
	}
}

func TestLinkValidator_CancelledIsUnchecked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	validator := NewLinkValidator(srv.Client())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	outcome := validator.Check(ctx, srv.URL+"/in-flight")
	assert.Equal(t, Unchecked, outcome.Verdict)
	assert.False(t, outcome.IsDead())
	assert.Nil(t, outcome.Err)

	outcome = validator.Check(ctx, srv.URL+"/after")
	assert.Equal(t, Unchecked, outcome.Verdict)
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "alive", Alive.String())
	assert.Equal(t, "dead", Dead.String())
	assert.Equal(t, "unchecked", Unchecked.String())
}
