package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cve-tools/cvemirror/internal/model"
)

func TestSchedulerRun(t *testing.T) {
	t.Parallel()

	t.Run("runs deltas until cancelled", func(t *testing.T) {
		t.Parallel()

		var windows atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Has("lastModStartDate") {
				windows.Add(1)
			}
			w.Write([]byte(`{"startIndex":0,"totalResults":0,"vulnerabilities":[]}`)) //nolint:errcheck
		}))
		defer srv.Close()

		engine, _, _ := newTestEngine(t, srv.URL, model.ModeInfo)
		u, ustate, _ := newTestUpdater(t, srv.URL, model.ModeInfo, time.Now())
		if err := ustate.SaveWatermark("2024-03-01T09:00:00.000"); err != nil {
			t.Fatal(err)
		}

		sched := NewScheduler(engine, u, time.Millisecond, WithSchedulerLogger(quietLogger()))

		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()
		if err := sched.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Run() = %v, want context.DeadlineExceeded", err)
		}
		if windows.Load() == 0 {
			t.Error("expected at least one delta window request")
		}
	})

	t.Run("once mode exits after a single delta", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"startIndex":0,"totalResults":0,"vulnerabilities":[]}`)) //nolint:errcheck
		}))
		defer srv.Close()

		engine, _, _ := newTestEngine(t, srv.URL, model.ModeInfo)
		u, _, _ := newTestUpdater(t, srv.URL, model.ModeInfo, time.Now())

		sched := NewScheduler(engine, u, time.Hour,
			WithSchedulerLogger(quietLogger()), WithOnce(true))

		done := make(chan error, 1)
		go func() { done <- sched.Run(context.Background()) }()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Run() = %v, want nil", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("once mode did not exit")
		}
	})

	t.Run("a failing delta does not stop the loop", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Has("lastModStartDate") {
				requests.Add(1)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{"startIndex":0,"totalResults":0,"vulnerabilities":[]}`)) //nolint:errcheck
		}))
		defer srv.Close()

		engine, _, _ := newTestEngine(t, srv.URL, model.ModeInfo)
		u, ustate, _ := newTestUpdater(t, srv.URL, model.ModeInfo, time.Now())
		if err := ustate.SaveWatermark("2024-03-01T09:00:00.000"); err != nil {
			t.Fatal(err)
		}

		sched := NewScheduler(engine, u, time.Millisecond, WithSchedulerLogger(quietLogger()))

		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()
		if err := sched.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Run() = %v, want context.DeadlineExceeded", err)
		}
		if requests.Load() < 2 {
			t.Errorf("delta requests = %d, want at least 2", requests.Load())
		}
	})
}
