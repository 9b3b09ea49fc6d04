package nvd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cve-tools/cvemirror/internal/model"
)

// TestClientFetchPage tests bulk page requests and decoding.
func TestClientFetchPage(t *testing.T) {
	t.Parallel()

	t.Run("sends startIndex and decodes the info results array", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("startIndex"); got != "2000" {
				t.Errorf("got startIndex %q, expected 2000", got)
			}
			fmt.Fprint(w, `{
				"startIndex": 2000,
				"totalResults": 4500,
				"vulnerabilities": [
					{"cve": {"id": "CVE-2024-0001"}},
					{"cve": {"id": "CVE-2024-0002"}}
				]
			}`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, model.ModeInfo, WithRequestInterval(0))
		page, err := c.FetchPage(context.Background(), 2000)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if page.StartIndex != 2000 || page.TotalResults != 4500 {
			t.Errorf("got startIndex=%d totalResults=%d, expected 2000/4500",
				page.StartIndex, page.TotalResults)
		}
		if len(page.Records) != 2 {
			t.Fatalf("got %d records, expected 2", len(page.Records))
		}
		if page.Exhausted() {
			t.Error("page with startIndex < totalResults must not be exhausted")
		}
	})

	t.Run("decodes the changes results array in changes mode", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{
				"startIndex": 0,
				"totalResults": 1,
				"cveChanges": [{"change": {"cveId": "CVE-2024-0001"}}]
			}`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, model.ModeChanges, WithRequestInterval(0))
		page, err := c.FetchPage(context.Background(), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Records) != 1 {
			t.Fatalf("got %d records, expected 1", len(page.Records))
		}
		id, err := page.Records[0].Identifier(model.ModeChanges)
		if err != nil || id != "CVE-2024-0001" {
			t.Errorf("got id %q (err %v), expected CVE-2024-0001", id, err)
		}
	})

	t.Run("reports exhaustion when startIndex reaches totalResults", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"startIndex": 4500, "totalResults": 4500, "vulnerabilities": []}`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, model.ModeInfo, WithRequestInterval(0))
		page, err := c.FetchPage(context.Background(), 4500)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !page.Exhausted() {
			t.Error("expected exhausted page")
		}
	})

	t.Run("non-200 responses surface as StatusError", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, model.ModeInfo, WithRequestInterval(0))
		_, err := c.FetchPage(context.Background(), 0)

		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("got %v, expected StatusError", err)
		}
		if statusErr.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("got status %d, expected 503", statusErr.StatusCode)
		}
	})
}

// TestClientFetchWindow tests delta-window parameter selection.
func TestClientFetchWindow(t *testing.T) {
	t.Parallel()

	t.Run("info mode uses lastMod parameters", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("lastModStartDate") != "2024-06-01T00:00:00.000" {
				t.Errorf("got lastModStartDate %q", q.Get("lastModStartDate"))
			}
			if q.Get("lastModEndDate") != "2024-06-02T00:00:00.000" {
				t.Errorf("got lastModEndDate %q", q.Get("lastModEndDate"))
			}
			fmt.Fprint(w, `{"startIndex": 0, "totalResults": 0, "vulnerabilities": []}`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, model.ModeInfo, WithRequestInterval(0))
		if _, err := c.FetchWindow(context.Background(),
			"2024-06-01T00:00:00.000", "2024-06-02T00:00:00.000"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("changes mode uses change parameters", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("changeStartDate") == "" || q.Get("changeEndDate") == "" {
				t.Errorf("missing change window parameters: %v", q)
			}
			fmt.Fprint(w, `{"startIndex": 0, "totalResults": 0, "cveChanges": []}`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, model.ModeChanges, WithRequestInterval(0))
		if _, err := c.FetchWindow(context.Background(),
			"2024-06-01T00:00:00.000", "2024-06-02T00:00:00.000"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

// TestClientPacing tests that the limiter spaces consecutive requests.
func TestClientPacing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"startIndex": 0, "totalResults": 10, "vulnerabilities": []}`)
	}))
	defer srv.Close()

	interval := 100 * time.Millisecond
	c := NewClient(srv.URL, model.ModeInfo, WithRequestInterval(interval))

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.FetchPage(context.Background(), 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	elapsed := time.Since(start)

	// First request is immediate; the next two wait one interval each.
	if elapsed < 2*interval {
		t.Errorf("three requests finished in %v, expected at least %v", elapsed, 2*interval)
	}
}

// TestClientPacingCancel tests that a canceled context aborts the wait.
func TestClientPacingCancel(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"startIndex": 0, "totalResults": 10, "vulnerabilities": []}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, model.ModeInfo, WithRequestInterval(time.Hour))

	// Consume the initial token.
	if _, err := c.FetchPage(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.FetchPage(ctx, 0); err == nil {
		t.Error("expected error from canceled wait")
	}
}
