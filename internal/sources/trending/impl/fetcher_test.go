package impl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bakkerme/trendwatch/internal/sources/trending"
)

const listingPage = `<html><body>
<article class="Box-row">
  <h2 class="h3 lh-condensed"><a href="/a/one">a / one</a></h2>
</article>
<article class="Box-row">
  <h2 class="h3 lh-condensed"><a href="/b/two">b / two</a></h2>
</article>
<article class="Box-row">
  <h2 class="h3 lh-condensed"><a href="/c/three">c / three</a></h2>
</article>
</body></html>`

func TestFetcherFetchesAndParsesListing(t *testing.T) {
	var gotUA, gotLang string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		if r.URL.Query().Get("since") != "daily" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(listingPage))
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, server.URL, "", "")
	repos, err := fetcher.Fetch(context.Background(), trending.FetchOptions{})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(repos) != 3 {
		t.Fatalf("expected 3 repos, got %d", len(repos))
	}
	if repos[0].URL != "https://github.com/a/one" {
		t.Errorf("unexpected url %q", repos[0].URL)
	}
	if gotUA == "" {
		t.Error("expected a user agent header")
	}
	if gotLang != "en-US,en;q=0.9" {
		t.Errorf("unexpected accept-language %q", gotLang)
	}
}

func TestFetcherHonorsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingPage))
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, server.URL, "", "")
	repos, err := fetcher.Fetch(context.Background(), trending.FetchOptions{Limit: 2})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(repos) != 2 {
		t.Fatalf("expected limit to trim to 2 repos, got %d", len(repos))
	}
}

func TestFetcherReturnsStatusErrorAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, server.URL, "", "")
	_, err := fetcher.Fetch(context.Background(), trending.FetchOptions{})
	if err == nil {
		t.Fatal("expected an error for a 503 response")
	}
	var statusErr *trending.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected a StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusServiceUnavailable {
		t.Errorf("unexpected status code %d", statusErr.Code)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestFetcherReportsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	fetcher := NewFetcher(50*time.Millisecond, server.URL, "", "")
	_, err := fetcher.Fetch(context.Background(), trending.FetchOptions{})
	if !errors.Is(err, trending.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}
