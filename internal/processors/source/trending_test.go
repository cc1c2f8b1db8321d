package source

import (
	"context"
	"errors"
	"testing"

	"github.com/bakkerme/trendwatch/internal/config"
	"github.com/bakkerme/trendwatch/internal/sources/trending"
	trendingmock "github.com/bakkerme/trendwatch/internal/sources/trending/mock"
)

type fakeSeenStore struct {
	seen map[string]bool
	has  []string
	mark []string
	err  error
}

func (s *fakeSeenStore) HasSeen(ctx context.Context, id string) (bool, error) {
	_ = ctx
	s.has = append(s.has, id)
	if s.err != nil {
		return false, s.err
	}
	return s.seen[id], nil
}

func (s *fakeSeenStore) MarkSeen(ctx context.Context, id string) error {
	_ = ctx
	s.mark = append(s.mark, id)
	if s.err != nil {
		return s.err
	}
	s.seen[id] = true
	return nil
}

func (s *fakeSeenStore) MarkSeenBatch(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := s.MarkSeen(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeSeenStore) Close() error {
	return nil
}

func TestTrendingProcessorFiltersSeenRepositories(t *testing.T) {
	cfg := &config.TrendingSource{Period: trending.PeriodDaily}
	fetcher := &trendingmock.Fetcher{
		Repos: []trending.Repo{
			{URL: "https://github.com/a/seen", Developer: "a", Name: "seen"},
			{URL: "https://github.com/b/new", Developer: "b", Name: "new"},
		},
	}
	store := &fakeSeenStore{seen: map[string]bool{"https://github.com/a/seen": true}}

	processor, err := NewTrendingProcessor(cfg, fetcher, store)
	if err != nil {
		t.Fatalf("failed to init processor: %v", err)
	}

	blocks, err := processor.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].URL != "https://github.com/b/new" {
		t.Errorf("unexpected block url %q", blocks[0].URL)
	}
	if blocks[0].Period != trending.PeriodDaily {
		t.Errorf("unexpected period %q", blocks[0].Period)
	}
	if len(store.mark) != 1 || store.mark[0] != "https://github.com/b/new" {
		t.Errorf("expected only the new url to be marked, got %v", store.mark)
	}
}

func TestTrendingProcessorDropsDuplicatesWithinBatch(t *testing.T) {
	cfg := &config.TrendingSource{Languages: []string{"go", "rust"}}
	fetcher := &trendingmock.Fetcher{
		Repos: []trending.Repo{
			{URL: "https://github.com/a/one", Developer: "a", Name: "one"},
		},
	}
	store := &fakeSeenStore{seen: map[string]bool{}}

	processor, err := NewTrendingProcessor(cfg, fetcher, store)
	if err != nil {
		t.Fatalf("failed to init processor: %v", err)
	}

	// The same repo trends in both language listings; it must be emitted once.
	blocks, err := processor.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(fetcher.Calls) != 2 {
		t.Fatalf("expected one fetch per language, got %d", len(fetcher.Calls))
	}
	if len(blocks) != 1 {
		t.Fatalf("expected duplicate within batch to be dropped, got %d blocks", len(blocks))
	}
	if len(store.mark) != 1 {
		t.Errorf("expected url to be marked once, got %v", store.mark)
	}
}

func TestTrendingProcessorSkipsRecordsWithoutURL(t *testing.T) {
	cfg := &config.TrendingSource{}
	fetcher := &trendingmock.Fetcher{
		Repos: []trending.Repo{
			{Developer: "a", Name: "broken"},
			{URL: "https://github.com/b/ok", Developer: "b", Name: "ok"},
		},
	}
	store := &fakeSeenStore{seen: map[string]bool{}}

	processor, err := NewTrendingProcessor(cfg, fetcher, store)
	if err != nil {
		t.Fatalf("failed to init processor: %v", err)
	}

	blocks, err := processor.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(blocks) != 1 || blocks[0].URL != "https://github.com/b/ok" {
		t.Fatalf("expected only the record with a url, got %v", blocks)
	}
}

func TestTrendingProcessorTreatsLookupFailureAsNew(t *testing.T) {
	cfg := &config.TrendingSource{}
	fetcher := &trendingmock.Fetcher{
		Repos: []trending.Repo{
			{URL: "https://github.com/a/one", Developer: "a", Name: "one"},
		},
	}
	store := &fakeSeenStore{seen: map[string]bool{}, err: errors.New("state unavailable")}

	processor, err := NewTrendingProcessor(cfg, fetcher, store)
	if err != nil {
		t.Fatalf("failed to init processor: %v", err)
	}

	blocks, err := processor.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected the url to be treated as new, got %d blocks", len(blocks))
	}
}

func TestTrendingProcessorFetchErrorYieldsEmptyBatch(t *testing.T) {
	cfg := &config.TrendingSource{}
	fetcher := &trendingmock.Fetcher{Err: trending.ErrTimeout}
	store := &fakeSeenStore{seen: map[string]bool{}}

	processor, err := NewTrendingProcessor(cfg, fetcher, store)
	if err != nil {
		t.Fatalf("failed to init processor: %v", err)
	}

	blocks, err := processor.Fetch(context.Background())
	if err != nil {
		t.Fatalf("expected fetch failures to be absorbed, got %v", err)
	}
	if len(blocks) != 0 {
		t.Fatalf("expected no blocks, got %d", len(blocks))
	}
	if len(store.mark) != 0 {
		t.Errorf("expected nothing to be marked, got %v", store.mark)
	}
}

func TestTrendingProcessorValidateRequiresDependencies(t *testing.T) {
	processor, err := NewTrendingProcessor(&config.TrendingSource{}, nil, nil)
	if err != nil {
		t.Fatalf("failed to init processor: %v", err)
	}
	if err := processor.Validate(); err == nil {
		t.Fatal("expected validation to fail without fetcher and store")
	}
}
