package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bakkerme/trendwatch/internal/config"
	"github.com/bakkerme/trendwatch/internal/core"
	"github.com/bakkerme/trendwatch/internal/dedupe"
	"github.com/bakkerme/trendwatch/internal/sources/trending"
)

// TrendingProcessor fetches trending listings and emits only repositories
// whose URL has never been seen before. Fetch and parse failures are handled
// locally: the processor logs and yields fewer (possibly zero) blocks instead
// of failing the run.
type TrendingProcessor struct {
	name    string
	config  config.TrendingSource
	fetcher trending.Fetcher
	store   dedupe.SeenStore
}

func NewTrendingProcessor(cfg *config.TrendingSource, fetcher trending.Fetcher, store dedupe.SeenStore) (*TrendingProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("trending config is required")
	}
	return &TrendingProcessor{
		name:    "trending",
		config:  *cfg,
		fetcher: fetcher,
		store:   store,
	}, nil
}

func (p *TrendingProcessor) Name() string {
	return p.name
}

func (p *TrendingProcessor) Validate() error {
	if p.fetcher == nil {
		return fmt.Errorf("trending fetcher is required")
	}
	if p.store == nil {
		return fmt.Errorf("seen store is required")
	}
	return nil
}

func (p *TrendingProcessor) Fetch(ctx context.Context) ([]*core.RepoBlock, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	logger := core.LoggerFromContext(ctx)

	period := p.config.Period
	if period == "" {
		period = trending.PeriodDaily
	}
	languages := p.config.Languages
	if len(languages) == 0 {
		languages = []string{""}
	}

	batch := []trending.Repo{}
	for _, language := range languages {
		options := trending.FetchOptions{
			Period:         period,
			Language:       language,
			SpokenLanguage: p.config.SpokenLanguage,
			Limit:          p.config.Limit,
		}
		repos, err := p.fetcher.Fetch(ctx, options)
		if err != nil {
			p.logFetchFailure(logger, language, err)
			continue
		}
		if len(repos) == 0 {
			logger.Warn("trending page yielded no repositories", "period", period, "language", language)
			continue
		}
		batch = append(batch, repos...)
	}

	blocks := p.filterNew(ctx, logger, batch, period)
	if len(blocks) == 0 {
		logger.Info("no new trending repositories", "period", period)
		return blocks, nil
	}

	ids := make([]string, 0, len(blocks))
	for _, block := range blocks {
		ids = append(ids, block.URL)
	}
	if err := p.store.MarkSeenBatch(ctx, ids); err != nil {
		// Best effort: the unwritten urls stay unseen, so the next run
		// picks them up again.
		logger.Error("failed to persist seen urls", "count", len(ids), "error", err)
	}

	logger.Info("new trending repositories", "count", len(blocks), "period", period)
	return blocks, nil
}

// filterNew drops records with no URL, records seen in prior runs, and
// records already emitted earlier in this batch, keeping first occurrences
// in input order.
func (p *TrendingProcessor) filterNew(ctx context.Context, logger *slog.Logger, batch []trending.Repo, period string) []*core.RepoBlock {
	blocks := make([]*core.RepoBlock, 0, len(batch))
	emitted := map[string]bool{}
	now := time.Now().UTC()

	for _, repo := range batch {
		if repo.URL == "" {
			continue
		}
		if emitted[repo.URL] {
			continue
		}
		seen, err := p.store.HasSeen(ctx, repo.URL)
		if err != nil {
			logger.Warn("seen lookup failed, treating url as new", "url", repo.URL, "error", err)
		}
		if seen {
			continue
		}
		emitted[repo.URL] = true
		blocks = append(blocks, &core.RepoBlock{
			URL:         repo.URL,
			Developer:   repo.Developer,
			Name:        repo.Name,
			Description: repo.Description,
			Language:    repo.Language,
			Stars:       repo.Stars,
			StarsToday:  repo.StarsToday,
			Forks:       repo.Forks,
			Period:      period,
			FetchedAt:   now,
		})
	}
	return blocks
}

func (p *TrendingProcessor) logFetchFailure(logger *slog.Logger, language string, err error) {
	var statusErr *trending.StatusError
	switch {
	case errors.Is(err, trending.ErrTimeout):
		logger.Warn("trending fetch timed out", "language", language, "error", err)
	case errors.As(err, &statusErr):
		logger.Warn("trending fetch rejected", "language", language, "status", statusErr.Code)
	default:
		logger.Warn("trending fetch failed", "language", language, "error", err)
	}
}
