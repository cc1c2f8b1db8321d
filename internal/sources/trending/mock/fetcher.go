package mock

import (
	"context"

	"github.com/bakkerme/trendwatch/internal/sources/trending"
)

type Fetcher struct {
	Repos []trending.Repo
	Err   error
	Calls []trending.FetchOptions
}

func (f *Fetcher) Fetch(ctx context.Context, options trending.FetchOptions) ([]trending.Repo, error) {
	_ = ctx
	f.Calls = append(f.Calls, options)
	if f.Err != nil {
		return nil, f.Err
	}
	repos := f.Repos
	if options.Limit > 0 && len(repos) > options.Limit {
		repos = repos[:options.Limit]
	}
	return repos, nil
}
