package trending

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// DefaultBaseURL is the trending listing page the fetcher scrapes.
const DefaultBaseURL = "https://github.com/trending"

// Valid time-period tokens accepted by the listing page.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// Repo represents a single repository entry scraped from the listing page.
// URL is the identifier used for deduplication: scheme, host and path are
// assembled once at parse time and compared byte-for-byte afterwards.
type Repo struct {
	URL         string
	Developer   string
	Name        string
	Description string
	Language    string
	Stars       int
	StarsToday  int
	Forks       int
}

// FetchOptions controls which trending listing is fetched.
type FetchOptions struct {
	Period         string // daily, weekly or monthly; defaults to daily
	Language       string // optional path segment, e.g. "go", "python"
	SpokenLanguage string // optional spoken_language_code query value
	Limit          int    // max entries to return; 0 means all
}

// Fetcher fetches and parses one trending listing page.
type Fetcher interface {
	Fetch(ctx context.Context, options FetchOptions) ([]Repo, error)
}

// ListingURL builds the listing page URL for the given options.
func ListingURL(base string, options FetchOptions) (string, error) {
	if strings.TrimSpace(base) == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}
	if lang := strings.TrimSpace(options.Language); lang != "" {
		u = u.JoinPath(strings.ToLower(lang))
	}

	period := strings.TrimSpace(options.Period)
	if period == "" {
		period = PeriodDaily
	}
	switch period {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
	default:
		return "", fmt.Errorf("invalid period %q (want daily, weekly or monthly)", options.Period)
	}

	q := u.Query()
	q.Set("since", period)
	if spoken := strings.TrimSpace(options.SpokenLanguage); spoken != "" {
		q.Set("spoken_language_code", strings.ToLower(spoken))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
