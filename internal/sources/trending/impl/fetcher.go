package impl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bakkerme/trendwatch/internal/retry"
	"github.com/bakkerme/trendwatch/internal/sources/trending"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const defaultAcceptLanguage = "en-US,en;q=0.9"

// Fetcher fetches the trending listing page over HTTP and parses it. The
// request headers are fixed at construction time; there is no shared mutable
// session state.
type Fetcher struct {
	client         *http.Client
	baseURL        string
	userAgent      string
	acceptLanguage string
	maxBodySize    int64
}

func NewFetcher(timeout time.Duration, baseURL, userAgent, acceptLanguage string) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = trending.DefaultBaseURL
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	if strings.TrimSpace(acceptLanguage) == "" {
		acceptLanguage = defaultAcceptLanguage
	}
	return &Fetcher{
		client:         &http.Client{Timeout: timeout},
		baseURL:        baseURL,
		userAgent:      userAgent,
		acceptLanguage: acceptLanguage,
		maxBodySize:    10 << 20, // 10 MiB
	}
}

func (f *Fetcher) Fetch(ctx context.Context, options trending.FetchOptions) ([]trending.Repo, error) {
	pageURL, err := trending.ListingURL(f.baseURL, options)
	if err != nil {
		return nil, err
	}

	var page string
	err = retry.Do(ctx, retry.Config{Attempts: 3, BaseDelay: 200 * time.Millisecond}, func() error {
		body, err := f.get(ctx, pageURL)
		if err != nil {
			return err
		}
		page = body
		return nil
	})
	if err != nil {
		return nil, err
	}

	repos, err := trending.Parse(page)
	if err != nil {
		return nil, err
	}
	if options.Limit > 0 && len(repos) > options.Limit {
		repos = repos[:options.Limit]
	}
	return repos, nil
}

func (f *Fetcher) get(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", f.acceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", trending.ErrTimeout, err)
		}
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &trending.StatusError{Code: resp.StatusCode}
	}

	limited := io.LimitReader(resp.Body, f.maxBodySize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", trending.ErrTimeout, err)
		}
		return "", fmt.Errorf("read %s: %w", pageURL, err)
	}
	if int64(len(body)) > f.maxBodySize {
		return "", fmt.Errorf("fetch %s: response too large", pageURL)
	}
	return string(body), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
