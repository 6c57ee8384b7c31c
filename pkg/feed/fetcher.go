package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const userAgent = "newsggl/1.0 (+https://github.com/Yev-ux/newsggl)"

// maxBodyBytes caps how much of a feed document is read. Feeds past this size
// are truncated rather than rejected.
const maxBodyBytes = 2 << 20

// Result carries the outcome of one feed request. Exactly one of Body or Err
// is meaningful.
type Result struct {
	Body string
	Err  error
}

// Fetcher retrieves feed documents with bounded concurrency. A single feed's
// failure never aborts the others; unreachable feeds are skipped for the pass
// and picked up again on the next scheduled one.
type Fetcher struct {
	workers int
	client  *http.Client
}

func NewFetcher(workers int, timeout time.Duration) *Fetcher {
	if workers < 1 {
		workers = 1
	}
	return &Fetcher{
		workers: workers,
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchAll issues one GET per URL, at most `workers` in flight at a time, and
// returns a result per input index. It blocks until every request finished
// (the join barrier); workers share nothing but their own result slot.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))
	sem := make(chan struct{}, f.workers)
	var wg sync.WaitGroup

	for i, u := range urls {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, u string) {
			defer wg.Done()
			defer func() { <-sem }()
			body, err := f.fetchOne(ctx, u)
			if err != nil {
				results[i] = Result{Err: err}
				return
			}
			results[i] = Result{Body: body}
		}(i, u)
	}

	wg.Wait()
	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("feed request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("feed fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("feed fetch: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("feed read: %w", err)
	}
	return string(body), nil
}
