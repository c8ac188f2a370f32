package imageproc

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// RemovalResult records the outcome for one URL in a batch. Exactly one of
// ResultURL and Error is populated.
type RemovalResult struct {
	OriginalURL string `json:"original_url"`
	ResultURL   string `json:"nobg_image_url,omitempty"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// BatchReport summarizes a whole batch. Success means at least one item
// succeeded; Results is index-aligned with the input URLs.
type BatchReport struct {
	Success        bool            `json:"success"`
	Results        []RemovalResult `json:"results"`
	TotalCount     int             `json:"total_count"`
	SuccessCount   int             `json:"success_count"`
	FailedCount    int             `json:"failed_count"`
	ProcessingTime float64         `json:"processing_time"`
}

// BatchRunner fans background removal out over a cache, one goroutine per
// URL up to a concurrency limit. A single item's failure never fails the
// batch.
type BatchRunner struct {
	cache *Cache
	limit int
}

// NewBatchRunner bounds in-flight removals at limit (input batches are
// small, so the limit mostly guards against misconfigured callers).
func NewBatchRunner(cache *Cache, limit int) *BatchRunner {
	if limit <= 0 {
		limit = 1
	}
	return &BatchRunner{cache: cache, limit: limit}
}

// RemoveBatch processes every URL concurrently and reports one result per
// input, in input order.
func (b *BatchRunner) RemoveBatch(ctx context.Context, urls []string) *BatchReport {
	start := time.Now()
	results := make([]RemovalResult, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.limit)
	for i, url := range urls {
		g.Go(func() error {
			resultURL, err := b.cache.RemoveBackground(gctx, url)
			if err != nil {
				results[i] = RemovalResult{OriginalURL: url, Error: err.Error()}
				return nil
			}
			results[i] = RemovalResult{OriginalURL: url, ResultURL: resultURL, Success: true}
			return nil
		})
	}
	// Workers capture failures as data, so Wait cannot return an error.
	_ = g.Wait()

	report := &BatchReport{
		Results:        results,
		TotalCount:     len(urls),
		ProcessingTime: time.Since(start).Seconds(),
	}
	for _, r := range results {
		if r.Success {
			report.SuccessCount++
		} else {
			report.FailedCount++
		}
	}
	report.Success = report.SuccessCount > 0
	return report
}
