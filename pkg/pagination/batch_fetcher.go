// Package pagination provides parallel batch fetching for paginated GTEx
// Portal endpoints.
package pagination

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gtex-link/gtex-link/pkg/logging"
)

// PageFunc fetches one page of a paginated GTEx endpoint. The page and
// itemsPerPage parameters are already set in params.
type PageFunc func(ctx context.Context, params url.Values) (map[string]any, error)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel page fetches.
	// Keep well under the client's rate limit burst.
	MaxConcurrency int

	// PageSize is the itemsPerPage requested per page.
	PageSize int

	// Timeout bounds each page fetch.
	Timeout time.Duration
}

// DefaultConfig returns safe defaults for the GTEx Portal (5 req/s).
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		PageSize:       250,
		Timeout:        30 * time.Second,
	}
}

// pageResult carries one fetched page through the worker pool.
type pageResult struct {
	page int
	rows []any
	err  error
}

// BatchFetcher fetches every page of a paginated endpoint in parallel and
// merges the row data in page order.
type BatchFetcher struct {
	fetch  PageFunc
	config Config
	logger zerolog.Logger
}

// New creates a batch fetcher around a page-fetching operation.
func New(fetch PageFunc, cfg Config) *BatchFetcher {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 250
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &BatchFetcher{
		fetch:  fetch,
		config: cfg,
		logger: logging.NewLogger("batch-fetcher"),
	}
}

// FetchAll fetches every page for the given parameters and returns the
// merged rows in page order. When some pages fail, the rows fetched so far
// are returned together with an error describing the first failure.
func (bf *BatchFetcher) FetchAll(ctx context.Context, params url.Values) ([]any, error) {
	start := time.Now()

	first, err := bf.fetchPage(ctx, params, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	totalPages := numberOfPages(first)
	rows := dataRows(first)

	if totalPages <= 1 {
		bf.logger.Debug().
			Int("rows", len(rows)).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return rows, nil
	}

	bf.logger.Info().
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	pageQueue := make(chan int, totalPages)
	results := make(chan pageResult, totalPages)

	for page := 1; page < totalPages; page++ {
		pageQueue <- page
	}
	close(pageQueue)

	var wg sync.WaitGroup
	for i := 0; i < bf.config.MaxConcurrency; i++ {
		wg.Add(1)
		go bf.worker(ctx, params, pageQueue, results, &wg)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	pages := map[int][]any{0: rows}
	var firstErr error
	for result := range results {
		if result.err != nil {
			bf.logger.Warn().
				Err(result.err).
				Int("page", result.page).
				Msg("Page fetch failed")
			if firstErr == nil {
				firstErr = result.err
			}
			continue
		}
		pages[result.page] = result.rows
	}

	merged := make([]any, 0, len(rows)*totalPages)
	for page := 0; page < totalPages; page++ {
		merged = append(merged, pages[page]...)
	}

	bf.logger.Info().
		Int("pages", len(pages)).
		Int("total", totalPages).
		Int("rows", len(merged)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	if firstErr != nil {
		return merged, fmt.Errorf("partial fetch (%d/%d pages): %w", len(pages), totalPages, firstErr)
	}
	return merged, nil
}

// worker drains the page queue, fetching each page with its own timeout.
func (bf *BatchFetcher) worker(ctx context.Context, params url.Values, pageQueue <-chan int, results chan<- pageResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for page := range pageQueue {
		select {
		case <-ctx.Done():
			results <- pageResult{page: page, err: ctx.Err()}
			continue
		default:
		}

		payload, err := bf.fetchPage(ctx, params, page)
		if err != nil {
			results <- pageResult{page: page, err: err}
			continue
		}
		results <- pageResult{page: page, rows: dataRows(payload)}
	}
}

// fetchPage issues one page fetch with paging parameters applied.
func (bf *BatchFetcher) fetchPage(ctx context.Context, params url.Values, page int) (map[string]any, error) {
	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()

	paged := url.Values{}
	for k, vs := range params {
		paged[k] = vs
	}
	paged.Set("page", strconv.Itoa(page))
	paged.Set("itemsPerPage", strconv.Itoa(bf.config.PageSize))

	return bf.fetch(pageCtx, paged)
}

// numberOfPages reads pagingInfo.numberOfPages from a GTEx payload,
// defaulting to 1 when absent.
func numberOfPages(payload map[string]any) int {
	info, ok := payload["pagingInfo"].(map[string]any)
	if !ok {
		return 1
	}
	n, ok := info["numberOfPages"].(float64)
	if !ok || n < 1 {
		return 1
	}
	return int(n)
}

// dataRows extracts the data array from a GTEx payload.
func dataRows(payload map[string]any) []any {
	rows, ok := payload["data"].([]any)
	if !ok {
		return nil
	}
	return rows
}
