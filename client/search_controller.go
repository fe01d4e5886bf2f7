package client

import (
	"context"
	"sync"

	"notehub-api/models"
	"notehub-api/types"
)

// fetchPage pulls one page of summaries starting at offset. It returns the
// items, the offset for the next page (nil when this was the last page) and
// the total match count when the source reports one (negative otherwise).
type fetchPage func(ctx context.Context, query string, offset *int) (items []models.NoteSummary, next *int, total int, err error)

// PageWindow describes the slice of results a page shows, 1-based.
type PageWindow struct {
	FirstIndex int
	LastIndex  int
	TotalCount int
}

// SearchController accumulates paginated results for one page session. It
// fetches pages lazily as the UI asks for indexes beyond what it holds,
// deduplicates by note id, and remembers when the source ran out so repeated
// paging near the end never refetches.
//
// A controller is owned by a single page session; methods are safe for
// concurrent use but the intended pattern is sequential calls from one
// goroutine with coalescing protecting against double-fired fetches.
type SearchController struct {
	mu sync.Mutex

	fetch    fetchPage
	pageSize int

	query    string
	queryTag uint64

	buffer   []models.NoteSummary
	seen     map[string]bool
	offset   *int
	terminal bool
	fetching bool
	total    int
}

// NewSearchController builds a controller over the Gateway search endpoint.
func NewSearchController(c *Client, pageSize int) *SearchController {
	if pageSize <= 0 {
		pageSize = types.DefaultSearchPageSize
	}
	return &SearchController{
		fetch: func(ctx context.Context, query string, offset *int) ([]models.NoteSummary, *int, int, error) {
			resp, err := c.SearchNotes(ctx, query, offset)
			if err != nil {
				return nil, nil, -1, err
			}
			return resp.NoteSummariesList, resp.SearchOffset, -1, nil
		},
		pageSize: pageSize,
		seen:     map[string]bool{},
		total:    -1,
	}
}

// NewFeedController builds a controller over the published homepage feed.
// The feed reports its total on every page, so the controller can show exact
// page counts before reaching the end.
func NewFeedController(c *Client, pageSize int) *SearchController {
	if pageSize <= 0 {
		pageSize = types.DefaultFeedPageSize
	}
	return &SearchController{
		fetch: func(ctx context.Context, _ string, offset *int) ([]models.NoteSummary, *int, int, error) {
			from := 0
			if offset != nil {
				from = *offset
			}
			resp, err := c.HomepageFeed(ctx, from)
			if err != nil {
				return nil, nil, -1, err
			}
			next := from + len(resp.NoteSummaryDicts)
			if len(resp.NoteSummaryDicts) < pageSize || next >= resp.NumOfNoteSummaries {
				return resp.NoteSummaryDicts, nil, resp.NumOfNoteSummaries, nil
			}
			return resp.NoteSummaryDicts, &next, resp.NumOfNoteSummaries, nil
		},
		pageSize: pageSize,
		seen:     map[string]bool{},
		total:    -1,
	}
}

// ExecuteQuery resets the controller for a new query and performs the first
// fetch. Calling it again while the first fetch is still outstanding only
// retags the session; the superseded response is discarded when it lands.
func (sc *SearchController) ExecuteQuery(ctx context.Context, query string) error {
	sc.mu.Lock()
	sc.query = query
	sc.queryTag++
	sc.buffer = nil
	sc.seen = map[string]bool{}
	sc.offset = nil
	sc.terminal = false
	sc.total = -1
	if sc.fetching {
		// The in-flight fetch belongs to the old tag and will be dropped.
		sc.mu.Unlock()
		return nil
	}
	sc.mu.Unlock()
	_, err := sc.LoadMoreIfNeeded(ctx, 1)
	return err
}

// LoadMoreIfNeeded fetches at most one page if the buffer does not yet cover
// requiredIndex (1-based) and the source is not exhausted. It reports whether
// a fetch actually happened.
func (sc *SearchController) LoadMoreIfNeeded(ctx context.Context, requiredIndex int) (bool, error) {
	sc.mu.Lock()
	if len(sc.buffer) >= requiredIndex || sc.terminal || sc.fetching {
		sc.mu.Unlock()
		return false, nil
	}
	sc.fetching = true
	tag := sc.queryTag
	query := sc.query
	offset := sc.offset
	sc.mu.Unlock()

	items, next, total, err := sc.fetch(ctx, query, offset)

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.fetching = false
	if err != nil {
		// Buffer and offset stay as they were; the caller may retry.
		return false, err
	}
	if tag != sc.queryTag {
		// A newer query superseded this fetch; its results are stale.
		return false, nil
	}
	for _, item := range items {
		if sc.seen[item.ID] {
			continue
		}
		sc.seen[item.ID] = true
		sc.buffer = append(sc.buffer, item)
	}
	sc.offset = next
	if next == nil {
		sc.terminal = true
	}
	if total >= 0 {
		sc.total = total
	}
	return true, nil
}

// SelectWindow returns the buffered items for the given 1-based page along
// with the window metadata the pager shows. It never fetches; callers combine
// it with LoadMoreIfNeeded. Indexes are clamped to what the buffer holds.
func (sc *SearchController) SelectWindow(pageNumber, pageSize int) ([]models.NoteSummary, PageWindow) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize <= 0 {
		pageSize = sc.pageSize
	}

	totalCount := sc.total
	if totalCount < 0 {
		totalCount = len(sc.buffer)
	}

	start := (pageNumber - 1) * pageSize
	end := start + pageSize
	if start > len(sc.buffer) {
		start = len(sc.buffer)
	}
	if end > len(sc.buffer) {
		end = len(sc.buffer)
	}
	window := PageWindow{
		FirstIndex: start + 1,
		LastIndex:  end,
		TotalCount: totalCount,
	}
	if window.LastIndex > totalCount {
		window.LastIndex = totalCount
	}
	return sc.buffer[start:end], window
}

// HasReachedLastPage reports whether the source has no further pages.
func (sc *SearchController) HasReachedLastPage() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.terminal
}

// BufferedCount returns how many distinct summaries are loaded.
func (sc *SearchController) BufferedCount() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.buffer)
}
