package listview

import (
	"sort"
	"sync"
	"time"

	"github.com/okovalenko/uniconnect/internal/domain/announcement"
)

const DefaultItemsPerPage = 12

// Page is one rendered window of the filtered list.
type Page struct {
	Items      []announcement.Announcement `json:"items"`
	Page       int                         `json:"page"`
	TotalPages int                         `json:"totalPages"`
	TotalItems int                         `json:"totalItems"`
}

// Pipeline turns a full collection into a filtered, sorted, paginated
// view. Filters are AND-ed; the sort is stable so equal items keep their
// incoming order.
type Pipeline struct {
	mu sync.Mutex

	items    []announcement.Announcement
	filtered []announcement.Announcement

	filters map[string]string
	sortKey string
	page    int
	perPage int

	// render is invoked after every recompute, mirroring how the list
	// container redraws on each change. Optional.
	render func(Page)

	now func() time.Time
}

type PipelineOption func(*Pipeline)

func WithItemsPerPage(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.perPage = n
		}
	}
}

func WithRender(fn func(Page)) PipelineOption {
	return func(p *Pipeline) {
		p.render = fn
	}
}

// WithClock pins the reference time for date filters.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		p.now = now
	}
}

func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		filters: make(map[string]string),
		sortKey: SortDateDesc,
		page:    1,
		perPage: DefaultItemsPerPage,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Pipeline) SetItems(items []announcement.Announcement) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.items = append([]announcement.Announcement(nil), items...)
	p.recompute()
}

// SetFilter sets one filter and jumps back to the first page. An empty
// value removes the filter.
func (p *Pipeline) SetFilter(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if value == "" {
		delete(p.filters, key)
	} else {
		p.filters[key] = value
	}
	p.page = 1
	p.recompute()
}

// SetSort reorders without touching the current page.
func (p *Pipeline) SetSort(sortKey string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sortKey = sortKey
	p.recompute()
}

func (p *Pipeline) ClearFilters() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.filters = make(map[string]string)
	p.page = 1
	p.recompute()
}

// GoToPage moves to an existing page; out-of-range requests are ignored.
func (p *Pipeline) GoToPage(page int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if page < 1 || page > p.totalPages() {
		return
	}
	p.page = page
	p.notify()
}

func (p *Pipeline) Current() Page {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.snapshot()
}

func (p *Pipeline) recompute() {
	now := p.now()

	filtered := make([]announcement.Announcement, 0, len(p.items))

	for _, a := range p.items {
		keep := true

		for key, value := range p.filters {
			if !matchItem(a, key, value, now) {
				keep = false
				break
			}
		}

		if keep {
			filtered = append(filtered, a)
		}
	}

	sortKey := p.sortKey

	sort.SliceStable(filtered, func(i, j int) bool {
		return compare(filtered[i], filtered[j], sortKey) < 0
	})

	p.filtered = filtered
	p.notify()
}

func (p *Pipeline) totalPages() int {
	return (len(p.filtered) + p.perPage - 1) / p.perPage
}

func (p *Pipeline) snapshot() Page {
	start := (p.page - 1) * p.perPage

	if start > len(p.filtered) {
		start = len(p.filtered)
	}

	end := start + p.perPage

	if end > len(p.filtered) {
		end = len(p.filtered)
	}

	return Page{
		Items:      append([]announcement.Announcement(nil), p.filtered[start:end]...),
		Page:       p.page,
		TotalPages: p.totalPages(),
		TotalItems: len(p.filtered),
	}
}

func (p *Pipeline) notify() {
	if p.render != nil {
		p.render(p.snapshot())
	}
}
