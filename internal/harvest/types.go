package harvest

import "context"

// Job is one unit of work submitted to a session queue. Index and Total are
// 1-based progress tags for log lines only; they carry no ordering guarantee.
type Job struct {
	Index   int
	Total   int
	Address string
}

// Outcome records the result of harvesting one address.
type Outcome[T any] struct {
	Address   string `json:"url"`
	Succeeded bool   `json:"is_successful"`
	Data      T      `json:"data"`
}

// Page is one rendered-page handle inside a browser context. Extractors
// receive the handle and may navigate it further; the listing walk does.
type Page interface {
	// Navigate opens address and blocks until the page has settled.
	Navigate(ctx context.Context, address string) error
	// HTML returns the current DOM serialized as HTML.
	HTML(ctx context.Context) (string, error)
	// Close releases the handle.
	Close() error
}

// Navigator owns one browser context for the lifetime of a session and hands
// out page handles to workers.
type Navigator interface {
	NewPage(ctx context.Context) (Page, error)
	Close(ctx context.Context) error
}

// NavigatorFactory acquires a fresh browser context. Each session acquires
// its own and releases it on every exit path.
type NavigatorFactory interface {
	NewNavigator(ctx context.Context) (Navigator, error)
}

// Extractor pulls typed data out of a rendered page. Listing sessions use
// Extractor[[]string], item sessions Extractor[map[string]any]; site-specific
// behavior is supplied as these function values, nothing is subclassed.
type Extractor[T any] func(ctx context.Context, page Page) (T, error)

// ListingExtractor walks a paginated listing and returns item addresses in
// page-visit order.
type ListingExtractor = Extractor[[]string]

// ItemExtractor pulls the product fields from one item page.
type ItemExtractor = Extractor[map[string]any]
