package ports

import "context"

// ExtractionResult is the loosely typed metadata returned by an extractor.
// Any field may be missing. Search and playlist results carry Entries,
// where nil entries stand for items the extractor could not resolve.
type ExtractionResult struct {
	URL        *string
	Title      *string
	WebpageURL *string
	Entries    []*ExtractionResult
}

// Extractor resolves a URL or free-text search query into media metadata.
// Implementations may block for seconds; callers should not hold locks.
type Extractor interface {
	Extract(ctx context.Context, query string) (*ExtractionResult, error)
}
