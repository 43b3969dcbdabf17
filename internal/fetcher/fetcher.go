package fetcher

import (
	"context"

	"github.com/IshaanNene/diwancrawl/internal/types"
)

// Fetcher is the interface for document fetcher implementations.
type Fetcher interface {
	// Fetch retrieves the content at the given request's URL. Any failure is
	// reported as a *types.FetchError.
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error
}
