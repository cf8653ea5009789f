// Package search retrieves web evidence for resume claims.
package search

import (
	"context"

	"github.com/ppiankov/skilldiff/internal/model"
)

// DefaultMaxResults caps the number of sources kept per query
const DefaultMaxResults = 10

// Request is a single search provider call
type Request struct {
	Query         string
	Depth         model.SearchDepth
	IncludeAnswer bool
	MaxResults    int
}

// Response is what a provider returned for a Request
type Response struct {
	Answer  string
	Results []model.Source
}

// Provider defines the interface for web search backends
type Provider interface {
	Name() string
	Endpoint() string
	Search(ctx context.Context, req Request) (*Response, error)
}
