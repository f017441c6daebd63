package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/hearth/pkg/domain"
)

// Listings implements ports.Searcher over a fixed set of properties.
type Listings struct {
	mu         sync.RWMutex
	properties []domain.PropertySummary
}

// NewListings creates a searcher over the given properties.
func NewListings(properties ...domain.PropertySummary) *Listings {
	return &Listings{properties: slices.Clone(properties)}
}

// Add appends properties to the listings.
func (l *Listings) Add(properties ...domain.PropertySummary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.properties = append(l.properties, properties...)
}

// Search returns the properties matching every filter set on req.
// Price bounds are inclusive.
func (l *Listings) Search(ctx context.Context, req domain.SearchRequest) ([]domain.PropertySummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.PropertySummary
	for _, p := range l.properties {
		if Matches(p, req) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Matches reports whether p satisfies req.
func Matches(p domain.PropertySummary, req domain.SearchRequest) bool {
	if req.Type != "" && p.Type != req.Type {
		return false
	}
	if req.City != "" && p.City != req.City {
		return false
	}
	if req.PriceMin != nil && p.Price < *req.PriceMin {
		return false
	}
	if req.PriceMax != nil && p.Price > *req.PriceMax {
		return false
	}
	for _, a := range req.Amenities {
		if !slices.Contains(p.Amenities, a) {
			return false
		}
	}
	return true
}
