package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrissnell/startracker/internal/log"
)

// Search answers identifier lookups from the Store first and the Resolver
// second, caching every resolver hit.
type Search struct {
	store    Store
	resolver Resolver
}

func NewSearch(store Store, resolver Resolver) *Search {
	return &Search{store: store, resolver: resolver}
}

// Lookup returns the entry for query. The bool reports whether it came from
// the cache.
func (s *Search) Lookup(ctx context.Context, query string) (Entry, bool, error) {
	query = Sanitize(query)
	if query == "" {
		return Entry{}, false, fmt.Errorf("%w: empty identifier", ErrNotFound)
	}

	e, err := s.store.Get(ctx, query)
	if err == nil {
		return e, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		log.Warnf("search cache read failed for %q: %v", query, err)
	}

	e, err = s.resolver.Resolve(ctx, query)
	if err != nil {
		return Entry{}, false, err
	}
	e.Query = query

	if err := s.store.Put(ctx, e); err != nil {
		log.Warnf("search cache write failed for %q: %v", query, err)
	}
	return e, false, nil
}

// Previous returns every cached query, for type-ahead.
func (s *Search) Previous(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}
