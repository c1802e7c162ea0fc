package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/catalog-exporter/pkg/pagination"
	"github.com/rs/zerolog"
)

// Walker pages through catalog search for each category and normalizes
// every record it sees.
type Walker struct {
	api        Fetcher
	endpoints  Endpoints
	categories []string
	normalizer *Normalizer
	logger     zerolog.Logger
}

// NewWalker creates a walker over categories, visited in order.
func NewWalker(api Fetcher, endpoints Endpoints, categories []string, normalizer *Normalizer, logger zerolog.Logger) *Walker {
	return &Walker{
		api:        api,
		endpoints:  endpoints,
		categories: categories,
		normalizer: normalizer,
		logger:     logger,
	}
}

// Walk returns the items of all categories in walk order. An item listed in
// several categories appears once per listing.
func (w *Walker) Walk(ctx context.Context) ([]Item, error) {
	var items []Item
	for _, category := range w.categories {
		got, err := w.walkCategory(ctx, category)
		items = append(items, got...)
		if err != nil {
			categoriesWalkedTotal.WithLabelValues("failed").Inc()
			return items, fmt.Errorf("category %q: %w", category, err)
		}
		categoriesWalkedTotal.WithLabelValues("complete").Inc()
	}
	return items, nil
}

func (w *Walker) walkCategory(ctx context.Context, category string) ([]Item, error) {
	start := time.Now()
	var items []Item

	pages, err := pagination.Walk(ctx, EndpointSearch, func(ctx context.Context, cursor string) (string, error) {
		var page searchPage
		found, err := w.api.GetJSON(ctx, EndpointSearch, w.endpoints.Search(category, cursor), &page)
		if err != nil {
			return "", err
		}
		if !found {
			w.logger.Warn().
				Str("category", category).
				Str("cursor", cursor).
				Msg("Search page returned no data, ending category")
			return "", nil
		}

		for _, r := range page.Data {
			item, err := w.normalizer.Normalize(ctx, r)
			if err != nil {
				return "", err
			}
			items = append(items, item)
		}
		return cursorValue(page.NextPageCursor), nil
	})
	if err != nil {
		return items, err
	}

	w.logger.Info().
		Str("category", category).
		Int("pages", pages).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Category walked")

	return items, nil
}
