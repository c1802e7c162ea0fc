package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "catalog_pages_fetched_total",
	Help: "Total pages fetched by source",
}, []string{"source"})

// ErrCursorLoop is returned when the upstream hands back a cursor that was already requested.
var ErrCursorLoop = errors.New("pagination cursor repeated")

// FetchFunc fetches the page for cursor ("" for the first page) and returns
// the cursor of the next page, or "" when there is none.
type FetchFunc func(ctx context.Context, cursor string) (next string, err error)

// Walk calls fetch for each page of source until the returned cursor is empty.
// It returns the number of pages fetched.
func Walk(ctx context.Context, source string, fetch FetchFunc) (int, error) {
	start := time.Now()
	seen := map[string]struct{}{"": {}}
	cursor := ""
	pages := 0

	for {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		next, err := fetch(ctx, cursor)
		if err != nil {
			return pages, fmt.Errorf("%s page %d: %w", source, pages+1, err)
		}
		pages++
		pagesFetchedTotal.WithLabelValues(source).Inc()

		log.Debug().
			Str("source", source).
			Int("page", pages).
			Bool("has_next", next != "").
			Msg("Fetched page")

		if next == "" {
			break
		}
		if _, dup := seen[next]; dup {
			return pages, fmt.Errorf("%s page %d: %w: %q", source, pages+1, ErrCursorLoop, next)
		}
		seen[next] = struct{}{}
		cursor = next
	}

	log.Debug().
		Str("source", source).
		Int("pages", pages).
		Dur("duration", time.Since(start)).
		Msg("Pagination complete")

	return pages, nil
}
