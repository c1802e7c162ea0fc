package catalog

import (
	"context"

	"github.com/Sternrassler/catalog-exporter/pkg/pagination"
	"github.com/rs/zerolog"
)

// ResellerCollector lists the sellers currently reselling a collectible.
type ResellerCollector struct {
	api       Fetcher
	endpoints Endpoints
	logger    zerolog.Logger
}

// NewResellerCollector creates a collector.
func NewResellerCollector(api Fetcher, endpoints Endpoints, logger zerolog.Logger) *ResellerCollector {
	return &ResellerCollector{api: api, endpoints: endpoints, logger: logger}
}

// Collect walks every reseller page of a collectible and returns the seller
// names in listing order. A page the API has no data for ends the walk.
func (c *ResellerCollector) Collect(ctx context.Context, collectibleID string) ([]string, error) {
	var names []string

	_, err := pagination.Walk(ctx, EndpointResellers, func(ctx context.Context, cursor string) (string, error) {
		var page resellersPage
		found, err := c.api.GetJSON(ctx, EndpointResellers, c.endpoints.Resellers(collectibleID, cursor), &page)
		if err != nil {
			return "", err
		}
		if !found {
			c.logger.Debug().Str("collectible_id", collectibleID).Msg("No reseller data")
			return "", nil
		}
		for _, entry := range page.Data {
			names = append(names, entry.Seller.Name)
		}
		return cursorValue(page.NextPageCursor), nil
	})
	if err != nil {
		return nil, err
	}

	if names == nil {
		names = []string{}
	}
	return names, nil
}
