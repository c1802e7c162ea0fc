package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrEmptyBatch is returned when the batch item details lookup answers with no items.
var ErrEmptyBatch = errors.New("item details batch returned no items")

// Resale source names.
const (
	SourceAssetResaleData       = "asset-resale-data"
	SourceCollectibleResaleData = "collectible-resale-data"
)

// Lookup identifies the item a resale source is asked about.
type Lookup struct {
	AssetID       int64
	CollectibleID string
}

// ResaleData holds the resale figures of an item. Nil means not provided.
type ResaleData struct {
	QuantitySold *int64
	AveragePrice *int64
}

// ResaleSource is one way of getting resale data for an item.
type ResaleSource interface {
	Name() string
	// Supports reports whether the source can be asked about l at all.
	Supports(l Lookup) bool
	// Fetch returns ok=false when the source has no data for l.
	Fetch(ctx context.Context, l Lookup) (data ResaleData, ok bool, err error)
}

// ResaleChain asks its sources in order and keeps the first answer.
type ResaleChain struct {
	sources []ResaleSource
	logger  zerolog.Logger
}

// NewResaleChain creates a chain over sources, tried in the given order.
func NewResaleChain(logger zerolog.Logger, sources ...ResaleSource) *ResaleChain {
	return &ResaleChain{sources: sources, logger: logger}
}

// DefaultResaleChain returns the asset-keyed source followed by the
// collectible-keyed one.
func DefaultResaleChain(api Fetcher, endpoints Endpoints, logger zerolog.Logger) *ResaleChain {
	return NewResaleChain(logger,
		&AssetResaleSource{api: api, endpoints: endpoints},
		&CollectibleResaleSource{api: api, endpoints: endpoints},
	)
}

// Sources returns the source names in order.
func (c *ResaleChain) Sources() []string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return names
}

// Collect returns the data of the first source that has some, and its name.
// With no answer it returns empty data and an empty name.
func (c *ResaleChain) Collect(ctx context.Context, l Lookup) (ResaleData, string, error) {
	for _, src := range c.sources {
		if !src.Supports(l) {
			continue
		}
		data, ok, err := src.Fetch(ctx, l)
		if err != nil {
			return ResaleData{}, "", fmt.Errorf("%s: %w", src.Name(), err)
		}
		if ok {
			resaleSourceHitsTotal.WithLabelValues(src.Name()).Inc()
			return data, src.Name(), nil
		}
		c.logger.Debug().
			Str("source", src.Name()).
			Int64("asset_id", l.AssetID).
			Msg("No resale data, trying next source")
	}
	return ResaleData{}, "", nil
}

// AssetResaleSource reads resale data keyed by the plain asset id.
type AssetResaleSource struct {
	api       Fetcher
	endpoints Endpoints
}

// NewAssetResaleSource creates the asset-keyed source.
func NewAssetResaleSource(api Fetcher, endpoints Endpoints) *AssetResaleSource {
	return &AssetResaleSource{api: api, endpoints: endpoints}
}

// Name returns SourceAssetResaleData.
func (s *AssetResaleSource) Name() string { return SourceAssetResaleData }

// Supports reports true for every item.
func (s *AssetResaleSource) Supports(l Lookup) bool { return true }

// Fetch reads sales and average price from the asset resale data.
func (s *AssetResaleSource) Fetch(ctx context.Context, l Lookup) (ResaleData, bool, error) {
	var body resaleDataBody
	found, err := s.api.GetJSON(ctx, EndpointAssetResale, s.endpoints.AssetResaleData(l.AssetID), &body)
	if err != nil || !found {
		return ResaleData{}, false, err
	}
	return ResaleData{QuantitySold: body.Sales, AveragePrice: body.RecentAveragePrice}, true, nil
}

// CollectibleResaleSource reads the sales count from the batch item details
// lookup and the average price from the collectible resale data.
type CollectibleResaleSource struct {
	api       Fetcher
	endpoints Endpoints
}

// NewCollectibleResaleSource creates the collectible-keyed source.
func NewCollectibleResaleSource(api Fetcher, endpoints Endpoints) *CollectibleResaleSource {
	return &CollectibleResaleSource{api: api, endpoints: endpoints}
}

// Name returns SourceCollectibleResaleData.
func (s *CollectibleResaleSource) Name() string { return SourceCollectibleResaleData }

// Supports reports whether the item has a collectible id.
func (s *CollectibleResaleSource) Supports(l Lookup) bool { return l.CollectibleID != "" }

// Fetch posts the batch details lookup for the sales count, then reads the
// average price. A missing average leaves AveragePrice nil.
func (s *CollectibleResaleSource) Fetch(ctx context.Context, l Lookup) (ResaleData, bool, error) {
	var details []itemDetails
	request := map[string][]string{"itemIds": {l.CollectibleID}}
	found, err := s.api.PostJSON(ctx, EndpointItemDetails, s.endpoints.ItemDetails(), request, &details)
	if err != nil || !found {
		return ResaleData{}, false, err
	}
	if len(details) == 0 {
		return ResaleData{}, false, fmt.Errorf("collectible %s: %w", l.CollectibleID, ErrEmptyBatch)
	}

	data := ResaleData{QuantitySold: details[0].Sales}

	var body resaleDataBody
	found, err = s.api.GetJSON(ctx, EndpointCollectibleSale, s.endpoints.CollectibleResaleData(l.CollectibleID), &body)
	if err != nil {
		return ResaleData{}, false, err
	}
	if found {
		data.AveragePrice = body.RecentAveragePrice
	}
	return data, true, nil
}
