package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Sternrassler/catalog-exporter/pkg/client"
	"github.com/rs/zerolog"
)

// AssetTypes resolves asset type codes to exported type names.
type AssetTypes interface {
	AssetTypeName(code int) (string, bool)
}

// Normalizer turns search records into items, pulling resale data and
// reseller names where the record calls for them.
type Normalizer struct {
	assetTypes AssetTypes
	resale     *ResaleChain
	resellers  *ResellerCollector
	logger     zerolog.Logger
}

// NewNormalizer creates a normalizer. Usually assetTypes is the *config.CatalogData.
func NewNormalizer(assetTypes AssetTypes, resale *ResaleChain, resellers *ResellerCollector, logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		assetTypes: assetTypes,
		resale:     resale,
		resellers:  resellers,
		logger:     logger,
	}
}

// Normalize builds the item for one record.
func (n *Normalizer) Normalize(ctx context.Context, r Record) (Item, error) {
	item := Item{
		ID:            r.ID,
		Name:          r.Name,
		Type:          n.typeOf(r),
		Restrictions:  r.ItemRestrictions,
		CreatorName:   r.CreatorName,
		CreatorID:     r.CreatorTargetID,
		Tradable:      hasAny(r.ItemRestrictions, RestrictionLimited, RestrictionLimitedUnique),
		HoldingPeriod: hasAny(r.ItemRestrictions, RestrictionLimited, RestrictionLimitedUnique, RestrictionCollectible),
		OriginalPrice: r.Price,
		BestPrice:     r.LowestPrice,
	}

	collectibleID := r.CollectibleID()

	if r.HasResellersKey {
		data, source, err := n.resale.Collect(ctx, Lookup{AssetID: r.ID, CollectibleID: collectibleID})
		if err != nil {
			return Item{}, fmt.Errorf("resale data for item %d: %w", r.ID, err)
		}
		item.QuantitySold = data.QuantitySold
		item.AveragePrice = data.AveragePrice
		if source == "" {
			n.logger.Debug().Int64("item_id", r.ID).Msg("No resale source had data")
		}
	}

	if collectibleID != "" && r.HasResellers != nil && *r.HasResellers {
		names, err := n.resellers.Collect(ctx, collectibleID)
		switch {
		case errors.Is(err, client.ErrDecode):
			n.logger.Warn().
				Err(err).
				Int64("item_id", r.ID).
				Str("collectible_id", collectibleID).
				Msg("Reseller response not decodable, marking as error")
			resellerDecodeFailuresTotal.Inc()
			item.Resellers = &Resellers{Failed: true}
		case err != nil:
			return Item{}, fmt.Errorf("resellers for item %d: %w", r.ID, err)
		default:
			item.Resellers = &Resellers{Names: names}
		}
	}

	itemsNormalizedTotal.Inc()
	return item, nil
}

func (n *Normalizer) typeOf(r Record) string {
	if r.ItemType == TypeBundle {
		return TypeBundle
	}
	if r.AssetType == nil {
		return ""
	}
	name, _ := n.assetTypes.AssetTypeName(*r.AssetType)
	return name
}

func hasAny(restrictions []string, wanted ...string) bool {
	for _, w := range wanted {
		if slices.Contains(restrictions, w) {
			return true
		}
	}
	return false
}
