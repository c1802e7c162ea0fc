package catalog

import (
	"fmt"
	"net/url"

	"github.com/Sternrassler/catalog-exporter/pkg/config"
)

// Endpoint labels used for metrics and logs.
const (
	EndpointSearch          = "catalog_search"
	EndpointResellers       = "resellers"
	EndpointAssetResale     = "asset_resale_data"
	EndpointItemDetails     = "item_details"
	EndpointCollectibleSale = "collectible_resale_data"
)

// Endpoints builds request URLs for the three API hosts.
type Endpoints struct {
	CatalogURL      string
	EconomyURL      string
	MarketplaceURL  string
	SearchLimit     int
	SortAggregation int
	ResellerLimit   int
}

// NewEndpoints combines the configured hosts with the static page sizes.
func NewEndpoints(api config.APIConfig, data *config.CatalogData) Endpoints {
	return Endpoints{
		CatalogURL:      api.CatalogURL,
		EconomyURL:      api.EconomyURL,
		MarketplaceURL:  api.MarketplaceURL,
		SearchLimit:     data.Search.Limit,
		SortAggregation: data.Search.SortAggregation,
		ResellerLimit:   data.Resellers.Limit,
	}
}

// Search returns the catalog search URL for a category page.
func (e Endpoints) Search(category, cursor string) string {
	u := fmt.Sprintf("%s/v2/search/items/details?Category=%s&SortAggregation=%d&Limit=%d",
		e.CatalogURL, url.QueryEscape(category), e.SortAggregation, e.SearchLimit)
	if cursor != "" {
		u += "&Cursor=" + url.QueryEscape(cursor)
	}
	return u
}

// Resellers returns the reseller listing URL for a collectible page.
func (e Endpoints) Resellers(collectibleID, cursor string) string {
	u := fmt.Sprintf("%s/marketplace-sales/v1/item/%s/resellers?limit=%d",
		e.MarketplaceURL, url.PathEscape(collectibleID), e.ResellerLimit)
	if cursor != "" {
		u += "&cursor=" + url.QueryEscape(cursor)
	}
	return u
}

// AssetResaleData returns the resale data URL keyed by asset id.
func (e Endpoints) AssetResaleData(assetID int64) string {
	return fmt.Sprintf("%s/v1/assets/%d/resale-data", e.EconomyURL, assetID)
}

// ItemDetails returns the batch item details URL.
func (e Endpoints) ItemDetails() string {
	return e.MarketplaceURL + "/marketplace-items/v1/items/details"
}

// CollectibleResaleData returns the resale data URL keyed by collectible id.
func (e Endpoints) CollectibleResaleData(collectibleID string) string {
	return fmt.Sprintf("%s/marketplace-sales/v1/item/%s/resale-data",
		e.MarketplaceURL, url.PathEscape(collectibleID))
}
