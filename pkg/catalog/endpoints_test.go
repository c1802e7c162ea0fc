package catalog

import (
	"testing"

	"github.com/Sternrassler/catalog-exporter/pkg/config"
)

func TestEndpoints(t *testing.T) {
	data, err := config.LoadCatalogData("")
	if err != nil {
		t.Fatal(err)
	}
	e := NewEndpoints(config.APIConfig{
		CatalogURL:     "https://catalog.example",
		EconomyURL:     "https://economy.example",
		MarketplaceURL: "https://apis.example",
	}, data)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"search first page, no category", e.Search("", ""),
			"https://catalog.example/v2/search/items/details?Category=&SortAggregation=5&Limit=120"},
		{"search with cursor", e.Search("11", "2_1_abc=="),
			"https://catalog.example/v2/search/items/details?Category=11&SortAggregation=5&Limit=120&Cursor=2_1_abc%3D%3D"},
		{"resellers first page", e.Resellers("cid-1", ""),
			"https://apis.example/marketplace-sales/v1/item/cid-1/resellers?limit=100"},
		{"resellers with cursor", e.Resellers("cid-1", "next"),
			"https://apis.example/marketplace-sales/v1/item/cid-1/resellers?limit=100&cursor=next"},
		{"asset resale", e.AssetResaleData(42),
			"https://economy.example/v1/assets/42/resale-data"},
		{"item details", e.ItemDetails(),
			"https://apis.example/marketplace-items/v1/items/details"},
		{"collectible resale", e.CollectibleResaleData("cid-1"),
			"https://apis.example/marketplace-sales/v1/item/cid-1/resale-data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got  %s\nwant %s", tt.got, tt.want)
			}
		})
	}
}
