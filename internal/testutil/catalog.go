package testutil

// Paths served by the marketplace APIs, relative to their host.
const (
	PathSearch      = "/v2/search/items/details"
	PathItemDetails = "/marketplace-items/v1/items/details"
)

// PathAssetResale returns the asset resale data path.
func PathAssetResale(assetID string) string {
	return "/v1/assets/" + assetID + "/resale-data"
}

// PathResellers returns the reseller listing path of a collectible.
func PathResellers(collectibleID string) string {
	return "/marketplace-sales/v1/item/" + collectibleID + "/resellers"
}

// PathCollectibleResale returns the collectible resale data path.
func PathCollectibleResale(collectibleID string) string {
	return "/marketplace-sales/v1/item/" + collectibleID + "/resale-data"
}

// SearchPage builds a catalog search page body. An empty next omits the cursor.
func SearchPage(next string, records ...map[string]any) map[string]any {
	if records == nil {
		records = []map[string]any{}
	}
	page := map[string]any{"data": records}
	if next != "" {
		page["nextPageCursor"] = next
	} else {
		page["nextPageCursor"] = nil
	}
	return page
}

// ResellersPage builds a reseller listing page body.
func ResellersPage(next string, sellers ...string) map[string]any {
	data := make([]map[string]any, len(sellers))
	for i, s := range sellers {
		data[i] = map[string]any{"seller": map[string]any{"name": s}}
	}
	page := map[string]any{"data": data}
	if next != "" {
		page["nextPageCursor"] = next
	} else {
		page["nextPageCursor"] = nil
	}
	return page
}
