package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CatalogDataVersion is the only catalog data layout this build understands.
const CatalogDataVersion = 1

//go:embed catalog.yaml
var embeddedCatalog []byte

// CatalogData is the static data driving the walk: category codes, page
// sizes and the asset type table.
type CatalogData struct {
	Version    int            `yaml:"version"`
	Categories []string       `yaml:"categories"`
	Search     SearchConfig   `yaml:"search"`
	Resellers  ResellerConfig `yaml:"resellers"`
	AssetTypes map[int]string `yaml:"asset_types"`
}

// SearchConfig holds the catalog search query parameters.
type SearchConfig struct {
	Limit           int `yaml:"limit"`
	SortAggregation int `yaml:"sort_aggregation"`
}

// ResellerConfig holds the reseller listing query parameters.
type ResellerConfig struct {
	Limit int `yaml:"limit"`
}

// LoadCatalogData reads catalog data from path, or the embedded copy when
// path is empty.
func LoadCatalogData(path string) (*CatalogData, error) {
	data := embeddedCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog data: %w", err)
		}
		data = b
	}
	return ParseCatalogData(data)
}

// ParseCatalogData decodes and validates catalog data.
func ParseCatalogData(data []byte) (*CatalogData, error) {
	var cd CatalogData
	if err := yaml.Unmarshal(data, &cd); err != nil {
		return nil, fmt.Errorf("parse catalog data: %w", err)
	}

	if cd.Version != CatalogDataVersion {
		return nil, fmt.Errorf("unsupported catalog data version %d (want %d)", cd.Version, CatalogDataVersion)
	}
	if len(cd.Categories) == 0 {
		return nil, fmt.Errorf("catalog data has no categories")
	}
	if cd.Search.Limit <= 0 {
		return nil, fmt.Errorf("search.limit must be > 0 (got %d)", cd.Search.Limit)
	}
	if cd.Resellers.Limit <= 0 {
		return nil, fmt.Errorf("resellers.limit must be > 0 (got %d)", cd.Resellers.Limit)
	}
	if cd.AssetTypes == nil {
		cd.AssetTypes = map[int]string{}
	}

	return &cd, nil
}

// AssetTypeName returns the exported name for an asset type code.
func (cd *CatalogData) AssetTypeName(code int) (string, bool) {
	name, ok := cd.AssetTypes[code]
	return name, ok
}
