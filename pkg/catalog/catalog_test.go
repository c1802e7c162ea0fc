package catalog

import (
	"testing"

	"github.com/Sternrassler/catalog-exporter/internal/testutil"
	"github.com/Sternrassler/catalog-exporter/pkg/config"
	"github.com/rs/zerolog"
)

func testEndpoints(mock *testutil.MockMarketplace) Endpoints {
	return Endpoints{
		CatalogURL:      mock.URL(),
		EconomyURL:      mock.URL(),
		MarketplaceURL:  mock.URL(),
		SearchLimit:     120,
		SortAggregation: 5,
		ResellerLimit:   100,
	}
}

func testAssetTypes(t *testing.T) *config.CatalogData {
	t.Helper()
	data, err := config.LoadCatalogData("")
	if err != nil {
		t.Fatalf("LoadCatalogData() error = %v", err)
	}
	return data
}

func newTestNormalizer(t *testing.T, mock *testutil.MockMarketplace) *Normalizer {
	t.Helper()
	api := testutil.NewClient(t)
	e := testEndpoints(mock)
	return NewNormalizer(
		testAssetTypes(t),
		DefaultResaleChain(api, e, zerolog.Nop()),
		NewResellerCollector(api, e, zerolog.Nop()),
		zerolog.Nop(),
	)
}

func int64p(v int64) *int64 { return &v }

func derefInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
