package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	itemsNormalizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_items_normalized_total",
		Help: "Total catalog records normalized into items",
	})

	resaleSourceHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_resale_source_hits_total",
		Help: "Resale lookups answered, by source",
	}, []string{"source"})

	resellerDecodeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_reseller_decode_failures_total",
		Help: "Reseller lookups replaced by the error marker after a decode failure",
	})

	categoriesWalkedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_categories_walked_total",
		Help: "Categories walked, by outcome",
	}, []string{"outcome"})
)
