// Package export writes normalized items to a spreadsheet or SQLite file
// with a fixed column order.
package export

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Sternrassler/catalog-exporter/pkg/catalog"
	"github.com/Sternrassler/catalog-exporter/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rowsExportedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "catalog_rows_exported_total",
	Help: "Rows written to the export file, by format",
}, []string{"format"})

// Columns is the exported column order.
var Columns = []string{
	"id",
	"name",
	"type",
	"restrictions",
	"creator_name",
	"creator_id",
	"best_price",
	"tradable",
	"holding_period",
	"quantity_sold",
	"original_price",
	"average_price",
	"name_of_resellers",
}

// Writer writes a full set of items to its destination.
type Writer interface {
	Write(ctx context.Context, items []catalog.Item) error
}

// New returns the writer for format (config.FormatXLSX or config.FormatSQLite).
func New(format, path string) (Writer, error) {
	switch format {
	case config.FormatXLSX:
		return NewXLSXWriter(path), nil
	case config.FormatSQLite:
		return NewSQLiteWriter(path), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// Row returns the cell values of item in Columns order. Absent values are nil.
func Row(item catalog.Item) []any {
	return []any{
		item.ID,
		item.Name,
		optString(item.Type),
		listCell(item.Restrictions),
		item.CreatorName,
		item.CreatorID,
		optInt(item.BestPrice),
		item.Tradable,
		item.HoldingPeriod,
		optInt(item.QuantitySold),
		optInt(item.OriginalPrice),
		optInt(item.AveragePrice),
		resellersCell(item.Resellers),
	}
}

func optString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func optInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func listCell(list []string) any {
	if list == nil {
		return nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil
	}
	return string(b)
}

func resellersCell(r *catalog.Resellers) any {
	if r == nil {
		return nil
	}
	return r.String()
}
