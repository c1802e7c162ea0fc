package export

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/catalog-exporter/pkg/catalog"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet the items are written to.
const DefaultSheet = "Sheet1"

// XLSXWriter writes items as an Excel workbook, one header row and one row per item.
type XLSXWriter struct {
	path  string
	sheet string
}

// NewXLSXWriter creates a writer for path.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path, sheet: DefaultSheet}
}

// Write replaces the workbook at the writer's path.
func (w *XLSXWriter) Write(ctx context.Context, items []catalog.Item) error {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(w.sheet)
	if err != nil {
		return fmt.Errorf("open sheet stream: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, Row(item)); err != nil {
			return fmt.Errorf("write row for item %d: %w", item.ID, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save %s: %w", w.path, err)
	}

	rowsExportedTotal.WithLabelValues("xlsx").Add(float64(len(items)))
	log.Info().
		Str("path", w.path).
		Int("rows", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Workbook written")

	return nil
}
