package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/catalog-exporter/pkg/catalog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const createItemsTable = `CREATE TABLE items (
	id INTEGER NOT NULL,
	name TEXT,
	type TEXT,
	restrictions TEXT,
	creator_name TEXT,
	creator_id INTEGER,
	best_price INTEGER,
	tradable BOOLEAN,
	holding_period BOOLEAN,
	quantity_sold INTEGER,
	original_price INTEGER,
	average_price INTEGER,
	name_of_resellers TEXT
)`

// SQLiteWriter writes items to table items of a fresh SQLite database.
type SQLiteWriter struct {
	path string
}

// NewSQLiteWriter creates a writer for path.
func NewSQLiteWriter(path string) *SQLiteWriter {
	return &SQLiteWriter{path: path}
}

// Write recreates the database at the writer's path.
func (w *SQLiteWriter) Write(ctx context.Context, items []catalog.Item) error {
	start := time.Now()

	if err := os.Remove(w.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove previous export: %w", err)
	}

	db, err := sql.Open("sqlite", w.path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createItemsTable); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(Columns)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO items (%s) VALUES (%s)",
		strings.Join(Columns, ", "), placeholders))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, Row(item)...); err != nil {
			return fmt.Errorf("insert item %d: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	rowsExportedTotal.WithLabelValues("sqlite").Add(float64(len(items)))
	log.Info().
		Str("path", w.path).
		Int("rows", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Database written")

	return nil
}
