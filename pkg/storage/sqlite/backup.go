package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/storage"
)

// backupTables is the allowlist of tables that participate in export/import,
// in dependency order so imports never hit a missing foreign key.
var backupTables = []string{
	"media_metadata",
	"person_identity_map",
	"translation_cache",
	"custom_collections",
	"collections_info",
	"watchlist",
	"actor_subscriptions",
	"tracked_actor_media",
	"processed_log",
	"failed_log",
	"users",
}

func backupTableAllowed(name string) bool {
	for _, t := range backupTables {
		if t == name {
			return true
		}
	}
	return false
}

// ExportAll dumps the requested tables as generic row maps. An empty table
// list exports everything in the allowlist.
func (s *SQLite) ExportAll(ctx context.Context, tables []string) (*storage.BackupDocument, error) {
	if len(tables) == 0 {
		tables = backupTables
	}

	doc := &storage.BackupDocument{
		Data: make(map[string][]map[string]any, len(tables)),
	}

	for _, tableName := range tables {
		if !backupTableAllowed(tableName) {
			return nil, fmt.Errorf("table %q is not exportable", tableName)
		}

		rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to export table %s: %w", tableName, err)
		}

		exported, err := scanGenericRows(rows)
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to scan table %s: %w", tableName, err)
		}

		doc.Data[tableName] = exported
	}

	return doc, nil
}

// ImportAll applies a backup document. Overwrite mode wipes each included
// table first; merge mode keeps existing rows and only fills gaps. For the
// translation cache, merge prefers manual translations over machine ones.
func (s *SQLite) ImportAll(ctx context.Context, doc *storage.BackupDocument, mode storage.ImportMode) error {
	log := logger.FromCtx(ctx)

	if mode != storage.ImportModeOverwrite && mode != storage.ImportModeMerge {
		return fmt.Errorf("unknown import mode %q", mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Iterate in allowlist order regardless of map order.
	for _, tableName := range backupTables {
		tableRows, ok := doc.Data[tableName]
		if !ok {
			continue
		}

		if mode == storage.ImportModeOverwrite {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+tableName); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", tableName, err)
			}
			// restart AUTOINCREMENT ids; sqlite_sequence only exists once an
			// autoincrement table has been written to
			if _, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", tableName); err != nil && !strings.Contains(err.Error(), "no such table") {
				return fmt.Errorf("failed to reset sequence for %s: %w", tableName, err)
			}
		}

		imported := 0
		for _, row := range tableRows {
			if len(row) == 0 {
				continue
			}

			if mode == storage.ImportModeMerge && tableName == "translation_cache" {
				applied, err := mergeTranslationRow(ctx, tx, row)
				if err != nil {
					return err
				}
				if applied {
					imported++
				}
				continue
			}

			columns := make([]string, 0, len(row))
			for column := range row {
				columns = append(columns, column)
			}
			sort.Strings(columns)

			placeholders := make([]string, len(columns))
			values := make([]any, len(columns))
			for i, column := range columns {
				placeholders[i] = "?"
				values[i] = row[column]
			}

			verb := "INSERT OR REPLACE"
			if mode == storage.ImportModeMerge {
				verb = "INSERT OR IGNORE"
			}

			query := fmt.Sprintf("%s INTO %s (%s) VALUES (%s)",
				verb, tableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

			if _, err := tx.ExecContext(ctx, query, values...); err != nil {
				return fmt.Errorf("failed to import row into %s: %w", tableName, err)
			}
			imported++
		}

		log.Infow("imported table", "table", tableName, "rows", imported, "mode", string(mode))
	}

	return tx.Commit()
}

// scanGenericRows reads every row into ordered column/value maps.
func scanGenericRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, column := range columns {
			value := values[i]
			// sqlite hands back []byte for TEXT; keep the export readable
			if b, ok := value.([]byte); ok {
				value = string(b)
			}
			row[column] = value
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

// mergeTranslationRow merges one translation_cache row, letting a manual
// translation replace a machine one but never the other way around.
func mergeTranslationRow(ctx context.Context, tx *sql.Tx, row map[string]any) (bool, error) {
	original, _ := row["original_text"].(string)
	if original == "" {
		return false, nil
	}

	incomingEngine, _ := row["engine_used"].(string)

	var existingEngine, existingText string
	err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(engine_used, ''), COALESCE(translated_text, '') FROM translation_cache WHERE original_text = ?",
		original).Scan(&existingEngine, &existingText)

	if err == nil {
		replace := existingText == "" ||
			(incomingEngine == "manual" && existingEngine != "manual")
		if !replace {
			return false, nil
		}
	} else if err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to check existing translation: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO translation_cache (original_text, translated_text, engine_used) VALUES (?, ?, ?)",
		original, row["translated_text"], row["engine_used"])
	if err != nil {
		return false, fmt.Errorf("failed to merge translation row: %w", err)
	}

	return true, nil
}
