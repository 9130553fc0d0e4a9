package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"
)

// SaveTranslation upserts a cached translation keyed by the original text.
// Translations without a single Han character are failed engine output and
// are rejected rather than cached.
func (s *SQLite) SaveTranslation(ctx context.Context, original, translated, engine string) error {
	if !containsHan(translated) {
		return fmt.Errorf("translation of %q contains no Han characters", original)
	}

	now := time.Now().UTC()
	row := model.TranslationCache{
		OriginalText:   original,
		TranslatedText: &translated,
		EngineUsed:     &engine,
		LastUpdatedAt:  &now,
	}

	stmt := table.TranslationCache.
		INSERT(table.TranslationCache.OriginalText, table.TranslationCache.TranslatedText, table.TranslationCache.EngineUsed, table.TranslationCache.LastUpdatedAt).
		MODEL(row).
		ON_CONFLICT(table.TranslationCache.OriginalText).
		DO_UPDATE(sqlite.SET(
			table.TranslationCache.TranslatedText.SET(table.TranslationCache.EXCLUDED.TranslatedText),
			table.TranslationCache.EngineUsed.SET(table.TranslationCache.EXCLUDED.EngineUsed),
			table.TranslationCache.LastUpdatedAt.SET(table.TranslationCache.EXCLUDED.LastUpdatedAt),
		))

	_, err := s.handleInsert(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to save translation: %w", err)
	}

	return nil
}

// GetTranslation returns a cached translation. Entries whose stored value
// contains no Han characters are stale output from a failed translation run;
// they are deleted on read and reported as not found so the caller
// retranslates.
func (s *SQLite) GetTranslation(ctx context.Context, original string) (*model.TranslationCache, error) {
	log := logger.FromCtx(ctx)

	row := &model.TranslationCache{}
	stmt := table.TranslationCache.
		SELECT(table.TranslationCache.AllColumns).
		FROM(table.TranslationCache).
		WHERE(table.TranslationCache.OriginalText.EQ(sqlite.String(original))).
		LIMIT(1)

	err := stmt.QueryContext(ctx, s.db, row)
	if err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get translation: %w", err)
	}

	if row.TranslatedText == nil || !containsHan(*row.TranslatedText) {
		log.Debugw("purging stale translation cache entry", "original", original)

		deleteStmt := table.TranslationCache.
			DELETE().
			WHERE(table.TranslationCache.OriginalText.EQ(sqlite.String(original)))
		if _, err := s.handleDelete(ctx, deleteStmt); err != nil {
			return nil, fmt.Errorf("failed to purge stale translation: %w", err)
		}

		return nil, storage.ErrNotFound
	}

	return row, nil
}

// containsHan reports whether the string carries at least one Han character.
func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
