package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"
)

// deleteChunkSize bounds the number of OR terms in a single delete statement.
const deleteChunkSize = 500

// UpsertMediaMetadataBatch writes one library batch in a single transaction.
// Conflicting rows are fully replaced with the fresh values.
func (s *SQLite) UpsertMediaMetadataBatch(ctx context.Context, batch []model.MediaMetadata) error {
	if len(batch) == 0 {
		return nil
	}

	setColumns := make([]sqlite.Expression, len(table.MediaMetadata.MutableColumns))
	for i := range table.MediaMetadata.MutableColumns {
		setColumns[i] = table.MediaMetadata.EXCLUDED.MutableColumns[i]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	for _, meta := range batch {
		stmt := table.MediaMetadata.
			INSERT(table.MediaMetadata.AllColumns).
			MODEL(meta).
			ON_CONFLICT(table.MediaMetadata.TmdbID, table.MediaMetadata.ItemType).
			DO_UPDATE(sqlite.SET(table.MediaMetadata.MutableColumns.SET(sqlite.ROW(setColumns...))))

		if _, err := stmt.ExecContext(ctx, tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert media metadata %s/%s: %w", meta.TmdbID, meta.ItemType, err)
		}
	}

	return tx.Commit()
}

// DeleteMediaMetadataByTmdbIDs removes the given rows, chunking the statement
// so a large purge never builds an unbounded WHERE clause.
func (s *SQLite) DeleteMediaMetadataByTmdbIDs(ctx context.Context, pairs []storage.MediaKey) error {
	for start := 0; start < len(pairs); start += deleteChunkSize {
		end := start + deleteChunkSize
		if end > len(pairs) {
			end = len(pairs)
		}

		chunk := pairs[start:end]
		where := sqlite.Bool(false)
		for _, pair := range chunk {
			where = where.OR(
				table.MediaMetadata.TmdbID.EQ(sqlite.String(pair.TmdbID)).
					AND(table.MediaMetadata.ItemType.EQ(sqlite.String(pair.ItemType))),
			)
		}

		stmt := table.MediaMetadata.DELETE().WHERE(where)
		if _, err := s.handleDelete(ctx, stmt); err != nil {
			return fmt.Errorf("failed to delete media metadata chunk: %w", err)
		}
	}

	return nil
}

// GetMediaMetadata fetches one row by its composite key.
func (s *SQLite) GetMediaMetadata(ctx context.Context, tmdbID, itemType string) (*model.MediaMetadata, error) {
	meta := &model.MediaMetadata{}
	stmt := table.MediaMetadata.
		SELECT(table.MediaMetadata.AllColumns).
		FROM(table.MediaMetadata).
		WHERE(
			table.MediaMetadata.TmdbID.EQ(sqlite.String(tmdbID)).
				AND(table.MediaMetadata.ItemType.EQ(sqlite.String(itemType))),
		).
		LIMIT(1)

	err := stmt.QueryContext(ctx, s.db, meta)
	if err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get media metadata: %w", err)
	}

	return meta, nil
}

// GetMediaMetadataByTmdbID fetches a row when the caller doesn't know the item
// type, preferring movies when both exist.
func (s *SQLite) GetMediaMetadataByTmdbID(ctx context.Context, tmdbID string) (*model.MediaMetadata, error) {
	meta := &model.MediaMetadata{}
	stmt := table.MediaMetadata.
		SELECT(table.MediaMetadata.AllColumns).
		FROM(table.MediaMetadata).
		WHERE(table.MediaMetadata.TmdbID.EQ(sqlite.String(tmdbID))).
		ORDER_BY(table.MediaMetadata.ItemType.ASC()).
		LIMIT(1)

	err := stmt.QueryContext(ctx, s.db, meta)
	if err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get media metadata by tmdb id: %w", err)
	}

	return meta, nil
}

// ListMediaMetadata lists all rows, optionally filtered by item type.
func (s *SQLite) ListMediaMetadata(ctx context.Context, itemType string) ([]*model.MediaMetadata, error) {
	items := make([]*model.MediaMetadata, 0)
	stmt := table.MediaMetadata.
		SELECT(table.MediaMetadata.AllColumns).
		FROM(table.MediaMetadata).
		ORDER_BY(table.MediaMetadata.TmdbID.ASC())

	if itemType != "" {
		stmt = stmt.WHERE(table.MediaMetadata.ItemType.EQ(sqlite.String(itemType)))
	}

	err := stmt.QueryContext(ctx, s.db, &items)
	if err != nil {
		return nil, fmt.Errorf("failed to list media metadata: %w", err)
	}

	return items, nil
}

// ListMediaSyncInfo returns the slim projection the indexer diffs against.
func (s *SQLite) ListMediaSyncInfo(ctx context.Context) ([]*storage.MediaSyncInfo, error) {
	infos := make([]*storage.MediaSyncInfo, 0)
	stmt := table.MediaMetadata.
		SELECT(
			table.MediaMetadata.TmdbID,
			table.MediaMetadata.ItemType,
			table.MediaMetadata.LastSyncedAt.AS("media_sync_info.last_synced_at"),
		).
		FROM(table.MediaMetadata)

	err := stmt.QueryContext(ctx, s.db, &infos)
	if err != nil {
		return nil, fmt.Errorf("failed to list media sync info: %w", err)
	}

	return infos, nil
}
