package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"
)

// UpsertNativeCollection stores or refreshes one server-side collection row.
func (s *SQLite) UpsertNativeCollection(ctx context.Context, info model.CollectionsInfo) error {
	setColumns := make([]sqlite.Expression, len(table.CollectionsInfo.MutableColumns))
	for i := range table.CollectionsInfo.MutableColumns {
		setColumns[i] = table.CollectionsInfo.EXCLUDED.MutableColumns[i]
	}

	stmt := table.CollectionsInfo.
		INSERT(table.CollectionsInfo.AllColumns).
		MODEL(info).
		ON_CONFLICT(table.CollectionsInfo.EmbyCollectionID).
		DO_UPDATE(sqlite.SET(table.CollectionsInfo.MutableColumns.SET(sqlite.ROW(setColumns...))))

	_, err := s.handleInsert(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to upsert native collection: %w", err)
	}

	return nil
}

// GetNativeCollection fetches one row by Emby collection ID.
func (s *SQLite) GetNativeCollection(ctx context.Context, embyCollectionID string) (*model.CollectionsInfo, error) {
	info := &model.CollectionsInfo{}
	stmt := table.CollectionsInfo.
		SELECT(table.CollectionsInfo.AllColumns).
		FROM(table.CollectionsInfo).
		WHERE(table.CollectionsInfo.EmbyCollectionID.EQ(sqlite.String(embyCollectionID))).
		LIMIT(1)

	err := stmt.QueryContext(ctx, s.db, info)
	if err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get native collection: %w", err)
	}

	return info, nil
}

// ListNativeCollections lists stored server-side collections.
func (s *SQLite) ListNativeCollections(ctx context.Context, where ...sqlite.BoolExpression) ([]*model.CollectionsInfo, error) {
	infos := make([]*model.CollectionsInfo, 0)
	stmt := table.CollectionsInfo.
		SELECT(table.CollectionsInfo.AllColumns).
		FROM(table.CollectionsInfo).
		ORDER_BY(table.CollectionsInfo.EmbyCollectionID.ASC())

	for _, w := range where {
		stmt = stmt.WHERE(w)
	}

	err := stmt.QueryContext(ctx, s.db, &infos)
	if err != nil {
		return nil, fmt.Errorf("failed to list native collections: %w", err)
	}

	return infos, nil
}

// DeleteNativeCollectionsNotIn prunes rows for collections that no longer
// exist on the server. An empty keep list wipes the table.
func (s *SQLite) DeleteNativeCollectionsNotIn(ctx context.Context, embyCollectionIDs []string) (int64, error) {
	stmt := table.CollectionsInfo.DELETE().WHERE(sqlite.Bool(true))
	if len(embyCollectionIDs) > 0 {
		keep := make([]sqlite.Expression, len(embyCollectionIDs))
		for i, id := range embyCollectionIDs {
			keep[i] = sqlite.String(id)
		}
		stmt = table.CollectionsInfo.DELETE().
			WHERE(table.CollectionsInfo.EmbyCollectionID.NOT_IN(keep...))
	}

	result, err := s.handleDelete(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("failed to prune native collections: %w", err)
	}

	return result.RowsAffected()
}

// UpdateNativeCollectionSnapshot replaces a collection's snapshot and derives
// the missing flag and counts from it.
func (s *SQLite) UpdateNativeCollectionSnapshot(ctx context.Context, embyCollectionID string, status string, items []storage.SnapshotItem) error {
	snapshot, err := marshalSnapshot(items)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	inLibrary, missing, _ := snapshotStats(items)
	now := time.Now()

	stmt := table.CollectionsInfo.
		UPDATE().
		SET(
			table.CollectionsInfo.Status.SET(sqlite.String(status)),
			table.CollectionsInfo.MissingMoviesJSON.SET(sqlite.String(snapshot)),
			table.CollectionsInfo.HasMissing.SET(sqlite.Bool(missing > 0)),
			table.CollectionsInfo.InLibraryCount.SET(sqlite.Int32(inLibrary)),
			table.CollectionsInfo.LastCheckedAt.SET(sqlite.TimestampExp(sqlite.String(now.Format(timestampFormat)))),
		).
		WHERE(table.CollectionsInfo.EmbyCollectionID.EQ(sqlite.String(embyCollectionID)))

	result, err := s.handleUpdate(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to update native collection snapshot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// BatchMarkMoviesSubscribed flips every MISSING snapshot row of the given
// collections to SUBSCRIBED in one transaction. Used after the subscribe gate
// hands a batch to the downloader, so a crash between the two can only cause
// a duplicate subscribe request, never a lost one.
func (s *SQLite) BatchMarkMoviesSubscribed(ctx context.Context, embyCollectionIDs []string) (int, error) {
	log := logger.FromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	flipped := 0
	for _, id := range embyCollectionIDs {
		info := &model.CollectionsInfo{}
		stmt := table.CollectionsInfo.
			SELECT(table.CollectionsInfo.AllColumns).
			FROM(table.CollectionsInfo).
			WHERE(table.CollectionsInfo.EmbyCollectionID.EQ(sqlite.String(id))).
			LIMIT(1)

		if err := stmt.QueryContext(ctx, tx, info); err != nil {
			if errors.Is(err, qrm.ErrNoRows) {
				continue
			}
			return 0, fmt.Errorf("failed to load native collection %s: %w", id, err)
		}

		items, err := unmarshalSnapshot(info.MissingMoviesJSON)
		if err != nil {
			log.Warnw("skipping native collection with malformed snapshot", "embyCollectionID", id, "error", err)
			continue
		}

		changed := false
		for i, item := range items {
			if item.Status != storage.MediaStatusMissing {
				continue
			}
			if err := item.Status.Machine().ToState(storage.MediaStatusSubscribed); err != nil {
				continue
			}
			items[i].Status = storage.MediaStatusSubscribed
			changed = true
			flipped++
		}

		if !changed {
			continue
		}

		snapshot, err := marshalSnapshot(items)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal snapshot: %w", err)
		}

		updateStmt := table.CollectionsInfo.
			UPDATE().
			SET(table.CollectionsInfo.MissingMoviesJSON.SET(sqlite.String(snapshot))).
			WHERE(table.CollectionsInfo.EmbyCollectionID.EQ(sqlite.String(id)))

		if _, err := updateStmt.ExecContext(ctx, tx); err != nil {
			return 0, fmt.Errorf("failed to mark movies subscribed for %s: %w", id, err)
		}
	}

	return flipped, tx.Commit()
}
