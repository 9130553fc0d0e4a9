package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"
)

// CreateCustomCollection stores a new custom collection definition.
func (s *SQLite) CreateCustomCollection(ctx context.Context, collection model.CustomCollections) (int32, error) {
	stmt := table.CustomCollections.
		INSERT(table.CustomCollections.Name, table.CustomCollections.Type, table.CustomCollections.DefinitionJSON, table.CustomCollections.Status, table.CustomCollections.SortOrder).
		MODEL(collection)

	result, err := s.handleInsert(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("failed to create custom collection: %w", err)
	}

	inserted, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	return int32(inserted), nil
}

// GetCustomCollection fetches one custom collection by ID.
func (s *SQLite) GetCustomCollection(ctx context.Context, id int32) (*model.CustomCollections, error) {
	collection := &model.CustomCollections{}
	stmt := table.CustomCollections.
		SELECT(table.CustomCollections.AllColumns).
		FROM(table.CustomCollections).
		WHERE(table.CustomCollections.ID.EQ(sqlite.Int32(id))).
		LIMIT(1)

	err := stmt.QueryContext(ctx, s.db, collection)
	if err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get custom collection: %w", err)
	}

	return collection, nil
}

// ListCustomCollections lists custom collections matching the optional where
// expressions, ordered for display.
func (s *SQLite) ListCustomCollections(ctx context.Context, where ...sqlite.BoolExpression) ([]*model.CustomCollections, error) {
	collections := make([]*model.CustomCollections, 0)
	stmt := table.CustomCollections.
		SELECT(table.CustomCollections.AllColumns).
		FROM(table.CustomCollections).
		ORDER_BY(table.CustomCollections.SortOrder.ASC(), table.CustomCollections.ID.ASC())

	for _, w := range where {
		stmt = stmt.WHERE(w)
	}

	err := stmt.QueryContext(ctx, s.db, &collections)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom collections: %w", err)
	}

	return collections, nil
}

// UpdateCustomCollection updates the user-editable fields of a collection.
func (s *SQLite) UpdateCustomCollection(ctx context.Context, id int32, name, collectionType, definitionJSON, status string) error {
	stmt := table.CustomCollections.
		UPDATE().
		SET(
			table.CustomCollections.Name.SET(sqlite.String(name)),
			table.CustomCollections.Type.SET(sqlite.String(collectionType)),
			table.CustomCollections.DefinitionJSON.SET(sqlite.String(definitionJSON)),
			table.CustomCollections.Status.SET(sqlite.String(status)),
		).
		WHERE(table.CustomCollections.ID.EQ(sqlite.Int32(id)))

	result, err := s.handleUpdate(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to update custom collection: %w", err)
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

// DeleteCustomCollection removes a collection and its snapshot.
func (s *SQLite) DeleteCustomCollection(ctx context.Context, id int32) error {
	stmt := table.CustomCollections.
		DELETE().
		WHERE(table.CustomCollections.ID.EQ(sqlite.Int32(id)))

	_, err := s.handleDelete(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to delete custom collection: %w", err)
	}

	return nil
}

// UpdateCustomCollectionAfterSync persists the full outcome of one reconcile
// pass in a single statement so readers never observe a snapshot without its
// matching health stats.
func (s *SQLite) UpdateCustomCollectionAfterSync(ctx context.Context, id int32, sync storage.CollectionSyncResult) error {
	snapshot, err := marshalSnapshot(sync.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	now := time.Now()
	columns := []interface{}{
		table.CustomCollections.ItemType.SET(sqlite.String(strings.Join(sync.ItemTypes, ","))),
		table.CustomCollections.HealthStatus.SET(sqlite.String(sync.HealthStatus)),
		table.CustomCollections.InLibraryCount.SET(sqlite.Int32(sync.InLibraryCount)),
		table.CustomCollections.MissingCount.SET(sqlite.Int32(sync.MissingCount)),
		table.CustomCollections.GeneratedMediaInfoJSON.SET(sqlite.String(snapshot)),
		table.CustomCollections.LastSyncedAt.SET(sqlite.TimestampExp(sqlite.String(now.Format(timestampFormat)))),
	}
	if sync.EmbyCollectionID != nil {
		columns = append(columns, table.CustomCollections.EmbyCollectionID.SET(sqlite.String(*sync.EmbyCollectionID)))
	} else {
		// empty candidate generation clears the backing collection
		columns = append(columns, table.CustomCollections.EmbyCollectionID.SET(sqlite.StringExp(sqlite.NULL)))
	}
	if sync.PosterPath != nil {
		columns = append(columns, table.CustomCollections.PosterPath.SET(sqlite.String(*sync.PosterPath)))
	}

	stmt := table.CustomCollections.
		UPDATE().
		SET(columns[0], columns[1:]...).
		WHERE(table.CustomCollections.ID.EQ(sqlite.Int32(id)))

	result, err := s.handleUpdate(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to update custom collection after sync: %w", err)
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

// UpdateCustomCollectionSnapshot replaces a collection's snapshot and
// recomputes the health columns from it.
func (s *SQLite) UpdateCustomCollectionSnapshot(ctx context.Context, id int32, items []storage.SnapshotItem) error {
	snapshot, err := marshalSnapshot(items)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	inLibrary, missing, health := snapshotStats(items)

	stmt := table.CustomCollections.
		UPDATE().
		SET(
			table.CustomCollections.GeneratedMediaInfoJSON.SET(sqlite.String(snapshot)),
			table.CustomCollections.InLibraryCount.SET(sqlite.Int32(inLibrary)),
			table.CustomCollections.MissingCount.SET(sqlite.Int32(missing)),
			table.CustomCollections.HealthStatus.SET(sqlite.String(health)),
		).
		WHERE(table.CustomCollections.ID.EQ(sqlite.Int32(id)))

	result, err := s.handleUpdate(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to update custom collection snapshot: %w", err)
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

// MatchAndUpdateListCollectionsOnItemAdd flips the matching snapshot row of
// every active list collection to IN_LIBRARY when a library item arrives.
// Filter collections are rebuilt from their rules each cycle, so only list
// snapshots take the flip. Matching prefers the TMDb ID and falls back to an
// exact title match when the webhook carried no provider ID. Returns the
// collections whose snapshot changed so the caller can mirror the change into
// Emby.
func (s *SQLite) MatchAndUpdateListCollectionsOnItemAdd(ctx context.Context, tmdbID, name string) ([]storage.AffectedCollection, error) {
	log := logger.FromCtx(ctx)

	collections, err := s.ListCustomCollections(ctx,
		table.CustomCollections.Status.EQ(sqlite.String("active")).
			AND(table.CustomCollections.Type.EQ(sqlite.String("list"))))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	affected := make([]storage.AffectedCollection, 0)
	for _, collection := range collections {
		items, err := unmarshalSnapshot(collection.GeneratedMediaInfoJSON)
		if err != nil {
			log.Warnw("skipping collection with malformed snapshot", "collection", collection.Name, "error", err)
			continue
		}

		changed := false
		for i, item := range items {
			match := (tmdbID != "" && item.TmdbID == tmdbID) ||
				(tmdbID == "" && name != "" && item.Title == name)
			if !match || item.Status == storage.MediaStatusInLibrary {
				continue
			}

			if err := item.Status.Machine().ToState(storage.MediaStatusInLibrary); err != nil {
				continue
			}

			items[i].Status = storage.MediaStatusInLibrary
			changed = true
		}

		if !changed {
			continue
		}

		snapshot, err := marshalSnapshot(items)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
		}

		inLibrary, missing, health := snapshotStats(items)
		stmt := table.CustomCollections.
			UPDATE().
			SET(
				table.CustomCollections.GeneratedMediaInfoJSON.SET(sqlite.String(snapshot)),
				table.CustomCollections.InLibraryCount.SET(sqlite.Int32(inLibrary)),
				table.CustomCollections.MissingCount.SET(sqlite.Int32(missing)),
				table.CustomCollections.HealthStatus.SET(sqlite.String(health)),
			).
			WHERE(table.CustomCollections.ID.EQ(sqlite.Int32(collection.ID)))

		if _, err := stmt.ExecContext(ctx, tx); err != nil {
			return nil, fmt.Errorf("failed to update collection %d on item add: %w", collection.ID, err)
		}

		entry := storage.AffectedCollection{
			ID:   collection.ID,
			Name: collection.Name,
		}
		if collection.EmbyCollectionID != nil {
			entry.EmbyCollectionID = *collection.EmbyCollectionID
		}
		affected = append(affected, entry)
	}

	return affected, tx.Commit()
}
