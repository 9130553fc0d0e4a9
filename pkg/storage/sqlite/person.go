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

// UpsertPerson merges the given identifiers into the identity map. Matching
// tries the ID columns first, then falls back to an exact primary_name match;
// a name match only merges when none of the incoming identifiers contradicts
// the row (same name, different person gets its own row). Each ID column is
// UNIQUE, so when an incoming identifier already belongs to a different row
// the whole mutation is aborted and the conflicting row's id is returned.
// The merge runs under a savepoint so a constraint failure rolls back cleanly
// instead of leaving a half-merged row.
func (s *SQLite) UpsertPerson(ctx context.Context, ids storage.PersonIDs) (int32, error) {
	log := logger.FromCtx(ctx)

	if ids.Name == "" && ids.EmbyPersonID == "" && ids.TmdbPersonID == 0 && ids.ImdbID == "" && ids.DoubanID == "" {
		return 0, errors.New("upsert person requires a name or at least one identifier")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SAVEPOINT upsert_person"); err != nil {
		return 0, err
	}

	// Lookup order decides which row wins when identifiers straddle rows.
	lookups := []struct {
		set   bool
		where sqlite.BoolExpression
	}{
		{ids.EmbyPersonID != "", table.PersonIdentityMap.EmbyPersonID.EQ(sqlite.String(ids.EmbyPersonID))},
		{ids.TmdbPersonID != 0, table.PersonIdentityMap.TmdbPersonID.EQ(sqlite.Int32(ids.TmdbPersonID))},
		{ids.ImdbID != "", table.PersonIdentityMap.ImdbID.EQ(sqlite.String(ids.ImdbID))},
		{ids.DoubanID != "", table.PersonIdentityMap.DoubanCelebrityID.EQ(sqlite.String(ids.DoubanID))},
	}

	var primary *model.PersonIdentityMap
	owners := make([]*int32, len(lookups))
	for i, lookup := range lookups {
		if !lookup.set {
			continue
		}

		row := &model.PersonIdentityMap{}
		stmt := table.PersonIdentityMap.
			SELECT(table.PersonIdentityMap.AllColumns).
			FROM(table.PersonIdentityMap).
			WHERE(lookup.where).
			LIMIT(1)

		err := stmt.QueryContext(ctx, tx, row)
		if err != nil {
			if errors.Is(err, qrm.ErrNoRows) {
				continue
			}
			return 0, fmt.Errorf("failed to look up person: %w", err)
		}

		mapID := row.MapID
		owners[i] = &mapID
		if primary == nil {
			primary = row
		}
	}

	// No identifier matched; fall back to the name. A name row only wins when
	// it contradicts none of the incoming identifiers, otherwise this is a
	// different person who happens to share the name and gets a fresh row.
	if primary == nil && ids.Name != "" {
		row := &model.PersonIdentityMap{}
		stmt := table.PersonIdentityMap.
			SELECT(table.PersonIdentityMap.AllColumns).
			FROM(table.PersonIdentityMap).
			WHERE(table.PersonIdentityMap.PrimaryName.EQ(sqlite.String(ids.Name))).
			LIMIT(1)

		err := stmt.QueryContext(ctx, tx, row)
		if err != nil && !errors.Is(err, qrm.ErrNoRows) {
			return 0, fmt.Errorf("failed to look up person by name: %w", err)
		}
		if err == nil {
			if nameRowMergeable(row, ids) {
				primary = row
			} else {
				log.Warnw("same name carries conflicting identifiers, creating a new person",
					"name", ids.Name, "mapID", row.MapID)
			}
		}
	}

	now := time.Now()

	if primary == nil {
		row := model.PersonIdentityMap{
			PrimaryName:   ids.Name,
			LastUpdatedAt: &now,
		}
		if ids.EmbyPersonID != "" {
			row.EmbyPersonID = &ids.EmbyPersonID
		}
		if ids.TmdbPersonID != 0 {
			tmdbID := ids.TmdbPersonID
			row.TmdbPersonID = &tmdbID
		}
		if ids.ImdbID != "" {
			row.ImdbID = &ids.ImdbID
		}
		if ids.DoubanID != "" {
			row.DoubanCelebrityID = &ids.DoubanID
		}

		stmt := table.PersonIdentityMap.
			INSERT(table.PersonIdentityMap.AllColumns.Except(table.PersonIdentityMap.MapID)).
			MODEL(row)

		result, err := stmt.ExecContext(ctx, tx)
		if err != nil {
			tx.ExecContext(ctx, "ROLLBACK TO upsert_person")
			return 0, fmt.Errorf("failed to insert person: %w", err)
		}

		inserted, err := result.LastInsertId()
		if err != nil {
			return 0, err
		}

		if _, err := tx.ExecContext(ctx, "RELEASE upsert_person"); err != nil {
			return 0, err
		}
		return int32(inserted), tx.Commit()
	}

	// An identifier owned by a different row would make the merged row collide
	// with it; merging identities is a manual decision, not something a
	// background sync should guess at, so the whole mutation is dropped and
	// the conflicting row's id reported back.
	for i, owner := range owners {
		if owner == nil || *owner == primary.MapID {
			continue
		}
		log.Warnw("identifier already mapped to a different person, aborting merge",
			"lookup", i, "mapID", primary.MapID, "conflictingMapID", *owner)

		if _, err := tx.ExecContext(ctx, "ROLLBACK TO upsert_person"); err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, "RELEASE upsert_person"); err != nil {
			return 0, err
		}
		return *owner, tx.Commit()
	}

	if ids.EmbyPersonID != "" && primary.EmbyPersonID == nil {
		primary.EmbyPersonID = &ids.EmbyPersonID
	}
	if ids.TmdbPersonID != 0 && primary.TmdbPersonID == nil {
		tmdbID := ids.TmdbPersonID
		primary.TmdbPersonID = &tmdbID
	}
	if ids.ImdbID != "" && primary.ImdbID == nil {
		primary.ImdbID = &ids.ImdbID
	}
	if ids.DoubanID != "" && primary.DoubanCelebrityID == nil {
		primary.DoubanCelebrityID = &ids.DoubanID
	}
	if primary.PrimaryName == "" && ids.Name != "" {
		primary.PrimaryName = ids.Name
	}
	primary.LastUpdatedAt = &now

	stmt := table.PersonIdentityMap.
		UPDATE(table.PersonIdentityMap.AllColumns.Except(table.PersonIdentityMap.MapID)).
		MODEL(*primary).
		WHERE(table.PersonIdentityMap.MapID.EQ(sqlite.Int32(primary.MapID)))

	if _, err := stmt.ExecContext(ctx, tx); err != nil {
		tx.ExecContext(ctx, "ROLLBACK TO upsert_person")
		return 0, fmt.Errorf("failed to merge person identifiers: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "RELEASE upsert_person"); err != nil {
		return 0, err
	}

	return primary.MapID, tx.Commit()
}

// nameRowMergeable reports whether a name-matched row contradicts none of the
// incoming identifiers.
func nameRowMergeable(row *model.PersonIdentityMap, ids storage.PersonIDs) bool {
	if ids.EmbyPersonID != "" && row.EmbyPersonID != nil && *row.EmbyPersonID != ids.EmbyPersonID {
		return false
	}
	if ids.TmdbPersonID != 0 && row.TmdbPersonID != nil && *row.TmdbPersonID != ids.TmdbPersonID {
		return false
	}
	if ids.ImdbID != "" && row.ImdbID != nil && *row.ImdbID != ids.ImdbID {
		return false
	}
	if ids.DoubanID != "" && row.DoubanCelebrityID != nil && *row.DoubanCelebrityID != ids.DoubanID {
		return false
	}
	return true
}

// GetPersonByEmbyID fetches an identity row by its Emby person ID.
func (s *SQLite) GetPersonByEmbyID(ctx context.Context, embyPersonID string) (*model.PersonIdentityMap, error) {
	return s.getPerson(ctx, table.PersonIdentityMap.EmbyPersonID.EQ(sqlite.String(embyPersonID)))
}

// GetPersonByTmdbID fetches an identity row by its TMDb person ID.
func (s *SQLite) GetPersonByTmdbID(ctx context.Context, tmdbPersonID int32) (*model.PersonIdentityMap, error) {
	return s.getPerson(ctx, table.PersonIdentityMap.TmdbPersonID.EQ(sqlite.Int32(tmdbPersonID)))
}

func (s *SQLite) getPerson(ctx context.Context, where sqlite.BoolExpression) (*model.PersonIdentityMap, error) {
	person := &model.PersonIdentityMap{}
	stmt := table.PersonIdentityMap.
		SELECT(table.PersonIdentityMap.AllColumns).
		FROM(table.PersonIdentityMap).
		WHERE(where).
		LIMIT(1)

	err := stmt.QueryContext(ctx, s.db, person)
	if err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get person: %w", err)
	}

	return person, nil
}

// ListPersonsForEnrichment returns rows that have a TMDb ID but no IMDb ID and
// haven't been attempted within the cooldown window.
func (s *SQLite) ListPersonsForEnrichment(ctx context.Context, cooldownDays int) ([]*model.PersonIdentityMap, error) {
	cutoff := time.Now().AddDate(0, 0, -cooldownDays)

	persons := make([]*model.PersonIdentityMap, 0)
	stmt := table.PersonIdentityMap.
		SELECT(table.PersonIdentityMap.AllColumns).
		FROM(table.PersonIdentityMap).
		WHERE(
			table.PersonIdentityMap.TmdbPersonID.IS_NOT_NULL().
				AND(table.PersonIdentityMap.ImdbID.IS_NULL()).
				AND(
					table.PersonIdentityMap.LastSyncedAt.IS_NULL().
						OR(table.PersonIdentityMap.LastSyncedAt.LT(sqlite.TimestampExp(sqlite.String(cutoff.Format(timestampFormat))))),
				),
		).
		ORDER_BY(table.PersonIdentityMap.MapID.ASC())

	err := stmt.QueryContext(ctx, s.db, &persons)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons for enrichment: %w", err)
	}

	return persons, nil
}

// UpdatePersonImdbID records the enrichment outcome. The sync timestamp moves
// even when the IMDb ID is empty so failed lookups respect the cooldown too.
func (s *SQLite) UpdatePersonImdbID(ctx context.Context, mapID int32, imdbID string) error {
	now := time.Now()

	columns := []interface{}{
		table.PersonIdentityMap.LastSyncedAt.SET(sqlite.TimestampExp(sqlite.String(now.Format(timestampFormat)))),
	}
	if imdbID != "" {
		columns = append(columns, table.PersonIdentityMap.ImdbID.SET(sqlite.String(imdbID)))
	}

	stmt := table.PersonIdentityMap.
		UPDATE().
		SET(columns[0], columns[1:]...).
		WHERE(table.PersonIdentityMap.MapID.EQ(sqlite.Int32(mapID)))

	_, err := s.handleUpdate(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to update person imdb id: %w", err)
	}

	return nil
}
