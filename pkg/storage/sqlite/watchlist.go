package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"
)

// AddToWatchlist stores a new watchlist entry. Re-adding an existing item is
// a no-op so webhook retries stay idempotent.
func (s *SQLite) AddToWatchlist(ctx context.Context, entry model.Watchlist) error {
	if entry.Status == "" {
		entry.Status = string(storage.WatchlistStateWatching)
	}

	stmt := table.Watchlist.
		INSERT(table.Watchlist.ItemID, table.Watchlist.TmdbID, table.Watchlist.ItemName, table.Watchlist.ItemType, table.Watchlist.Status).
		MODEL(entry).
		ON_CONFLICT(table.Watchlist.ItemID).
		DO_NOTHING()

	_, err := s.handleInsert(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to add to watchlist: %w", err)
	}

	return nil
}

// GetWatchlistItem fetches one watchlist row by the server item ID.
func (s *SQLite) GetWatchlistItem(ctx context.Context, itemID string) (*model.Watchlist, error) {
	entry := &model.Watchlist{}
	stmt := table.Watchlist.
		SELECT(table.Watchlist.AllColumns).
		FROM(table.Watchlist).
		WHERE(table.Watchlist.ItemID.EQ(sqlite.String(itemID))).
		LIMIT(1)

	err := stmt.QueryContext(ctx, s.db, entry)
	if err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get watchlist item: %w", err)
	}

	return entry, nil
}

// ListWatchlist lists watchlist rows matching the optional where expressions.
func (s *SQLite) ListWatchlist(ctx context.Context, where ...sqlite.BoolExpression) ([]*model.Watchlist, error) {
	entries := make([]*model.Watchlist, 0)
	stmt := table.Watchlist.
		SELECT(table.Watchlist.AllColumns).
		FROM(table.Watchlist).
		ORDER_BY(table.Watchlist.AddedAt.ASC())

	for _, w := range where {
		stmt = stmt.WHERE(w)
	}

	err := stmt.QueryContext(ctx, s.db, &entries)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}

	return entries, nil
}

// RemoveFromWatchlist deletes one watchlist row.
func (s *SQLite) RemoveFromWatchlist(ctx context.Context, itemID string) error {
	stmt := table.Watchlist.
		DELETE().
		WHERE(table.Watchlist.ItemID.EQ(sqlite.String(itemID)))

	_, err := s.handleDelete(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to remove from watchlist: %w", err)
	}

	return nil
}

// UpdateWatchlistItem applies the outcome of one watchlist pass. The state
// transition is validated against the current row before anything is written.
func (s *SQLite) UpdateWatchlistItem(ctx context.Context, itemID string, update storage.WatchlistUpdate) error {
	current, err := s.GetWatchlistItem(ctx, itemID)
	if err != nil {
		return err
	}

	currentState := storage.WatchlistState(current.Status)
	if update.Status != currentState {
		if err := currentState.Machine().ToState(update.Status); err != nil {
			return fmt.Errorf("watchlist %s: %s -> %s: %w", itemID, currentState, update.Status, err)
		}
	}

	now := time.Now()
	columns := []interface{}{
		table.Watchlist.Status.SET(sqlite.String(string(update.Status))),
		table.Watchlist.LastCheckedAt.SET(sqlite.TimestampExp(sqlite.String(now.Format(timestampFormat)))),
	}

	if update.PausedUntil != nil {
		columns = append(columns, table.Watchlist.PausedUntil.SET(sqlite.DateExp(sqlite.String(*update.PausedUntil))))
	} else {
		columns = append(columns, table.Watchlist.PausedUntil.SET(sqlite.DateExp(sqlite.NULL)))
	}
	if update.TmdbStatus != nil {
		columns = append(columns, table.Watchlist.TmdbStatus.SET(sqlite.String(*update.TmdbStatus)))
	}
	if update.NextEpisodeToAirJSON != nil {
		columns = append(columns, table.Watchlist.NextEpisodeToAirJSON.SET(sqlite.String(*update.NextEpisodeToAirJSON)))
	}
	if update.MissingInfo != nil {
		raw, err := json.Marshal(update.MissingInfo)
		if err != nil {
			return fmt.Errorf("failed to marshal missing info: %w", err)
		}
		columns = append(columns, table.Watchlist.MissingInfoJSON.SET(sqlite.String(string(raw))))
	}

	stmt := table.Watchlist.
		UPDATE().
		SET(columns[0], columns[1:]...).
		WHERE(table.Watchlist.ItemID.EQ(sqlite.String(itemID)))

	_, err = s.handleUpdate(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to update watchlist item: %w", err)
	}

	return nil
}

// UpdateWatchlistMissingInfo replaces only the missing seasons/episodes blob.
func (s *SQLite) UpdateWatchlistMissingInfo(ctx context.Context, itemID string, info storage.MissingInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal missing info: %w", err)
	}

	stmt := table.Watchlist.
		UPDATE().
		SET(table.Watchlist.MissingInfoJSON.SET(sqlite.String(string(raw)))).
		WHERE(table.Watchlist.ItemID.EQ(sqlite.String(itemID)))

	result, err := s.handleUpdate(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to update watchlist missing info: %w", err)
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

// SetWatchlistForceEnded flags a series the user has declared finished,
// overriding what TMDb reports.
func (s *SQLite) SetWatchlistForceEnded(ctx context.Context, itemID string, forceEnded bool) error {
	stmt := table.Watchlist.
		UPDATE().
		SET(table.Watchlist.ForceEnded.SET(sqlite.Bool(forceEnded))).
		WHERE(table.Watchlist.ItemID.EQ(sqlite.String(itemID)))

	result, err := s.handleUpdate(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to set watchlist force ended: %w", err)
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
