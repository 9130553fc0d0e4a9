package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"
)

// CreateActorSubscription stores a new actor subscription.
func (s *SQLite) CreateActorSubscription(ctx context.Context, sub model.ActorSubscriptions) (int32, error) {
	stmt := table.ActorSubscriptions.
		INSERT(table.ActorSubscriptions.AllColumns.Except(table.ActorSubscriptions.ID, table.ActorSubscriptions.AddedAt)).
		MODEL(sub)

	result, err := s.handleInsert(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("failed to create actor subscription: %w", err)
	}

	inserted, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	return int32(inserted), nil
}

// GetActorSubscription fetches one subscription by ID.
func (s *SQLite) GetActorSubscription(ctx context.Context, id int32) (*model.ActorSubscriptions, error) {
	sub := &model.ActorSubscriptions{}
	stmt := table.ActorSubscriptions.
		SELECT(table.ActorSubscriptions.AllColumns).
		FROM(table.ActorSubscriptions).
		WHERE(table.ActorSubscriptions.ID.EQ(sqlite.Int32(id))).
		LIMIT(1)

	err := stmt.QueryContext(ctx, s.db, sub)
	if err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get actor subscription: %w", err)
	}

	return sub, nil
}

// ListActorSubscriptions lists subscriptions matching the optional where
// expressions.
func (s *SQLite) ListActorSubscriptions(ctx context.Context, where ...sqlite.BoolExpression) ([]*model.ActorSubscriptions, error) {
	subs := make([]*model.ActorSubscriptions, 0)
	stmt := table.ActorSubscriptions.
		SELECT(table.ActorSubscriptions.AllColumns).
		FROM(table.ActorSubscriptions).
		ORDER_BY(table.ActorSubscriptions.ID.ASC())

	for _, w := range where {
		stmt = stmt.WHERE(w)
	}

	err := stmt.QueryContext(ctx, s.db, &subs)
	if err != nil {
		return nil, fmt.Errorf("failed to list actor subscriptions: %w", err)
	}

	return subs, nil
}

// UpdateActorSubscription updates the user-editable subscription config.
func (s *SQLite) UpdateActorSubscription(ctx context.Context, sub model.ActorSubscriptions) error {
	stmt := table.ActorSubscriptions.
		UPDATE(table.ActorSubscriptions.AllColumns.
			Except(table.ActorSubscriptions.ID, table.ActorSubscriptions.AddedAt, table.ActorSubscriptions.LastCheckedAt)).
		MODEL(sub).
		WHERE(table.ActorSubscriptions.ID.EQ(sqlite.Int32(sub.ID)))

	result, err := s.handleUpdate(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to update actor subscription: %w", err)
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

// DeleteActorSubscription removes a subscription; tracked media rows cascade.
func (s *SQLite) DeleteActorSubscription(ctx context.Context, id int32) error {
	stmt := table.ActorSubscriptions.
		DELETE().
		WHERE(table.ActorSubscriptions.ID.EQ(sqlite.Int32(id)))

	_, err := s.handleDelete(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to delete actor subscription: %w", err)
	}

	return nil
}

// MarkActorSubscriptionChecked stamps the last scan time.
func (s *SQLite) MarkActorSubscriptionChecked(ctx context.Context, id int32) error {
	now := time.Now()
	stmt := table.ActorSubscriptions.
		UPDATE().
		SET(table.ActorSubscriptions.LastCheckedAt.SET(sqlite.TimestampExp(sqlite.String(now.Format(timestampFormat))))).
		WHERE(table.ActorSubscriptions.ID.EQ(sqlite.Int32(id)))

	_, err := s.handleUpdate(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to mark actor subscription checked: %w", err)
	}

	return nil
}

// ListTrackedActorMedia lists the tracked filmography of one subscription.
func (s *SQLite) ListTrackedActorMedia(ctx context.Context, subscriptionID int32) ([]*model.TrackedActorMedia, error) {
	media := make([]*model.TrackedActorMedia, 0)
	stmt := table.TrackedActorMedia.
		SELECT(table.TrackedActorMedia.AllColumns).
		FROM(table.TrackedActorMedia).
		WHERE(table.TrackedActorMedia.SubscriptionID.EQ(sqlite.Int32(subscriptionID))).
		ORDER_BY(table.TrackedActorMedia.ReleaseDate.DESC())

	err := stmt.QueryContext(ctx, s.db, &media)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked actor media: %w", err)
	}

	return media, nil
}

// ApplyTrackedMediaDiff applies one filmography scan in a single transaction
// so a failed scan can't leave the tracked set half-updated.
func (s *SQLite) ApplyTrackedMediaDiff(ctx context.Context, subscriptionID int32, diff storage.TrackedMediaDiff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, row := range diff.Insert {
		row.SubscriptionID = subscriptionID
		stmt := table.TrackedActorMedia.
			INSERT(table.TrackedActorMedia.AllColumns.Except(table.TrackedActorMedia.ID, table.TrackedActorMedia.LastUpdatedAt)).
			MODEL(row).
			ON_CONFLICT(table.TrackedActorMedia.SubscriptionID, table.TrackedActorMedia.TmdbMediaID).
			DO_NOTHING()

		if _, err := stmt.ExecContext(ctx, tx); err != nil {
			return fmt.Errorf("failed to insert tracked media %d: %w", row.TmdbMediaID, err)
		}
	}

	now := time.Now()
	for _, row := range diff.Update {
		stmt := table.TrackedActorMedia.
			UPDATE().
			SET(
				table.TrackedActorMedia.Status.SET(sqlite.String(row.Status)),
				table.TrackedActorMedia.Title.SET(sqlite.String(row.Title)),
				table.TrackedActorMedia.LastUpdatedAt.SET(sqlite.TimestampExp(sqlite.String(now.Format(timestampFormat)))),
			).
			WHERE(
				table.TrackedActorMedia.SubscriptionID.EQ(sqlite.Int32(subscriptionID)).
					AND(table.TrackedActorMedia.TmdbMediaID.EQ(sqlite.Int32(row.TmdbMediaID))),
			)

		if _, err := stmt.ExecContext(ctx, tx); err != nil {
			return fmt.Errorf("failed to update tracked media %d: %w", row.TmdbMediaID, err)
		}
	}

	if len(diff.Delete) > 0 {
		ids := make([]sqlite.Expression, len(diff.Delete))
		for i, id := range diff.Delete {
			ids[i] = sqlite.Int32(id)
		}

		stmt := table.TrackedActorMedia.
			DELETE().
			WHERE(
				table.TrackedActorMedia.SubscriptionID.EQ(sqlite.Int32(subscriptionID)).
					AND(table.TrackedActorMedia.TmdbMediaID.IN(ids...)),
			)

		if _, err := stmt.ExecContext(ctx, tx); err != nil {
			return fmt.Errorf("failed to delete tracked media: %w", err)
		}
	}

	return tx.Commit()
}
