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

// SaveProcessed records a successfully handled item.
func (s *SQLite) SaveProcessed(ctx context.Context, entry model.ProcessedLog) error {
	stmt := table.ProcessedLog.
		INSERT(table.ProcessedLog.ItemID, table.ProcessedLog.ItemName, table.ProcessedLog.Score).
		MODEL(entry).
		ON_CONFLICT(table.ProcessedLog.ItemID).
		DO_UPDATE(sqlite.SET(
			table.ProcessedLog.ItemName.SET(table.ProcessedLog.EXCLUDED.ItemName),
			table.ProcessedLog.Score.SET(table.ProcessedLog.EXCLUDED.Score),
		))

	_, err := s.handleInsert(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to save processed log: %w", err)
	}

	return nil
}

// SaveFailed records a failed item so later passes can retry or report it.
func (s *SQLite) SaveFailed(ctx context.Context, entry model.FailedLog) error {
	stmt := table.FailedLog.
		INSERT(table.FailedLog.ItemID, table.FailedLog.ItemName, table.FailedLog.ItemType, table.FailedLog.Reason, table.FailedLog.ErrorMessage, table.FailedLog.Score).
		MODEL(entry).
		ON_CONFLICT(table.FailedLog.ItemID).
		DO_UPDATE(sqlite.SET(
			table.FailedLog.ItemName.SET(table.FailedLog.EXCLUDED.ItemName),
			table.FailedLog.ItemType.SET(table.FailedLog.EXCLUDED.ItemType),
			table.FailedLog.Reason.SET(table.FailedLog.EXCLUDED.Reason),
			table.FailedLog.ErrorMessage.SET(table.FailedLog.EXCLUDED.ErrorMessage),
			table.FailedLog.Score.SET(table.FailedLog.EXCLUDED.Score),
		))

	_, err := s.handleInsert(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to save failed log: %w", err)
	}

	return nil
}

// GetFailed fetches one failed-log row.
func (s *SQLite) GetFailed(ctx context.Context, itemID string) (*model.FailedLog, error) {
	entry := &model.FailedLog{}
	stmt := table.FailedLog.
		SELECT(table.FailedLog.AllColumns).
		FROM(table.FailedLog).
		WHERE(table.FailedLog.ItemID.EQ(sqlite.String(itemID))).
		LIMIT(1)

	err := stmt.QueryContext(ctx, s.db, entry)
	if err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get failed log: %w", err)
	}

	return entry, nil
}

// ListFailed lists all failed-log rows.
func (s *SQLite) ListFailed(ctx context.Context) ([]*model.FailedLog, error) {
	entries := make([]*model.FailedLog, 0)
	stmt := table.FailedLog.
		SELECT(table.FailedLog.AllColumns).
		FROM(table.FailedLog).
		ORDER_BY(table.FailedLog.FailedAt.ASC())

	err := stmt.QueryContext(ctx, s.db, &entries)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed log: %w", err)
	}

	return entries, nil
}

// MoveFailedToProcessed promotes a recovered item from the failed log to the
// processed log in one transaction.
func (s *SQLite) MoveFailedToProcessed(ctx context.Context, itemID string, score *float64) error {
	failed, err := s.GetFailed(ctx, itemID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	deleteStmt := table.FailedLog.
		DELETE().
		WHERE(table.FailedLog.ItemID.EQ(sqlite.String(itemID)))

	if _, err := deleteStmt.ExecContext(ctx, tx); err != nil {
		return fmt.Errorf("failed to remove failed log entry: %w", err)
	}

	if score == nil {
		score = failed.Score
	}

	processed := model.ProcessedLog{
		ItemID:   itemID,
		ItemName: failed.ItemName,
		Score:    score,
	}

	insertStmt := table.ProcessedLog.
		INSERT(table.ProcessedLog.ItemID, table.ProcessedLog.ItemName, table.ProcessedLog.Score).
		MODEL(processed).
		ON_CONFLICT(table.ProcessedLog.ItemID).
		DO_UPDATE(sqlite.SET(
			table.ProcessedLog.ItemName.SET(table.ProcessedLog.EXCLUDED.ItemName),
			table.ProcessedLog.Score.SET(table.ProcessedLog.EXCLUDED.Score),
		))

	if _, err := insertStmt.ExecContext(ctx, tx); err != nil {
		return fmt.Errorf("failed to insert processed log entry: %w", err)
	}

	return tx.Commit()
}
