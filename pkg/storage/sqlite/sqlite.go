package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"

	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/go-jet/jet/v2/sqlite"
	_ "github.com/mattn/go-sqlite3"
)

const timestampFormat = "2006-01-02 15:04:05"
const dateFormat = "2006-01-02"

type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens a sqlite database at the given path and brings the schema up to
// date. Writes are serialized through a single connection so concurrent jobs
// don't trip over SQLITE_BUSY.
func New(filePath string) (storage.Storage, error) {
	db, err := sql.Open("sqlite3", filePath+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{
		db: db,
	}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) handleInsert(ctx context.Context, stmt sqlite.InsertStatement) (sql.Result, error) {
	return s.handleStatement(ctx, stmt)
}

func (s *SQLite) handleDelete(ctx context.Context, stmt sqlite.DeleteStatement) (sql.Result, error) {
	return s.handleStatement(ctx, stmt)
}

func (s *SQLite) handleUpdate(ctx context.Context, stmt sqlite.UpdateStatement) (sql.Result, error) {
	return s.handleStatement(ctx, stmt)
}

func (s *SQLite) handleStatement(ctx context.Context, stmt sqlite.Statement) (sql.Result, error) {
	log := logger.FromCtx(ctx)
	var result sql.Result

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Debugw("failed to init transaction", "error", err)
		return result, err
	}

	result, err = stmt.ExecContext(ctx, tx)
	if err != nil {
		log.Debugw("failed to execute statement", "query", stmt.DebugSql(), "error", err)
		tx.Rollback()
		return result, err
	}

	return result, tx.Commit()
}

// marshalSnapshot renders snapshot items to the stored JSON form. An empty
// snapshot is stored as an empty array, never null.
func marshalSnapshot(items []storage.SnapshotItem) (string, error) {
	if items == nil {
		items = []storage.SnapshotItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalSnapshot(raw *string) ([]storage.SnapshotItem, error) {
	if raw == nil || *raw == "" {
		return []storage.SnapshotItem{}, nil
	}
	var items []storage.SnapshotItem
	if err := json.Unmarshal([]byte(*raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// snapshotStats recomputes the health columns from a snapshot.
func snapshotStats(items []storage.SnapshotItem) (inLibrary, missing int32, health string) {
	for _, item := range items {
		switch item.Status {
		case storage.MediaStatusInLibrary:
			inLibrary++
		case storage.MediaStatusMissing:
			missing++
		}
	}
	health = "ok"
	if missing > 0 {
		health = "has_missing"
	}
	return inLibrary, missing, health
}
