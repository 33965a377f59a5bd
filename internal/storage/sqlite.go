//go:build sqlite
// +build sqlite

package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"dayplan/internal/model"
	"dayplan/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, ErrDisabled
	}
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return json.RawMessage(v), true, nil
}

func (s *sqliteStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("empty storage key")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv(key, value) VALUES(?,?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, string(value),
	)
	return err
}

func (s *sqliteStore) Remove(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

func (s *sqliteStore) AppendOp(ctx context.Context, op model.QueuedOperation) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if op.QueuedAt.IsZero() {
		op.QueuedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ops(id, queued_at, kind, storage_key, item_id, payload)
		 VALUES(?,?,?,?,?,?)
		 ON CONFLICT(id) DO NOTHING`,
		op.ID, op.QueuedAt.UnixMilli(), string(op.Kind), op.StorageKey, nullStr(op.ItemID), nullStr(string(op.Data)),
	)
	return err
}

func (s *sqliteStore) ListOps(ctx context.Context) ([]model.QueuedOperation, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, queued_at, kind, storage_key, item_id, payload FROM ops ORDER BY queued_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.QueuedOperation
	for rows.Next() {
		var (
			op      model.QueuedOperation
			at      int64
			kind    string
			itemID  sql.NullString
			payload sql.NullString
		)
		if err := rows.Scan(&op.ID, &at, &kind, &op.StorageKey, &itemID, &payload); err != nil {
			return nil, err
		}
		op.QueuedAt = time.UnixMilli(at)
		op.Kind = model.OpKind(kind)
		if itemID.Valid {
			op.ItemID = itemID.String
		}
		if payload.Valid {
			op.Data = json.RawMessage(payload.String)
		}
		out = append(out, op)
	}
	return out, rows.Err()
}

func (s *sqliteStore) RemoveOp(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM ops WHERE id = ?`, id)
	return err
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
