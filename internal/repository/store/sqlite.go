package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"time"

	"github.com/jaennil/guide_helper/backend/render/pkg/logger"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

type SQLiteStore struct {
	db     *sql.DB
	ttl    time.Duration
	logger logger.Logger
}

// NewSQLiteStore opens dsn and applies the embedded migrations. The default
// dsn is a shared in-memory database, so it lives as long as the pool does.
func NewSQLiteStore(dsn string, ttl time.Duration, l logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// an in-memory database disappears with its last connection
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	err = db.Ping()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteStore{
		db:     db,
		ttl:    ttl,
		logger: l,
	}

	err = s.runMigrations()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	l.Info("sqlite store initialized", "dsn", dsn, "ttl", ttl)

	return s, nil
}

func (s *SQLiteStore) runMigrations() error {
	goose.SetBaseFS(migrations)

	err := goose.SetDialect("sqlite3")
	if err != nil {
		return err
	}

	return goose.Up(s.db, "migrations")
}

var _ BlobStore = (*SQLiteStore)(nil)

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := `SELECT data
	FROM tile_blobs
	WHERE url = ? AND (expires_at = 0 OR expires_at > ?)`

	var data []byte
	err := s.db.QueryRowContext(ctx, query, key, time.Now().UnixNano()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		s.logger.Error("sqlite store get failed", "url", key, "error", err)
		return nil, false, err
	}

	return data, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	var expiresAt int64
	if s.ttl > 0 {
		expiresAt = time.Now().Add(s.ttl).UnixNano()
	}

	query := `INSERT INTO tile_blobs (url, data, expires_at)
	VALUES (?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`

	_, err := s.db.ExecContext(ctx, query, key, value, expiresAt)
	if err != nil {
		s.logger.Error("sqlite store set failed", "url", key, "error", err)
		return err
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
