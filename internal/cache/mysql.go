package cache

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is an alternative persistent cache backend behind the same
// Store contract as SQLiteStore, for deployments that already run MySQL
// for other services and would rather not add a second embedded engine.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a MySQL connection using a standard
// github.com/go-sql-driver/mysql DSN (e.g. "user:pass@tcp(host:3306)/dbname")
// and ensures the cache table exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS cache_entries (
		cache_key VARCHAR(255) PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at BIGINT NOT NULL
	) ENGINE=InnoDB;`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &MySQLStore{db: db}, nil
}

// Get returns the value for key if present and not expired, pruning the
// row lazily if it has.
func (s *MySQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt int64
	row := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM cache_entries WHERE cache_key = ?`, key)
	if err := row.Scan(&value, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	if time.Now().Unix() > expiresAt {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_key = ?`, key)
		return nil, false, nil
	}
	return value, true, nil
}

// Set upserts key with value and an absolute expiry derived from ttl.
func (s *MySQLStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl).Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (cache_key, value, expires_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value), expires_at = VALUES(expires_at)
	`, key, value, expiresAt)
	return err
}

// Close closes the underlying database handle.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
