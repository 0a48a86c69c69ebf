package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/expansion-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS cache_entries (
	kind       TEXT NOT NULL,
	key        TEXT NOT NULL,
	payload    TEXT NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL,
	PRIMARY KEY (kind, key)
);

CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at ON cache_entries(expires_at);
CREATE INDEX IF NOT EXISTS idx_cache_entries_kind ON cache_entries(kind);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// getEntry reads a cache row, deleting it lazily when expired.
func (s *SQLiteStore) getEntry(ctx context.Context, kind Kind, key string, dest any) (bool, error) {
	var payload string
	var expiresAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM cache_entries WHERE kind = ? AND key = ?`,
		string(kind), key,
	).Scan(&payload, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "sqlite: select cache entry")
	}

	if time.Now().UTC().After(expiresAt) {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM cache_entries WHERE kind = ? AND key = ?`,
			string(kind), key,
		); err != nil {
			return false, eris.Wrap(err, "sqlite: delete expired entry")
		}
		return false, nil
	}

	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		return false, eris.Wrap(err, "sqlite: unmarshal cache payload")
	}
	return true, nil
}

func (s *SQLiteStore) setEntry(ctx context.Context, kind Kind, key string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal cache payload")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (kind, key, payload, cached_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (kind, key) DO UPDATE SET
			payload = excluded.payload,
			cached_at = excluded.cached_at,
			expires_at = excluded.expires_at`,
		string(kind), key, string(payload), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: upsert cache entry")
}

func (s *SQLiteStore) GetIndicators(ctx context.Context, key string) (*model.EconomicIndicators, bool, error) {
	var v model.EconomicIndicators
	ok, err := s.getEntry(ctx, KindDemographic, key, &v)
	if err != nil || !ok {
		return nil, false, err
	}
	return &v, true, nil
}

func (s *SQLiteStore) SetIndicators(ctx context.Context, key string, v *model.EconomicIndicators, ttl time.Duration) error {
	return s.setEntry(ctx, KindDemographic, key, v, ttl)
}

func (s *SQLiteStore) GetAnchors(ctx context.Context, key string) ([]model.AnchorLocation, bool, error) {
	var v []model.AnchorLocation
	ok, err := s.getEntry(ctx, KindPOI, key, &v)
	if err != nil || !ok {
		return nil, false, err
	}
	return v, true, nil
}

func (s *SQLiteStore) SetAnchors(ctx context.Context, key string, anchors []model.AnchorLocation, ttl time.Duration) error {
	return s.setEntry(ctx, KindPOI, key, anchors, ttl)
}

func (s *SQLiteStore) GetClusters(ctx context.Context, regionKey string) ([]model.PerformanceCluster, bool, error) {
	var v []model.PerformanceCluster
	ok, err := s.getEntry(ctx, KindCluster, regionKey, &v)
	if err != nil || !ok {
		return nil, false, err
	}
	return v, true, nil
}

func (s *SQLiteStore) SetClusters(ctx context.Context, regionKey string, clusters []model.PerformanceCluster, ttl time.Duration) error {
	return s.setEntry(ctx, KindCluster, regionKey, clusters, ttl)
}

func (s *SQLiteStore) GetSuggestion(ctx context.Context, key string) (*model.StrategicSuggestion, bool, error) {
	var v model.StrategicSuggestion
	ok, err := s.getEntry(ctx, KindSuggestion, key, &v)
	if err != nil || !ok {
		return nil, false, err
	}
	return &v, true, nil
}

func (s *SQLiteStore) SetSuggestion(ctx context.Context, key string, sg *model.StrategicSuggestion, ttl time.Duration) error {
	return s.setEntry(ctx, KindSuggestion, key, sg, ttl)
}

func (s *SQLiteStore) ListSuggestions(ctx context.Context, limit int) ([]model.StrategicSuggestion, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM cache_entries
		WHERE kind = ? AND expires_at > datetime('now')
		ORDER BY cached_at DESC LIMIT ?`,
		string(KindSuggestion), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list suggestions")
	}
	defer rows.Close()

	var out []model.StrategicSuggestion
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan suggestion row")
		}
		var sg model.StrategicSuggestion
		if err := json.Unmarshal([]byte(payload), &sg); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal suggestion")
		}
		out = append(out, sg)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate suggestions")
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}
