package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/expansion-cli/internal/model"
)

// PgxPool is the subset of pgxpool.Pool used by the Postgres store.
// pgxmock.PgxPoolIface satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgres connects a pgx pool to the given database URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (or mock).
func NewPostgresFromPool(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS cache_entries (
	kind       TEXT NOT NULL,
	key        TEXT NOT NULL,
	payload    JSONB NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (kind, key)
);

CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at ON cache_entries(expires_at);
CREATE INDEX IF NOT EXISTS idx_cache_entries_kind ON cache_entries(kind);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) getEntry(ctx context.Context, kind Kind, key string, dest any) (bool, error) {
	var payload []byte
	var expiresAt time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT payload, expires_at FROM cache_entries WHERE kind = $1 AND key = $2`,
		string(kind), key,
	).Scan(&payload, &expiresAt)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "postgres: select cache entry")
	}

	if time.Now().UTC().After(expiresAt) {
		if _, err := s.pool.Exec(ctx,
			`DELETE FROM cache_entries WHERE kind = $1 AND key = $2`,
			string(kind), key,
		); err != nil {
			return false, eris.Wrap(err, "postgres: delete expired entry")
		}
		return false, nil
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, eris.Wrap(err, "postgres: unmarshal cache payload")
	}
	return true, nil
}

func (s *PostgresStore) setEntry(ctx context.Context, kind Kind, key string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal cache payload")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO cache_entries (kind, key, payload, cached_at, expires_at)
		VALUES ($1, $2, $3, now(), $4)
		ON CONFLICT (kind, key) DO UPDATE SET
			payload = EXCLUDED.payload,
			cached_at = now(),
			expires_at = EXCLUDED.expires_at`,
		string(kind), key, payload, time.Now().UTC().Add(ttl),
	)
	return eris.Wrap(err, "postgres: upsert cache entry")
}

func (s *PostgresStore) GetIndicators(ctx context.Context, key string) (*model.EconomicIndicators, bool, error) {
	var v model.EconomicIndicators
	ok, err := s.getEntry(ctx, KindDemographic, key, &v)
	if err != nil || !ok {
		return nil, false, err
	}
	return &v, true, nil
}

func (s *PostgresStore) SetIndicators(ctx context.Context, key string, v *model.EconomicIndicators, ttl time.Duration) error {
	return s.setEntry(ctx, KindDemographic, key, v, ttl)
}

func (s *PostgresStore) GetAnchors(ctx context.Context, key string) ([]model.AnchorLocation, bool, error) {
	var v []model.AnchorLocation
	ok, err := s.getEntry(ctx, KindPOI, key, &v)
	if err != nil || !ok {
		return nil, false, err
	}
	return v, true, nil
}

func (s *PostgresStore) SetAnchors(ctx context.Context, key string, anchors []model.AnchorLocation, ttl time.Duration) error {
	return s.setEntry(ctx, KindPOI, key, anchors, ttl)
}

func (s *PostgresStore) GetClusters(ctx context.Context, regionKey string) ([]model.PerformanceCluster, bool, error) {
	var v []model.PerformanceCluster
	ok, err := s.getEntry(ctx, KindCluster, regionKey, &v)
	if err != nil || !ok {
		return nil, false, err
	}
	return v, true, nil
}

func (s *PostgresStore) SetClusters(ctx context.Context, regionKey string, clusters []model.PerformanceCluster, ttl time.Duration) error {
	return s.setEntry(ctx, KindCluster, regionKey, clusters, ttl)
}

func (s *PostgresStore) GetSuggestion(ctx context.Context, key string) (*model.StrategicSuggestion, bool, error) {
	var v model.StrategicSuggestion
	ok, err := s.getEntry(ctx, KindSuggestion, key, &v)
	if err != nil || !ok {
		return nil, false, err
	}
	return &v, true, nil
}

func (s *PostgresStore) SetSuggestion(ctx context.Context, key string, sg *model.StrategicSuggestion, ttl time.Duration) error {
	return s.setEntry(ctx, KindSuggestion, key, sg, ttl)
}

func (s *PostgresStore) ListSuggestions(ctx context.Context, limit int) ([]model.StrategicSuggestion, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT payload FROM cache_entries
		WHERE kind = $1 AND expires_at > now()
		ORDER BY cached_at DESC LIMIT $2`,
		string(KindSuggestion), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list suggestions")
	}
	defer rows.Close()

	var out []model.StrategicSuggestion
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan suggestion row")
		}
		var sg model.StrategicSuggestion
		if err := json.Unmarshal(payload, &sg); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal suggestion")
		}
		out = append(out, sg)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate suggestions")
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM cache_entries WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired")
	}
	return tag.RowsAffected(), nil
}
