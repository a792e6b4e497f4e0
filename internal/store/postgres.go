package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/flarelog/insight-cli/internal/db"
	"github.com/flarelog/insight-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}

	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS observations (
	id          TEXT PRIMARY KEY,
	day         DATE NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_observations_day ON observations(day);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const putObservationSQL = `INSERT INTO observations (id, day, recorded_at, payload) VALUES ($1, $2, $3, $4)
	 ON CONFLICT (id) DO UPDATE SET day = EXCLUDED.day, recorded_at = EXCLUDED.recorded_at, payload = EXCLUDED.payload`

func (s *PostgresStore) PutObservation(ctx context.Context, o model.Observation) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}

	payload, err := json.Marshal(o)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal observation")
	}

	_, err = s.pool.Exec(ctx, putObservationSQL, o.ID, o.Date().String(), o.RecordedAt, payload)
	return eris.Wrapf(err, "postgres: put observation %s", o.ID)
}

// PutObservations bulk-loads observations via COPY. IDs are assigned where
// missing; pre-existing rows with the same ID make COPY fail, so bulk load is
// meant for fresh imports while PutObservation handles updates.
func (s *PostgresStore) PutObservations(ctx context.Context, observations []model.Observation) (int, error) {
	rows := make([][]any, 0, len(observations))
	for _, o := range observations {
		if o.ID == "" {
			o.ID = uuid.New().String()
		}
		payload, err := json.Marshal(o)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal observation")
		}
		rows = append(rows, []any{o.ID, o.Date().String(), o.RecordedAt, payload})
	}

	n, err := db.CopyFrom(ctx, s.pool, "observations",
		[]string{"id", "day", "recorded_at", "payload"}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: bulk put observations")
	}
	return int(n), nil
}

func (s *PostgresStore) GetObservation(ctx context.Context, id string) (*model.Observation, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM observations WHERE id = $1`, id,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("observation not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get observation")
	}

	var o model.Observation
	if err := json.Unmarshal(payload, &o); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal observation")
	}
	return &o, nil
}

func (s *PostgresStore) ListObservations(ctx context.Context, filter ObservationFilter) ([]model.Observation, error) {
	query := `SELECT payload FROM observations WHERE 1=1`
	var args []any

	if filter.From != nil {
		args = append(args, filter.From.String())
		query += ` AND day >= $` + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, filter.To.String())
		query += ` AND day <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY day, recorded_at, id`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			query += ` OFFSET $` + strconv.Itoa(len(args))
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list observations")
	}
	defer rows.Close()

	var out []model.Observation
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan observation")
		}
		var o model.Observation
		if err := json.Unmarshal(payload, &o); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal observation")
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list observations iterate")
}

func (s *PostgresStore) DeleteObservation(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM observations WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete observation %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("observation not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) CountObservations(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM observations`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count observations")
}
