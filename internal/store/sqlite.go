package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/flarelog/insight-cli/internal/model"
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
CREATE TABLE IF NOT EXISTS observations (
	id          TEXT PRIMARY KEY,
	day         TEXT NOT NULL,
	recorded_at DATETIME NOT NULL,
	payload     TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_observations_day ON observations(day);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) PutObservation(ctx context.Context, o model.Observation) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}

	payload, err := json.Marshal(o)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal observation")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO observations (id, day, recorded_at, payload) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET day = excluded.day, recorded_at = excluded.recorded_at, payload = excluded.payload`,
		o.ID, o.Date().String(), o.RecordedAt, string(payload),
	)
	return eris.Wrapf(err, "sqlite: put observation %s", o.ID)
}

func (s *SQLiteStore) PutObservations(ctx context.Context, observations []model.Observation) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO observations (id, day, recorded_at, payload) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET day = excluded.day, recorded_at = excluded.recorded_at, payload = excluded.payload`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare put")
	}
	defer stmt.Close()

	var n int
	for _, o := range observations {
		if o.ID == "" {
			o.ID = uuid.New().String()
		}
		payload, err := json.Marshal(o)
		if err != nil {
			return n, eris.Wrap(err, "sqlite: marshal observation")
		}
		if _, err := stmt.ExecContext(ctx, o.ID, o.Date().String(), o.RecordedAt, string(payload)); err != nil {
			return n, eris.Wrapf(err, "sqlite: put observation %s", o.ID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return n, eris.Wrap(err, "sqlite: commit")
	}
	return n, nil
}

func (s *SQLiteStore) GetObservation(ctx context.Context, id string) (*model.Observation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM observations WHERE id = ?`, id,
	)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("observation not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get observation")
	}

	var o model.Observation
	if err := json.Unmarshal([]byte(payload), &o); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal observation")
	}
	return &o, nil
}

func (s *SQLiteStore) ListObservations(ctx context.Context, filter ObservationFilter) ([]model.Observation, error) {
	query := `SELECT payload FROM observations WHERE 1=1`
	var args []any

	if filter.From != nil {
		query += ` AND day >= ?`
		args = append(args, filter.From.String())
	}
	if filter.To != nil {
		query += ` AND day <= ?`
		args = append(args, filter.To.String())
	}
	query += ` ORDER BY day, recorded_at, id`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list observations")
	}
	defer rows.Close()

	var out []model.Observation
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan observation")
		}
		var o model.Observation
		if err := json.Unmarshal([]byte(payload), &o); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal observation")
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list observations iterate")
}

func (s *SQLiteStore) DeleteObservation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM observations WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete observation %s", id)
	}
	return checkRowsAffected(res, "observation", id)
}

func (s *SQLiteStore) CountObservations(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM observations`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count observations")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
