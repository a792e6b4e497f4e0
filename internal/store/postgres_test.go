package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarelog/insight-cli/internal/model"
)

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgres_PutObservation(t *testing.T) {
	s, mock := newMockPostgres(t)

	o := testObservation("obs-1", model.NewDate(2025, time.May, 1))
	payload, err := json.Marshal(o)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO observations").
		WithArgs("obs-1", "2025-05-01", o.RecordedAt, payload).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.PutObservation(context.Background(), o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PutObservationsUsesCopy(t *testing.T) {
	s, mock := newMockPostgres(t)

	day := model.NewDate(2025, time.May, 1)
	batch := []model.Observation{
		testObservation("a", day),
		testObservation("b", day.AddDays(1)),
	}

	mock.ExpectCopyFrom(pgx.Identifier{"observations"},
		[]string{"id", "day", "recorded_at", "payload"}).
		WillReturnResult(2)

	n, err := s.PutObservations(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetObservation(t *testing.T) {
	s, mock := newMockPostgres(t)

	o := testObservation("obs-1", model.NewDate(2025, time.May, 1))
	payload, err := json.Marshal(o)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT payload FROM observations").
		WithArgs("obs-1").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := s.GetObservation(context.Background(), "obs-1")
	require.NoError(t, err)
	assert.Equal(t, "obs-1", got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetObservation_NotFound(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT payload FROM observations").
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetObservation(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "observation not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListObservations_RangeQuery(t *testing.T) {
	s, mock := newMockPostgres(t)

	o := testObservation("obs-1", model.NewDate(2025, time.May, 2))
	payload, err := json.Marshal(o)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT payload FROM observations").
		WithArgs("2025-05-01", "2025-05-03").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	from := model.NewDate(2025, time.May, 1)
	to := model.NewDate(2025, time.May, 3)
	got, err := s.ListObservations(context.Background(), ObservationFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "obs-1", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteObservation_NotFound(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec("DELETE FROM observations").
		WithArgs("nope").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteObservation(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "observation not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CountObservations(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(42))

	n, err := s.CountObservations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
