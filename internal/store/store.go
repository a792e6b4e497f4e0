// Package store persists raw observations for the CLI and server shells. The
// analysis engine itself never touches it: callers load a history here and
// hand the engine a plain slice.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/flarelog/insight-cli/internal/config"
	"github.com/flarelog/insight-cli/internal/model"
)

// ObservationFilter specifies criteria for listing observations.
type ObservationFilter struct {
	From   *model.Date `json:"from,omitempty"`
	To     *model.Date `json:"to,omitempty"`
	Limit  int         `json:"limit,omitempty"`
	Offset int         `json:"offset,omitempty"`
}

// Store defines the persistence interface for observation histories.
// Listings are always returned in chronological order.
type Store interface {
	PutObservation(ctx context.Context, o model.Observation) error
	PutObservations(ctx context.Context, observations []model.Observation) (int, error)
	GetObservation(ctx context.Context, id string) (*model.Observation, error)
	ListObservations(ctx context.Context, filter ObservationFilter) ([]model.Observation, error)
	DeleteObservation(ctx context.Context, id string) error
	CountObservations(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open builds a Store for the configured driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
