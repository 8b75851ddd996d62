package store

import (
	"context"

	"github.com/joescharf/adreview/internal/models"
)

// ResultStore writes review results to an analysis database.
type ResultStore interface {
	SaveResults(ctx context.Context, results []models.ResultRecord) error
	ListResults(ctx context.Context) ([]models.ResultRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
