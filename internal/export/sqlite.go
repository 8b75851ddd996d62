package export

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joescharf/adreview/internal/models"
	"github.com/joescharf/adreview/internal/store"
)

// SQLite writes results into a new SQLite database at path. An existing file
// is never appended to.
func SQLite(ctx context.Context, path string, results []models.ResultRecord) error {
	if len(results) == 0 {
		return ErrNoResults
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("output file already exists: %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate export database: %w", err)
	}
	if err := s.SaveResults(ctx, results); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	return nil
}
