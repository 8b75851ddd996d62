package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joescharf/adreview/internal/ids"
	"github.com/joescharf/adreview/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements ResultStore using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveResults appends results in one transaction, continuing the sequence
// numbering of anything already stored.
func (s *SQLiteStore) SaveResults(ctx context.Context, results []models.ResultRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq int
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM results").Scan(&seq); err != nil {
		return fmt.Errorf("read sequence: %w", err)
	}

	now := time.Now().UTC()
	for _, r := range results {
		seq++
		id := r.ID
		if id == "" {
			id = ids.New()
		}
		decidedAt := r.DecidedAt
		if decidedAt.IsZero() {
			decidedAt = now
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO results (id, seq, item_name, decision, time_spent_seconds, decided_at, exported_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, seq, r.ItemName, string(r.Decision), r.TimeSpentSeconds, decidedAt, now,
		); err != nil {
			return fmt.Errorf("insert result %s: %w", r.ItemName, err)
		}
		for pos, c := range r.Criteria {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO criteria (result_id, position, label, rating, note) VALUES (?, ?, ?, ?, ?)`,
				id, pos, c.Label, c.Rating, c.Note,
			); err != nil {
				return fmt.Errorf("insert criterion %q: %w", c.Label, err)
			}
		}
	}
	return tx.Commit()
}

// ListResults returns stored results in sequence order with their criteria.
func (s *SQLiteStore) ListResults(ctx context.Context) ([]models.ResultRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, item_name, decision, time_spent_seconds, decided_at FROM results ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []models.ResultRecord
	for rows.Next() {
		var r models.ResultRecord
		var decision string
		if err := rows.Scan(&r.ID, &r.ItemName, &decision, &r.TimeSpentSeconds, &r.DecidedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Decision = models.Decision(decision)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		crit, err := s.listCriteria(ctx, results[i].ID)
		if err != nil {
			return nil, err
		}
		results[i].Criteria = crit
	}
	return results, nil
}

func (s *SQLiteStore) listCriteria(ctx context.Context, resultID string) ([]models.CriterionEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, rating, note FROM criteria WHERE result_id = ? ORDER BY position`, resultID)
	if err != nil {
		return nil, fmt.Errorf("list criteria: %w", err)
	}
	defer rows.Close()

	var out []models.CriterionEntry
	for rows.Next() {
		var c models.CriterionEntry
		if err := rows.Scan(&c.Label, &c.Rating, &c.Note); err != nil {
			return nil, fmt.Errorf("scan criterion: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
