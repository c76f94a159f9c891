// Package sqlite provides a SQLite implementation of the EntityStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/mythos/internal/domain/entities"
	"github.com/ersonp/mythos/internal/domain/ports"
	"github.com/ersonp/mythos/internal/infrastructure/config"
)

// ErrEntityNotFound is returned when deleting an ID that is not stored.
var ErrEntityNotFound = errors.New("entity not found")

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Ensure Repository implements the ports.EntityStore interface.
var _ ports.EntityStore = (*Repository)(nil)

// Repository implements ports.EntityStore using SQLite. Each record is kept
// whole as JSON next to the columns used for listing and lookups.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if cfg.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Source records, stored whole as JSON
	CREATE TABLE IF NOT EXISTS entities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		mythology TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		data TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_entities_category ON entities(category);
	CREATE INDEX IF NOT EXISTS idx_entities_normalized ON entities(normalized_name);

	-- Summaries of index loads
	CREATE TABLE IF NOT EXISTS load_runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		total_entities INTEGER NOT NULL,
		total_names INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_load_runs_created ON load_runs(created_at);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

const upsertEntity = `
	INSERT INTO entities (id, name, normalized_name, type, mythology, category, data, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		normalized_name = excluded.normalized_name,
		type = excluded.type,
		mythology = excluded.mythology,
		category = excluded.category,
		data = excluded.data,
		updated_at = excluded.updated_at
`

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveRecord(ctx context.Context, db execer, record *entities.EntityRecord) error {
	if !record.HasRequired() {
		return errors.New("entity id and name are required")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling entity %s: %w", record.ID, err)
	}

	now := timeNow()
	_, err = db.ExecContext(ctx, upsertEntity,
		record.ID,
		record.Name,
		entities.NormalizeName(record.Name),
		record.Type,
		record.PrimaryMythology(),
		record.Category,
		string(data),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("saving entity %s: %w", record.ID, err)
	}
	return nil
}

// SaveEntity saves or updates a record.
func (r *Repository) SaveEntity(ctx context.Context, record *entities.EntityRecord) error {
	return saveRecord(ctx, r.db, record)
}

// SaveBatch saves or updates several records in one transaction.
func (r *Repository) SaveBatch(ctx context.Context, records []entities.EntityRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for i := range records {
		if err := saveRecord(ctx, tx, &records[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// FindEntityByID finds a record by its ID. Returns nil if absent.
func (r *Repository) FindEntityByID(ctx context.Context, id string) (*entities.EntityRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT data FROM entities WHERE id = ?`, id)

	var data string
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning entity: %w", err)
	}
	return decodeRecord(data)
}

// FindEntitiesByName returns the records whose primary name normalizes to
// the normalized form of name.
func (r *Repository) FindEntitiesByName(ctx context.Context, name string) ([]entities.EntityRecord, error) {
	return r.queryRecords(ctx,
		`SELECT data FROM entities WHERE normalized_name = ? ORDER BY id`,
		entities.NormalizeName(name))
}

// ExistsByIDs reports which of the given IDs are stored.
func (r *Repository) ExistsByIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	exists := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return exists, nil
	}

	// Build placeholders for IN clause
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT id FROM entities WHERE id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning entity id: %w", err)
		}
		exists[id] = true
	}
	return exists, rows.Err()
}

// ListEntities lists records ordered by ID, optionally restricted to one
// category. A limit of zero or less means no limit.
func (r *Repository) ListEntities(ctx context.Context, category string, limit, offset int) ([]entities.EntityRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	if category == "" {
		return r.queryRecords(ctx,
			`SELECT data FROM entities ORDER BY id LIMIT ? OFFSET ?`,
			limit, offset)
	}
	return r.queryRecords(ctx,
		`SELECT data FROM entities WHERE category = ? ORDER BY id LIMIT ? OFFSET ?`,
		category, limit, offset)
}

// DeleteEntity deletes a record by ID.
func (r *Repository) DeleteEntity(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting entity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return nil
}

// CountEntities returns the number of stored records.
func (r *Repository) CountEntities(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting entities: %w", err)
	}
	return count, nil
}

// Categories lists the distinct category values in sorted order.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	return r.queryStrings(ctx, `SELECT DISTINCT category FROM entities ORDER BY category`)
}

// Manifest lists the IDs stored under a category.
func (r *Repository) Manifest(ctx context.Context, category string) ([]string, error) {
	return r.queryStrings(ctx, `SELECT id FROM entities WHERE category = ? ORDER BY id`, category)
}

// Fetch returns the record with ID ref. A missing record yields no records.
func (r *Repository) Fetch(ctx context.Context, _, ref string) ([]entities.EntityRecord, error) {
	record, err := r.FindEntityByID(ctx, ref)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return []entities.EntityRecord{*record}, nil
}

// RecordLoadRun stores the summary of an index load.
func (r *Repository) RecordLoadRun(ctx context.Context, source string, stats *entities.LoadStats) error {
	query := `
		INSERT INTO load_runs (id, source, total_entities, total_names, skipped, errors, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		stats.RunID,
		source,
		stats.TotalEntities,
		stats.TotalNames,
		stats.Skipped,
		len(stats.Errors),
		stats.Duration.Milliseconds(),
		timeNow(),
	)
	if err != nil {
		return fmt.Errorf("saving load run: %w", err)
	}
	return nil
}

// ListLoadRuns returns the most recent load summaries, newest first.
func (r *Repository) ListLoadRuns(ctx context.Context, limit int) ([]entities.LoadRun, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT id, source, total_entities, total_names, skipped, errors, duration_ms, created_at
		FROM load_runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying load runs: %w", err)
	}
	defer rows.Close()

	runs := make([]entities.LoadRun, 0, 8)
	for rows.Next() {
		var run entities.LoadRun
		err := rows.Scan(
			&run.ID,
			&run.Source,
			&run.TotalEntities,
			&run.TotalNames,
			&run.Skipped,
			&run.Errors,
			&run.DurationMS,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning load run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *Repository) queryRecords(ctx context.Context, query string, args ...any) ([]entities.EntityRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	records := make([]entities.EntityRecord, 0, 16)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *Repository) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, 16)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func decodeRecord(data string) (*entities.EntityRecord, error) {
	var rec entities.EntityRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling entity: %w", err)
	}
	return &rec, nil
}
