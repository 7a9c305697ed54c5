// Package catalog keeps a history of fetched variable snapshots in DuckDB so
// earlier fetches of a file can be browsed and searched without calling the
// upstream API again.
package catalog

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"
	"github.com/varbridge/backend/internal/models"
)

// ErrNoSnapshot is returned when a file has never been recorded.
var ErrNoSnapshot = errors.New("no snapshot recorded")

// Snapshot is one recorded fetch of a file.
type Snapshot struct {
	ID            string                `json:"id"`
	FileKey       string                `json:"fileKey"`
	FetchedAt     time.Time             `json:"fetchedAt"`
	VariableCount int                   `json:"variableCount"`
	Variables     []models.VariableView `json:"variables,omitempty"`
}

// Catalog stores snapshots in a DuckDB database.
type Catalog struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Open opens (or creates) a catalog database at dbPath. An empty path opens
// an in-memory database.
func Open(dbPath string) (*Catalog, error) {
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	c := &Catalog{db: db, dbPath: dbPath, now: time.Now}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) migrate() error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS snapshot_seq START 1`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id             VARCHAR PRIMARY KEY,
			seq            BIGINT NOT NULL DEFAULT nextval('snapshot_seq'),
			file_key       VARCHAR NOT NULL,
			fetched_at     BIGINT NOT NULL,
			variable_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS snapshot_variables (
			snapshot_id VARCHAR NOT NULL,
			position    INTEGER NOT NULL,
			variable_id VARCHAR NOT NULL,
			name        VARCHAR NOT NULL,
			collection  VARCHAR NOT NULL,
			type        VARCHAR NOT NULL,
			value       VARCHAR NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create catalog schema: %w", err)
		}
	}
	return nil
}

// Record stores views as a new snapshot of fileKey.
func (c *Catalog) Record(ctx context.Context, fileKey string, views []models.VariableView) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, file_key, fetched_at, variable_count) VALUES (?, ?, ?, ?)`,
		id, fileKey, c.now().UnixMilli(), len(views),
	); err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_variables (snapshot_id, position, variable_id, name, collection, type, value)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, v := range views {
		if _, err := stmt.ExecContext(ctx, id, i, v.ID, v.Name, v.Collection, v.Type, v.Value); err != nil {
			return fmt.Errorf("inserting variable %s: %w", v.ID, err)
		}
	}

	return tx.Commit()
}

// Snapshots lists the snapshots of fileKey, most recently recorded first,
// without variables.
func (c *Catalog) Snapshots(ctx context.Context, fileKey string) ([]Snapshot, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, file_key, fetched_at, variable_count FROM snapshots
		 WHERE file_key = ? ORDER BY seq DESC`, fileKey)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// Latest returns the most recently recorded snapshot of fileKey with its
// variables.
func (c *Catalog) Latest(ctx context.Context, fileKey string) (*Snapshot, error) {
	return c.Search(ctx, fileKey, "")
}

// Search returns the newest snapshot of fileKey, keeping only variables whose
// name, collection or value contains query (case-insensitive).
func (c *Catalog) Search(ctx context.Context, fileKey, query string) (*Snapshot, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, file_key, fetched_at, variable_count FROM snapshots
		 WHERE file_key = ? ORDER BY seq DESC LIMIT 1`, fileKey)
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w for file %s", ErrNoSnapshot, fileKey)
	}
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	where := "snapshot_id = ?"
	args := []interface{}{s.ID}
	if q != "" {
		where += " AND (contains(lower(name), ?) OR contains(lower(collection), ?) OR contains(lower(value), ?))"
		args = append(args, q, q, q)
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT variable_id, name, collection, type, value FROM snapshot_variables
		 WHERE `+where+` ORDER BY position`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot variables: %w", err)
	}
	defer rows.Close()

	s.Variables = make([]models.VariableView, 0, s.VariableCount)
	for rows.Next() {
		var v models.VariableView
		if err := rows.Scan(&v.ID, &v.Name, &v.Collection, &v.Type, &v.Value); err != nil {
			return nil, fmt.Errorf("scanning variable: %w", err)
		}
		s.Variables = append(s.Variables, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row scanner) (Snapshot, error) {
	var (
		s         Snapshot
		fetchedMs int64
	)
	if err := row.Scan(&s.ID, &s.FileKey, &fetchedMs, &s.VariableCount); err != nil {
		return Snapshot{}, err
	}
	s.FetchedAt = time.UnixMilli(fetchedMs)
	return s, nil
}
