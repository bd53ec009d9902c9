package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hovden/spanlane/internal/app"
	"github.com/hovden/spanlane/internal/domain"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// Repository persists activities and their dependency edges in sqlite.
type Repository struct {
	db *sql.DB
}

// Open opens (and migrates) the database at path.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens an in-memory database, used by tests.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the underlying database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate applies the schema. Dependency edges live in their own table so
// hard deletes cascade away the deleted activity's outgoing edges; incoming
// references from other activities stay and dangle harmlessly (the layout
// engine skips them).
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT 'custom',
			status TEXT NOT NULL DEFAULT 'pending',
			start_at TEXT NOT NULL,
			end_at TEXT NOT NULL,
			assignees_json TEXT NOT NULL DEFAULT '[]',
			tags_json TEXT NOT NULL DEFAULT '[]',
			notes TEXT NOT NULL DEFAULT '',
			progress INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			archived_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS activity_dependencies (
			activity_id TEXT NOT NULL,
			depends_on_id TEXT NOT NULL,
			PRIMARY KEY (activity_id, depends_on_id),
			FOREIGN KEY(activity_id) REFERENCES activities(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_activities_start ON activities(start_at);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// CreateActivity inserts one activity and its dependency edges.
func (r *Repository) CreateActivity(ctx context.Context, a domain.Activity) error {
	assigneesJSON, tagsJSON, err := encodeLists(a)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO activities(id, name, kind, status, start_at, end_at, assignees_json, tags_json, notes, progress, created_at, updated_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Name, string(a.Kind), string(a.Status), ts(a.Start), ts(a.End), assigneesJSON, tagsJSON, a.Notes, a.Progress, ts(a.CreatedAt), ts(a.UpdatedAt), nullableTS(a.ArchivedAt))
	if err != nil {
		return err
	}
	if err := replaceDependencies(ctx, tx, a.ID, a.Dependencies); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateActivity rewrites one activity row and its dependency edges.
func (r *Repository) UpdateActivity(ctx context.Context, a domain.Activity) error {
	assigneesJSON, tagsJSON, err := encodeLists(a)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE activities
		SET name = ?, kind = ?, status = ?, start_at = ?, end_at = ?, assignees_json = ?, tags_json = ?, notes = ?, progress = ?, updated_at = ?, archived_at = ?
		WHERE id = ?
	`, a.Name, string(a.Kind), string(a.Status), ts(a.Start), ts(a.End), assigneesJSON, tagsJSON, a.Notes, a.Progress, ts(a.UpdatedAt), nullableTS(a.ArchivedAt), a.ID)
	if err != nil {
		return err
	}
	if err := translateNoRows(res); err != nil {
		return err
	}
	if err := replaceDependencies(ctx, tx, a.ID, a.Dependencies); err != nil {
		return err
	}
	return tx.Commit()
}

// GetActivity returns one activity by id.
func (r *Repository) GetActivity(ctx context.Context, id string) (domain.Activity, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, kind, status, start_at, end_at, assignees_json, tags_json, notes, progress, created_at, updated_at, archived_at
		FROM activities
		WHERE id = ?
	`, id)
	activity, err := scanActivity(row)
	if err != nil {
		return domain.Activity{}, err
	}
	deps, err := r.listDependencies(ctx, id)
	if err != nil {
		return domain.Activity{}, err
	}
	activity.Dependencies = deps
	return activity, nil
}

// ListActivities lists activities ordered by start then id, so recomputation
// always sees the same input order (the packer's tie-break depends on it).
func (r *Repository) ListActivities(ctx context.Context, includeArchived bool) ([]domain.Activity, error) {
	query := `
		SELECT id, name, kind, status, start_at, end_at, assignees_json, tags_json, notes, progress, created_at, updated_at, archived_at
		FROM activities
	`
	if !includeArchived {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY start_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Activity{}
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	depsByActivity, err := r.listAllDependencies(ctx)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Dependencies = depsByActivity[out[i].ID]
	}
	return out, nil
}

// DeleteActivity hard-deletes one activity; its outgoing edges cascade.
func (r *Repository) DeleteActivity(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

func (r *Repository) listDependencies(ctx context.Context, activityID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT depends_on_id FROM activity_dependencies
		WHERE activity_id = ?
		ORDER BY depends_on_id ASC
	`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repository) listAllDependencies(ctx context.Context) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT activity_id, depends_on_id FROM activity_dependencies
		ORDER BY activity_id ASC, depends_on_id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]string{}
	for rows.Next() {
		var activityID, dependsOnID string
		if err := rows.Scan(&activityID, &dependsOnID); err != nil {
			return nil, err
		}
		out[activityID] = append(out[activityID], dependsOnID)
	}
	return out, rows.Err()
}

// replaceDependencies rewrites the edge set for one activity inside tx.
func replaceDependencies(ctx context.Context, tx *sql.Tx, activityID string, deps []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM activity_dependencies WHERE activity_id = ?`, activityID); err != nil {
		return err
	}
	for _, depID := range deps {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO activity_dependencies(activity_id, depends_on_id) VALUES (?, ?)
		`, activityID, depID); err != nil {
			return err
		}
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(s scanner) (domain.Activity, error) {
	var (
		activity      domain.Activity
		kindRaw       string
		statusRaw     string
		startRaw      string
		endRaw        string
		assigneesJSON string
		tagsJSON      string
		createdRaw    string
		updatedRaw    string
		archivedRaw   sql.NullString
	)
	if err := s.Scan(
		&activity.ID,
		&activity.Name,
		&kindRaw,
		&statusRaw,
		&startRaw,
		&endRaw,
		&assigneesJSON,
		&tagsJSON,
		&activity.Notes,
		&activity.Progress,
		&createdRaw,
		&updatedRaw,
		&archivedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Activity{}, app.ErrNotFound
		}
		return domain.Activity{}, err
	}

	kind, err := domain.ParseKind(kindRaw)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("decode activity kind %q: %w", kindRaw, err)
	}
	status, err := domain.ParseStatus(statusRaw)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("decode activity status %q: %w", statusRaw, err)
	}
	activity.Kind = kind
	activity.Status = status

	if err := json.Unmarshal([]byte(assigneesJSON), &activity.Assignees); err != nil {
		return domain.Activity{}, fmt.Errorf("decode assignees: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &activity.Tags); err != nil {
		return domain.Activity{}, fmt.Errorf("decode tags: %w", err)
	}

	activity.Start = parseTS(startRaw)
	activity.End = parseTS(endRaw)
	activity.CreatedAt = parseTS(createdRaw)
	activity.UpdatedAt = parseTS(updatedRaw)
	activity.ArchivedAt = parseNullTS(archivedRaw)
	return activity, nil
}

func encodeLists(a domain.Activity) (assigneesJSON, tagsJSON string, err error) {
	assignees, err := json.Marshal(emptyIfNil(a.Assignees))
	if err != nil {
		return "", "", fmt.Errorf("encode assignees: %w", err)
	}
	tags, err := json.Marshal(emptyIfNil(a.Tags))
	if err != nil {
		return "", "", fmt.Errorf("encode tags: %w", err)
	}
	return string(assignees), string(tags), nil
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}
