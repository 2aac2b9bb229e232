// Package store persists project file systems to SQLite. The on-disk
// representation is exactly the ordered (path, node) sequence produced by
// vfs.Serialize, so loading a project is vfs.Deserialize over the stored
// rows.
package store

import (
	"database/sql"
	"time"

	// Registers the "sqlite3" database/sql driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/CageChen/reacthub/internal/vfs"
)

// ErrProjectNotFound is returned when loading or deleting an unknown
// project.
var ErrProjectNotFound = errors.New("project not found")

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS project_files (
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	path       TEXT NOT NULL,
	kind       TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (project_id, path)
);
`

// ProjectMeta is the stored header of one project.
type ProjectMeta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, errors.WithMessage(err, "open sqlite database")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.WithMessage(err, "create schema")
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// SaveProject upserts the project header and replaces its file rows with
// the given serialized snapshot, in one transaction.
func (s *Store) SaveProject(meta ProjectMeta, snapshot []vfs.Node) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.WithMessage(err, "begin")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.Exec(`
		INSERT INTO projects (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		meta.ID, meta.Name, meta.CreatedAt, meta.UpdatedAt)
	if err != nil {
		return errors.WithMessage(err, "upsert project")
	}
	if _, err = tx.Exec(`DELETE FROM project_files WHERE project_id = ?`, meta.ID); err != nil {
		return errors.WithMessage(err, "clear files")
	}

	insert, err := tx.Prepare(`
		INSERT INTO project_files (project_id, position, path, kind, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.WithMessage(err, "prepare insert")
	}
	defer func() { _ = insert.Close() }()

	for i, node := range snapshot {
		if _, err = insert.Exec(meta.ID, i, node.Path, string(node.Kind), node.Content, node.CreatedAt, node.UpdatedAt); err != nil {
			return errors.WithMessagef(err, "insert %s", node.Path)
		}
	}
	return tx.Commit()
}

// LoadProject reads a project's metadata and reconstructs its file
// system from the stored snapshot rows.
func (s *Store) LoadProject(id string) (ProjectMeta, *vfs.FS, error) {
	var meta ProjectMeta
	err := s.db.QueryRow(`SELECT id, name, created_at, updated_at FROM projects WHERE id = ?`, id).
		Scan(&meta.ID, &meta.Name, &meta.CreatedAt, &meta.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ProjectMeta{}, nil, errors.WithMessagef(ErrProjectNotFound, "%q", id)
	}
	if err != nil {
		return ProjectMeta{}, nil, errors.WithMessage(err, "load project")
	}

	rows, err := s.db.Query(`
		SELECT path, kind, content, created_at, updated_at
		FROM project_files WHERE project_id = ? ORDER BY position`, id)
	if err != nil {
		return ProjectMeta{}, nil, errors.WithMessage(err, "load files")
	}
	defer func() { _ = rows.Close() }()

	var snapshot []vfs.Node
	for rows.Next() {
		var node vfs.Node
		var kind string
		if err := rows.Scan(&node.Path, &kind, &node.Content, &node.CreatedAt, &node.UpdatedAt); err != nil {
			return ProjectMeta{}, nil, errors.WithMessage(err, "scan file row")
		}
		node.Kind = vfs.Kind(kind)
		snapshot = append(snapshot, node)
	}
	if err := rows.Err(); err != nil {
		return ProjectMeta{}, nil, errors.WithMessage(err, "iterate file rows")
	}

	fs, err := vfs.Deserialize(snapshot)
	if err != nil {
		return ProjectMeta{}, nil, errors.WithMessagef(err, "project %q", id)
	}
	return meta, fs, nil
}

// ListProjects returns every stored project header, newest first.
func (s *Store) ListProjects() ([]ProjectMeta, error) {
	rows, err := s.db.Query(`SELECT id, name, created_at, updated_at FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, errors.WithMessage(err, "list projects")
	}
	defer func() { _ = rows.Close() }()

	var out []ProjectMeta
	for rows.Next() {
		var meta ProjectMeta
		if err := rows.Scan(&meta.ID, &meta.Name, &meta.CreatedAt, &meta.UpdatedAt); err != nil {
			return nil, errors.WithMessage(err, "scan project row")
		}
		out = append(out, meta)
	}
	return out, rows.Err()
}

// DeleteProject removes a project and (via cascade) its files.
func (s *Store) DeleteProject(id string) error {
	res, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return errors.WithMessage(err, "delete project")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.WithMessagef(ErrProjectNotFound, "%q", id)
	}
	return nil
}
