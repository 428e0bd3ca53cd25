package cuedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/edumarques81/stellar-cue/internal/domain/cue"
	"github.com/rs/zerolog/log"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ProjectSummary lists a stored project without its cues.
type ProjectSummary struct {
	Path      string    `json:"path"`
	Performer string    `json:"performer"`
	MixTitle  string    `json:"mixTitle"`
	CueCount  int       `json:"cueCount"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SaveProject replaces the stored project for p.Path.
func (d *DB) SaveProject(ctx context.Context, p cue.Project) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return ErrClosed
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (path, performer, mix_title, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			performer = excluded.performer,
			mix_title = excluded.mix_title,
			updated_at = excluded.updated_at
	`, p.Path, p.Performer, p.MixTitle, p.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save project %s: %w", p.Path, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM cues WHERE project_path = ?", p.Path); err != nil {
		return fmt.Errorf("failed to clear cues of %s: %w", p.Path, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cues (project_path, position, id, time, name, artist, title, performer, locked, confirmed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cue insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range p.Cues {
		_, err := stmt.ExecContext(ctx, p.Path, i, c.ID, c.Time, c.Name,
			c.Artist, c.Title, c.Performer, c.Locked, c.Confirmed)
		if err != nil {
			return fmt.Errorf("failed to save cue %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit project %s: %w", p.Path, err)
	}

	log.Debug().Str("path", p.Path).Int("cues", len(p.Cues)).Msg("Cue project saved")
	return nil
}

// LoadProject returns the project stored for path, or ErrNotFound.
func (d *DB) LoadProject(ctx context.Context, path string) (cue.Project, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return cue.Project{}, ErrClosed
	}

	p := cue.Project{Path: path}
	var updated string
	err := d.db.QueryRowContext(ctx,
		"SELECT performer, mix_title, updated_at FROM projects WHERE path = ?", path,
	).Scan(&p.Performer, &p.MixTitle, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return cue.Project{}, ErrNotFound
	}
	if err != nil {
		return cue.Project{}, fmt.Errorf("failed to load project %s: %w", path, err)
	}
	p.UpdatedAt, _ = time.Parse(timeLayout, updated)

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, time, name, artist, title, performer, locked, confirmed
		FROM cues WHERE project_path = ? ORDER BY position
	`, path)
	if err != nil {
		return cue.Project{}, fmt.Errorf("failed to load cues of %s: %w", path, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c cue.CuePoint
		if err := rows.Scan(&c.ID, &c.Time, &c.Name, &c.Artist, &c.Title, &c.Performer, &c.Locked, &c.Confirmed); err != nil {
			return cue.Project{}, fmt.Errorf("failed to scan cue: %w", err)
		}
		p.Cues = append(p.Cues, c)
	}
	if err := rows.Err(); err != nil {
		return cue.Project{}, fmt.Errorf("failed to read cues of %s: %w", path, err)
	}
	return p, nil
}

// DeleteProject removes the project stored for path.
func (d *DB) DeleteProject(ctx context.Context, path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return ErrClosed
	}

	res, err := d.db.ExecContext(ctx, "DELETE FROM projects WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("failed to delete project %s: %w", path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProjects returns every stored project, most recently updated first.
func (d *DB) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return nil, ErrClosed
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT p.path, p.performer, p.mix_title, p.updated_at, COUNT(c.id)
		FROM projects p LEFT JOIN cues c ON c.project_path = p.path
		GROUP BY p.path
		ORDER BY p.updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var out []ProjectSummary
	for rows.Next() {
		var s ProjectSummary
		var updated string
		if err := rows.Scan(&s.Path, &s.Performer, &s.MixTitle, &updated, &s.CueCount); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		s.UpdatedAt, _ = time.Parse(timeLayout, updated)
		out = append(out, s)
	}
	return out, rows.Err()
}
