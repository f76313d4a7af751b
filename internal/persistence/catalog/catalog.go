// Package catalog indexes saved worlds in a SQLite database.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"worldgen/internal/world"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("catalog: world not found")

// Entry describes one saved world. Rivers and Lakes are -1 when the world
// was saved without hydrology.
type Entry struct {
	ID            uuid.UUID
	Name          string
	Seed          int32
	Nth, Nch      int
	Water         float64
	RealizedWater float64
	Rivers        int
	Lakes         int
	Path          string
	CreatedAt     time.Time
}

type Catalog struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the catalog database at path.
func Open(path string) (*Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Catalog{db: db, now: time.Now}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS worlds (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			seed INTEGER NOT NULL,
			nth INTEGER NOT NULL,
			nch INTEGER NOT NULL,
			water REAL NOT NULL,
			realized_water REAL NOT NULL,
			rivers INTEGER NOT NULL,
			lakes INTEGER NOT NULL,
			path TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS worlds_created ON worlds(created_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) Close() error { return c.db.Close() }

// Record stores a summary of l saved at path and returns the new entry.
func (c *Catalog) Record(ctx context.Context, l world.Layers, path string) (Entry, error) {
	if l.Height == nil || l.Grid == nil {
		return Entry{}, fmt.Errorf("catalog: world has no heightmap")
	}
	e := Entry{
		ID:            uuid.New(),
		Name:          l.Params.Name,
		Seed:          l.Params.Seed,
		Nth:           l.Grid.Nth(),
		Nch:           l.Grid.Nch(),
		Water:         l.Params.Water,
		RealizedWater: l.Height.RealizedWater,
		Rivers:        -1,
		Lakes:         -1,
		Path:          path,
		CreatedAt:     c.now().UTC(),
	}
	if l.Hydrology != nil {
		e.Rivers = len(l.Hydrology.Rivers)
		e.Lakes = len(l.Hydrology.Lakes)
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO worlds(id,name,seed,nth,nch,water,realized_water,rivers,lakes,path,created_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID.String(), e.Name, e.Seed, e.Nth, e.Nch, e.Water, e.RealizedWater,
		e.Rivers, e.Lakes, e.Path, e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("catalog: record %s: %w", e.Name, err)
	}
	return e, nil
}

// timeLayout is fixed width so text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const columns = `id,name,seed,nth,nch,water,realized_water,rivers,lakes,path,created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e       Entry
		id      string
		created string
	)
	if err := s.Scan(&id, &e.Name, &e.Seed, &e.Nth, &e.Nch, &e.Water, &e.RealizedWater,
		&e.Rivers, &e.Lakes, &e.Path, &created); err != nil {
		return Entry{}, err
	}
	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return Entry{}, fmt.Errorf("catalog: bad id %q: %w", id, err)
	}
	if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return Entry{}, fmt.Errorf("catalog: bad timestamp %q: %w", created, err)
	}
	return e, nil
}

// Get returns the entry with the given id.
func (c *Catalog) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+columns+` FROM worlds WHERE id=?`, id.String())
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// List returns up to limit entries, newest first. A non-positive limit
// returns every entry.
func (c *Catalog) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+columns+` FROM worlds ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
