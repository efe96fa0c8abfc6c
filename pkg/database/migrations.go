package database

import (
	"context"
	"database/sql"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var migrationFile = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.sql$`)

// Migration is one numbered SQL file, e.g. 002_approval_history.sql
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrator applies embedded migrations and records them in schema_migrations
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

// Run applies every migration in fsys not yet recorded, lowest version first
func (m *Migrator) Run(fsys fs.FS) error {
	return m.RunContext(context.Background(), fsys)
}

// RunContext is Run with a caller supplied context
func (m *Migrator) RunContext(ctx context.Context, fsys fs.FS) error {
	all, err := LoadMigrations(fsys)
	if err != nil {
		return err
	}

	if _, err := m.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return errors.Wrap(err, "create schema_migrations")
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	pending := lo.Filter(all, func(mg Migration, _ int) bool { return !applied[mg.Version] })
	if len(pending) == 0 {
		m.logger.Debug("Schema up to date", zap.Int("version", lo.Max(lo.Keys(applied))))
		return nil
	}

	for _, mg := range pending {
		err := m.db.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, mg.SQL); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, mg.Version, mg.Name)
			return err
		})
		if err != nil {
			return errors.Wrapf(err, "migration %03d_%s", mg.Version, mg.Name)
		}
		m.logger.Info("Migration applied", zap.Int("version", mg.Version), zap.String("name", mg.Name))
	}
	return nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, errors.Wrap(err, "read schema_migrations")
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// LoadMigrations reads NNN_name.sql files from fsys, sorted by version.
// Other files are ignored; two files with the same version are an error.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	var out []Migration
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		match := migrationFile.FindStringSubmatch(path.Base(p))
		if match == nil {
			return nil
		}
		body, err := fs.ReadFile(fsys, p)
		if err != nil {
			return errors.Wrapf(err, "read %s", p)
		}
		version, _ := strconv.Atoi(match[1])
		out = append(out, Migration{Version: version, Name: match[2], SQL: string(body)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	if dup := lo.FindDuplicatesBy(out, func(mg Migration) int { return mg.Version }); len(dup) > 0 {
		return nil, errors.Newf("duplicate migration version %d", dup[0].Version)
	}
	return out, nil
}
