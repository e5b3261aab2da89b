package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLite is a single-node repository backed by a sqlite database file
type SQLite struct {
	db       *sql.DB
	schema   *schemaRepository
	property *propertyRepository
	profile  *profileRepository
}

var _ interfaces.Repository = &SQLite{}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS form_schemas (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		form_key TEXT NOT NULL,
		version TEXT NOT NULL,
		version_num INTEGER NOT NULL,
		status TEXT NOT NULL,
		steps TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_form_schemas_key_version ON form_schemas(form_key, version);`,
	`CREATE INDEX IF NOT EXISTS idx_form_schemas_key_status ON form_schemas(form_key, status, version_num);`,
	`CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		created_by TEXT NOT NULL,
		form_key TEXT NOT NULL,
		form_version TEXT NOT NULL,
		data TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		area TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		property_type TEXT NOT NULL DEFAULT '',
		listing_type TEXT NOT NULL DEFAULT '',
		asking_price REAL NOT NULL DEFAULT 0,
		area_sqft REAL NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_properties_owner ON properties(created_by, created_at);`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		approved INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
}

// New opens the database at path and applies the table definitions.
// Use ":memory:" for a throwaway database.
func New(ctx context.Context, path string) (*SQLite, error) {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}
	// one connection serializes writers and keeps a :memory: database alive
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to connect sqlite database", goerr.V("path", path))
	}

	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, goerr.Wrap(err, "failed to migrate sqlite database", goerr.V("statement", stmt))
		}
	}

	return &SQLite{
		db:       db,
		schema:   &schemaRepository{db: db},
		property: &propertyRepository{db: db},
		profile:  &profileRepository{db: db},
	}, nil
}

func (s *SQLite) Schema() interfaces.SchemaRepository {
	return s.schema
}

func (s *SQLite) Property() interfaces.PropertyRepository {
	return s.property
}

func (s *SQLite) Profile() interfaces.ProfileRepository {
	return s.profile
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
