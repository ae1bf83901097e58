package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const dir = "files"

//go:embed files/*.sql
var migrationFiles embed.FS

// Status describes the schema version of a database relative to the
// migrations embedded in the binary.
type Status struct {
	Applied uint
	Latest  uint
	Dirty   bool
	// Empty is set when no migration was ever applied.
	Empty bool
}

// Err returns nil when the schema can be used by this binary.
func (s Status) Err() error {
	switch {
	case s.Empty:
		return errors.New("schema has never been migrated")
	case s.Dirty:
		return fmt.Errorf("schema is dirty at version %d, fix it by hand and force the version", s.Applied)
	case s.Applied < s.Latest:
		return fmt.Errorf("schema version %d is behind %d, run migrate up", s.Applied, s.Latest)
	case s.Applied > s.Latest:
		return fmt.Errorf("schema version %d is newer than this binary (%d)", s.Applied, s.Latest)
	}
	return nil
}

// Inspect reads the applied version from the schema_migrations table.
func Inspect(db *sql.DB) (Status, error) {
	latest, err := LatestVersion()
	if err != nil {
		return Status{}, err
	}

	m, err := open(db)
	if err != nil {
		return Status{}, err
	}
	// closing m would close db, which the caller owns

	applied, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{Latest: latest, Empty: true}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("failed to read schema version: %w", err)
	}

	return Status{Applied: applied, Latest: latest, Dirty: dirty}, nil
}

// CheckStatus returns nil when the schema matches the embedded migrations.
func CheckStatus(db *sql.DB) error {
	status, err := Inspect(db)
	if err != nil {
		return err
	}
	return status.Err()
}

// MigrateUp applies pending migrations; an up-to-date schema is a no-op.
func MigrateUp(db *sql.DB) error {
	m, err := open(db)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// LatestVersion is the highest version among the embedded up migrations.
func LatestVersion() (uint, error) {
	names, err := fs.Glob(migrationFiles, dir+"/*.sql")
	if err != nil {
		return 0, fmt.Errorf("failed to list migrations: %w", err)
	}

	var latest uint
	for _, name := range names {
		parsed, err := source.Parse(name[len(dir)+1:])
		if err != nil {
			return 0, fmt.Errorf("failed to parse migration %s: %w", name, err)
		}
		if parsed.Direction == source.Up && parsed.Version > latest {
			latest = parsed.Version
		}
	}
	if latest == 0 {
		return 0, errors.New("no migrations embedded")
	}
	return latest, nil
}

func open(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to prepare postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}
