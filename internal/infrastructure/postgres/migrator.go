package postgres

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
)

// ErrNothingToRollBack is returned by Down on an empty schema.
var ErrNothingToRollBack = errors.New("no migration to roll back")

// Migrator applies the cashbook schema from a directory of SQL files.
type Migrator struct {
	databaseURL string
	sourceURL   string
	logger      zerolog.Logger
}

// NewMigrator creates a Migrator for the migrations in dir.
func NewMigrator(databaseURL, dir string, logger zerolog.Logger) *Migrator {
	return &Migrator{
		databaseURL: databaseURL,
		sourceURL:   "file://" + dir,
		logger:      logger.With().Str("component", "migrator").Str("path", dir).Logger(),
	}
}

func (m *Migrator) open() (*migrate.Migrate, error) {
	mg, err := migrate.New(m.sourceURL, m.databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mg, nil
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info().Msg("database migrations: no change")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, _ := mg.Version()
	m.logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("database migrations: applied")
	return nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down() error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNilVersion) || errors.Is(err, os.ErrNotExist) {
			return ErrNothingToRollBack
		}
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	m.logger.Info().Msg("database migrations: rolled back")
	return nil
}

// Version reports the applied schema version. An empty schema is version 0.
func (m *Migrator) Version() (uint, bool, error) {
	mg, err := m.open()
	if err != nil {
		return 0, false, err
	}
	defer mg.Close()

	version, dirty, err := mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}
