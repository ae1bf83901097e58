package database

import (
	"context"
	"fmt"
	"time"

	"communityboard/internal/config"
	"communityboard/internal/database/migrations"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type MethodsDB interface {
	CloseDB() error
	RunMigrations() error
	MigrationStatus() (migrations.Status, error)
	HealthCheck(ctx context.Context) error
}

type DB struct {
	*sqlx.DB
}

func DSN(cfg config.DB) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DbHOST,
		cfg.DbPORT,
		cfg.DbUSER,
		cfg.DbPASSWORD,
		cfg.DbNAME,
		cfg.DbSSLMODE,
	)
}

// ConnectDB opens the pool and verifies the connection. Migrations are
// not applied here; call RunMigrations explicitly.
func ConnectDB(cfg *config.Config, log logrus.FieldLogger) (*DB, error) {
	log.WithFields(logrus.Fields{"host": cfg.DB.DbHOST, "dbname": cfg.DB.DbNAME}).Info("connecting to database")

	db, err := sqlx.Connect("postgres", DSN(cfg.DB))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &DB{db}, nil
}

func (db *DB) CloseDB() error {
	return db.DB.Close()
}

// RunMigrations brings the schema to the latest embedded version.
func (db *DB) RunMigrations() error {
	return migrations.MigrateUp(db.DB.DB)
}

// MigrationStatus compares the applied schema with the embedded migrations.
func (db *DB) MigrationStatus() (migrations.Status, error) {
	return migrations.Inspect(db.DB.DB)
}

func (db *DB) HealthCheck(ctx context.Context) error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	return db.PingContext(ctx)
}
