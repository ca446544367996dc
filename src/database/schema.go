package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Relation is a table or view the application needs.
type Relation struct {
	Schema string
	Name   string
}

func (r Relation) String() string {
	return r.Schema + "." + r.Name
}

// RequiredRelations lists every relation the migrations must leave behind.
var RequiredRelations = []Relation{
	{Schema: "users", Name: "users"},
	{Schema: "public", Name: "accounts"},
	{Schema: "public", Name: "assets"},
	{Schema: "public", Name: "holdings"},
	{Schema: "views", Name: "base_holdings"},
}

// Migrations returns the embedded goose migration files.
func Migrations() fs.FS {
	sub, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrate applies pending migrations under a Postgres advisory lock, so two
// processes starting at once do not race on the first run, and then checks
// that every required relation exists.
func Migrate(ctx context.Context, db *sql.DB, logger *logrus.Logger) error {
	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, Migrations(), goose.WithSessionLocker(locker))
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, res := range results {
		logger.WithFields(logrus.Fields{
			"version":  res.Source.Version,
			"path":     res.Source.Path,
			"duration": res.Duration.String(),
		}).Info("applied migration")
	}

	missing, err := MissingTables(ctx, db)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema incomplete after migrating, missing %v", missing)
	}
	return nil
}

// MissingTables reports the required relations absent from information_schema.
func MissingTables(ctx context.Context, db *sql.DB) ([]Relation, error) {
	var missing []Relation
	for _, rel := range RequiredRelations {
		var count int
		err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM information_schema.tables
			 WHERE table_schema = $1 AND table_name = $2`,
			rel.Schema, rel.Name,
		).Scan(&count)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			missing = append(missing, rel)
		}
	}
	return missing, nil
}
