package database

import (
	"context"
	"fmt"

	"portfolio/src/config"
	aws_handler "portfolio/src/utils/aws"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupDB opens the pgx pool used by the portfolio repositories.
func SetupDB(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Databases.SQL.DSN())
	if err != nil {
		return nil, err
	}

	if cfg.Databases.SQL.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Databases.SQL.MaxConns
	}
	poolConfig.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// SetupGorm opens the GORM handle used for the users schema and migrations.
// Constraint violations are translated to gorm.ErrDuplicatedKey and friends.
func SetupGorm(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Databases.SQL.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// ResolveConnectionString swaps in the connection string kept in AWS Secrets
// Manager when a secret id is configured.
func ResolveConnectionString(ctx context.Context, cfg *config.Config) error {
	secretID := cfg.Databases.SQL.SecretID
	if secretID == "" {
		return nil
	}
	secrets, err := aws_handler.NewDatabaseSecrets(aws_handler.Options{
		Region:   cfg.AWS.Region,
		Endpoint: cfg.AWS.Endpoint,
	})
	if err != nil {
		return err
	}
	dsn, err := secrets.GetDatabaseURL(ctx, secretID)
	if err != nil {
		return err
	}
	cfg.Databases.SQL.ConnectionString = dsn
	return nil
}
