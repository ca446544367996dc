// Package dbtest connects tests to the Postgres database configured in
// settings/appsettings.TESTING.yaml. Tests are skipped when it is unreachable.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"portfolio/src/config"
	"portfolio/src/database"
	"portfolio/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Setup migrates the test database, truncates every table and returns both handles.
func Setup(t *testing.T) (*pgxpool.Pool, *gorm.DB) {
	t.Helper()

	cfg, err := loadTestConfig()
	if err != nil {
		t.Fatalf("Failed to load test configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := database.SetupDB(ctx, cfg)
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	t.Cleanup(pool.Close)

	gormDB, err := database.SetupGorm(cfg)
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("Failed to get SQL DB from GORM DB: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	if err := database.Migrate(ctx, sqlDB, logger); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	TruncateTables(t, pool)
	return pool, gormDB
}

// TruncateTables empties every application table and resets the id sequences.
func TruncateTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`TRUNCATE TABLE holdings, accounts, assets, users.users RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}

// CreateUser inserts a user directly and returns its id.
func CreateUser(t *testing.T, db *gorm.DB, username string) uint {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "x"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user.ID
}

func loadTestConfig() (*config.Config, error) {
	serviceRoot, err := getServiceRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to get service root path: %w", err)
	}
	return config.LoadConfig(filepath.Join(serviceRoot, "settings"), string(config.Testing))
}

// getServiceRoot walks up from the working directory to the one holding go.mod.
func getServiceRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd, nil
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		wd = parent
	}
}
