package repositories

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"portfolio/src/models"
	"portfolio/src/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PortfolioRepository is the storage gateway for one signed-in user. Every
// operation runs in its own transaction and only sees that user's rows.
type PortfolioRepository interface {
	AllAccounts(ctx context.Context) ([]models.Account, error)
	AllAssets(ctx context.Context) ([]models.Asset, error)
	AllHoldings(ctx context.Context) ([]models.HoldingRow, error)
	AccountHoldings(ctx context.Context, accountID int) ([]models.HoldingRow, error)
	FindHolding(ctx context.Context, holdingID int) (*models.HoldingRow, error)
	FindAsset(ctx context.Context, assetID int) (*models.Asset, error)

	AddAccount(ctx context.Context, accountName, accountType string) error
	AddAsset(ctx context.Context, ticker, name, category string, currentPrice decimal.Decimal) error
	AddHolding(ctx context.Context, accountID, assetID int, shares decimal.Decimal) error

	UpdateHolding(ctx context.Context, holdingID int, shares decimal.Decimal) error
	UpdateAsset(ctx context.Context, assetID int, currentPrice decimal.Decimal) error
	UpdateHoldingAndPrice(ctx context.Context, holdingID int, shares decimal.Decimal, assetID int, currentPrice decimal.Decimal) error

	DeleteAccount(ctx context.Context, accountID int) error
	DeleteAsset(ctx context.Context, assetID int) error
	DeleteHolding(ctx context.Context, holdingID int) error

	AccountTotals(ctx context.Context) ([]models.AccountTotal, error)
	AssetTotals(ctx context.Context) ([]models.AssetTotal, error)
	PortfolioTotal(ctx context.Context) (decimal.Decimal, error)
	Columns() []string
}

// PortfolioRepositoryFactory binds a gateway to a user id, once per request.
type PortfolioRepositoryFactory func(userID uint) PortfolioRepository

type portfolioRepo struct {
	db     *pgxpool.Pool
	userID int64
}

func NewPortfolioRepository(db *pgxpool.Pool, userID uint) PortfolioRepository {
	return &portfolioRepo{db: db, userID: int64(userID)}
}

// NewPortfolioRepositoryFactory returns a factory sharing one pool.
func NewPortfolioRepositoryFactory(db *pgxpool.Pool) PortfolioRepositoryFactory {
	return func(userID uint) PortfolioRepository {
		return NewPortfolioRepository(db, userID)
	}
}

func (r *portfolioRepo) Columns() []string {
	columns := make([]string, len(models.HoldingColumns))
	copy(columns, models.HoldingColumns)
	return columns
}

// inTx runs fn inside a transaction that carries the current user in the
// transaction-local setting app.current_user_id for row-level security.
func (r *portfolioRepo) inTx(ctx context.Context, query string, fn func(tx pgx.Tx) error) (err error) {
	logger := utils.LoggerFromContext(ctx)
	logger.WithField("user_id", r.userID).Debugf("Executing query: %s", compactSQL(query))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT set_config('app.current_user_id', $1, true)`, strconv.FormatInt(r.userID, 10)); err != nil {
		return err
	}
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// execOwned runs a single-row write and maps zero affected rows to ErrNotFound.
func (r *portfolioRepo) execOwned(ctx context.Context, query string, args ...any) error {
	return r.inTx(ctx, query, func(tx pgx.Tx) error {
		return execOne(ctx, tx, query, args...)
	})
}

func execOne(ctx context.Context, tx pgx.Tx, query string, args ...any) error {
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func compactSQL(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// requireID accepts ids that fit the integer primary keys.
func requireID(name string, id int) error {
	if id <= 0 || id > math.MaxInt32 {
		return fmt.Errorf("%w: %s must be between 1 and %d, got %d", ErrInvalidInput, name, math.MaxInt32, id)
	}
	return nil
}

func requireText(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, name)
	}
	return nil
}

const (
	sharesScale = 4 // NUMERIC(14,4)
	priceScale  = 2 // NUMERIC(12,2)
)

// amountLimit is the first value neither numeric column can store.
var amountLimit = decimal.New(1, 10)

// requireAmount checks a value against a numeric column with scale decimal
// places and ten integer digits.
func requireAmount(name string, value decimal.Decimal, scale int32) error {
	switch {
	case value.IsNegative():
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, name)
	case value.GreaterThanOrEqual(amountLimit):
		return fmt.Errorf("%w: %s must be less than %s", ErrInvalidInput, name, amountLimit)
	case !value.Equal(value.Truncate(scale)):
		return fmt.Errorf("%w: %s allows at most %d decimal places", ErrInvalidInput, name, scale)
	}
	return nil
}
