package repositories

import (
	"context"
	"errors"
	"fmt"

	"portfolio/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// scopedHoldingsQuery filters views.base_holdings to the user in $1 before
// the percent window runs, so percentages only ever reflect that user's total.
const scopedHoldingsQuery = `
	SELECT
		account_id,
		account_name,
		account_type,
		holding_id,
		asset_id,
		ticker,
		name,
		category,
		current_price,
		shares,
		market_value,
		market_value / NULLIF(SUM(market_value) OVER (), 0) AS percent
	FROM views.base_holdings
	WHERE user_id = $1`

const holdingRowColumns = `
	account_id, account_name, account_type, holding_id, asset_id, ticker,
	name, category, current_price, shares, market_value, percent`

func scanHoldingRow(row pgx.Row) (models.HoldingRow, error) {
	var h models.HoldingRow
	err := row.Scan(
		&h.AccountID, &h.AccountName, &h.AccountType, &h.HoldingID, &h.AssetID, &h.Ticker,
		&h.Name, &h.Category, &h.CurrentPrice, &h.Shares, &h.MarketValue, &h.Percent,
	)
	return h, err
}

func (r *portfolioRepo) queryHoldingRows(ctx context.Context, query string, args ...any) ([]models.HoldingRow, error) {
	holdings := []models.HoldingRow{}
	err := r.inTx(ctx, query, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			h, err := scanHoldingRow(rows)
			if err != nil {
				return err
			}
			holdings = append(holdings, h)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return holdings, nil
}

// AllHoldings lists every holding of the user; accounts without holdings are left out.
func (r *portfolioRepo) AllHoldings(ctx context.Context) ([]models.HoldingRow, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM (%s) AS h
		WHERE holding_id IS NOT NULL
		ORDER BY account_name, ticker, holding_id`, holdingRowColumns, scopedHoldingsQuery)
	return r.queryHoldingRows(ctx, query, r.userID)
}

// AccountHoldings lists one account. An account without holdings yields a
// single row whose holding and asset columns are nil. Percent stays relative
// to the whole portfolio.
func (r *portfolioRepo) AccountHoldings(ctx context.Context, accountID int) ([]models.HoldingRow, error) {
	if err := requireID("account_id", accountID); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM (%s) AS h
		WHERE account_id = $2
		ORDER BY ticker NULLS FIRST, holding_id`, holdingRowColumns, scopedHoldingsQuery)
	return r.queryHoldingRows(ctx, query, r.userID, accountID)
}

func (r *portfolioRepo) FindHolding(ctx context.Context, holdingID int) (*models.HoldingRow, error) {
	if err := requireID("holding_id", holdingID); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM (%s) AS h
		WHERE holding_id = $2`, holdingRowColumns, scopedHoldingsQuery)

	var holding models.HoldingRow
	err := r.inTx(ctx, query, func(tx pgx.Tx) error {
		var err error
		holding, err = scanHoldingRow(tx.QueryRow(ctx, query, r.userID, holdingID))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &holding, nil
}

// AddHolding inserts only when both the account and the asset belong to the
// user; otherwise it returns ErrNotFound.
func (r *portfolioRepo) AddHolding(ctx context.Context, accountID, assetID int, shares decimal.Decimal) error {
	if err := requireID("account_id", accountID); err != nil {
		return err
	}
	if err := requireID("asset_id", assetID); err != nil {
		return err
	}
	if err := requireAmount("shares", shares, sharesScale); err != nil {
		return err
	}

	query := `
		INSERT INTO holdings (account_id, asset_id, shares, user_id)
		SELECT $1::integer, $2::integer, $3::numeric, $4::integer
		WHERE EXISTS (SELECT 1 FROM accounts WHERE id = $1::integer AND user_id = $4::integer)
		  AND EXISTS (SELECT 1 FROM assets WHERE id = $2::integer AND user_id = $4::integer)`
	return r.execOwned(ctx, query, accountID, assetID, shares, r.userID)
}

func (r *portfolioRepo) UpdateHolding(ctx context.Context, holdingID int, shares decimal.Decimal) error {
	if err := requireID("holding_id", holdingID); err != nil {
		return err
	}
	if err := requireAmount("shares", shares, sharesScale); err != nil {
		return err
	}
	return r.execOwned(ctx, updateSharesQuery, shares, holdingID, r.userID)
}

const (
	updateSharesQuery = `UPDATE holdings SET shares = $1 WHERE id = $2 AND user_id = $3`
	updatePriceQuery  = `UPDATE assets SET current_price = $1 WHERE id = $2 AND user_id = $3`
)

// UpdateHoldingAndPrice sets the share count and the asset price in one
// transaction. If either row is missing or not the user's, neither changes.
func (r *portfolioRepo) UpdateHoldingAndPrice(ctx context.Context, holdingID int, shares decimal.Decimal, assetID int, currentPrice decimal.Decimal) error {
	if err := requireID("holding_id", holdingID); err != nil {
		return err
	}
	if err := requireAmount("shares", shares, sharesScale); err != nil {
		return err
	}
	if err := requireID("asset_id", assetID); err != nil {
		return err
	}
	if err := requireAmount("current_price", currentPrice, priceScale); err != nil {
		return err
	}

	return r.inTx(ctx, updateSharesQuery+"; "+updatePriceQuery, func(tx pgx.Tx) error {
		if err := execOne(ctx, tx, updateSharesQuery, shares, holdingID, r.userID); err != nil {
			return err
		}
		return execOne(ctx, tx, updatePriceQuery, currentPrice, assetID, r.userID)
	})
}

func (r *portfolioRepo) DeleteHolding(ctx context.Context, holdingID int) error {
	if err := requireID("holding_id", holdingID); err != nil {
		return err
	}
	return r.execOwned(ctx, `DELETE FROM holdings WHERE id = $1 AND user_id = $2`, holdingID, r.userID)
}
