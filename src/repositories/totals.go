package repositories

import (
	"context"
	"fmt"

	"portfolio/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func (r *portfolioRepo) AccountTotals(ctx context.Context) ([]models.AccountTotal, error) {
	query := fmt.Sprintf(`
		SELECT
			account_id,
			account_name,
			account_type,
			COUNT(holding_id) AS number_holdings,
			COALESCE(SUM(market_value), 0) AS total_market_value,
			COALESCE(SUM(percent), 0) AS percent
		FROM (%s) AS h
		GROUP BY account_id, account_name, account_type
		ORDER BY account_name, account_id`, scopedHoldingsQuery)

	totals := []models.AccountTotal{}
	err := r.inTx(ctx, query, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, r.userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t models.AccountTotal
			if err := rows.Scan(&t.AccountID, &t.AccountName, &t.AccountType, &t.NumberHoldings, &t.TotalMarketValue, &t.Percent); err != nil {
				return err
			}
			totals = append(totals, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return totals, nil
}

// AssetTotals starts from the assets table so assets nobody holds still get a
// row. The price is not aggregated; MIN just picks the single value.
func (r *portfolioRepo) AssetTotals(ctx context.Context) ([]models.AssetTotal, error) {
	query := fmt.Sprintf(`
		SELECT
			assets.id AS asset_id,
			assets.ticker,
			assets.name,
			assets.category,
			MIN(assets.current_price) AS current_price,
			COALESCE(SUM(h.shares), 0) AS total_shares,
			COUNT(DISTINCT h.account_id) AS number_accounts,
			COALESCE(SUM(h.market_value), 0) AS total_market_value,
			COALESCE(SUM(h.percent), 0) AS percent
		FROM assets
		LEFT JOIN (%s) AS h ON h.asset_id = assets.id
		WHERE assets.user_id = $1
		GROUP BY assets.id, assets.ticker, assets.name, assets.category
		ORDER BY assets.ticker, assets.id`, scopedHoldingsQuery)

	totals := []models.AssetTotal{}
	err := r.inTx(ctx, query, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, r.userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t models.AssetTotal
			if err := rows.Scan(&t.AssetID, &t.Ticker, &t.Name, &t.Category, &t.CurrentPrice,
				&t.TotalShares, &t.NumberAccounts, &t.TotalMarketValue, &t.Percent); err != nil {
				return err
			}
			totals = append(totals, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func (r *portfolioRepo) PortfolioTotal(ctx context.Context) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(market_value), 0) FROM views.base_holdings WHERE user_id = $1`

	var total decimal.Decimal
	err := r.inTx(ctx, query, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query, r.userID).Scan(&total)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
