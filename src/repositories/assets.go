package repositories

import (
	"context"
	"errors"
	"strings"

	"portfolio/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func (r *portfolioRepo) AllAssets(ctx context.Context) ([]models.Asset, error) {
	query := `
		SELECT id, ticker, name, category, current_price, user_id
		FROM assets
		WHERE user_id = $1
		ORDER BY ticker, id`

	assets := []models.Asset{}
	err := r.inTx(ctx, query, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, r.userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var asset models.Asset
			if err := rows.Scan(&asset.ID, &asset.Ticker, &asset.Name, &asset.Category, &asset.CurrentPrice, &asset.UserID); err != nil {
				return err
			}
			assets = append(assets, asset)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *portfolioRepo) FindAsset(ctx context.Context, assetID int) (*models.Asset, error) {
	if err := requireID("asset_id", assetID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, ticker, name, category, current_price, user_id
		FROM assets
		WHERE id = $1 AND user_id = $2`

	var asset models.Asset
	err := r.inTx(ctx, query, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query, assetID, r.userID).
			Scan(&asset.ID, &asset.Ticker, &asset.Name, &asset.Category, &asset.CurrentPrice, &asset.UserID)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *portfolioRepo) AddAsset(ctx context.Context, ticker, name, category string, currentPrice decimal.Decimal) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	name = strings.TrimSpace(name)
	for field, value := range map[string]string{"asset_ticker": ticker, "asset_name": name, "asset_category": category} {
		if err := requireText(field, value); err != nil {
			return err
		}
	}
	if err := requireAmount("current_price", currentPrice, priceScale); err != nil {
		return err
	}

	query := `
		INSERT INTO assets (ticker, name, category, current_price, user_id)
		VALUES ($1, $2, $3, $4, $5)`
	return r.inTx(ctx, query, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query, ticker, name, category, currentPrice, r.userID)
		return err
	})
}

func (r *portfolioRepo) UpdateAsset(ctx context.Context, assetID int, currentPrice decimal.Decimal) error {
	if err := requireID("asset_id", assetID); err != nil {
		return err
	}
	if err := requireAmount("current_price", currentPrice, priceScale); err != nil {
		return err
	}
	return r.execOwned(ctx, updatePriceQuery, currentPrice, assetID, r.userID)
}

// DeleteAsset removes the asset and, through ON DELETE CASCADE, every holding of it.
func (r *portfolioRepo) DeleteAsset(ctx context.Context, assetID int) error {
	if err := requireID("asset_id", assetID); err != nil {
		return err
	}
	return r.execOwned(ctx, `DELETE FROM assets WHERE id = $1 AND user_id = $2`, assetID, r.userID)
}
