package models

import "github.com/shopspring/decimal"

type Asset struct {
	ID           int             `db:"id" json:"id"`
	Ticker       string          `db:"ticker" json:"ticker"`
	Name         string          `db:"name" json:"name"`
	Category     string          `db:"category" json:"category"`
	CurrentPrice decimal.Decimal `db:"current_price" json:"current_price"`
	UserID       uint            `db:"user_id" json:"-"`
}

// AssetTotal aggregates one asset across every account holding it.
type AssetTotal struct {
	AssetID          int             `db:"asset_id" json:"asset_id"`
	Ticker           string          `db:"ticker" json:"ticker"`
	Name             string          `db:"name" json:"name"`
	Category         string          `db:"category" json:"category"`
	CurrentPrice     decimal.Decimal `db:"current_price" json:"current_price"`
	TotalShares      decimal.Decimal `db:"total_shares" json:"total_shares"`
	NumberAccounts   int64           `db:"number_accounts" json:"number_accounts"`
	TotalMarketValue decimal.Decimal `db:"total_market_value" json:"total_market_value"`
	Percent          decimal.Decimal `db:"percent" json:"percent"`
}
