package models

import "github.com/shopspring/decimal"

type Holding struct {
	ID        int             `db:"id" json:"id"`
	AccountID int             `db:"account_id" json:"account_id"`
	AssetID   int             `db:"asset_id" json:"asset_id"`
	Shares    decimal.Decimal `db:"shares" json:"shares"`
	UserID    uint            `db:"user_id" json:"-"`
}

// HoldingRow is one row of views.base_holdings scoped to a user. Holding and
// asset columns are nil for an account without holdings.
type HoldingRow struct {
	AccountID    int                 `db:"account_id" json:"account_id"`
	AccountName  string              `db:"account_name" json:"account_name"`
	AccountType  string              `db:"account_type" json:"account_type"`
	HoldingID    *int                `db:"holding_id" json:"holding_id"`
	AssetID      *int                `db:"asset_id" json:"asset_id"`
	Ticker       *string             `db:"ticker" json:"ticker"`
	Name         *string             `db:"name" json:"name"`
	Category     *string             `db:"category" json:"category"`
	CurrentPrice decimal.NullDecimal `db:"current_price" json:"current_price"`
	Shares       decimal.NullDecimal `db:"shares" json:"shares"`
	MarketValue  decimal.NullDecimal `db:"market_value" json:"market_value"`
	Percent      decimal.NullDecimal `db:"percent" json:"percent"`
}

// HasHolding reports whether the row carries a holding rather than an empty account.
func (r HoldingRow) HasHolding() bool {
	return r.HoldingID != nil
}

// HoldingColumns are the listing headers in display order.
var HoldingColumns = []string{
	"account_name",
	"account_type",
	"ticker",
	"name",
	"category",
	"current_price",
	"shares",
	"market_value",
	"percent",
}
