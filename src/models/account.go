package models

import "github.com/shopspring/decimal"

type Account struct {
	ID          int    `db:"id" json:"id"`
	AccountName string `db:"account_name" json:"account_name"`
	AccountType string `db:"account_type" json:"account_type"`
	UserID      uint   `db:"user_id" json:"-"`
}

type AccountTotal struct {
	AccountID        int             `db:"account_id" json:"account_id"`
	AccountName      string          `db:"account_name" json:"account_name"`
	AccountType      string          `db:"account_type" json:"account_type"`
	NumberHoldings   int64           `db:"number_holdings" json:"number_holdings"`
	TotalMarketValue decimal.Decimal `db:"total_market_value" json:"total_market_value"`
	Percent          decimal.Decimal `db:"percent" json:"percent"`
}
