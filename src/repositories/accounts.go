package repositories

import (
	"context"
	"strings"

	"portfolio/src/models"

	"github.com/jackc/pgx/v5"
)

func (r *portfolioRepo) AllAccounts(ctx context.Context) ([]models.Account, error) {
	query := `
		SELECT id, account_name, account_type, user_id
		FROM accounts
		WHERE user_id = $1
		ORDER BY account_name, id`

	accounts := []models.Account{}
	err := r.inTx(ctx, query, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, r.userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var account models.Account
			if err := rows.Scan(&account.ID, &account.AccountName, &account.AccountType, &account.UserID); err != nil {
				return err
			}
			accounts = append(accounts, account)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *portfolioRepo) AddAccount(ctx context.Context, accountName, accountType string) error {
	accountName = strings.TrimSpace(accountName)
	if err := requireText("account_name", accountName); err != nil {
		return err
	}
	if err := requireText("account_type", accountType); err != nil {
		return err
	}

	query := `INSERT INTO accounts (account_name, account_type, user_id) VALUES ($1, $2, $3)`
	return r.inTx(ctx, query, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query, accountName, accountType, r.userID)
		return err
	})
}

// DeleteAccount removes the account; its holdings go with it through ON DELETE CASCADE.
func (r *portfolioRepo) DeleteAccount(ctx context.Context, accountID int) error {
	if err := requireID("account_id", accountID); err != nil {
		return err
	}
	return r.execOwned(ctx, `DELETE FROM accounts WHERE id = $1 AND user_id = $2`, accountID, r.userID)
}
