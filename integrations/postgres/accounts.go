package postgres

import (
	"context"
	"fmt"
)

// GetOrCreateAccount returns the id of the account for a card, creating it on
// first sight.
func (db *DB) GetOrCreateAccount(ctx context.Context, bankName, accountLast4 string) (string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO accounts (bank_name, account_last4)
		VALUES ($1, $2)
		ON CONFLICT (bank_name, account_last4) DO UPDATE SET updated_at = NOW()
		RETURNING id
	`, bankName, accountLast4).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert account: %w", err)
	}
	return id, nil
}
