package postgres

import (
	"context"
	"fmt"

	"github.com/miwtoo/credit-card-extraction/extractor/common"
)

const insertTransaction = `
	INSERT INTO transactions (
		statement_id, sequence, date, post_date, description, amount, currency,
		foreign_amount, foreign_currency, conversion_rate
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

// CreateTransactions inserts the ledger of a statement in document order.
func (db *DB) CreateTransactions(ctx context.Context, statementID string, transactions []common.Transaction) error {
	return db.inTx(ctx, func(q Querier) error {
		return createTransactions(ctx, q, statementID, transactions)
	})
}

func createTransactions(ctx context.Context, q Querier, statementID string, transactions []common.Transaction) error {
	for i, tx := range transactions {
		var foreignCurrency any
		if tx.ForeignCurrency != "" {
			foreignCurrency = tx.ForeignCurrency
		}

		_, err := q.Exec(ctx, insertTransaction,
			statementID, i+1, tx.Date.Time, tx.PostDate.Time, tx.Description,
			amountArg(tx.Amount), tx.Currency,
			optionalAmountArg(tx.ForeignAmount), foreignCurrency, optionalRateArg(tx.ConversionRate),
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %d: %w", i+1, err)
		}
	}
	return nil
}
