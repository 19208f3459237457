package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/miwtoo/credit-card-extraction/extractor/common"
)

// StatementRecord is what gets stored for one extraction result.
type StatementRecord struct {
	AccountID string
	RunID     string
	Source    string
	Result    *common.ExtractionResult
}

// StatementExists checks if a statement already exists using natural key
func (db *DB) StatementExists(ctx context.Context, accountID string, statementDate time.Time) (bool, string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
		SELECT id FROM statements
		WHERE account_id = $1 AND statement_date = $2
	`, accountID, statementDate).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("failed to check statement: %w", err)
	}
	return true, id, nil
}

// CreateStatement inserts the statement header, rewards and warnings.
func (db *DB) CreateStatement(ctx context.Context, rec StatementRecord) (string, error) {
	return createStatement(ctx, db.Pool, rec)
}

func createStatement(ctx context.Context, q Querier, rec StatementRecord) (string, error) {
	h := rec.Result.Statement
	if h.StatementDate == nil {
		return "", fmt.Errorf("statement date is required")
	}

	var rewardPrev, rewardEarned, rewardRedeemed, rewardCurrent *int64
	if rw := rec.Result.Rewards; rw != nil {
		rewardPrev, rewardEarned = &rw.PreviousBalance, &rw.Earned
		rewardRedeemed, rewardCurrent = &rw.Redeemed, &rw.CurrentBalance
	}

	warnings := rec.Result.Validation.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	var runID any
	if rec.RunID != "" {
		runID = rec.RunID
	}

	var id string
	err := q.QueryRow(ctx, `
		INSERT INTO statements (
			account_id, import_run, source, statement_date,
			payment_due_date, period_start, period_end,
			previous_balance, new_balance, outstanding_balance,
			credit_limit, min_payment, past_due_amount, total_min_payment,
			reward_previous, reward_earned, reward_redeemed, reward_current,
			warnings
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id
	`,
		rec.AccountID, runID, rec.Source, h.StatementDate.Time,
		dateArg(h.PaymentDueDate), dateArg(h.PeriodStart), dateArg(h.PeriodEnd),
		amountArg(h.PreviousBalance), amountArg(h.NewBalance), amountArg(h.OutstandingBalance),
		amountArg(h.CreditLimit), amountArg(h.MinPayment), amountArg(h.PastDueAmount), amountArg(h.TotalMinPayment),
		rewardPrev, rewardEarned, rewardRedeemed, rewardCurrent,
		warnings,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create statement: %w", err)
	}
	return id, nil
}

// DeleteStatement removes a statement and its transactions (cascade)
func (db *DB) DeleteStatement(ctx context.Context, statementID string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM statements WHERE id = $1`, statementID)
	if err != nil {
		return fmt.Errorf("failed to delete statement: %w", err)
	}
	return nil
}

func dateArg(d *common.Date) any {
	if d == nil {
		return nil
	}
	return d.Time
}

// amountArg sends amounts as numeric text so no decimal codec registration
// is needed on the connection.
func amountArg(a common.Amount) string {
	return a.StringFixed(2)
}

func optionalAmountArg(a *common.Amount) any {
	if a == nil {
		return nil
	}
	return a.String()
}

func optionalRateArg(r *common.Rate) any {
	if r == nil {
		return nil
	}
	return r.String()
}
