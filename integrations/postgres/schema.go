package postgres

import (
	"context"
	"fmt"
)

const ddl = `
-- One row per card, keyed by issuer and masked card number
CREATE TABLE IF NOT EXISTS accounts (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    bank_name VARCHAR(50) NOT NULL,
    account_last4 VARCHAR(50) NOT NULL,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW(),

    UNIQUE(bank_name, account_last4)
);

-- Statements with natural key (account_id, statement_date)
CREATE TABLE IF NOT EXISTS statements (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    import_run UUID,
    source VARCHAR(255) NOT NULL,
    statement_date DATE NOT NULL,
    payment_due_date DATE,
    period_start DATE,
    period_end DATE,
    previous_balance NUMERIC(18,2) NOT NULL,
    new_balance NUMERIC(18,2) NOT NULL,
    outstanding_balance NUMERIC(18,2) NOT NULL,
    credit_limit NUMERIC(18,2) NOT NULL,
    min_payment NUMERIC(18,2) NOT NULL,
    past_due_amount NUMERIC(18,2) NOT NULL,
    total_min_payment NUMERIC(18,2) NOT NULL,
    reward_previous BIGINT,
    reward_earned BIGINT,
    reward_redeemed BIGINT,
    reward_current BIGINT,
    warnings TEXT[] NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ DEFAULT NOW(),

    UNIQUE(account_id, statement_date)
);

CREATE TABLE IF NOT EXISTS transactions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    statement_id UUID NOT NULL REFERENCES statements(id) ON DELETE CASCADE,
    sequence INTEGER NOT NULL,
    date DATE NOT NULL,
    post_date DATE NOT NULL,
    description TEXT NOT NULL,
    amount NUMERIC(18,2) NOT NULL,
    currency VARCHAR(3) NOT NULL,
    foreign_amount NUMERIC(18,2),
    foreign_currency VARCHAR(3),
    conversion_rate NUMERIC(18,6),
    created_at TIMESTAMPTZ DEFAULT NOW(),

    UNIQUE(statement_id, sequence)
);

CREATE INDEX IF NOT EXISTS idx_statements_account_id ON statements(account_id);
CREATE INDEX IF NOT EXISTS idx_statements_date ON statements(statement_date);
CREATE INDEX IF NOT EXISTS idx_transactions_statement_id ON transactions(statement_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
`

// EnsureSchema creates tables and indexes if they don't exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
