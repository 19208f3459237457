package common

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// UnknownAccount is the account_last4 value used until a card number is found.
const UnknownAccount = "UNKNOWN"

// DefaultCurrency is the statement currency of the supported layout.
const DefaultCurrency = "THB"

// Fragment is one positioned text unit produced by a PDF text extractor.
// BBox is (x0, y0, x1, y1) with y increasing downward.
type Fragment struct {
	Text string     `json:"text"`
	Page int        `json:"page"`
	BBox [4]float64 `json:"bbox"`
}

func (f Fragment) X0() float64 { return f.BBox[0] }
func (f Fragment) Y0() float64 { return f.BBox[1] }

// NormalizedRow is a reconstructed logical table row.
type NormalizedRow struct {
	Text string  `json:"text"`
	Page int     `json:"page"`
	Y    float64 `json:"y"`
}

// Amount is a decimal that serializes as a bare number with two fraction digits.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount { return Amount{Decimal: d} }

// AmountFromString parses a plain decimal literal; it panics on bad input and
// is meant for constants and tests.
func AmountFromString(s string) Amount {
	return Amount{Decimal: decimal.RequireFromString(s)}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(2)), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

// Rate is a decimal that serializes as a bare number at its full precision.
type Rate struct {
	decimal.Decimal
}

// RateFromString panics on bad input, like AmountFromString.
func RateFromString(s string) Rate {
	return Rate{Decimal: decimal.RequireFromString(s)}
}

func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rate) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	r.Decimal = d
	return nil
}

// Date is a calendar date serialized as yyyy-mm-dd.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string { return d.Format("2006-01-02") }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// StatementHeader holds the summary fields printed at the top of a statement.
type StatementHeader struct {
	BankName           string `json:"bank_name"`
	AccountLast4       string `json:"account_last4"`
	StatementDate      *Date  `json:"statement_date"`
	PaymentDueDate     *Date  `json:"payment_due_date"`
	PeriodStart        *Date  `json:"period_start"`
	PeriodEnd          *Date  `json:"period_end"`
	PreviousBalance    Amount `json:"previous_balance"`
	NewBalance         Amount `json:"new_balance"`
	OutstandingBalance Amount `json:"outstanding_balance"`
	CreditLimit        Amount `json:"credit_limit"`
	MinPayment         Amount `json:"min_payment"`
	PastDueAmount      Amount `json:"past_due_amount"`
	TotalMinPayment    Amount `json:"total_min_payment"`
}

// Transaction is one ledger line. PostDate equals Date when the statement
// prints a single date.
type Transaction struct {
	Date            Date    `json:"date"`
	PostDate        Date    `json:"post_date"`
	Description     string  `json:"description"`
	Amount          Amount  `json:"amount"`
	Currency        string  `json:"currency"`
	ForeignAmount   *Amount `json:"foreign_amount,omitempty"`
	ForeignCurrency string  `json:"foreign_currency,omitempty"`
	ConversionRate  *Rate   `json:"conversion_rate,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

// RewardBalance holds reward point counts.
type RewardBalance struct {
	PreviousBalance int64 `json:"previous_balance"`
	Earned          int64 `json:"earned"`
	Redeemed        int64 `json:"redeemed"`
	CurrentBalance  int64 `json:"current_balance"`
}

// ValidationResult collects problems that did not stop extraction.
type ValidationResult struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *ValidationResult) Warnf(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// ExtractionResult is the structured form of one statement.
type ExtractionResult struct {
	Statement    StatementHeader  `json:"statement"`
	Transactions []Transaction    `json:"transactions"`
	Rewards      *RewardBalance   `json:"rewards"`
	Validation   ValidationResult `json:"validation"`
}

// NewExtractionResult returns an empty result with non-nil slices so it
// serializes as [] rather than null.
func NewExtractionResult(bankName string) *ExtractionResult {
	return &ExtractionResult{
		Statement: StatementHeader{
			BankName:     bankName,
			AccountLast4: UnknownAccount,
		},
		Transactions: []Transaction{},
		Validation: ValidationResult{
			Errors:   []string{},
			Warnings: []string{},
		},
	}
}
