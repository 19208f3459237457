package statement

// State is the parser position within a statement.
type State int

const (
	StateStart State = iota
	StateHeader
	StateTransactions
	StateRewards
	StateFooter
	// StateEnd is entered by Finalize. Rows fed afterwards are ignored.
	StateEnd
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "START"
	case StateHeader:
		return "HEADER"
	case StateTransactions:
		return "TRANSACTIONS"
	case StateRewards:
		return "REWARDS"
	case StateFooter:
		return "FOOTER"
	case StateEnd:
		return "END"
	}
	return "UNKNOWN"
}

// HeaderField names one settable statement header field.
type HeaderField int

const (
	FieldAccountNumber HeaderField = iota
	FieldStatementDate
	FieldPaymentDueDate
	FieldPeriodStart
	FieldPeriodEnd
	FieldPreviousBalance
	FieldNewBalance
	FieldOutstandingBalance
	FieldCreditLimit
	FieldMinPayment
	FieldPastDueAmount
	FieldTotalMinPayment

	fieldCount
)

type fieldKind int

const (
	kindAccount fieldKind = iota
	kindDate
	kindAmount
)

func (f HeaderField) kind() fieldKind {
	switch f {
	case FieldAccountNumber:
		return kindAccount
	case FieldStatementDate, FieldPaymentDueDate, FieldPeriodStart, FieldPeriodEnd:
		return kindDate
	}
	return kindAmount
}

func (f HeaderField) String() string {
	switch f {
	case FieldAccountNumber:
		return "account_last4"
	case FieldStatementDate:
		return "statement_date"
	case FieldPaymentDueDate:
		return "payment_due_date"
	case FieldPeriodStart:
		return "period_start"
	case FieldPeriodEnd:
		return "period_end"
	case FieldPreviousBalance:
		return "previous_balance"
	case FieldNewBalance:
		return "new_balance"
	case FieldOutstandingBalance:
		return "outstanding_balance"
	case FieldCreditLimit:
		return "credit_limit"
	case FieldMinPayment:
		return "min_payment"
	case FieldPastDueAmount:
		return "past_due_amount"
	case FieldTotalMinPayment:
		return "total_min_payment"
	}
	return "unknown"
}

// RewardField names one reward balance counter.
type RewardField int

const (
	RewardPrevious RewardField = iota
	RewardEarned
	RewardRedeemed
	RewardCurrent
)
