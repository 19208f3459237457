// Package statement implements the rule-driven state machine that turns
// normalized statement rows into an ExtractionResult.
//
// Every row is sanitized, checked against the ordered global transition
// table and then handed to the handler of the current state. The parser never
// fails: token parse errors become validation warnings and rows that match
// no rule are consumed without effect.
package statement

import (
	"fmt"
	"strconv"

	"github.com/miwtoo/credit-card-extraction/extractor/common"
)

const (
	strengthField     = 1
	strengthComposite = 2
)

type transitionOutcome int

const (
	outcomeNone transitionOutcome = iota
	outcomeConsumed
	outcomeFooterPending
)

// Parser folds rows into a result. A Parser is single use and not safe for
// concurrent use.
type Parser struct {
	rules    *Rules
	state    State
	result   *common.ExtractionResult
	open     *common.Transaction
	strength [fieldCount]int
	prevSet  bool
}

func NewParser(rules *Rules) *Parser {
	return &Parser{
		rules:  rules,
		state:  StateStart,
		result: common.NewExtractionResult(rules.BankName),
	}
}

// State returns the current parser state.
func (p *Parser) State() State {
	return p.state
}

// Parse processes all rows in order and finalizes the result.
func Parse(rules *Rules, rows []common.NormalizedRow) *common.ExtractionResult {
	p := NewParser(rules)
	for _, row := range rows {
		p.ProcessRow(row)
	}
	return p.Finalize()
}

// ProcessRow applies one row.
func (p *Parser) ProcessRow(row common.NormalizedRow) {
	if p.state == StateEnd {
		return
	}

	text := common.Sanitize(row.Text)
	if text == "" {
		return
	}

	outcome := p.applyTransitions(&text)
	if outcome == outcomeConsumed {
		return
	}

	if p.state == StateStart {
		p.state = StateHeader
	}

	switch p.state {
	case StateHeader:
		p.handleHeader(row, text)
	case StateTransactions:
		p.handleTransaction(row, text)
	case StateRewards:
		p.handleRewards(row, text)
	}

	if outcome == outcomeFooterPending && p.state == StateTransactions {
		p.flush()
		p.state = StateFooter
	}
}

func (p *Parser) applyTransitions(text *string) transitionOutcome {
	for _, rule := range p.rules.Transitions {
		idx := rule.Match.Index(*text)
		if idx < 0 {
			continue
		}

		switch rule.Action {
		case EnterTransactions:
			p.state = StateTransactions
			return outcomeConsumed
		case EnterRewards:
			p.flush()
			p.state = StateRewards
			return outcomeConsumed
		case FooterTruncate:
			if p.state == StateTransactions {
				prefix := common.Sanitize((*text)[:idx])
				if prefix != "" {
					*text = prefix
					return outcomeFooterPending
				}
			}
			p.flush()
			p.state = StateFooter
			return outcomeConsumed
		case FooterAfterLedger:
			if p.state != StateTransactions && p.state != StateRewards {
				continue
			}
			p.flush()
			p.state = StateFooter
			return outcomeConsumed
		case EnterFooter:
			p.flush()
			p.state = StateFooter
			return outcomeConsumed
		}
	}
	return outcomeNone
}

// Finalize flushes the open transaction, reconciles balances, records
// end-of-document checks and moves the parser to END. Calling it again
// returns the same result.
func (p *Parser) Finalize() *common.ExtractionResult {
	if p.state == StateEnd {
		return p.result
	}
	p.flush()

	h := &p.result.Statement
	switch {
	case h.OutstandingBalance.IsZero() && h.NewBalance.IsPositive():
		h.OutstandingBalance = h.NewBalance
	case h.NewBalance.IsZero() && h.OutstandingBalance.IsPositive():
		h.NewBalance = h.OutstandingBalance
	}

	p.checkResult()
	p.state = StateEnd
	return p.result
}

func (p *Parser) checkResult() {
	h := p.result.Statement
	v := &p.result.Validation

	if h.AccountLast4 == common.UnknownAccount {
		v.Warnf("account number not found")
	}
	if len(p.result.Transactions) == 0 {
		v.Warnf("no transactions found")
		return
	}
	if !p.prevSet || h.NewBalance.IsZero() {
		return
	}

	calculated := h.PreviousBalance.Decimal
	for _, tx := range p.result.Transactions {
		calculated = calculated.Add(tx.Amount.Decimal)
	}
	if !calculated.Equal(h.NewBalance.Decimal) {
		v.Warnf("calculated new balance %s does not match stated new balance %s",
			calculated.StringFixed(2), h.NewBalance.StringFixed(2))
	}
}

func (p *Parser) flush() {
	if p.open == nil {
		return
	}
	p.result.Transactions = append(p.result.Transactions, *p.open)
	p.open = nil
}

func (p *Parser) warnf(row common.NormalizedRow, format string, args ...any) {
	p.result.Validation.Warnf("page %d y %s: %s",
		row.Page, strconv.FormatFloat(row.Y, 'f', -1, 64), fmt.Sprintf(format, args...))
}
