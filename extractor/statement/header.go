package statement

import (
	"strings"

	"github.com/miwtoo/credit-card-extraction/extractor/common"
)

func (p *Parser) handleHeader(row common.NormalizedRow, text string) {
	for _, rule := range p.rules.Composites {
		m := rule.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		for i, field := range rule.Fields {
			p.setField(row, field, m[i+1], strengthComposite)
		}
		return
	}

	for _, rule := range p.rules.Fields {
		if !rule.applies(text) {
			continue
		}
		m := rule.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		for i, field := range rule.Fields {
			p.setField(row, field, m[i+1], strengthField)
		}
	}
}

// setField stores raw into field unless a rule of equal or greater strength
// already set it. Parse failures leave the field untouched and are reported.
func (p *Parser) setField(row common.NormalizedRow, field HeaderField, raw string, strength int) {
	if p.strength[field] >= strength {
		return
	}
	raw = strings.TrimSpace(raw)
	h := &p.result.Statement

	switch field.kind() {
	case kindAccount:
		if raw == "" {
			return
		}
		h.AccountLast4 = raw
	case kindDate:
		d, err := common.ParseDate(raw)
		if err != nil {
			p.warnf(row, "%s: %v", field, err)
			return
		}
		switch field {
		case FieldStatementDate:
			h.StatementDate = &d
		case FieldPaymentDueDate:
			h.PaymentDueDate = &d
		case FieldPeriodStart:
			h.PeriodStart = &d
		case FieldPeriodEnd:
			h.PeriodEnd = &d
		}
	case kindAmount:
		a, err := common.ParseAmount(raw)
		if err != nil {
			p.warnf(row, "%s: %v", field, err)
			return
		}
		switch field {
		case FieldPreviousBalance:
			h.PreviousBalance = a
			p.prevSet = true
		case FieldNewBalance:
			h.NewBalance = a
		case FieldOutstandingBalance:
			h.OutstandingBalance = a
		case FieldCreditLimit:
			h.CreditLimit = a
		case FieldMinPayment:
			h.MinPayment = a
		case FieldPastDueAmount:
			h.PastDueAmount = a
		case FieldTotalMinPayment:
			h.TotalMinPayment = a
		}
	}

	p.strength[field] = strength
}
