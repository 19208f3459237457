// Package ttb_cc holds the rule tables for TTB credit-card statements.
package ttb_cc

import (
	"regexp"

	"github.com/miwtoo/credit-card-extraction/extractor/common"
	"github.com/miwtoo/credit-card-extraction/extractor/statement"
	"github.com/spf13/viper"
)

const (
	Name     = "TTB_CC"
	BankName = "TTB"
)

const (
	card      = `\d{4}[- ]?[X\dx*]{4}[- ]?[X\dx*]{4}[- ]?\d{4}`
	date      = `\d{2}/\d{2}/\d{4}`
	amount    = `-?\d[\d,]*\.\d{2}`
	wholeOrDp = `-?\d[\d,]*(?:\.\d+)?`
)

// DefaultCardNumberExceptions lists strings printed next to card-like digit
// groups that are not the card number.
var DefaultCardNumberExceptions = []string{"ROYAL ORCHID PLUS"}

var DefaultFooterKeywords = []string{
	"for bank use",
	"bank copy",
	"pay-in slip",
	"payment slip",
	"grand total",
	"sub total balance",
	"amount in words",
	"ส่วนของธนาคาร",
	"ใบนำฝาก",
	"ยอดรวมทั้งสิ้น",
	"จำนวนเงินเป็นตัวอักษร",
}

var detectRegex = regexp.MustCompile(`(?i)\bttb\b|tmbthanachart|ทีเอ็มบีธนชาต`)

// Detect reports whether the statement text looks like a TTB statement.
func Detect(text string) bool {
	return detectRegex.MatchString(text)
}

// DefaultRules returns the built-in TTB rule set.
func DefaultRules() *statement.Rules {
	return newRules(common.DefaultCurrency, DefaultCardNumberExceptions, DefaultFooterKeywords)
}

// LoadRules returns DefaultRules with overrides from statement.TTB_CC.* config.
func LoadRules() *statement.Rules {
	currency := viper.GetString("statement.TTB_CC.currency")
	if currency == "" {
		currency = common.DefaultCurrency
	}
	exceptions := DefaultCardNumberExceptions
	if viper.IsSet("statement.TTB_CC.card_number_exceptions") {
		exceptions = viper.GetStringSlice("statement.TTB_CC.card_number_exceptions")
	}
	footer := DefaultFooterKeywords
	if keywords := viper.GetStringSlice("statement.TTB_CC.footer_keywords"); len(keywords) > 0 {
		footer = keywords
	}
	return newRules(currency, exceptions, footer)
}

func newRules(currency string, exceptions, footerKeywords []string) *statement.Rules {
	footer := statement.NewKeywordSet(footerKeywords...)

	return &statement.Rules{
		Layout:   Name,
		BankName: BankName,
		Currency: currency,

		Transitions: []statement.TransitionRule{
			{
				Name:   "transactions",
				Match:  statement.MustPattern(`(?i)transaction\s+date|transaction\s+details|วันที่ใช้บัตร`),
				Action: statement.EnterTransactions,
			},
			{
				Name:   "rewards",
				Match:  statement.MustPattern(`(?i)\breward|\bpoints\b|คะแนนสะสม`),
				Action: statement.EnterRewards,
			},
			{
				Name:   "footer keywords",
				Match:  footer,
				Action: statement.FooterTruncate,
			},
			{
				Name:   "total amount due",
				Match:  statement.MustPattern(`(?i)total\s+amount\s+due`),
				Action: statement.FooterAfterLedger,
			},
			{
				Name:   "form",
				Match:  statement.MustPattern(`แบบฟอร์ม`),
				Action: statement.EnterFooter,
			},
		},
		FooterKeywords: footer,

		Composites: []statement.CompositeRule{
			{
				Name:    "card and dates",
				Pattern: regexp.MustCompile(`^(` + card + `)\s+(` + date + `)\s+(` + date + `)$`),
				Fields:  []statement.HeaderField{statement.FieldAccountNumber, statement.FieldStatementDate, statement.FieldPaymentDueDate},
			},
			{
				Name:    "direct debit",
				Pattern: regexp.MustCompile(`^(?:\d{3}-\d-\d{5}-\d|\d{10})\s+(` + amount + `)$`),
				Fields:  []statement.HeaderField{statement.FieldOutstandingBalance},
			},
			{
				Name:    "credit info",
				Pattern: regexp.MustCompile(`^(` + wholeOrDp + `)\s+(` + amount + `)\s+(` + amount + `)\s+(` + amount + `)$`),
				Fields: []statement.HeaderField{
					statement.FieldCreditLimit, statement.FieldMinPayment,
					statement.FieldPastDueAmount, statement.FieldTotalMinPayment,
				},
			},
		},

		Fields: []statement.FieldRule{
			{
				Name:       "card number",
				Pattern:    regexp.MustCompile(`(` + card + `)`),
				Fields:     []statement.HeaderField{statement.FieldAccountNumber},
				Exceptions: exceptions,
			},
			{
				Name:    "statement date",
				Pattern: regexp.MustCompile(`(` + date + `)`),
				Fields:  []statement.HeaderField{statement.FieldStatementDate},
				Require: "Date",
			},
			{
				Name:    "payment due date",
				Pattern: regexp.MustCompile(`(?i)(?:payment\s+due\s+date|วันครบกำหนดชำระ)\s*:?\s*(` + date + `)`),
				Fields:  []statement.HeaderField{statement.FieldPaymentDueDate},
			},
			{
				Name:    "statement period",
				Pattern: regexp.MustCompile(`(?i)period\s*:?\s*(` + date + `)\s*(?:-|to|ถึง)\s*(` + date + `)`),
				Fields:  []statement.HeaderField{statement.FieldPeriodStart, statement.FieldPeriodEnd},
			},
			{
				Name:    "credit limit",
				Pattern: regexp.MustCompile(`(?i)(?:credit\s+limit|วงเงินบัตร)\s*(?:\(baht\))?\s*:?\s*(` + wholeOrDp + `)`),
				Fields:  []statement.HeaderField{statement.FieldCreditLimit},
			},
			{
				Name:    "min payment",
				Pattern: regexp.MustCompile(`(?i)(?:min(?:imum)?\.?\s*payment(?:\s+amount)?|ยอดชำระขั้นต่ำ)\s*:?\s*(` + amount + `)`),
				Fields:  []statement.HeaderField{statement.FieldMinPayment},
				Exclude: regexp.MustCompile(`(?i)total\s*min|ยอดชำระขั้นต่ำทั้งหมด`),
			},
			{
				Name:    "past due amount",
				Pattern: regexp.MustCompile(`(?i)(?:past\s*due(?:\s+amount)?|ยอดค้างชำระ)\s*:?\s*(` + amount + `)`),
				Fields:  []statement.HeaderField{statement.FieldPastDueAmount},
			},
			{
				Name:    "total min payment",
				Pattern: regexp.MustCompile(`(?i)(?:total\s*min(?:imum)?\.?\s*payment(?:\s+amount)?|ยอดชำระขั้นต่ำทั้งหมด)\s*:?\s*(` + amount + `)`),
				Fields:  []statement.HeaderField{statement.FieldTotalMinPayment},
			},
			{
				Name:    "outstanding balance",
				Pattern: regexp.MustCompile(`(?i)(?:outstanding\s+balance|ยอดคงค้าง)\s*:?\s*(` + amount + `)`),
				Fields:  []statement.HeaderField{statement.FieldOutstandingBalance},
			},
			{
				Name:    "previous balance",
				Pattern: regexp.MustCompile(`(?i)(?:previous\s+balance|ยอดยกมา)\s*:?\s*(` + amount + `)`),
				Fields:  []statement.HeaderField{statement.FieldPreviousBalance},
			},
			{
				Name:    "new balance",
				Pattern: regexp.MustCompile(`(?i)(?:new\s+balance|total\s+amount\s+due|ยอดเงินที่ต้องชำระ)\s*:?\s*(` + amount + `)`),
				Fields:  []statement.HeaderField{statement.FieldNewBalance},
			},
		},

		NoiseMarkers:       []string{"\uFFFD", "(cid:"},
		NoiseMinLength:     12,
		NoiseMinAlnumRatio: 0.3,

		PreviousBalance: regexp.MustCompile(`(?i)(?:previous\s*balance|ยอดยกมา)\s*:?\s*(-?[\d,]+\.\d{2})`),
		FXRow:           regexp.MustCompile(`^([A-Z]{3})\s+(-?[\d,]+\.\d{2})(?:\s*@\s*([\d.]+))?$`),

		// Two dates before one date: a one-date shape would otherwise read a
		// posting date as the start of a description.
		Shapes: []statement.TransactionShape{
			{
				Name:     "two-date",
				Prefix:   regexp.MustCompile(`(` + date + `)\s+(` + date + `)\s+`),
				Amount:   regexp.MustCompile(`\s+(` + amount + `)`),
				Boundary: regexp.MustCompile(`^(?:\s+` + date + `|\s*$)`),
			},
			{
				Name:     "one-date",
				Prefix:   regexp.MustCompile(`(` + date + `)\s+`),
				Amount:   regexp.MustCompile(`\s+(` + amount + `)`),
				Boundary: regexp.MustCompile(`^(?:\s+` + date + `|\s*$)`),
			},
		},

		ContinuationSkipPrefixes: []string{"page"},
		ContinuationSkipContains: []string{"transaction date"},

		RewardRow: regexp.MustCompile(`^(\d[\d,]*)\s+(\d[\d,]*)\s+(\d[\d,]*)\s+(\d[\d,]*)$`),
		RewardFields: []statement.RewardRule{
			{Pattern: regexp.MustCompile(`(?i)(?:previous|brought\s+forward|ยกมา)\D*?(\d[\d,]*)$`), Field: statement.RewardPrevious},
			{Pattern: regexp.MustCompile(`(?i)(?:earned|ได้รับ)\D*?(\d[\d,]*)$`), Field: statement.RewardEarned},
			{Pattern: regexp.MustCompile(`(?i)(?:redeemed|ใช้ไป)\D*?(\d[\d,]*)$`), Field: statement.RewardRedeemed},
			{Pattern: regexp.MustCompile(`(?i)(?:available|current|คงเหลือ)\D*?(\d[\d,]*)$`), Field: statement.RewardCurrent},
		},
	}
}
