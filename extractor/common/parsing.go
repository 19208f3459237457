package common

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the dd/mm/yyyy layout printed on statements.
const DateLayout = "02/01/2006"

var (
	nonNumericRegex  = regexp.MustCompile(`[^0-9.\-]`)
	dateTokenRegex   = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	amountTokenRegex = regexp.MustCompile(`-?\d[\d,]*\.\d{2}`)
)

// CleanDecimal parses a string into a decimal.Decimal, dropping thousands
// separators, currency labels and any other non-numeric characters. A leading
// minus sign is kept.
func CleanDecimal(text string) (decimal.Decimal, error) {
	cleanText := nonNumericRegex.ReplaceAllString(text, "")
	negative := strings.HasPrefix(cleanText, "-")
	cleanText = strings.ReplaceAll(cleanText, "-", "")
	if cleanText == "" {
		return decimal.Zero, fmt.Errorf("no digits in %q", text)
	}
	amount, err := decimal.NewFromString(cleanText)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", text, err)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// ParseAmount is CleanDecimal wrapped into an Amount.
func ParseAmount(text string) (Amount, error) {
	d, err := CleanDecimal(text)
	if err != nil {
		return Amount{}, err
	}
	return NewAmount(d), nil
}

// ParseRate is CleanDecimal wrapped into a Rate; no rounding is applied.
func ParseRate(text string) (Rate, error) {
	d, err := CleanDecimal(text)
	if err != nil {
		return Rate{}, err
	}
	return Rate{Decimal: d}, nil
}

// ParseDate parses a dd/mm/yyyy date. Dates are kept in UTC so that parsing
// never depends on the host time zone.
func ParseDate(value string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return Date{Time: t}, nil
}

// FindDates returns every dd/mm/yyyy token in text, in order.
func FindDates(text string) []string {
	return dateTokenRegex.FindAllString(text, -1)
}

// FindAmounts returns every decimal amount token (two fraction digits) in text.
func FindAmounts(text string) []string {
	return amountTokenRegex.FindAllString(text, -1)
}

// FindAmountIndexes is FindAmounts with byte offsets.
func FindAmountIndexes(text string) [][]int {
	return amountTokenRegex.FindAllStringIndex(text, -1)
}
