package common

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanDecimal_SimpleNumber(t *testing.T) {
	result, err := CleanDecimal("123.45")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.String() != "123.45" {
		t.Errorf("Expected '123.45', got '%s'", result.String())
	}
}

func TestCleanDecimal_WithCommas(t *testing.T) {
	result, err := CleanDecimal("1,234.56")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.String() != "1234.56" {
		t.Errorf("Expected '1234.56', got '%s'", result.String())
	}
}

func TestCleanDecimal_WithCurrencySymbol(t *testing.T) {
	result, err := CleanDecimal("THB 1,234.56")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.String() != "1234.56" {
		t.Errorf("Expected '1234.56', got '%s'", result.String())
	}
}

func TestCleanDecimal_WithSuffix(t *testing.T) {
	result, err := CleanDecimal("100.00CR")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.String() != "100" {
		t.Errorf("Expected '100', got '%s'", result.String())
	}
}

func TestCleanDecimal_NegativeSign(t *testing.T) {
	result, err := CleanDecimal("-5,000.00")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.String() != "-5000" {
		t.Errorf("Expected '-5000', got '%s'", result.String())
	}
}

func TestCleanDecimal_NoDigits(t *testing.T) {
	for _, input := range []string{"", "ABC", "-"} {
		if _, err := CleanDecimal(input); err == nil {
			t.Errorf("Expected error for %q, got nil", input)
		}
	}
}

func TestCleanDecimal_LargeNumber(t *testing.T) {
	result, err := CleanDecimal("1,234,567.89")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.String() != "1234567.89" {
		t.Errorf("Expected '1234567.89', got '%s'", result.String())
	}
}

func TestParseDate_ValidDate(t *testing.T) {
	result, err := ParseDate("15/11/2024")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Day() != 15 {
		t.Errorf("Expected day 15, got %d", result.Day())
	}
	if result.Month() != time.November {
		t.Errorf("Expected month 11, got %d", result.Month())
	}
	if result.Year() != 2024 {
		t.Errorf("Expected year 2024, got %d", result.Year())
	}
	if result.Location() != time.UTC {
		t.Errorf("Expected UTC, got %s", result.Location())
	}
}

func TestParseDate_InvalidDate(t *testing.T) {
	for _, input := range []string{"invalid", "31/02/2025", "2025-01-01", "1/1/2025"} {
		if _, err := ParseDate(input); err == nil {
			t.Errorf("Expected error for %q, got nil", input)
		}
	}
}

func TestFindTokens(t *testing.T) {
	text := "08/12/2025 11/12/2025 KINSHO 1,393.71 JPY 2,580.00 REF 1234"

	assert.Equal(t, []string{"08/12/2025", "11/12/2025"}, FindDates(text))
	assert.Equal(t, []string{"1,393.71", "2,580.00"}, FindAmounts(text))

	idx := FindAmountIndexes(text)
	require.Len(t, idx, 2)
	assert.Equal(t, "2,580.00", text[idx[1][0]:idx[1][1]])

	assert.Equal(t, []string{"-50.00", "393.71"}, FindAmounts("REFUND -50.00 FEE 393.71CR"))
}

func TestAmountJSON(t *testing.T) {
	b, err := json.Marshal(NewAmount(decimal.RequireFromString("1234.5")))
	require.NoError(t, err)
	assert.Equal(t, "1234.50", string(b))

	var a Amount
	require.NoError(t, json.Unmarshal([]byte("-12.30"), &a))
	assert.Equal(t, "-12.30", a.StringFixed(2))
}

func TestRateJSONKeepsPrecision(t *testing.T) {
	b, err := json.Marshal(RateFromString("0.1526"))
	require.NoError(t, err)
	assert.Equal(t, "0.1526", string(b))

	var r Rate
	require.NoError(t, json.Unmarshal([]byte("35.123456"), &r))
	assert.Equal(t, "35.123456", r.String())
}

func TestParseRate(t *testing.T) {
	r, err := ParseRate("0.1526")
	require.NoError(t, err)
	assert.Equal(t, "0.1526", r.String())

	_, err = ParseRate("@")
	assert.Error(t, err)
}

func TestTransactionJSONConversionRate(t *testing.T) {
	rate := RateFromString("0.1526")
	foreign := AmountFromString("2580")
	tx := Transaction{
		Date:            NewDate(2025, time.December, 1),
		PostDate:        NewDate(2025, time.December, 2),
		Description:     "KINSHO STORE",
		Amount:          AmountFromString("393.71"),
		Currency:        "THB",
		ForeignAmount:   &foreign,
		ForeignCurrency: "JPY",
		ConversionRate:  &rate,
	}

	b, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"date": "2025-12-01",
		"post_date": "2025-12-02",
		"description": "KINSHO STORE",
		"amount": 393.71,
		"currency": "THB",
		"foreign_amount": 2580.00,
		"foreign_currency": "JPY",
		"conversion_rate": 0.1526
	}`, string(b))
	assert.Contains(t, string(b), `"conversion_rate":0.1526`)
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2026, time.January, 5)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-01-05"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)
}

func TestNewExtractionResultJSON(t *testing.T) {
	b, err := json.Marshal(NewExtractionResult("TTB"))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"statement": {
			"bank_name": "TTB",
			"account_last4": "UNKNOWN",
			"statement_date": null,
			"payment_due_date": null,
			"period_start": null,
			"period_end": null,
			"previous_balance": 0.00,
			"new_balance": 0.00,
			"outstanding_balance": 0.00,
			"credit_limit": 0.00,
			"min_payment": 0.00,
			"past_due_amount": 0.00,
			"total_min_payment": 0.00
		},
		"transactions": [],
		"rewards": null,
		"validation": {"errors": [], "warnings": []}
	}`, string(b))
}
