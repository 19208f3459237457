package extractor

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/miwtoo/credit-card-extraction/extractor/common"
)

type csvTransaction struct {
	Date            string `csv:"date"`
	PostDate        string `csv:"post_date"`
	Description     string `csv:"description"`
	Amount          string `csv:"amount"`
	Currency        string `csv:"currency"`
	ForeignAmount   string `csv:"foreign_amount"`
	ForeignCurrency string `csv:"foreign_currency"`
	ConversionRate  string `csv:"conversion_rate"`
	Notes           string `csv:"notes"`
}

// WriteTransactionsCSV writes transactions as CSV with a header row.
func WriteTransactionsCSV(w io.Writer, transactions []common.Transaction) error {
	rows := make([]*csvTransaction, 0, len(transactions))
	for _, tx := range transactions {
		row := &csvTransaction{
			Date:            tx.Date.String(),
			PostDate:        tx.PostDate.String(),
			Description:     tx.Description,
			Amount:          tx.Amount.StringFixed(2),
			Currency:        tx.Currency,
			ForeignCurrency: tx.ForeignCurrency,
			Notes:           tx.Notes,
		}
		if tx.ForeignAmount != nil {
			row.ForeignAmount = tx.ForeignAmount.StringFixed(2)
		}
		if tx.ConversionRate != nil {
			row.ConversionRate = tx.ConversionRate.String()
		}
		rows = append(rows, row)
	}
	return gocsv.Marshal(rows, w)
}
