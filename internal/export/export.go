// Package export writes table rows to xlsx workbooks
package export

import (
	"fmt"
	"io"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	TokensSheet       = "Tokens"
	TransactionsSheet = "Transactions"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	dateFormat  = "2006-01-02"
)

var tokenHeadings = []any{
	"ID", "Customer", "Truck", "Material", "Weight", "Rate/Ton",
	"Commission", "Total", "Paid", "Carry Forward", "Status", "Created",
}

var transactionHeadings = []any{
	"ID", "Date", "Flyash Amount", "Bedash Amount", "Total",
	"Flyash Tons", "Bedash Tons", "Payment Mode", "Bank", "Account Holder", "Reference",
}

// Tokens writes tokens as one sheet with a heading row
func Tokens(w io.Writer, tokens []models.Token) error {
	rows := make([][]any, 0, len(tokens))
	for _, t := range tokens {
		rows = append(rows, []any{
			t.ID, t.CustomerName, t.TruckNumber, string(t.MaterialType),
			num(t.Weight), num(t.RatePerTon), num(t.Commission), num(t.TotalAmount),
			num(t.PaidAmount), num(t.CarryForward), string(t.Status), t.CreatedAt.Format(dateFormat),
		})
	}
	return write(w, TokensSheet, tokenHeadings, rows)
}

// Transactions writes balance transactions as one sheet with a heading row
func Transactions(w io.Writer, txs []models.Transaction) error {
	rows := make([][]any, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, []any{
			tx.ID, tx.Date.Format(dateFormat), num(tx.FlyashAmount), num(tx.BedashAmount), num(tx.TotalAmount),
			num(tx.FlyashTons), num(tx.BedashTons), string(tx.PaymentMode),
			tx.BankName, tx.AccountHolder, tx.ReferenceNumber,
		})
	}
	return write(w, TransactionsSheet, transactionHeadings, rows)
}

func write(w io.Writer, sheet string, headings []any, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	// the default sheet takes our name so the workbook has exactly one
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &headings); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("error writing row %d: %w", i+1, err)
		}
	}
	return f.Write(w)
}

func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
