package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/clairehq/claire/internal/transaction"
)

// header is the column layout of an exported statement. Stable order so
// downstream spreadsheets can rely on it.
var header = []string{
	"date",
	"description",
	"merchant",
	"amount",
	"type",
	"category",
	"currency",
	"subscription",
}

// Service renders extracted transactions as a downloadable CSV statement.
type Service struct {
	transactions *transaction.Service
}

func NewService(txService *transaction.Service) *Service {
	return &Service{transactions: txService}
}

// Export writes the transactions matching the filter to w as CSV and
// returns the number of data rows written.
func (s *Service) Export(ctx context.Context, w io.Writer, filter transaction.Filter) (int, error) {
	txs, err := s.transactions.List(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("listing transactions: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	for _, t := range txs {
		row := []string{
			t.Date.Format("2006-01-02"),
			t.Description,
			t.MerchantName,
			t.Amount.StringFixed(2),
			string(t.Type),
			string(t.Category),
			t.Currency,
			fmt.Sprintf("%t", t.IsSubscription),
		}

		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("writing row for transaction %s: %w", t.ID, err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flushing csv: %w", err)
	}

	return len(txs), nil
}

// Summary builds a plain-text digest of the transactions matching the
// filter, one line per transaction plus a net total.
func (s *Service) Summary(ctx context.Context, filter transaction.Filter) (string, error) {
	txs, err := s.transactions.List(ctx, filter)
	if err != nil {
		return "", fmt.Errorf("listing transactions: %w", err)
	}

	var sb strings.Builder

	net := decimal.Zero

	for _, t := range txs {
		sign := "-"
		amount := t.Amount

		if t.Type == transaction.TypeCredit {
			sign = "+"
			net = net.Add(amount)
		} else {
			net = net.Sub(amount)
		}

		sb.WriteString(fmt.Sprintf("* %s | %s | %s%s %s\n",
			t.Date.Format("2006-01-02"), t.Description, sign, amount.StringFixed(2), t.Currency))
	}

	sb.WriteString(fmt.Sprintf("Net: %s\n", net.StringFixed(2)))

	return sb.String(), nil
}
