package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clairehq/claire/internal/encoding"
	"github.com/clairehq/claire/internal/transaction"
)

// amountMode determines how amounts are extracted from a row.
type amountMode int

const (
	// amountSingle means one signed column ("Amount" with value "-10,00").
	amountSingle amountMode = iota
	// amountSplit means separate debit and credit columns.
	amountSplit
)

// profile describes the column layout of a bank CSV export. Adding support
// for a new bank is adding a profile here.
type profile struct {
	name       string
	dateCol    string
	descCol    string
	amountMode amountMode
	amountCol  string // amountSingle
	debitCol   string // amountSplit
	creditCol  string // amountSplit
	balanceCol string // optional
}

func (p profile) requiredCols() []string {
	cols := []string{p.dateCol, p.descCol}

	switch p.amountMode {
	case amountSingle:
		cols = append(cols, p.amountCol)
	case amountSplit:
		cols = append(cols, p.debitCol, p.creditCol)
	}

	return cols
}

// profiles is tried in order; more specific layouts come first.
var profiles = []profile{
	{
		name:       "card (pt)",
		dateCol:    "Data",
		descCol:    "Descrição",
		amountMode: amountSplit,
		debitCol:   "Débito",
		creditCol:  "Crédito",
	},
	{
		name:       "account (pt)",
		dateCol:    "Data mov.",
		descCol:    "Descrição",
		amountMode: amountSingle,
		amountCol:  "Montante",
		balanceCol: "Saldo",
	},
	{
		name:       "generic (en)",
		dateCol:    "Date",
		descCol:    "Description",
		amountMode: amountSingle,
		amountCol:  "Amount",
		balanceCol: "Balance",
	},
}

// dateFormats is tried in order per cell. Day-first formats come before the
// ambiguous month-first one since the supported bank exports are European.
var dateFormats = []string{
	time.DateOnly,
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
}

// CSVParser reads bank CSV exports, detecting the encoding, delimiter and
// column layout.
type CSVParser struct{}

func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

func (p *CSVParser) Parse(r io.Reader) ([]Row, error) {
	utf8r, err := encoding.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detecting encoding: %w", err)
	}

	raw, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	for _, comma := range []rune{';', ','} {
		rows, err := readAll(string(raw), comma)
		if err != nil {
			continue
		}

		prof, cols, headerIdx := detectProfile(rows)
		if prof == nil {
			continue
		}

		return parseRows(prof, cols, rows[headerIdx+1:])
	}

	return nil, fmt.Errorf("no known statement layout found")
}

func readAll(raw string, comma rune) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	return reader.ReadAll()
}

type colIndex map[string]int

// detectProfile scans rows for a header matching a known profile. Export
// files often carry preamble lines before the header, so every row is a
// candidate.
func detectProfile(rows [][]string) (*profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			if name := strings.TrimSpace(cell); name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

func parseRows(p *profile, cols colIndex, rows [][]string) ([]Row, error) {
	var out []Row

	for _, row := range rows {
		date, ok := parseDate(cellValue(row, cols[p.dateCol]))
		if !ok {
			// Footer or summary line.
			continue
		}

		desc := cellValue(row, cols[p.descCol])
		if desc == "" {
			continue
		}

		amount, txType, ok := parseRowAmount(p, cols, row)
		if !ok {
			continue
		}

		parsed := Row{
			Date:        date,
			Description: desc,
			Amount:      amount,
			Type:        txType,
		}

		if p.balanceCol != "" {
			if bal, err := parseAmount(cellValue(row, cols[p.balanceCol])); err == nil {
				parsed.Balance = &bal
			}
		}

		out = append(out, parsed)
	}

	return out, nil
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func parseRowAmount(p *profile, cols colIndex, row []string) (decimal.Decimal, transaction.Type, bool) {
	switch p.amountMode {
	case amountSingle:
		return parseSingleAmount(cellValue(row, cols[p.amountCol]))
	case amountSplit:
		return parseSplitAmount(cellValue(row, cols[p.debitCol]), cellValue(row, cols[p.creditCol]))
	}

	return decimal.Zero, "", false
}

func parseSingleAmount(s string) (decimal.Decimal, transaction.Type, bool) {
	amount, err := parseAmount(s)
	if err != nil || amount.IsZero() {
		return decimal.Zero, "", false
	}

	if amount.IsNegative() {
		return amount.Neg(), transaction.TypeDebit, true
	}

	return amount, transaction.TypeCredit, true
}

func parseSplitAmount(debit, credit string) (decimal.Decimal, transaction.Type, bool) {
	if amount, err := parseAmount(debit); err == nil && !amount.IsZero() {
		return amount.Abs(), transaction.TypeDebit, true
	}

	if amount, err := parseAmount(credit); err == nil && !amount.IsZero() {
		return amount.Abs(), transaction.TypeCredit, true
	}

	return decimal.Zero, "", false
}

// parseAmount accepts both European formatting ("1.234,56") and plain
// decimal notation ("1234.56").
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	return decimal.NewFromString(s)
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
