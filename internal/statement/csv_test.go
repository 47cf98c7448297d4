package statement_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clairehq/claire/internal/statement"
	"github.com/clairehq/claire/internal/transaction"
)

func TestCSVParser_PortugueseAccount(t *testing.T) {
	input := strings.Join([]string{
		"Consultar saldos e movimentos à ordem",
		"",
		"Data mov.;Data valor;Descrição;Montante;Saldo",
		"02-06-2025;02-06-2025;COMPRA CONTINENTE;-45,30;1.204,70",
		"05-06-2025;05-06-2025;ORDENADO JUNHO;1.250,00;2.454,70",
		";;Saldo final;;2.454,70",
	}, "\n")

	rows, err := statement.NewCSVParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "COMPRA CONTINENTE", rows[0].Description)
	assert.Equal(t, transaction.TypeDebit, rows[0].Type)
	assert.Equal(t, "45.3", rows[0].Amount.String())
	require.NotNil(t, rows[0].Balance)
	assert.Equal(t, "1204.7", rows[0].Balance.String())

	assert.Equal(t, transaction.TypeCredit, rows[1].Type)
	assert.Equal(t, "1250", rows[1].Amount.String())
	assert.Equal(t, 2025, rows[1].Date.Year())
	assert.Equal(t, 6, int(rows[1].Date.Month()))
	assert.Equal(t, 5, rows[1].Date.Day())
}

func TestCSVParser_SplitDebitCredit(t *testing.T) {
	input := strings.Join([]string{
		"Data;Descrição;Débito;Crédito",
		"10-06-2025;NETFLIX.COM;12,99;",
		"11-06-2025;ESTORNO COMPRA;;30,00",
	}, "\n")

	rows, err := statement.NewCSVParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, transaction.TypeDebit, rows[0].Type)
	assert.Equal(t, "12.99", rows[0].Amount.String())
	assert.Equal(t, transaction.TypeCredit, rows[1].Type)
	assert.Equal(t, "30", rows[1].Amount.String())
}

func TestCSVParser_GenericEnglishCommaDelimited(t *testing.T) {
	input := strings.Join([]string{
		"Date,Description,Amount,Balance",
		"2025-06-01,SPOTIFY SUBSCRIPTION,-9.99,990.01",
		"2025-06-02,SALARY,2500.00,3490.01",
	}, "\n")

	rows, err := statement.NewCSVParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "SPOTIFY SUBSCRIPTION", rows[0].Description)
	assert.Equal(t, transaction.TypeDebit, rows[0].Type)
	assert.Equal(t, "9.99", rows[0].Amount.String())
	assert.Equal(t, transaction.TypeCredit, rows[1].Type)
}

func TestCSVParser_UnknownLayout(t *testing.T) {
	input := "Foo;Bar\n1;2\n"

	_, err := statement.NewCSVParser().Parse(strings.NewReader(input))
	assert.Error(t, err)
}

func TestCSVParser_SkipsZeroAmounts(t *testing.T) {
	input := strings.Join([]string{
		"Date,Description,Amount",
		"2025-06-01,FEE WAIVED,0.00",
		"2025-06-02,COFFEE,-3.50",
	}, "\n")

	rows, err := statement.NewCSVParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "COFFEE", rows[0].Description)
}
