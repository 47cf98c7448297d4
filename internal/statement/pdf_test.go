package statement_test

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/clairehq/claire/internal/ai"
	"github.com/clairehq/claire/internal/statement"
	"github.com/clairehq/claire/internal/transaction"
)

type fakeGenerator struct {
	text string
	err  error

	gotContents []*genai.Content
	gotConfig   *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(
	_ context.Context,
	_ string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.gotContents = contents
	f.gotConfig = config

	if f.err != nil {
		return nil, f.err
	}

	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}}},
		},
	}, nil
}

func (f *fakeGenerator) GenerateContentStream(
	context.Context,
	string,
	[]*genai.Content,
	*genai.GenerateContentConfig,
) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(func(*genai.GenerateContentResponse, error) bool) {}
}

var _ ai.ContentGenerator = (*fakeGenerator)(nil)

func TestPDFExtractor_Extract(t *testing.T) {
	gen := &fakeGenerator{text: `[
		{
			"date": "2025-06-02",
			"description": "COMPRA 1234 CONTINENTE LX",
			"merchant_name": "Continente",
			"amount": 45.30,
			"type": "debit",
			"balance": 1204.70,
			"reference_number": "REF001",
			"transaction_code": "POS",
			"category": "groceries",
			"currency": "EUR"
		},
		{
			"date": "2025-06-05",
			"description": "TRF ORDENADO",
			"merchant_name": "Acme Lda",
			"amount": 1250,
			"type": "credit",
			"balance": null,
			"reference_number": "",
			"transaction_code": "",
			"category": "income",
			"currency": "EUR"
		}
	]`}

	rows, err := statement.NewPDFExtractor(gen).Extract(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Continente", rows[0].MerchantName)
	assert.Equal(t, transaction.TypeDebit, rows[0].Type)
	assert.Equal(t, "45.3", rows[0].Amount.String())
	assert.Equal(t, transaction.CategoryGroceries, rows[0].Category)
	require.NotNil(t, rows[0].Balance)
	assert.Nil(t, rows[1].Balance)

	// The PDF travels inline with the prompt.
	require.Len(t, gen.gotContents, 1)
	require.Len(t, gen.gotContents[0].Parts, 2)
	assert.Equal(t, "application/pdf", gen.gotContents[0].Parts[0].InlineData.MIMEType)
	assert.Equal(t, "application/json", gen.gotConfig.ResponseMIMEType)
}

func TestPDFExtractor_SkipsMalformedRows(t *testing.T) {
	gen := &fakeGenerator{text: `[
		{"date": "not-a-date", "description": "BAD", "amount": 1, "type": "debit"},
		{"date": "2025-06-01", "description": "MYSTERY", "amount": 5, "type": "transfer"},
		{"date": "2025-06-02", "description": "OK", "amount": 3.50, "type": "debit", "category": "jetpacks"}
	]`}

	rows, err := statement.NewPDFExtractor(gen).Extract(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "OK", rows[0].Description)
	assert.Equal(t, transaction.CategoryOther, rows[0].Category)
}

func TestPDFExtractor_ModelError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}

	_, err := statement.NewPDFExtractor(gen).Extract(context.Background(), []byte("%PDF-1.4"))
	assert.Error(t, err)
}

func TestPDFExtractor_NoJSON(t *testing.T) {
	gen := &fakeGenerator{text: "I could not read this statement."}

	_, err := statement.NewPDFExtractor(gen).Extract(context.Background(), []byte("%PDF-1.4"))
	assert.Error(t, err)
}
