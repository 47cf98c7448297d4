package statement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/clairehq/claire/internal/ai"
	"github.com/clairehq/claire/internal/transaction"
)

const extractTimeout = 2 * time.Minute

// PDFExtractor pulls transactions out of PDF statements with Gemini.
type PDFExtractor struct {
	generator ai.ContentGenerator
}

func NewPDFExtractor(generator ai.ContentGenerator) *PDFExtractor {
	return &PDFExtractor{generator: generator}
}

const extractPrompt = `Extract every transaction from this bank statement.

For each transaction return:
- date: the transaction date as YYYY-MM-DD
- description: the raw description as printed
- merchant_name: the merchant or counterparty name, cleaned up
- amount: the absolute amount as a positive number
- type: "debit" for money leaving the account, "credit" for money coming in
- balance: the balance after the transaction if the statement shows one, else null
- reference_number: the reference number if present, else ""
- transaction_code: the bank's transaction code if present, else ""
- category: the best matching spending category
- currency: the ISO 4217 currency code of the statement

Return every transaction, in statement order. Do not invent transactions.`

type extractedRow struct {
	Date            string   `json:"date"`
	Description     string   `json:"description"`
	MerchantName    string   `json:"merchant_name"`
	Amount          float64  `json:"amount"`
	Type            string   `json:"type"`
	Balance         *float64 `json:"balance"`
	ReferenceNumber string   `json:"reference_number"`
	TransactionCode string   `json:"transaction_code"`
	Category        string   `json:"category"`
	Currency        string   `json:"currency"`
}

func (e *PDFExtractor) Extract(ctx context.Context, pdf []byte) ([]Row, error) {
	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: "application/pdf", Data: pdf}},
				{Text: extractPrompt},
			},
		},
	}

	categories := make([]string, len(transaction.Categories))
	for i, c := range transaction.Categories {
		categories[i] = string(c)
	}

	temp := float32(0)
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: "You are a JSON API. You MUST respond with ONLY valid JSON, no preamble or explanation. Output a single JSON array."},
			},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"date":             {Type: genai.TypeString},
					"description":      {Type: genai.TypeString},
					"merchant_name":    {Type: genai.TypeString},
					"amount":           {Type: genai.TypeNumber},
					"type":             {Type: genai.TypeString, Enum: []string{"debit", "credit"}},
					"balance":          {Type: genai.TypeNumber, Nullable: genai.Ptr(true)},
					"reference_number": {Type: genai.TypeString},
					"transaction_code": {Type: genai.TypeString},
					"category":         {Type: genai.TypeString, Enum: categories},
					"currency":         {Type: genai.TypeString},
				},
				Required: []string{"date", "description", "amount", "type"},
			},
		},
	}

	resp, err := e.generator.GenerateContent(ctx, ai.ModelName, contents, config)
	if err != nil {
		return nil, fmt.Errorf("extracting statement: %w", err)
	}

	if resp == nil {
		return nil, fmt.Errorf("no response from model")
	}

	jsonText := ai.ExtractJSON(resp.Text())
	if jsonText == "" {
		return nil, fmt.Errorf("no JSON in model response")
	}

	var extracted []extractedRow
	if err := json.Unmarshal([]byte(jsonText), &extracted); err != nil {
		return nil, fmt.Errorf("parsing extraction response: %w", err)
	}

	rows := make([]Row, 0, len(extracted))

	for _, raw := range extracted {
		date, err := time.Parse(time.DateOnly, raw.Date)
		if err != nil {
			// One bad date should not sink the whole statement.
			continue
		}

		txType := transaction.Type(raw.Type)
		if txType != transaction.TypeDebit && txType != transaction.TypeCredit {
			continue
		}

		row := Row{
			Date:            date,
			Description:     raw.Description,
			MerchantName:    raw.MerchantName,
			Amount:          decimal.NewFromFloat(raw.Amount).Abs(),
			Type:            txType,
			ReferenceNumber: raw.ReferenceNumber,
			TransactionCode: raw.TransactionCode,
			Category:        transaction.NormalizeCategory(raw.Category),
			Currency:        raw.Currency,
		}

		if raw.Balance != nil {
			bal := decimal.NewFromFloat(*raw.Balance)
			row.Balance = &bal
		}

		rows = append(rows, row)
	}

	return rows, nil
}
