package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/clairehq/claire/internal/ai"
	"github.com/clairehq/claire/internal/transaction"
)

const classifyTimeout = time.Minute

// ModelClassifier asks Gemini which transactions look like recurring
// subscription charges.
type ModelClassifier struct {
	generator ai.ContentGenerator
}

func NewModelClassifier(generator ai.ContentGenerator) *ModelClassifier {
	return &ModelClassifier{generator: generator}
}

const classifyPrompt = `You are classifying bank transactions as subscription charges or not.

A subscription is a recurring charge from the same merchant for an ongoing
service: streaming, software, gym memberships, insurance premiums, phone
plans. One-off purchases, groceries, transfers and cash withdrawals are not
subscriptions.

For each transaction below return a verdict:
- transaction_id: copied verbatim from the input
- is_subscription: whether this looks like a recurring subscription charge
- confidence: 0 to 1
- merchant_key: a stable lowercase snake_case key for the merchant ("netflix", "spotify")
- subscription_name: a human-readable service name ("Netflix")
- reason_codes: short machine-readable reasons for the verdict

Return a verdict for every transaction. Transactions:

%s`

func (c *ModelClassifier) Classify(ctx context.Context, txs []*transaction.Transaction) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	var sb strings.Builder
	for _, tx := range txs {
		fmt.Fprintf(&sb, "- id=%s date=%s amount=%s %s description=%q merchant=%q\n",
			tx.ID, tx.Date.Format(time.DateOnly), tx.Amount.String(), tx.Currency, tx.Description, tx.MerchantName)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: fmt.Sprintf(classifyPrompt, sb.String())}},
		},
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
					"transaction_id":    {Type: genai.TypeString},
					"is_subscription":   {Type: genai.TypeBoolean},
					"confidence":        {Type: genai.TypeNumber},
					"merchant_key":      {Type: genai.TypeString},
					"subscription_name": {Type: genai.TypeString},
					"reason_codes":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				},
				Required: []string{"transaction_id", "is_subscription", "confidence"},
			},
		},
	}

	resp, err := c.generator.GenerateContent(ctx, ai.ModelName, contents, config)
	if err != nil {
		return nil, fmt.Errorf("classifying transactions: %w", err)
	}

	if resp == nil {
		return nil, fmt.Errorf("no response from model")
	}

	jsonText := ai.ExtractJSON(resp.Text())
	if jsonText == "" {
		return nil, fmt.Errorf("no JSON in model response")
	}

	var results []Result
	if err := json.Unmarshal([]byte(jsonText), &results); err != nil {
		return nil, fmt.Errorf("parsing classification response: %w", err)
	}

	return results, nil
}
