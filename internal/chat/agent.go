package chat

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/clairehq/claire/internal/ai"
	"github.com/clairehq/claire/internal/transaction"
)

// contextWindow is how much transaction history the agent can see.
const contextWindow = 90 * 24 * time.Hour

const agentInstruction = `You are Claire, a personal finance assistant. You answer questions
about the user's own spending using the financial summary below. Be concise,
practical, and non-judgmental. If the summary does not cover a question, say
so instead of guessing.

%s`

// Agent answers chat messages with Gemini, grounding every reply in a
// summary of the user's recent transactions.
type Agent struct {
	generator ai.ContentGenerator
	txs       Transactions
	now       func() time.Time
}

func NewAgent(generator ai.ContentGenerator, txs Transactions) *Agent {
	return &Agent{generator: generator, txs: txs, now: time.Now}
}

// financialContext condenses the user's recent transactions into prompt text.
// A query failure degrades to an empty summary rather than blocking the chat.
func (a *Agent) financialContext(ctx context.Context, userID int64) string {
	end := a.now()
	start := end.Add(-contextWindow)

	txs, err := a.txs.List(ctx, transaction.Filter{
		UserID:    &userID,
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil || len(txs) == 0 {
		return "Financial summary: no transaction data available yet. Suggest uploading a bank statement."
	}

	var (
		income   decimal.Decimal
		spend    decimal.Decimal
		currency string
		byCat    = map[transaction.Category]decimal.Decimal{}
		subs     int
	)

	for _, tx := range txs {
		if tx.Currency != "" {
			currency = tx.Currency
		}

		if tx.Type == transaction.TypeCredit {
			income = income.Add(tx.Amount)
			continue
		}

		spend = spend.Add(tx.Amount)
		byCat[tx.Category] = byCat[tx.Category].Add(tx.Amount)

		if tx.IsSubscription {
			subs++
		}
	}

	cats := make([]transaction.Category, 0, len(byCat))
	for cat := range byCat {
		cats = append(cats, cat)
	}

	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	var sb strings.Builder

	fmt.Fprintf(&sb, "Financial summary for %s to %s (%s):\n",
		start.Format(time.DateOnly), end.Format(time.DateOnly), currency)
	fmt.Fprintf(&sb, "- income: %s\n- spending: %s\n- subscription charges: %d\n",
		income.StringFixed(2), spend.StringFixed(2), subs)
	sb.WriteString("Spending by category:\n")

	for _, cat := range cats {
		fmt.Fprintf(&sb, "- %s: %s\n", cat, byCat[cat].StringFixed(2))
	}

	return sb.String()
}

func (a *Agent) buildRequest(ctx context.Context, userID int64, history []Message) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents := make([]*genai.Content, 0, len(history))

	for _, msg := range history {
		role := genai.RoleUser
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}

		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: fmt.Sprintf(agentInstruction, a.financialContext(ctx, userID))},
			},
		},
	}

	return contents, config
}

// Respond produces a full reply to the conversation so far.
func (a *Agent) Respond(ctx context.Context, userID int64, history []Message) (string, error) {
	contents, config := a.buildRequest(ctx, userID, history)

	resp, err := a.generator.GenerateContent(ctx, ai.ModelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("generating reply: %w", err)
	}

	if resp == nil {
		return "", fmt.Errorf("no response from model")
	}

	return resp.Text(), nil
}

// Stream yields reply chunks as the model produces them.
func (a *Agent) Stream(ctx context.Context, userID int64, history []Message) iter.Seq2[string, error] {
	contents, config := a.buildRequest(ctx, userID, history)

	return func(yield func(string, error) bool) {
		for resp, err := range a.generator.GenerateContentStream(ctx, ai.ModelName, contents, config) {
			if err != nil {
				yield("", fmt.Errorf("streaming reply: %w", err))
				return
			}

			if resp == nil {
				continue
			}

			if text := resp.Text(); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}
