package plan_test

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/clairehq/claire/internal/ai"
	"github.com/clairehq/claire/internal/plan"
	"github.com/clairehq/claire/internal/transaction"
)

type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) GenerateContent(
	context.Context, string, []*genai.Content, *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
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
	context.Context, string, []*genai.Content, *genai.GenerateContentConfig,
) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(func(*genai.GenerateContentResponse, error) bool) {}
}

var _ ai.ContentGenerator = (*fakeGenerator)(nil)

func spendingTxs() []*transaction.Transaction {
	return []*transaction.Transaction{
		{Type: transaction.TypeDebit, Amount: decimal.NewFromInt(800), Category: transaction.CategoryHousing, Currency: "EUR"},
		{Type: transaction.TypeDebit, Amount: decimal.NewFromInt(200), Category: transaction.CategoryGroceries, Currency: "EUR"},
		{Type: transaction.TypeCredit, Amount: decimal.NewFromInt(3000), Currency: "EUR"},
	}
}

const modelPlans = `[
	{"title": "Cook more at home", "summary": "Cut delivery spend.", "expected_amount": 500, "confidence": "high", "actions": [
		{"label": "Plan meals on Sunday", "type": "shift_spend", "weekly_frequency": 1, "estimated_value": 200},
		{"label": "Skip delivery twice a week", "type": "cut_spend", "weekly_frequency": 2, "estimated_value": 200},
		{"label": "Batch-cook lunches", "type": "cut_spend", "weekly_frequency": 1, "estimated_value": 100}
	]},
	{"title": "Declutter for cash", "summary": "Sell what you do not use.", "expected_amount": 500, "confidence": "prophetic", "actions": [
		{"label": "List 5 items", "type": "one_time_cleanup", "weekly_frequency": 1, "estimated_value": 300},
		{"label": "Drop prices weekly", "type": "teleport", "weekly_frequency": 1, "estimated_value": 100},
		{"label": "Take one gig task", "type": "increase_income", "weekly_frequency": 1, "estimated_value": 100}
	]},
	{"title": "Subscription audit", "summary": "Cancel the unused ones.", "expected_amount": 500, "confidence": "med", "actions": [
		{"label": "List recurring charges", "type": "cut_spend", "weekly_frequency": 1, "estimated_value": 100},
		{"label": "Cancel two services", "type": "cut_spend", "weekly_frequency": 1, "estimated_value": 300},
		{"label": "Set a renewal reminder", "type": "shift_spend", "weekly_frequency": 1, "estimated_value": 100}
	]}
]`

func TestModelGenerator_Generate(t *testing.T) {
	gen := &fakeGenerator{text: modelPlans}

	target := decimal.NewFromInt(500)
	plans := plan.NewModelGenerator(gen).Generate(context.Background(), spendingTxs(), target, 30)
	require.Len(t, plans, plan.PlanCount)

	p := plans[0]
	assert.Equal(t, "Cook more at home", p.Title)
	assert.Equal(t, plan.StatusGenerated, p.Status)
	assert.Equal(t, plan.ConfidenceHigh, p.Confidence)
	assert.True(t, p.TargetAmount.Equal(target))
	assert.Equal(t, "EUR", p.Currency)
	assert.Equal(t, 30, p.TimeframeDays)
	assert.Len(t, p.Actions, plan.ActionCount)
	assert.Equal(t, plan.NewProgress(), p.ActionsProgress)

	// Out-of-set confidence and action types fall back to safe values.
	assert.Equal(t, plan.ConfidenceMed, plans[1].Confidence)
	assert.Equal(t, plan.ActionCutSpend, plans[1].Actions[1].Type)
}

func TestModelGenerator_FallbackOnModelError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model down")}

	target := decimal.NewFromInt(600)
	plans := plan.NewModelGenerator(gen).Generate(context.Background(), spendingTxs(), target, 30)
	require.Len(t, plans, plan.PlanCount)

	for _, p := range plans {
		assert.NotEmpty(t, p.Title)
		assert.Len(t, p.Actions, plan.ActionCount)
		assert.Equal(t, plan.StatusGenerated, p.Status)
		assert.True(t, p.ExpectedAmount.Equal(target))

		// Action estimates are shares of the target.
		total := decimal.Zero
		for _, a := range p.Actions {
			require.NotNil(t, a.EstimatedValue)
			total = total.Add(*a.EstimatedValue)
		}
		assert.True(t, total.Equal(target), "estimates sum to target, got %s", total)
	}
}

func TestModelGenerator_FallbackOnWrongPlanCount(t *testing.T) {
	gen := &fakeGenerator{text: `[{"title": "Only one", "summary": "s", "expected_amount": 1, "confidence": "low", "actions": [
		{"label": "a", "type": "cut_spend"}, {"label": "b", "type": "cut_spend"}, {"label": "c", "type": "cut_spend"}
	]}]`}

	plans := plan.NewModelGenerator(gen).Generate(context.Background(), spendingTxs(), decimal.NewFromInt(500), 30)
	assert.Len(t, plans, plan.PlanCount)
	assert.Equal(t, "Trim discretionary spend", plans[0].Title)
}

func TestModelGenerator_FallbackOnGarbageOutput(t *testing.T) {
	gen := &fakeGenerator{text: "here are some thoughts, no JSON though"}

	plans := plan.NewModelGenerator(gen).Generate(context.Background(), spendingTxs(), decimal.NewFromInt(500), 30)
	assert.Len(t, plans, plan.PlanCount)
}
