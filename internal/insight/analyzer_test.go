package insight_test

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/clairehq/claire/internal/ai"
	"github.com/clairehq/claire/internal/insight"
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

var (
	windowStart = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
)

func sampleTxs() []*transaction.Transaction {
	conf := 0.9

	return []*transaction.Transaction{
		{Type: transaction.TypeCredit, Amount: decimal.NewFromInt(3000), Currency: "EUR"},
		{Type: transaction.TypeDebit, Amount: decimal.NewFromInt(800), Category: transaction.CategoryHousing, Currency: "EUR"},
		{Type: transaction.TypeDebit, Amount: decimal.NewFromInt(200), Category: transaction.CategoryGroceries, Currency: "EUR"},
		{
			Type: transaction.TypeDebit, Amount: decimal.NewFromFloat(12.99),
			Category: transaction.CategorySubscriptions, Currency: "EUR",
			IsSubscription: true, SubscriptionStatus: transaction.SubscriptionConfirmed,
			SubscriptionConfidence: &conf,
		},
	}
}

func TestModelAnalyzer_Generate(t *testing.T) {
	gen := &fakeGenerator{text: `[
		{"type": "pattern", "title": "Housing dominates", "description": "Housing was 800 of 1012.99 spent.", "icon": "trending_up", "confidence": 0.95},
		{"type": "alert", "title": "Subscription creep", "description": "Recurring charges total 12.99.", "icon": "credit_card", "confidence": 0.7},
		{"type": "recommendation", "title": "Save the surplus", "description": "You have room to save.", "icon": "nonsense_icon", "confidence": 1.4},
		{"type": "prophecy", "title": "Bad type", "description": "Dropped.", "confidence": 0.5}
	]`}

	insights := insight.NewModelAnalyzer(gen).Generate(context.Background(), sampleTxs(), windowStart, windowEnd)
	require.Len(t, insights, 3)

	assert.Equal(t, insight.TypePattern, insights[0].Type)
	// Unknown icon falls back, confidence is clamped.
	assert.Equal(t, "lightbulb", insights[2].Icon)
	assert.Equal(t, 1.0, insights[2].Confidence)

	for _, ins := range insights {
		require.NotNil(t, ins.TimeRangeStart)
		assert.Equal(t, windowStart, *ins.TimeRangeStart)
	}
}

func TestModelAnalyzer_FallbackOnModelError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model down")}

	insights := insight.NewModelAnalyzer(gen).Generate(context.Background(), sampleTxs(), windowStart, windowEnd)
	require.NotEmpty(t, insights)

	types := map[insight.Type]bool{}
	for _, ins := range insights {
		types[ins.Type] = true
	}

	// Deterministic fallbacks cover all three buckets for this dataset.
	assert.True(t, types[insight.TypePattern])
	assert.True(t, types[insight.TypeAlert])
	assert.True(t, types[insight.TypeRecommendation])
}

func TestModelAnalyzer_FallbackOnGarbageOutput(t *testing.T) {
	gen := &fakeGenerator{text: "I'm sorry, I can't help with that."}

	insights := insight.NewModelAnalyzer(gen).Generate(context.Background(), sampleTxs(), windowStart, windowEnd)
	assert.NotEmpty(t, insights)
}
