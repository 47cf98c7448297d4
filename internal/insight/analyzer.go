package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/clairehq/claire/internal/ai"
	"github.com/clairehq/claire/internal/transaction"
)

const analyzeTimeout = time.Minute

// spendProfile is the deterministic summary handed to the model. Computing
// it locally keeps the prompt small and the raw transactions private.
type spendProfile struct {
	Start            time.Time
	End              time.Time
	TotalIncome      decimal.Decimal
	TotalSpend       decimal.Decimal
	ByCategory       map[transaction.Category]decimal.Decimal
	SubscriptionCost decimal.Decimal
	Currency         string
}

func buildProfile(txs []*transaction.Transaction, start, end time.Time) spendProfile {
	p := spendProfile{
		Start:      start,
		End:        end,
		ByCategory: map[transaction.Category]decimal.Decimal{},
	}

	for _, tx := range txs {
		if p.Currency == "" {
			p.Currency = tx.Currency
		}

		switch tx.Type {
		case transaction.TypeCredit:
			p.TotalIncome = p.TotalIncome.Add(tx.Amount)
		case transaction.TypeDebit:
			p.TotalSpend = p.TotalSpend.Add(tx.Amount)
			p.ByCategory[tx.Category] = p.ByCategory[tx.Category].Add(tx.Amount)

			if tx.IsSubscription && !tx.SubscriptionStatus.Finalized() || tx.SubscriptionStatus == transaction.SubscriptionConfirmed {
				p.SubscriptionCost = p.SubscriptionCost.Add(tx.Amount)
			}
		}
	}

	return p
}

func (p spendProfile) topCategories(n int) []transaction.Category {
	cats := make([]transaction.Category, 0, len(p.ByCategory))
	for cat := range p.ByCategory {
		cats = append(cats, cat)
	}

	sort.Slice(cats, func(i, j int) bool {
		a, b := p.ByCategory[cats[i]], p.ByCategory[cats[j]]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}

		return cats[i] < cats[j]
	})

	if len(cats) > n {
		cats = cats[:n]
	}

	return cats
}

func (p spendProfile) prompt() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Window: %s to %s\n", p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly))
	fmt.Fprintf(&sb, "Total income: %s %s\n", p.TotalIncome.StringFixed(2), p.Currency)
	fmt.Fprintf(&sb, "Total spend: %s %s\n", p.TotalSpend.StringFixed(2), p.Currency)
	fmt.Fprintf(&sb, "Subscription spend: %s %s\n", p.SubscriptionCost.StringFixed(2), p.Currency)
	sb.WriteString("Spend by category:\n")

	for _, cat := range p.topCategories(len(p.ByCategory)) {
		fmt.Fprintf(&sb, "- %s: %s\n", cat, p.ByCategory[cat].StringFixed(2))
	}

	return sb.String()
}

// ModelAnalyzer turns a spend profile into dashboard insights via Gemini,
// falling back to deterministic insights when the model is unavailable.
type ModelAnalyzer struct {
	generator ai.ContentGenerator
}

func NewModelAnalyzer(generator ai.ContentGenerator) *ModelAnalyzer {
	return &ModelAnalyzer{generator: generator}
}

const analyzePrompt = `You are a personal finance assistant. Based on the spending summary
below, produce 3 to 6 short insights for a dashboard.

Each insight has:
- type: "pattern" for observed behavior, "alert" for something needing attention, "recommendation" for an actionable suggestion
- title: at most 8 words
- description: one or two sentences, concrete, referencing the numbers
- icon: one of trending_up, trending_down, alert_triangle, lightbulb, calendar, credit_card, piggy_bank
- confidence: 0 to 1, how well the data supports the insight

Include at least one of each type when the data allows it.

%s`

type generatedInsight struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Confidence  float64 `json:"confidence"`
}

func (a *ModelAnalyzer) Generate(ctx context.Context, txs []*transaction.Transaction, start, end time.Time) []*Insight {
	profile := buildProfile(txs, start, end)

	generated, err := a.generate(ctx, profile)
	if err != nil {
		return fallbackInsights(profile)
	}

	return generated
}

func (a *ModelAnalyzer) generate(ctx context.Context, profile spendProfile) ([]*Insight, error) {
	ctx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: fmt.Sprintf(analyzePrompt, profile.prompt())}},
		},
	}

	temp := float32(0.4)
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
					"type":        {Type: genai.TypeString, Enum: []string{"pattern", "alert", "recommendation"}},
					"title":       {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
					"icon":        {Type: genai.TypeString},
					"confidence":  {Type: genai.TypeNumber},
				},
				Required: []string{"type", "title", "description", "confidence"},
			},
		},
	}

	resp, err := a.generator.GenerateContent(ctx, ai.ModelName, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generating insights: %w", err)
	}

	if resp == nil {
		return nil, fmt.Errorf("no response from model")
	}

	jsonText := ai.ExtractJSON(resp.Text())
	if jsonText == "" {
		return nil, fmt.Errorf("no JSON in model response")
	}

	var generated []generatedInsight
	if err := json.Unmarshal([]byte(jsonText), &generated); err != nil {
		return nil, fmt.Errorf("parsing insights: %w", err)
	}

	if len(generated) == 0 {
		return nil, fmt.Errorf("model produced no insights")
	}

	insights := make([]*Insight, 0, len(generated))

	for _, g := range generated {
		t := Type(g.Type)
		if t != TypePattern && t != TypeAlert && t != TypeRecommendation {
			continue
		}

		if g.Title == "" || g.Description == "" {
			continue
		}

		insights = append(insights, &Insight{
			Type:           t,
			Title:          g.Title,
			Description:    g.Description,
			Icon:           NormalizeIcon(g.Icon),
			Confidence:     clamp01(g.Confidence),
			TimeRangeStart: &profile.Start,
			TimeRangeEnd:   &profile.End,
		})
	}

	if len(insights) == 0 {
		return nil, fmt.Errorf("model produced no usable insights")
	}

	return insights, nil
}

// fallbackInsights keeps the dashboard populated when the model is down.
func fallbackInsights(profile spendProfile) []*Insight {
	var insights []*Insight

	if top := profile.topCategories(1); len(top) > 0 {
		insights = append(insights, &Insight{
			Type:  TypePattern,
			Title: "Biggest spending category",
			Description: fmt.Sprintf("Most of your spending went to %s: %s %s in this period.",
				top[0], profile.ByCategory[top[0]].StringFixed(2), profile.Currency),
			Icon:           "trending_up",
			Confidence:     1,
			TimeRangeStart: &profile.Start,
			TimeRangeEnd:   &profile.End,
		})
	}

	if profile.SubscriptionCost.IsPositive() {
		insights = append(insights, &Insight{
			Type:  TypeAlert,
			Title: "Recurring charges add up",
			Description: fmt.Sprintf("Subscriptions cost you %s %s in this period. Review them to make sure you still use each one.",
				profile.SubscriptionCost.StringFixed(2), profile.Currency),
			Icon:           "credit_card",
			Confidence:     1,
			TimeRangeStart: &profile.Start,
			TimeRangeEnd:   &profile.End,
		})
	}

	if profile.TotalIncome.GreaterThan(profile.TotalSpend) {
		saved := profile.TotalIncome.Sub(profile.TotalSpend)
		insights = append(insights, &Insight{
			Type:  TypeRecommendation,
			Title: "Put the surplus to work",
			Description: fmt.Sprintf("You spent %s %s less than you earned. Consider moving the difference into savings.",
				saved.StringFixed(2), profile.Currency),
			Icon:           "piggy_bank",
			Confidence:     1,
			TimeRangeStart: &profile.Start,
			TimeRangeEnd:   &profile.End,
		})
	}

	return insights
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}

	return f
}
