package plan

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

const generateTimeout = time.Minute

// ModelGenerator drafts earn-extra plans with Gemini, falling back to a
// fixed set derived from the target when the model is unavailable.
type ModelGenerator struct {
	generator ai.ContentGenerator
}

func NewModelGenerator(generator ai.ContentGenerator) *ModelGenerator {
	return &ModelGenerator{generator: generator}
}

const generatePrompt = `You are an expert financial planning assistant.
Draft exactly %d realistic plans that help the user free up or earn an extra
%s %s within %d days, using only changes inferred from their spending.

Each plan has:
- title: at most 8 words
- summary: one or two sentences
- expected_amount: realistic total for the timeframe
- confidence: "low", "med" or "high"
- actions: exactly %d concrete steps, each with a short label, a type from
  cut_spend | shift_spend | increase_income | one_time_cleanup, a
  weekly_frequency, and an estimated_value

Be practical and non-judgmental. Plans must be legal and need no upfront
investment.

Spending profile:
%s`

type generatedAction struct {
	Label           string   `json:"label"`
	Type            string   `json:"type"`
	WeeklyFrequency *int     `json:"weekly_frequency"`
	EstimatedValue  *float64 `json:"estimated_value"`
}

type generatedPlan struct {
	Title          string            `json:"title"`
	Summary        string            `json:"summary"`
	ExpectedAmount float64           `json:"expected_amount"`
	Confidence     string            `json:"confidence"`
	Actions        []generatedAction `json:"actions"`
}

// spendSummary condenses transactions into the prompt payload.
type spendSummary struct {
	Currency     string
	Income       decimal.Decimal
	Spend        decimal.Decimal
	ByCategory   map[transaction.Category]decimal.Decimal
	TopMerchants []string
}

func summarize(txs []*transaction.Transaction) spendSummary {
	sum := spendSummary{
		Currency:   "EUR",
		ByCategory: map[transaction.Category]decimal.Decimal{},
	}

	merchants := map[string]decimal.Decimal{}

	for _, tx := range txs {
		if tx.Currency != "" {
			sum.Currency = tx.Currency
		}

		if tx.Type == transaction.TypeCredit {
			sum.Income = sum.Income.Add(tx.Amount)
			continue
		}

		sum.Spend = sum.Spend.Add(tx.Amount)
		sum.ByCategory[tx.Category] = sum.ByCategory[tx.Category].Add(tx.Amount)

		name := tx.MerchantName
		if name == "" {
			name = tx.Description
		}

		if name != "" {
			merchants[name] = merchants[name].Add(tx.Amount)
		}
	}

	names := make([]string, 0, len(merchants))
	for name := range merchants {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		if !merchants[names[i]].Equal(merchants[names[j]]) {
			return merchants[names[i]].GreaterThan(merchants[names[j]])
		}

		return names[i] < names[j]
	})

	if len(names) > 10 {
		names = names[:10]
	}

	sum.TopMerchants = names

	return sum
}

func (s spendSummary) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "currency: %s\n", s.Currency)
	fmt.Fprintf(&sb, "income total: %s\n", s.Income.StringFixed(2))
	fmt.Fprintf(&sb, "spend total: %s\n", s.Spend.StringFixed(2))

	cats := make([]transaction.Category, 0, len(s.ByCategory))
	for cat := range s.ByCategory {
		cats = append(cats, cat)
	}

	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	for _, cat := range cats {
		fmt.Fprintf(&sb, "- %s: %s\n", cat, s.ByCategory[cat].StringFixed(2))
	}

	if len(s.TopMerchants) > 0 {
		fmt.Fprintf(&sb, "top merchants: %s\n", strings.Join(s.TopMerchants, ", "))
	}

	return sb.String()
}

func (g *ModelGenerator) Generate(
	ctx context.Context, txs []*transaction.Transaction, target decimal.Decimal, timeframeDays int,
) []*Plan {
	sum := summarize(txs)

	plans, err := g.generate(ctx, sum, target, timeframeDays)
	if err != nil {
		plans = fallbackPlans(target)
	}

	for _, p := range plans {
		p.TargetAmount = target
		p.Currency = sum.Currency
		p.TimeframeDays = timeframeDays
	}

	return plans
}

func (g *ModelGenerator) generate(
	ctx context.Context, sum spendSummary, target decimal.Decimal, timeframeDays int,
) ([]*Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	prompt := fmt.Sprintf(generatePrompt,
		PlanCount, target.StringFixed(2), sum.Currency, timeframeDays, ActionCount, sum)

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}

	temp := float32(0.2)
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
					"title":           {Type: genai.TypeString},
					"summary":         {Type: genai.TypeString},
					"expected_amount": {Type: genai.TypeNumber},
					"confidence":      {Type: genai.TypeString, Enum: []string{"low", "med", "high"}},
					"actions": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"label":            {Type: genai.TypeString},
								"type":             {Type: genai.TypeString, Enum: []string{"cut_spend", "shift_spend", "increase_income", "one_time_cleanup"}},
								"weekly_frequency": {Type: genai.TypeInteger},
								"estimated_value":  {Type: genai.TypeNumber},
							},
							Required: []string{"label", "type"},
						},
					},
				},
				Required: []string{"title", "summary", "expected_amount", "confidence", "actions"},
			},
		},
	}

	resp, err := g.generator.GenerateContent(ctx, ai.ModelName, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generating plans: %w", err)
	}

	if resp == nil {
		return nil, fmt.Errorf("no response from model")
	}

	jsonText := ai.ExtractJSON(resp.Text())
	if jsonText == "" {
		return nil, fmt.Errorf("no JSON in model response")
	}

	var generated []generatedPlan
	if err := json.Unmarshal([]byte(jsonText), &generated); err != nil {
		return nil, fmt.Errorf("parsing plans: %w", err)
	}

	plans := make([]*Plan, 0, len(generated))

	for _, gp := range generated {
		if gp.Title == "" || len(gp.Actions) != ActionCount {
			continue
		}

		actions := make([]Action, 0, ActionCount)

		for _, ga := range gp.Actions {
			typ := ActionType(ga.Type)
			if !typ.Valid() {
				typ = ActionCutSpend
			}

			action := Action{
				Label:           ga.Label,
				Type:            typ,
				WeeklyFrequency: ga.WeeklyFrequency,
			}

			if ga.EstimatedValue != nil {
				v := decimal.NewFromFloat(*ga.EstimatedValue)
				action.EstimatedValue = &v
			}

			actions = append(actions, action)
		}

		conf := Confidence(gp.Confidence)
		if conf != ConfidenceLow && conf != ConfidenceMed && conf != ConfidenceHigh {
			conf = ConfidenceMed
		}

		plans = append(plans, &Plan{
			Title:           gp.Title,
			Summary:         gp.Summary,
			Status:          StatusGenerated,
			ExpectedAmount:  decimal.NewFromFloat(gp.ExpectedAmount),
			Confidence:      conf,
			Actions:         actions,
			ActionsProgress: NewProgress(),
		})
	}

	if len(plans) != PlanCount {
		return nil, fmt.Errorf("model produced %d usable plans, want %d", len(plans), PlanCount)
	}

	return plans, nil
}

// fallbackPlans scales a fixed set of plans to the requested target so a
// model outage never leaves the user without options.
func fallbackPlans(target decimal.Decimal) []*Plan {
	share := func(pct int64) *decimal.Decimal {
		v := target.Mul(decimal.NewFromInt(pct)).Div(decimal.NewFromInt(100)).Round(2)
		return &v
	}

	freq := func(n int) *int { return &n }

	build := func(title, summary string, conf Confidence, actions []Action) *Plan {
		return &Plan{
			Title:           title,
			Summary:         summary,
			Status:          StatusGenerated,
			ExpectedAmount:  target,
			Confidence:      conf,
			Actions:         actions,
			ActionsProgress: NewProgress(),
		}
	}

	return []*Plan{
		build(
			"Trim discretionary spend",
			"Reduce small discretionary spends to hit your target steadily.",
			ConfidenceMed,
			[]Action{
				{Label: "Skip eating out 3 times per week and cook at home", Type: ActionCutSpend, WeeklyFrequency: freq(3), EstimatedValue: share(40)},
				{Label: "Pause 1 non-essential subscription for the month", Type: ActionCutSpend, WeeklyFrequency: freq(1), EstimatedValue: share(20)},
				{Label: "Set a weekly cash cap for discretionary purchases", Type: ActionShiftSpend, WeeklyFrequency: freq(1), EstimatedValue: share(40)},
			},
		),
		build(
			"Smart swaps",
			"Swap higher-cost habits for cheaper alternatives each week.",
			ConfidenceMed,
			[]Action{
				{Label: "Replace 2 ride-hailing trips with public transport", Type: ActionShiftSpend, WeeklyFrequency: freq(2), EstimatedValue: share(35)},
				{Label: "Make coffee at home 4 days per week", Type: ActionCutSpend, WeeklyFrequency: freq(4), EstimatedValue: share(25)},
				{Label: "Bundle grocery runs to avoid impulse buys", Type: ActionShiftSpend, WeeklyFrequency: freq(1), EstimatedValue: share(40)},
			},
		),
		build(
			"Boost and clean up",
			"Combine a one-time clean-up with a small income boost.",
			ConfidenceLow,
			[]Action{
				{Label: "Sell 3 unused items online", Type: ActionOneTimeCleanup, WeeklyFrequency: freq(1), EstimatedValue: share(40)},
				{Label: "Take 1 extra paid shift or gig task", Type: ActionIncreaseIncome, WeeklyFrequency: freq(1), EstimatedValue: share(35)},
				{Label: "Review fees and avoid one bank charge", Type: ActionCutSpend, WeeklyFrequency: freq(1), EstimatedValue: share(25)},
			},
		),
	}
}
