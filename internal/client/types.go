package client

import (
	"github.com/shopspring/decimal"
)

// User is an account as the API reports it.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// Upload is one processed statement file.
type Upload struct {
	FileID           string `json:"file_id"`
	FileName         string `json:"file_name"`
	FileSize         int64  `json:"file_size"`
	Status           string `json:"status"`
	TransactionCount int    `json:"transaction_count"`
	ErrorMessage     string `json:"error_message"`
	ExpenseMonth     int    `json:"expense_month"`
	ExpenseYear      int    `json:"expense_year"`
	CreatedAt        string `json:"created_at"`
}

// UploadResult is the per-file outcome of an upload batch.
type UploadResult struct {
	FileID                string `json:"file_id"`
	FileName              string `json:"file_name"`
	FileSize              int64  `json:"file_size"`
	Status                string `json:"status"`
	TransactionsExtracted int    `json:"transactions_extracted"`
	ErrorMessage          string `json:"error_message"`
}

// UploadBatch summarizes an upload or demo-load call.
type UploadBatch struct {
	Files                      []UploadResult `json:"files"`
	Count                      int            `json:"count"`
	TransactionsExtractedTotal int            `json:"transactions_extracted_total"`
	InsightsGenerated          bool           `json:"insights_generated"`
	Message                    string         `json:"message"`
}

// Transaction mirrors the query endpoints' transaction payload.
type Transaction struct {
	ID                      string           `json:"id"`
	UserID                  int64            `json:"user_id"`
	FileID                  string           `json:"file_id"`
	TransactionDate         string           `json:"transaction_date"`
	Description             string           `json:"description"`
	MerchantName            string           `json:"merchant_name"`
	Amount                  decimal.Decimal  `json:"amount"`
	TransactionType         string           `json:"transaction_type"`
	Balance                 *decimal.Decimal `json:"balance"`
	Category                string           `json:"category"`
	Currency                string           `json:"currency"`
	IsSubscription          bool             `json:"is_subscription"`
	SubscriptionStatus      string           `json:"subscription_status"`
	SubscriptionConfidence  *float64         `json:"subscription_confidence"`
	SubscriptionName        string           `json:"subscription_name"`
	SubscriptionReasonCodes []string         `json:"subscription_reason_codes"`
}

// SankeyNode is one node of the cash-flow diagram.
type SankeyNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// SankeyLink is one edge of the cash-flow diagram.
type SankeyLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value"`
}

// SankeyData is the cash-flow diagram payload.
type SankeyData struct {
	Nodes []SankeyNode `json:"nodes"`
	Links []SankeyLink `json:"links"`
}

// SubscriptionAggregate is one merchant-level subscription rollup.
type SubscriptionAggregate struct {
	MerchantKey          string          `json:"merchant_key"`
	Name                 string          `json:"name"`
	Category             string          `json:"category"`
	Status               string          `json:"status"`
	AverageMonthlyAmount decimal.Decimal `json:"average_monthly_amount"`
	ConfidenceAvg        float64         `json:"confidence_avg"`
	TransactionCount     int             `json:"transaction_count"`
	MonthCount           int             `json:"month_count"`
	LastChargedAt        string          `json:"last_charged_at"`
	Currency             string          `json:"currency"`
}

// ClassifySummary reports a classification run.
type ClassifySummary struct {
	Processed          int `json:"processed"`
	SubscriptionsFound int `json:"subscriptions_found"`
	NeedsReview        int `json:"needs_review"`
}

// Insight is one generated observation.
type Insight struct {
	ID             string  `json:"id"`
	InsightType    string  `json:"insight_type"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Icon           string  `json:"icon"`
	Confidence     float64 `json:"confidence"`
	TimeRangeStart *string `json:"time_range_start"`
	TimeRangeEnd   *string `json:"time_range_end"`
	CreatedAt      string  `json:"created_at"`
}

// InsightsList is the grouped insights payload.
type InsightsList struct {
	Insights        []Insight `json:"insights"`
	Patterns        []Insight `json:"patterns"`
	Alerts          []Insight `json:"alerts"`
	Recommendations []Insight `json:"recommendations"`
	Count           int       `json:"count"`
}

// AnalyzeResult reports an insight analysis run.
type AnalyzeResult struct {
	Message              string `json:"message"`
	InsightsGenerated    int    `json:"insights_generated"`
	PatternsCount        int    `json:"patterns_count"`
	AlertsCount          int    `json:"alerts_count"`
	RecommendationsCount int    `json:"recommendations_count"`
}

// Goal is one savings goal.
type Goal struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	TargetAmount    decimal.Decimal `json:"target_amount"`
	CurrentSaved    decimal.Decimal `json:"current_saved"`
	TargetYear      *int            `json:"target_year"`
	TargetMonth     *int            `json:"target_month"`
	BannerKey       string          `json:"banner_key"`
	ProgressPercent int             `json:"progress_percent"`
	CreatedAt       string          `json:"created_at"`
}

// GoalParams carries goal create or patch fields; nil means unchanged.
type GoalParams struct {
	Name         *string          `json:"name,omitempty"`
	TargetAmount *decimal.Decimal `json:"target_amount,omitempty"`
	CurrentSaved *decimal.Decimal `json:"current_saved,omitempty"`
	TargetYear   *int             `json:"target_year,omitempty"`
	TargetMonth  *int             `json:"target_month,omitempty"`
	BannerKey    *string          `json:"banner_key,omitempty"`
}

// PlanAction is one step of an earn-extra plan.
type PlanAction struct {
	Label           string           `json:"label"`
	Type            string           `json:"type"`
	WeeklyFrequency *int             `json:"weekly_frequency"`
	EstimatedValue  *decimal.Decimal `json:"estimated_value"`
}

// PlanProgress tracks one action of a plan.
type PlanProgress struct {
	IsDone bool    `json:"is_done"`
	Notes  *string `json:"notes"`
}

// Plan is one earn-extra plan.
type Plan struct {
	ID              string           `json:"id"`
	FileID          *string          `json:"file_id"`
	Status          string           `json:"status"`
	TargetAmount    decimal.Decimal  `json:"target_amount"`
	Currency        string           `json:"currency"`
	TimeframeDays   int              `json:"timeframe_days"`
	Title           string           `json:"title"`
	Summary         string           `json:"summary"`
	Actions         []PlanAction     `json:"actions"`
	ExpectedAmount  *decimal.Decimal `json:"expected_amount"`
	Confidence      string           `json:"confidence"`
	SavedSoFar      decimal.Decimal  `json:"saved_so_far"`
	ActionsProgress []PlanProgress   `json:"actions_progress"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
}

// GeneratePlansParams scopes and sizes a plan generation run.
type GeneratePlansParams struct {
	FileID        *string          `json:"file_id,omitempty"`
	TargetAmount  *decimal.Decimal `json:"target_amount,omitempty"`
	TimeframeDays *int             `json:"timeframe_days,omitempty"`
}

// PlanUpdateParams records progress on an active plan.
type PlanUpdateParams struct {
	SavedSoFar      *decimal.Decimal `json:"saved_so_far,omitempty"`
	ActionsProgress []PlanProgress   `json:"actions_progress,omitempty"`
}

// ChatMessage is one turn of the conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamChunk is one event of the chat stream. Err is set when the stream
// fails; the channel closes after it.
type StreamChunk struct {
	Content string
	Done    bool
	Err     error
}
