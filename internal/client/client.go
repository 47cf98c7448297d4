// Package client is a bearer-token HTTP client for the Claire API. It does
// no retrying or caching; callers own timeouts through the context.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/clairehq/claire/internal/scope"
)

// RequestFailedError is returned for any non-2xx response. Message carries
// the server's detail when the body has one.
type RequestFailedError struct {
	StatusCode int
	Message    string
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)

	return req, nil
}

// do issues the request and decodes a 2xx JSON body into out when out is
// non-nil. Non-2xx responses become a *RequestFailedError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}

		reader = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, query, reader)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

func errorFromResponse(resp *http.Response) error {
	msg := fmt.Sprintf("unexpected status %d", resp.StatusCode)

	var detail struct {
		Detail string `json:"detail"`
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&detail); err == nil && detail.Detail != "" {
		msg = detail.Detail
	}

	return &RequestFailedError{StatusCode: resp.StatusCode, Message: msg}
}

// Register provisions the account behind the caller's token.
func (c *Client) Register(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/api/v1/users/register", nil, nil, &u); err != nil {
		return nil, err
	}

	return &u, nil
}

// Me returns the authenticated account.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me", nil, nil, &u); err != nil {
		return nil, err
	}

	return &u, nil
}

// Uploads lists processed statement files, newest first. A zero limit uses
// the server default.
func (c *Client) Uploads(ctx context.Context, limit int) ([]Upload, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var ups []Upload
	if err := c.do(ctx, http.MethodGet, "/api/v1/file-uploads", query, nil, &ups); err != nil {
		return nil, err
	}

	return ups, nil
}

// UploadStatement sends one statement file for extraction. A zero
// expenseMonth or expenseYear leaves the declared period to the server's
// today-default.
func (c *Client) UploadStatement(ctx context.Context, filename, contentType string, expenseMonth, expenseYear int, data io.Reader) (*UploadBatch, error) {
	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="files"; filename=%q`, filename)}
	header["Content-Type"] = []string{contentType}

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("creating multipart field: %w", err)
	}

	if _, err := io.Copy(part, data); err != nil {
		return nil, fmt.Errorf("writing file data: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finishing multipart body: %w", err)
	}

	query := url.Values{}
	if expenseMonth > 0 {
		query.Set("expense_month", strconv.Itoa(expenseMonth))
	}

	if expenseYear > 0 {
		query.Set("expense_year", strconv.Itoa(expenseYear))
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/file-uploads/upload", query, &buf)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse(resp)
	}

	var batch UploadBatch
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &batch, nil
}

// LoadDemo seeds the account with the built-in demo dataset.
func (c *Client) LoadDemo(ctx context.Context) (*UploadBatch, error) {
	var batch UploadBatch
	if err := c.do(ctx, http.MethodPost, "/api/v1/file-uploads/demo", nil, nil, &batch); err != nil {
		return nil, err
	}

	return &batch, nil
}

// DownloadUpload streams the raw statement file. The caller closes the
// returned reader.
func (c *Client) DownloadUpload(ctx context.Context, fileID string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/file-uploads/"+fileID+"/download", nil, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, errorFromResponse(resp)
	}

	return resp.Body, nil
}

// DeleteUpload removes a statement and its extracted transactions.
func (c *Client) DeleteUpload(ctx context.Context, fileID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/file-uploads/"+fileID, nil, nil, nil)
}

// Transactions lists transactions within the scope.
func (c *Client) Transactions(ctx context.Context, s scope.Scope) ([]Transaction, error) {
	var txs []Transaction
	if err := c.do(ctx, http.MethodGet, "/api/v1/query/transactions", s.Query(), nil, &txs); err != nil {
		return nil, err
	}

	return txs, nil
}

// Sankey fetches the cash-flow diagram for the scope.
func (c *Client) Sankey(ctx context.Context, s scope.Scope) (*SankeyData, error) {
	var data SankeyData
	if err := c.do(ctx, http.MethodGet, "/api/v1/query/transactions/sankey_diagram", s.Query(), nil, &data); err != nil {
		return nil, err
	}

	return &data, nil
}

// Subscriptions lists subscription transactions within the scope.
func (c *Client) Subscriptions(ctx context.Context, s scope.Scope) ([]Transaction, error) {
	var txs []Transaction
	if err := c.do(ctx, http.MethodGet, "/api/v1/query/transactions/subscriptions", s.Query(), nil, &txs); err != nil {
		return nil, err
	}

	return txs, nil
}

// AggregatedSubscriptions fetches merchant-level subscription rollups.
func (c *Client) AggregatedSubscriptions(ctx context.Context, s scope.Scope) ([]SubscriptionAggregate, error) {
	var aggs []SubscriptionAggregate
	if err := c.do(ctx, http.MethodGet, "/api/v1/query/transactions/subscriptions/aggregated", s.Query(), nil, &aggs); err != nil {
		return nil, err
	}

	return aggs, nil
}

// NeedsReview lists subscription candidates awaiting a decision.
func (c *Client) NeedsReview(ctx context.Context) ([]Transaction, error) {
	var txs []Transaction
	if err := c.do(ctx, http.MethodGet, "/api/v1/query/transactions/subscriptions/needs-review", nil, nil, &txs); err != nil {
		return nil, err
	}

	return txs, nil
}

// ClassifySubscriptions runs subscription detection over a date range.
func (c *Client) ClassifySubscriptions(ctx context.Context, start, end time.Time) (*ClassifySummary, error) {
	body := map[string]string{
		"start_date": start.Format(time.DateOnly),
		"end_date":   end.Format(time.DateOnly),
	}

	var summary ClassifySummary
	if err := c.do(ctx, http.MethodPost, "/api/v1/query/transactions/subscriptions/classify", nil, body, &summary); err != nil {
		return nil, err
	}

	return &summary, nil
}

// ReviewSubscription records a confirmed or rejected decision.
func (c *Client) ReviewSubscription(ctx context.Context, transactionID, decision string) (*Transaction, error) {
	body := map[string]string{
		"transaction_id": transactionID,
		"decision":       decision,
	}

	var tx Transaction
	if err := c.do(ctx, http.MethodPost, "/api/v1/query/transactions/subscriptions/review", nil, body, &tx); err != nil {
		return nil, err
	}

	return &tx, nil
}

// Insights fetches the grouped insights, optionally windowed.
func (c *Client) Insights(ctx context.Context, start, end *time.Time) (*InsightsList, error) {
	query := url.Values{}
	if start != nil {
		query.Set("start_date", start.Format(time.DateOnly))
	}

	if end != nil {
		query.Set("end_date", end.Format(time.DateOnly))
	}

	var list InsightsList
	if err := c.do(ctx, http.MethodGet, "/api/v1/insights", query, nil, &list); err != nil {
		return nil, err
	}

	return &list, nil
}

// AnalyzeInsights regenerates insights for the scope.
func (c *Client) AnalyzeInsights(ctx context.Context, s scope.Scope) (*AnalyzeResult, error) {
	var result AnalyzeResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/insights/analyze", s.Query(), nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// DeleteInsights wipes all insights and reports how many were removed.
func (c *Client) DeleteInsights(ctx context.Context) (int64, error) {
	var result struct {
		DeletedCount int64 `json:"deleted_count"`
	}

	if err := c.do(ctx, http.MethodDelete, "/api/v1/insights", nil, nil, &result); err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}

// CreateGoal creates a savings goal.
func (c *Client) CreateGoal(ctx context.Context, params GoalParams) (*Goal, error) {
	var g Goal
	if err := c.do(ctx, http.MethodPost, "/api/v1/goals", nil, params, &g); err != nil {
		return nil, err
	}

	return &g, nil
}

// Goals lists the account's savings goals.
func (c *Client) Goals(ctx context.Context) ([]Goal, error) {
	var goals []Goal
	if err := c.do(ctx, http.MethodGet, "/api/v1/goals", nil, nil, &goals); err != nil {
		return nil, err
	}

	return goals, nil
}

// Goal fetches one savings goal.
func (c *Client) Goal(ctx context.Context, id string) (*Goal, error) {
	var g Goal
	if err := c.do(ctx, http.MethodGet, "/api/v1/goals/"+id, nil, nil, &g); err != nil {
		return nil, err
	}

	return &g, nil
}

// UpdateGoal applies a partial update to a goal.
func (c *Client) UpdateGoal(ctx context.Context, id string, params GoalParams) (*Goal, error) {
	var g Goal
	if err := c.do(ctx, http.MethodPatch, "/api/v1/goals/"+id, nil, params, &g); err != nil {
		return nil, err
	}

	return &g, nil
}

// DeleteGoal removes a goal.
func (c *Client) DeleteGoal(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/goals/"+id, nil, nil, nil)
}

// GeneratePlans asks the model for a fresh set of earn-extra plans.
func (c *Client) GeneratePlans(ctx context.Context, params GeneratePlansParams) ([]Plan, error) {
	var plans []Plan
	if err := c.do(ctx, http.MethodPost, "/api/v1/earn-extra/plans/generate", nil, params, &plans); err != nil {
		return nil, err
	}

	return plans, nil
}

// Plans lists earn-extra plans, optionally filtered by status.
func (c *Client) Plans(ctx context.Context, status string) ([]Plan, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}

	var plans []Plan
	if err := c.do(ctx, http.MethodGet, "/api/v1/earn-extra/plans", query, nil, &plans); err != nil {
		return nil, err
	}

	return plans, nil
}

// ActivatePlan makes a plan the single active one.
func (c *Client) ActivatePlan(ctx context.Context, id string) (*Plan, error) {
	var p Plan
	if err := c.do(ctx, http.MethodPost, "/api/v1/earn-extra/plans/"+id+"/activate", nil, nil, &p); err != nil {
		return nil, err
	}

	return &p, nil
}

// UpdatePlan records progress on the active plan.
func (c *Client) UpdatePlan(ctx context.Context, id string, params PlanUpdateParams) (*Plan, error) {
	var p Plan
	if err := c.do(ctx, http.MethodPatch, "/api/v1/earn-extra/plans/"+id, nil, params, &p); err != nil {
		return nil, err
	}

	return &p, nil
}

// CompletePlan marks the active plan completed.
func (c *Client) CompletePlan(ctx context.Context, id string) (*Plan, error) {
	var p Plan
	if err := c.do(ctx, http.MethodPost, "/api/v1/earn-extra/plans/"+id+"/complete", nil, nil, &p); err != nil {
		return nil, err
	}

	return &p, nil
}

// Chat sends the conversation and returns it extended with the reply.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) ([]ChatMessage, error) {
	body := map[string]any{"messages": messages}

	var resp struct {
		Messages []ChatMessage `json:"messages"`
	}

	if err := c.do(ctx, http.MethodPost, "/api/v1/chatbot/chat", nil, body, &resp); err != nil {
		return nil, err
	}

	return resp.Messages, nil
}

// ChatHistory returns the stored conversation.
func (c *Client) ChatHistory(ctx context.Context) ([]ChatMessage, error) {
	var resp struct {
		Messages []ChatMessage `json:"messages"`
	}

	if err := c.do(ctx, http.MethodGet, "/api/v1/chatbot/messages", nil, nil, &resp); err != nil {
		return nil, err
	}

	return resp.Messages, nil
}

// ClearChat deletes the stored conversation.
func (c *Client) ClearChat(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/chatbot/messages", nil, nil, nil)
}

// ChatStream sends the conversation and re-emits the server-sent reply
// chunks on a channel. The channel closes after the done marker or an
// error chunk.
func (c *Client) ChatStream(ctx context.Context, messages []ChatMessage) (<-chan StreamChunk, error) {
	encoded, err := json.Marshal(map[string]any{"messages": messages})
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/chatbot/chat/stream", nil, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, errorFromResponse(resp)
	}

	out := make(chan StreamChunk)

	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			data, ok := strings.CutPrefix(scanner.Text(), "data: ")
			if !ok {
				continue
			}

			var chunk struct {
				Content string `json:"content"`
				Done    bool   `json:"done"`
			}

			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				select {
				case out <- StreamChunk{Err: fmt.Errorf("decoding stream chunk: %w", err)}:
				case <-ctx.Done():
				}

				return
			}

			select {
			case out <- StreamChunk{Content: chunk.Content, Done: chunk.Done}:
			case <-ctx.Done():
				return
			}

			if chunk.Done {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			select {
			case out <- StreamChunk{Err: fmt.Errorf("reading stream: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}
