// Package insights serves the dashboard's generated financial insights.
package insights

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clairehq/claire/internal/auth"
	"github.com/clairehq/claire/internal/http/respond"
	"github.com/clairehq/claire/internal/insight"
)

type Handler struct {
	svc *insight.Service
}

func NewHandler(svc *insight.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/analyze", h.analyze)
	r.Delete("/", h.deleteAll)
}

type insightResponse struct {
	ID             string  `json:"id"`
	UserID         int64   `json:"user_id"`
	InsightType    string  `json:"insight_type"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Icon           string  `json:"icon"`
	Confidence     float64 `json:"confidence"`
	TimeRangeStart *string `json:"time_range_start,omitempty"`
	TimeRangeEnd   *string `json:"time_range_end,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

func toInsightResponse(ins *insight.Insight) insightResponse {
	resp := insightResponse{
		ID:          ins.ID,
		UserID:      ins.UserID,
		InsightType: string(ins.Type),
		Title:       ins.Title,
		Description: ins.Description,
		Icon:        ins.Icon,
		Confidence:  ins.Confidence,
		CreatedAt:   ins.CreatedAt.Format(time.RFC3339),
	}

	if ins.TimeRangeStart != nil {
		s := ins.TimeRangeStart.Format(time.DateOnly)
		resp.TimeRangeStart = &s
	}

	if ins.TimeRangeEnd != nil {
		e := ins.TimeRangeEnd.Format(time.DateOnly)
		resp.TimeRangeEnd = &e
	}

	return resp
}

type listResponse struct {
	Insights        []insightResponse `json:"insights"`
	Patterns        []insightResponse `json:"patterns"`
	Alerts          []insightResponse `json:"alerts"`
	Recommendations []insightResponse `json:"recommendations"`
	Count           int               `json:"count"`
}

type analyzeResponse struct {
	Message              string `json:"message"`
	InsightsGenerated    int    `json:"insights_generated"`
	PatternsCount        int    `json:"patterns_count"`
	AlertsCount          int    `json:"alerts_count"`
	RecommendationsCount int    `json:"recommendations_count"`
}

// parseWindow reads the optional start_date/end_date pair off the query.
func parseWindow(r *http.Request) (start, end *time.Time, err error) {
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"start_date", &start},
		{"end_date", &end},
	} {
		v := r.URL.Query().Get(p.name)
		if v == "" {
			continue
		}

		parsed, perr := time.Parse(time.DateOnly, v)
		if perr != nil {
			return nil, nil, errors.New(p.name + " must be formatted YYYY-MM-DD")
		}

		*p.dst = &parsed
	}

	return start, end, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	start, end, err := parseWindow(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	grouped, err := h.svc.List(r.Context(), u.ID, start, end)
	if err != nil {
		if errors.Is(err, insight.ErrHalfRange) {
			respond.Error(w, http.StatusBadRequest, "start_date and end_date must be provided together")
			return
		}

		respond.Error(w, http.StatusInternalServerError, "failed to fetch insights")

		return
	}

	resp := listResponse{
		Insights:        []insightResponse{},
		Patterns:        []insightResponse{},
		Alerts:          []insightResponse{},
		Recommendations: []insightResponse{},
	}

	for _, ins := range grouped.Patterns {
		resp.Patterns = append(resp.Patterns, toInsightResponse(ins))
	}

	for _, ins := range grouped.Alerts {
		resp.Alerts = append(resp.Alerts, toInsightResponse(ins))
	}

	for _, ins := range grouped.Recommendations {
		resp.Recommendations = append(resp.Recommendations, toInsightResponse(ins))
	}

	resp.Insights = append(resp.Insights, resp.Patterns...)
	resp.Insights = append(resp.Insights, resp.Alerts...)
	resp.Insights = append(resp.Insights, resp.Recommendations...)
	resp.Count = len(resp.Insights)

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	start, end, err := parseWindow(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	var fileID *string
	if v := r.URL.Query().Get("file_id"); v != "" {
		fileID = &v
	}

	insights, err := h.svc.AnalyzeScope(r.Context(), u.ID, fileID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, insight.ErrHalfRange):
			respond.Error(w, http.StatusBadRequest, "start_date and end_date must be provided together")
		case errors.Is(err, insight.ErrNoScope):
			respond.Error(w, http.StatusBadRequest, "provide either file_id, or start_date and end_date")
		case errors.Is(err, insight.ErrInvalidRange):
			respond.Error(w, http.StatusBadRequest, "end_date must be on or after start_date")
		default:
			respond.Error(w, http.StatusInternalServerError, "failed to analyze transactions")
		}

		return
	}

	resp := analyzeResponse{
		Message:           "Analysis completed successfully",
		InsightsGenerated: len(insights),
	}

	for _, ins := range insights {
		switch ins.Type {
		case insight.TypePattern:
			resp.PatternsCount++
		case insight.TypeAlert:
			resp.AlertsCount++
		case insight.TypeRecommendation:
			resp.RecommendationsCount++
		}
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteAll(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	n, err := h.svc.DeleteAll(r.Context(), u.ID)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to delete insights")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"message":       "Insights deleted successfully",
		"deleted_count": n,
	})
}
