// Package plans serves earn-extra plan generation and lifecycle.
package plans

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/clairehq/claire/internal/auth"
	"github.com/clairehq/claire/internal/http/respond"
	"github.com/clairehq/claire/internal/plan"
)

type Handler struct {
	svc *plan.Service
}

func NewHandler(svc *plan.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/plans/generate", h.generate)
	r.Get("/plans", h.list)
	r.Post("/plans/{planID}/activate", h.activate)
	r.Patch("/plans/{planID}", h.update)
	r.Post("/plans/{planID}/complete", h.complete)
}

type planResponse struct {
	ID              string                `json:"id"`
	UserID          int64                 `json:"user_id"`
	FileID          *string               `json:"file_id"`
	Status          string                `json:"status"`
	TargetAmount    decimal.Decimal       `json:"target_amount"`
	Currency        string                `json:"currency"`
	TimeframeDays   int                   `json:"timeframe_days"`
	Title           string                `json:"title"`
	Summary         string                `json:"summary"`
	Actions         []plan.Action         `json:"actions"`
	ExpectedAmount  *decimal.Decimal      `json:"expected_amount"`
	Confidence      string                `json:"confidence"`
	SavedSoFar      decimal.Decimal       `json:"saved_so_far"`
	ActionsProgress []plan.ActionProgress `json:"actions_progress"`
	CreatedAt       string                `json:"created_at"`
	UpdatedAt       string                `json:"updated_at"`
}

func toPlanResponse(p *plan.Plan) planResponse {
	return planResponse{
		ID:              p.ID,
		UserID:          p.UserID,
		FileID:          p.FileID,
		Status:          string(p.Status),
		TargetAmount:    p.TargetAmount,
		Currency:        p.Currency,
		TimeframeDays:   p.TimeframeDays,
		Title:           p.Title,
		Summary:         p.Summary,
		Actions:         p.Actions,
		ExpectedAmount:  &p.ExpectedAmount,
		Confidence:      string(p.Confidence),
		SavedSoFar:      p.SavedSoFar,
		ActionsProgress: p.ActionsProgress,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339),
	}
}

func toPlanResponses(plans []*plan.Plan) []planResponse {
	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanResponse(p))
	}

	return out
}

func writePlanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, plan.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "plan not found")
	case errors.Is(err, plan.ErrNotActivatable):
		respond.Error(w, http.StatusBadRequest, "only generated or archived plans can be activated")
	case errors.Is(err, plan.ErrNotActive):
		respond.Error(w, http.StatusBadRequest, "plan is not active")
	case errors.Is(err, plan.ErrNegativeSaved):
		respond.Error(w, http.StatusBadRequest, "saved_so_far cannot be negative")
	case errors.Is(err, plan.ErrBadProgressShape):
		respond.Error(w, http.StatusBadRequest, "actions_progress must have one entry per action")
	case errors.Is(err, plan.ErrNegativeTarget):
		respond.Error(w, http.StatusBadRequest, "target_amount cannot be negative")
	case errors.Is(err, plan.ErrBadTimeframe):
		respond.Error(w, http.StatusBadRequest, "timeframe_days must be between 1 and 365")
	default:
		respond.Error(w, http.StatusInternalServerError, "plan operation failed")
	}
}

type generateRequest struct {
	FileID        *string          `json:"file_id"`
	TargetAmount  *decimal.Decimal `json:"target_amount"`
	TimeframeDays *int             `json:"timeframe_days"`
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	// An empty body means all defaults.
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plans, err := h.svc.Generate(r.Context(), u.ID, plan.GenerateParams{
		FileID:        req.FileID,
		TargetAmount:  req.TargetAmount,
		TimeframeDays: req.TimeframeDays,
	})
	if err != nil {
		writePlanError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toPlanResponses(plans))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	q := r.URL.Query()

	params := plan.ListParams{}

	if v := q.Get("status"); v != "" {
		status := plan.Status(v)
		if !status.Valid() {
			respond.Error(w, http.StatusBadRequest, "status must be generated, active, completed or archived")
			return
		}

		params.Status = &status
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &params.Limit},
		{"offset", &params.Offset},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}

		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respond.Error(w, http.StatusBadRequest, p.name+" must be a non-negative integer")
			return
		}

		*p.dst = parsed
	}

	plans, err := h.svc.List(r.Context(), u.ID, params)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to list plans")
		return
	}

	respond.JSON(w, http.StatusOK, toPlanResponses(plans))
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	p, err := h.svc.Activate(r.Context(), u.ID, chi.URLParam(r, "planID"))
	if err != nil {
		writePlanError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toPlanResponse(p))
}

type updateRequest struct {
	SavedSoFar      *decimal.Decimal      `json:"saved_so_far"`
	ActionsProgress []plan.ActionProgress `json:"actions_progress"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.svc.Update(r.Context(), u.ID, chi.URLParam(r, "planID"), plan.UpdateParams{
		SavedSoFar:      req.SavedSoFar,
		ActionsProgress: req.ActionsProgress,
	})
	if err != nil {
		writePlanError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toPlanResponse(p))
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	p, err := h.svc.Complete(r.Context(), u.ID, chi.URLParam(r, "planID"))
	if err != nil {
		writePlanError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toPlanResponse(p))
}
