// Package goals serves savings goal CRUD.
package goals

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/clairehq/claire/internal/auth"
	"github.com/clairehq/claire/internal/goal"
	"github.com/clairehq/claire/internal/http/respond"
)

type Handler struct {
	svc *goal.Service
}

func NewHandler(svc *goal.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{goalID}", h.get)
	r.Patch("/{goalID}", h.update)
	r.Delete("/{goalID}", h.delete)
}

type goalResponse struct {
	ID              string          `json:"id"`
	UserID          int64           `json:"user_id"`
	Name            string          `json:"name"`
	TargetAmount    decimal.Decimal `json:"target_amount"`
	CurrentSaved    decimal.Decimal `json:"current_saved"`
	TargetYear      *int            `json:"target_year,omitempty"`
	TargetMonth     *int            `json:"target_month,omitempty"`
	BannerKey       string          `json:"banner_key"`
	ProgressPercent int             `json:"progress_percent"`
	CreatedAt       string          `json:"created_at"`
}

func toGoalResponse(g *goal.Goal) goalResponse {
	resp := goalResponse{
		ID:              g.ID,
		UserID:          g.UserID,
		Name:            g.Name,
		TargetAmount:    g.TargetAmount,
		CurrentSaved:    g.CurrentSaved,
		BannerKey:       string(g.Banner),
		ProgressPercent: g.ProgressPercent(),
		CreatedAt:       g.CreatedAt.Format(time.RFC3339),
	}

	if g.TargetDate != nil {
		year, month := g.TargetDate.Year(), int(g.TargetDate.Month())
		resp.TargetYear = &year
		resp.TargetMonth = &month
	}

	return resp
}

// targetDate translates the API's year/month pair into the goal's target
// date, the first of that month. Exactly one of the pair is an error.
func targetDate(year, month *int) (*time.Time, error) {
	if year == nil && month == nil {
		return nil, nil
	}

	if (year == nil) != (month == nil) {
		return nil, errors.New("target_year and target_month must be provided together")
	}

	if *year < 1900 || *year > 3000 {
		return nil, errors.New("target_year must be between 1900 and 3000")
	}

	if *month < 1 || *month > 12 {
		return nil, errors.New("target_month must be between 1 and 12")
	}

	d := time.Date(*year, time.Month(*month), 1, 0, 0, 0, 0, time.UTC)

	return &d, nil
}

func writeGoalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, goal.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "goal not found")
	case errors.Is(err, goal.ErrEmptyName):
		respond.Error(w, http.StatusBadRequest, "name is required")
	case errors.Is(err, goal.ErrInvalidTarget):
		respond.Error(w, http.StatusBadRequest, "target_amount must be positive")
	case errors.Is(err, goal.ErrNegativeSaved):
		respond.Error(w, http.StatusBadRequest, "current_saved cannot be negative")
	case errors.Is(err, goal.ErrSavedOverflow):
		respond.Error(w, http.StatusBadRequest, "current_saved cannot exceed target_amount")
	case errors.Is(err, goal.ErrUnknownBanner):
		respond.Error(w, http.StatusBadRequest, "banner_key must be one of banner_1 through banner_4")
	default:
		respond.Error(w, http.StatusInternalServerError, "goal operation failed")
	}
}

type createRequest struct {
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	CurrentSaved decimal.Decimal `json:"current_saved"`
	TargetYear   *int            `json:"target_year"`
	TargetMonth  *int            `json:"target_month"`
	BannerKey    string          `json:"banner_key"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := targetDate(req.TargetYear, req.TargetMonth)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := h.svc.Create(r.Context(), u.ID, goal.CreateParams{
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		CurrentSaved: req.CurrentSaved,
		Banner:       goal.Banner(req.BannerKey),
		TargetDate:   date,
	})
	if err != nil {
		writeGoalError(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toGoalResponse(g))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	goals, err := h.svc.List(r.Context(), u.ID)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to list goals")
		return
	}

	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalResponse(g))
	}

	respond.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	g, err := h.svc.Get(r.Context(), u.ID, chi.URLParam(r, "goalID"))
	if err != nil {
		writeGoalError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toGoalResponse(g))
}

type updateRequest struct {
	Name         *string          `json:"name"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	CurrentSaved *decimal.Decimal `json:"current_saved"`
	TargetYear   *int             `json:"target_year"`
	TargetMonth  *int             `json:"target_month"`
	BannerKey    *string          `json:"banner_key"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := targetDate(req.TargetYear, req.TargetMonth)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	params := goal.UpdateParams{
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		CurrentSaved: req.CurrentSaved,
		TargetDate:   date,
	}

	if req.BannerKey != nil {
		banner := goal.Banner(*req.BannerKey)
		params.Banner = &banner
	}

	g, err := h.svc.Update(r.Context(), u.ID, chi.URLParam(r, "goalID"), params)
	if err != nil {
		writeGoalError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toGoalResponse(g))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	if err := h.svc.Delete(r.Context(), u.ID, chi.URLParam(r, "goalID")); err != nil {
		writeGoalError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Goal deleted successfully"})
}
