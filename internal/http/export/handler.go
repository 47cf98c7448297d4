package export

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clairehq/claire/internal/auth"
	"github.com/clairehq/claire/internal/export"
	"github.com/clairehq/claire/internal/http/respond"
	"github.com/clairehq/claire/internal/transaction"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/summary", h.summary)
	r.Get("/download", h.download)
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

// parseFilter reads the optional file_id / start_date / end_date query
// params into a transaction filter scoped to the caller.
func parseFilter(r *http.Request, userID int64) (transaction.Filter, error) {
	filter := transaction.Filter{UserID: &userID}

	q := r.URL.Query()

	if v := q.Get("file_id"); v != "" {
		filter.FileID = &v
	}

	for name, dst := range map[string]**time.Time{
		"start_date": &filter.StartDate,
		"end_date":   &filter.EndDate,
	} {
		if v := q.Get(name); v != "" {
			t, err := time.Parse(time.DateOnly, v)
			if err != nil {
				return transaction.Filter{}, fmt.Errorf("%s must be formatted YYYY-MM-DD", name)
			}

			*dst = &t
		}
	}

	return filter, nil
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	filter, err := parseFilter(r, u.ID)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.svc.Summary(r.Context(), filter)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to build export summary")
		return
	}

	respond.JSON(w, http.StatusOK, summaryResponse{Summary: summary})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	filter, err := parseFilter(r, u.ID)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"transactions_%s.csv\"", time.Now().Format("20060102")))

	if _, err := h.svc.Export(r.Context(), w, filter); err != nil {
		// Headers are already out; the truncated body is the best signal left.
		return
	}
}
