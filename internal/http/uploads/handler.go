// Package uploads serves statement upload, listing, download and deletion.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clairehq/claire/internal/auth"
	"github.com/clairehq/claire/internal/http/respond"
	"github.com/clairehq/claire/internal/upload"
)

type Handler struct {
	svc *upload.Service
}

func NewHandler(svc *upload.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/upload", h.upload)
	r.Post("/demo", h.demo)
	r.Get("/{fileID}/download", h.download)
	r.Delete("/{fileID}", h.delete)
}

type uploadResponse struct {
	FileID           string `json:"file_id"`
	FileName         string `json:"file_name"`
	FileSize         int64  `json:"file_size"`
	Status           string `json:"status"`
	TransactionCount int    `json:"transaction_count"`
	ErrorMessage     string `json:"error_message,omitempty"`
	ExpenseMonth     int    `json:"expense_month"`
	ExpenseYear      int    `json:"expense_year"`
	CreatedAt        string `json:"created_at"`
}

func toUploadResponse(up *upload.Upload) uploadResponse {
	return uploadResponse{
		FileID:           up.ID,
		FileName:         up.Filename,
		FileSize:         up.SizeBytes,
		Status:           string(up.Status),
		TransactionCount: up.TransactionCount,
		ErrorMessage:     up.ErrorMessage,
		ExpenseMonth:     up.ExpenseMonth,
		ExpenseYear:      up.ExpenseYear,
		CreatedAt:        up.CreatedAt.Format(time.RFC3339),
	}
}

// parseExpensePeriod reads the optional declared expense_month/expense_year
// query params; zero means "not given" and the service defaults to today.
func parseExpensePeriod(r *http.Request) (month, year int, err error) {
	if v := r.URL.Query().Get("expense_month"); v != "" {
		month, err = strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			return 0, 0, errors.New("expense_month must be between 1 and 12")
		}
	}

	if v := r.URL.Query().Get("expense_year"); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil || year < 1900 || year > 3000 {
			return 0, 0, errors.New("expense_year must be between 1900 and 3000")
		}
	}

	return month, year, nil
}

type fileResult struct {
	FileID                string `json:"file_id"`
	FileName              string `json:"file_name"`
	FileSize              int64  `json:"file_size"`
	Status                string `json:"status"`
	TransactionsExtracted int    `json:"transactions_extracted"`
	ErrorMessage          string `json:"error_message,omitempty"`
}

type uploadBatchResponse struct {
	Files                      []fileResult `json:"files"`
	Count                      int          `json:"count"`
	TransactionsExtractedTotal int          `json:"transactions_extracted_total"`
	InsightsGenerated          bool         `json:"insights_generated"`
	Message                    string       `json:"message"`
}

// upload accepts one or more statement files as multipart form data. Bad
// requests (size, type) fail the whole batch; extraction failures are
// reported per file.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	expenseMonth, expenseYear, err := parseExpensePeriod(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.ParseMultipartForm(upload.MaxFileSize); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		respond.Error(w, http.StatusBadRequest, "no files provided")
		return
	}

	results := make([]fileResult, 0, len(files))
	total := 0

	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			respond.Error(w, http.StatusBadRequest, fmt.Sprintf("cannot read file %q", header.Filename))
			return
		}

		contentType := header.Header.Get("Content-Type")

		up, err := h.svc.Process(r.Context(), u.ID, header.Filename, contentType, header.Size, expenseMonth, expenseYear, f)
		f.Close()

		if err != nil {
			switch {
			case errors.Is(err, upload.ErrFileTooLarge):
				respond.Error(w, http.StatusBadRequest,
					fmt.Sprintf("file %q exceeds the 10MB limit", header.Filename))
			case errors.Is(err, upload.ErrUnsupportedType):
				respond.Error(w, http.StatusBadRequest,
					fmt.Sprintf("file %q must be a PDF or CSV", header.Filename))
			default:
				respond.Error(w, http.StatusInternalServerError, "upload failed")
			}

			return
		}

		total += up.TransactionCount
		results = append(results, fileResult{
			FileID:                up.ID,
			FileName:              up.Filename,
			FileSize:              up.SizeBytes,
			Status:                string(up.Status),
			TransactionsExtracted: up.TransactionCount,
			ErrorMessage:          up.ErrorMessage,
		})
	}

	respond.JSON(w, http.StatusOK, uploadBatchResponse{
		Files:                      results,
		Count:                      len(results),
		TransactionsExtractedTotal: total,
		InsightsGenerated:          total > 0,
		Message:                    "Files uploaded and processed successfully",
	})
}

func (h *Handler) demo(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	up, err := h.svc.LoadDemo(r.Context(), u.ID)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to load demo data")
		return
	}

	respond.JSON(w, http.StatusOK, uploadBatchResponse{
		Files: []fileResult{{
			FileID:                up.ID,
			FileName:              up.Filename,
			FileSize:              up.SizeBytes,
			Status:                string(up.Status),
			TransactionsExtracted: up.TransactionCount,
		}},
		Count:                      1,
		TransactionsExtractedTotal: up.TransactionCount,
		InsightsGenerated:          up.TransactionCount > 0,
		Message:                    "Demo data loaded successfully",
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 100 {
			respond.Error(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}

		limit = parsed
	}

	ups, err := h.svc.List(r.Context(), u.ID, limit)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to list uploads")
		return
	}

	out := make([]uploadResponse, 0, len(ups))
	for _, up := range ups {
		out = append(out, toUploadResponse(up))
	}

	respond.JSON(w, http.StatusOK, out)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	fileID := chi.URLParam(r, "fileID")

	up, rc, err := h.svc.Download(r.Context(), u.ID, fileID)
	if err != nil {
		if errors.Is(err, upload.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "upload not found")
			return
		}

		respond.Error(w, http.StatusInternalServerError, "download failed")

		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", up.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", up.Filename))

	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("streaming upload download failed", "file_id", fileID, "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	fileID := chi.URLParam(r, "fileID")

	if err := h.svc.Delete(r.Context(), u.ID, fileID); err != nil {
		if errors.Is(err, upload.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "upload not found")
			return
		}

		respond.Error(w, http.StatusInternalServerError, "delete failed")

		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Upload deleted successfully"})
}
