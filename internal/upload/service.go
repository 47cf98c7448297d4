package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clairehq/claire/internal/demo"
	"github.com/clairehq/claire/internal/statement"
	"github.com/clairehq/claire/internal/transaction"
)

// MaxFileSize is the upload size cap.
const MaxFileSize = 10 << 20

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=upload
type Repository interface {
	Create(ctx context.Context, u *Upload) error
	Get(ctx context.Context, userID int64, id string) (*Upload, error)
	List(ctx context.Context, userID int64, limit int) ([]*Upload, error)
	UpdateResult(ctx context.Context, u *Upload) error
	Delete(ctx context.Context, userID int64, id string) error
}

// ObjectStore is the blob storage the raw files live in.
type ObjectStore interface {
	Put(ctx context.Context, userID int64, fileID string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, userID int64, fileID string) (io.ReadCloser, error)
	Delete(ctx context.Context, userID int64, fileID string) error
}

// PDFExtractor turns a PDF statement into rows.
type PDFExtractor interface {
	Extract(ctx context.Context, pdf []byte) ([]statement.Row, error)
}

// CSVParser turns a CSV export into rows.
type CSVParser interface {
	Parse(r io.Reader) ([]statement.Row, error)
}

// Transactions is the slice of the transaction service uploads depend on.
type Transactions interface {
	CreateBatch(ctx context.Context, txs []*transaction.Transaction) error
	DeleteByFile(ctx context.Context, userID int64, fileID string) (int64, error)
}

// Analyzer runs after an upload is processed, off the request path.
type Analyzer interface {
	Analyze(ctx context.Context, userID int64) error
}

type Service struct {
	repo     Repository
	objects  ObjectStore
	pdf      PDFExtractor
	csv      CSVParser
	txs      Transactions
	analyzer Analyzer
}

func NewService(repo Repository, objects ObjectStore, pdf PDFExtractor, csv CSVParser, txs Transactions, analyzer Analyzer) *Service {
	return &Service{
		repo:     repo,
		objects:  objects,
		pdf:      pdf,
		csv:      csv,
		txs:      txs,
		analyzer: analyzer,
	}
}

// Process stores the file, extracts its transactions and records the result.
// Extraction failures are recorded on the upload row rather than discarding
// it, so the dashboard can show what went wrong. A zero expenseMonth or
// expenseYear defaults to the current month/year.
func (s *Service) Process(ctx context.Context, userID int64, filename, contentType string, size int64, expenseMonth, expenseYear int, r io.Reader) (*Upload, error) {
	if size > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	kind, err := fileKind(filename, contentType)
	if err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	if len(raw) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	month, year := expensePeriod(expenseMonth, expenseYear)

	up := &Upload{
		ID:           uuid.NewString(),
		UserID:       userID,
		Filename:     filename,
		ContentType:  contentType,
		SizeBytes:    int64(len(raw)),
		Status:       StatusProcessing,
		ExpenseMonth: month,
		ExpenseYear:  year,
	}

	if err := s.objects.Put(ctx, userID, up.ID, bytes.NewReader(raw), up.SizeBytes, contentType); err != nil {
		return nil, fmt.Errorf("storing file: %w", err)
	}

	if err := s.repo.Create(ctx, up); err != nil {
		return nil, fmt.Errorf("recording upload: %w", err)
	}

	rows, err := s.extract(ctx, kind, raw)
	if err != nil {
		up.Status = StatusFailed
		up.ErrorMessage = err.Error()

		if updateErr := s.repo.UpdateResult(ctx, up); updateErr != nil {
			slog.Error("failed to record extraction failure", "upload_id", up.ID, "error", updateErr)
		}

		return up, nil
	}

	txs := statement.ToTransactions(userID, up.ID, rows)
	if err := s.txs.CreateBatch(ctx, txs); err != nil {
		up.Status = StatusFailed
		up.ErrorMessage = "failed to save transactions"

		if updateErr := s.repo.UpdateResult(ctx, up); updateErr != nil {
			slog.Error("failed to record save failure", "upload_id", up.ID, "error", updateErr)
		}

		return up, nil
	}

	up.Status = StatusProcessed
	up.TransactionCount = len(txs)

	if err := s.repo.UpdateResult(ctx, up); err != nil {
		return nil, fmt.Errorf("recording result: %w", err)
	}

	if s.analyzer != nil {
		go func() {
			if err := s.analyzer.Analyze(context.WithoutCancel(ctx), userID); err != nil {
				slog.Error("post-upload analysis failed", "user_id", userID, "error", err)
			}
		}()
	}

	return up, nil
}

// LoadDemo records the built-in sample statement as a synthetic upload so
// every dashboard works without real banking data.
func (s *Service) LoadDemo(ctx context.Context, userID int64) (*Upload, error) {
	raw := demo.Raw()
	month, year := expensePeriod(0, 0)

	up := &Upload{
		ID:           uuid.NewString(),
		UserID:       userID,
		Filename:     demo.Filename,
		ContentType:  "application/json",
		SizeBytes:    int64(len(raw)),
		Status:       StatusProcessing,
		ExpenseMonth: month,
		ExpenseYear:  year,
	}

	if err := s.objects.Put(ctx, userID, up.ID, bytes.NewReader(raw), up.SizeBytes, up.ContentType); err != nil {
		return nil, fmt.Errorf("storing demo file: %w", err)
	}

	if err := s.repo.Create(ctx, up); err != nil {
		return nil, fmt.Errorf("recording demo upload: %w", err)
	}

	txs, _, err := demo.Transactions(userID, up.ID)
	if err != nil {
		return nil, fmt.Errorf("loading demo data: %w", err)
	}

	if err := s.txs.CreateBatch(ctx, txs); err != nil {
		return nil, fmt.Errorf("saving demo transactions: %w", err)
	}

	up.Status = StatusProcessed
	up.TransactionCount = len(txs)

	if err := s.repo.UpdateResult(ctx, up); err != nil {
		return nil, fmt.Errorf("recording demo result: %w", err)
	}

	if s.analyzer != nil {
		go func() {
			if err := s.analyzer.Analyze(context.WithoutCancel(ctx), userID); err != nil {
				slog.Error("post-upload analysis failed", "user_id", userID, "error", err)
			}
		}()
	}

	return up, nil
}

// expensePeriod fills missing declared-period parts with the current date.
func expensePeriod(month, year int) (int, int) {
	now := time.Now()

	if month == 0 {
		month = int(now.Month())
	}

	if year == 0 {
		year = now.Year()
	}

	return month, year
}

type kind int

const (
	kindPDF kind = iota
	kindCSV
)

func fileKind(filename, contentType string) (kind, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case contentType == "application/pdf" || ext == ".pdf":
		return kindPDF, nil
	case contentType == "text/csv" || ext == ".csv":
		return kindCSV, nil
	}

	return 0, ErrUnsupportedType
}

func (s *Service) extract(ctx context.Context, k kind, raw []byte) ([]statement.Row, error) {
	switch k {
	case kindCSV:
		return s.csv.Parse(bytes.NewReader(raw))
	default:
		return s.pdf.Extract(ctx, raw)
	}
}

// List returns the user's uploads, newest first.
func (s *Service) List(ctx context.Context, userID int64, limit int) ([]*Upload, error) {
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}

	return s.repo.List(ctx, userID, limit)
}

func (s *Service) Get(ctx context.Context, userID int64, id string) (*Upload, error) {
	return s.repo.Get(ctx, userID, id)
}

// Latest returns the most recent upload, or ErrNotFound when the user has
// none yet.
func (s *Service) Latest(ctx context.Context, userID int64) (*Upload, error) {
	ups, err := s.repo.List(ctx, userID, 1)
	if err != nil {
		return nil, err
	}

	if len(ups) == 0 {
		return nil, ErrNotFound
	}

	return ups[0], nil
}

// Download streams the original file back.
func (s *Service) Download(ctx context.Context, userID int64, id string) (*Upload, io.ReadCloser, error) {
	up, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.objects.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching file: %w", err)
	}

	return up, rc, nil
}

// Delete removes the upload together with its transactions and stored file.
func (s *Service) Delete(ctx context.Context, userID int64, id string) error {
	if _, err := s.repo.Get(ctx, userID, id); err != nil {
		return err
	}

	if _, err := s.txs.DeleteByFile(ctx, userID, id); err != nil {
		return fmt.Errorf("deleting transactions: %w", err)
	}

	if err := s.objects.Delete(ctx, userID, id); err != nil {
		slog.Warn("failed to delete stored file", "upload_id", id, "error", err)
	}

	return s.repo.Delete(ctx, userID, id)
}
