package upload

import (
	"errors"
	"time"
)

// Status is the processing state of an uploaded statement.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

var (
	ErrNotFound        = errors.New("upload not found")
	ErrFileTooLarge    = errors.New("file exceeds the size limit")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Upload is one statement file a user submitted. FileID doubles as the
// object storage key suffix and the prefix of every transaction extracted
// from the file.
type Upload struct {
	ID               string
	UserID           int64
	Filename         string
	ContentType      string
	SizeBytes        int64
	Status           Status
	TransactionCount int
	ErrorMessage     string

	// ExpenseMonth/ExpenseYear are the period the statement was declared
	// for; they default to the upload date when the caller omits them.
	ExpenseMonth int
	ExpenseYear  int

	CreatedAt time.Time
}
