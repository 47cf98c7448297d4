package transaction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateBatch(ctx context.Context, txs []*Transaction) error
	ListTransactions(ctx context.Context, filter Filter) ([]*Transaction, error)
	GetTransaction(ctx context.Context, userID int64, id string) (*Transaction, error)
	DeleteByFile(ctx context.Context, userID int64, fileID string) (int64, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Filter narrows a transaction query. Nil fields are not applied. The scope
// contract is carried by FileID versus StartDate/EndDate: scoped endpoints
// pass exactly one of the two.
type Filter struct {
	UserID         *int64
	FileID         *string
	StartDate      *time.Time
	EndDate        *time.Time
	MerchantName   *string
	Type           *Type
	Category       *Category
	IsSubscription *bool
	MinAmount      *decimal.Decimal
	MaxAmount      *decimal.Decimal
	Year           *int
	Month          *int
	Currency       *string
	Description    *string

	// SubscriptionStatuses matches any of the given statuses when non-empty.
	SubscriptionStatuses []SubscriptionStatus

	Limit     *int
	Offset    int
	OrderBy   string
	OrderDesc bool
}

// orderColumns is the closed set of sortable fields; anything else falls back
// to transaction_date.
var orderColumns = map[string]string{
	"transaction_date": "transaction_date",
	"amount":           "amount",
	"created_at":       "created_at",
	"merchant_name":    "merchant_name",
}

// OrderColumn resolves the requested sort field against the allowed set.
func (f Filter) OrderColumn() string {
	if col, ok := orderColumns[f.OrderBy]; ok {
		return col
	}

	return "transaction_date"
}

func (s *Service) CreateBatch(ctx context.Context, txs []*Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	return s.repo.CreateBatch(ctx, txs)
}

func (s *Service) List(ctx context.Context, filter Filter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

func (s *Service) Get(ctx context.Context, userID int64, id string) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, userID, id)
}

func (s *Service) DeleteByFile(ctx context.Context, userID int64, fileID string) (int64, error) {
	return s.repo.DeleteByFile(ctx, userID, fileID)
}

// Sankey lists transactions for the filter and folds them into the cash-flow
// graph consumed by the dashboard.
func (s *Service) Sankey(ctx context.Context, filter Filter) (*SankeyData, error) {
	txs, err := s.repo.ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}

	return ToSankey(txs), nil
}
