package upload_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/clairehq/claire/internal/demo"
	"github.com/clairehq/claire/internal/statement"
	"github.com/clairehq/claire/internal/transaction"
	"github.com/clairehq/claire/internal/upload"
)

type deps struct {
	repo    *upload.MockRepository
	objects *upload.MockObjectStore
	pdf     *upload.MockPDFExtractor
	csv     *upload.MockCSVParser
	txs     *upload.MockTransactions
}

func newService(t *testing.T, analyzer upload.Analyzer) (*upload.Service, deps) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	d := deps{
		repo:    upload.NewMockRepository(ctrl),
		objects: upload.NewMockObjectStore(ctrl),
		pdf:     upload.NewMockPDFExtractor(ctrl),
		csv:     upload.NewMockCSVParser(ctrl),
		txs:     upload.NewMockTransactions(ctrl),
	}

	return upload.NewService(d.repo, d.objects, d.pdf, d.csv, d.txs, analyzer), d
}

func sampleRows() []statement.Row {
	return []statement.Row{
		{
			Date:        time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
			Description: "COMPRA CONTINENTE",
			Amount:      decimal.NewFromFloat(45.30),
			Type:        transaction.TypeDebit,
		},
	}
}

func TestService_Process_PDF(t *testing.T) {
	svc, d := newService(t, nil)

	d.objects.EXPECT().
		Put(gomock.Any(), int64(1), gomock.Any(), gomock.Any(), int64(8), "application/pdf").
		Return(nil)
	d.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	d.pdf.EXPECT().Extract(gomock.Any(), []byte("%PDF-1.4")).Return(sampleRows(), nil)

	var created []*transaction.Transaction

	d.txs.EXPECT().
		CreateBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, txs []*transaction.Transaction) error {
			created = txs
			return nil
		})
	d.repo.EXPECT().UpdateResult(gomock.Any(), gomock.Any()).Return(nil)

	up, err := svc.Process(context.Background(), 1, "june.pdf", "application/pdf", 8, 0, 0, bytes.NewReader([]byte("%PDF-1.4")))
	require.NoError(t, err)

	assert.Equal(t, upload.StatusProcessed, up.Status)
	assert.Equal(t, 1, up.TransactionCount)
	assert.NotEmpty(t, up.ID)
	require.Len(t, created, 1)
	assert.Equal(t, up.ID+"_0", created[0].ID)
}

func TestService_Process_CSV(t *testing.T) {
	svc, d := newService(t, nil)

	content := "Date,Description,Amount\n2025-06-01,COFFEE,-3.50\n"

	d.objects.EXPECT().
		Put(gomock.Any(), int64(1), gomock.Any(), gomock.Any(), int64(len(content)), "text/csv").
		Return(nil)
	d.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	d.csv.EXPECT().Parse(gomock.Any()).Return(sampleRows(), nil)
	d.txs.EXPECT().CreateBatch(gomock.Any(), gomock.Any()).Return(nil)
	d.repo.EXPECT().UpdateResult(gomock.Any(), gomock.Any()).Return(nil)

	up, err := svc.Process(context.Background(), 1, "export.csv", "text/csv", int64(len(content)), 0, 0, strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, upload.StatusProcessed, up.Status)
}

func TestService_Process_ExpensePeriod(t *testing.T) {
	svc, d := newService(t, nil)

	d.objects.EXPECT().Put(gomock.Any(), int64(1), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	d.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	d.pdf.EXPECT().Extract(gomock.Any(), gomock.Any()).Return(sampleRows(), nil)
	d.txs.EXPECT().CreateBatch(gomock.Any(), gomock.Any()).Return(nil)
	d.repo.EXPECT().UpdateResult(gomock.Any(), gomock.Any()).Return(nil)

	up, err := svc.Process(context.Background(), 1, "june.pdf", "application/pdf", 8, 6, 2025, bytes.NewReader([]byte("%PDF-1.4")))
	require.NoError(t, err)

	assert.Equal(t, 6, up.ExpenseMonth)
	assert.Equal(t, 2025, up.ExpenseYear)
}

func TestService_Process_ExpensePeriodDefaultsToToday(t *testing.T) {
	svc, d := newService(t, nil)

	d.objects.EXPECT().Put(gomock.Any(), int64(1), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	d.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	d.pdf.EXPECT().Extract(gomock.Any(), gomock.Any()).Return(sampleRows(), nil)
	d.txs.EXPECT().CreateBatch(gomock.Any(), gomock.Any()).Return(nil)
	d.repo.EXPECT().UpdateResult(gomock.Any(), gomock.Any()).Return(nil)

	up, err := svc.Process(context.Background(), 1, "june.pdf", "application/pdf", 8, 0, 0, bytes.NewReader([]byte("%PDF-1.4")))
	require.NoError(t, err)

	now := time.Now()
	assert.Equal(t, int(now.Month()), up.ExpenseMonth)
	assert.Equal(t, now.Year(), up.ExpenseYear)
}

func TestService_Process_RejectsOversizedFile(t *testing.T) {
	svc, _ := newService(t, nil)

	_, err := svc.Process(context.Background(), 1, "big.pdf", "application/pdf", upload.MaxFileSize+1, 0, 0, bytes.NewReader(nil))
	assert.ErrorIs(t, err, upload.ErrFileTooLarge)
}

func TestService_Process_RejectsUnsupportedType(t *testing.T) {
	svc, _ := newService(t, nil)

	_, err := svc.Process(context.Background(), 1, "notes.txt", "text/plain", 10, 0, 0, strings.NewReader("plain text"))
	assert.ErrorIs(t, err, upload.ErrUnsupportedType)
}

func TestService_Process_ExtractionFailureIsRecorded(t *testing.T) {
	svc, d := newService(t, nil)

	d.objects.EXPECT().Put(gomock.Any(), int64(1), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	d.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	d.pdf.EXPECT().Extract(gomock.Any(), gomock.Any()).Return(nil, errors.New("model refused"))

	var recorded *upload.Upload

	d.repo.EXPECT().
		UpdateResult(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *upload.Upload) error {
			recorded = u
			return nil
		})

	up, err := svc.Process(context.Background(), 1, "june.pdf", "application/pdf", 8, 0, 0, bytes.NewReader([]byte("%PDF-1.4")))
	require.NoError(t, err)

	assert.Equal(t, upload.StatusFailed, up.Status)
	assert.Contains(t, up.ErrorMessage, "model refused")
	require.NotNil(t, recorded)
	assert.Equal(t, upload.StatusFailed, recorded.Status)
}

func TestService_Process_TriggersAnalysis(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	analyzed := make(chan int64, 1)

	analyzer := upload.NewMockAnalyzer(ctrl)
	analyzer.EXPECT().
		Analyze(gomock.Any(), int64(1)).
		DoAndReturn(func(_ context.Context, userID int64) error {
			analyzed <- userID
			return nil
		})

	svc, d := newService(t, analyzer)

	d.objects.EXPECT().Put(gomock.Any(), int64(1), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	d.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	d.pdf.EXPECT().Extract(gomock.Any(), gomock.Any()).Return(sampleRows(), nil)
	d.txs.EXPECT().CreateBatch(gomock.Any(), gomock.Any()).Return(nil)
	d.repo.EXPECT().UpdateResult(gomock.Any(), gomock.Any()).Return(nil)

	_, err := svc.Process(context.Background(), 1, "june.pdf", "application/pdf", 8, 0, 0, bytes.NewReader([]byte("%PDF-1.4")))
	require.NoError(t, err)

	select {
	case userID := <-analyzed:
		assert.Equal(t, int64(1), userID)
	case <-time.After(time.Second):
		t.Fatal("analysis was never triggered")
	}
}

func TestService_List_ClampsLimit(t *testing.T) {
	svc, d := newService(t, nil)

	d.repo.EXPECT().List(gomock.Any(), int64(1), 50).Return(nil, nil).Times(3)
	d.repo.EXPECT().List(gomock.Any(), int64(1), 25).Return(nil, nil)

	for _, limit := range []int{0, -3, 101} {
		_, err := svc.List(context.Background(), 1, limit)
		require.NoError(t, err)
	}

	_, err := svc.List(context.Background(), 1, 25)
	require.NoError(t, err)
}

func TestService_Latest(t *testing.T) {
	svc, d := newService(t, nil)

	d.repo.EXPECT().
		List(gomock.Any(), int64(1), 1).
		Return([]*upload.Upload{{ID: "newest"}}, nil)

	up, err := svc.Latest(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "newest", up.ID)

	d.repo.EXPECT().List(gomock.Any(), int64(1), 1).Return(nil, nil)

	_, err = svc.Latest(context.Background(), 1)
	assert.ErrorIs(t, err, upload.ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	svc, d := newService(t, nil)

	d.repo.EXPECT().Get(gomock.Any(), int64(1), "f1").Return(&upload.Upload{ID: "f1"}, nil)
	d.txs.EXPECT().DeleteByFile(gomock.Any(), int64(1), "f1").Return(int64(12), nil)
	d.objects.EXPECT().Delete(gomock.Any(), int64(1), "f1").Return(nil)
	d.repo.EXPECT().Delete(gomock.Any(), int64(1), "f1").Return(nil)

	require.NoError(t, svc.Delete(context.Background(), 1, "f1"))
}

func TestService_Delete_NotFound(t *testing.T) {
	svc, d := newService(t, nil)

	d.repo.EXPECT().Get(gomock.Any(), int64(1), "nope").Return(nil, upload.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), 1, "nope"), upload.ErrNotFound)
}

func TestService_LoadDemo(t *testing.T) {
	svc, d := newService(t, nil)

	d.objects.EXPECT().
		Put(gomock.Any(), int64(1), gomock.Any(), gomock.Any(), gomock.Any(), "application/json").
		Return(nil)
	d.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	var created []*transaction.Transaction

	d.txs.EXPECT().
		CreateBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, txs []*transaction.Transaction) error {
			created = txs
			return nil
		})
	d.repo.EXPECT().UpdateResult(gomock.Any(), gomock.Any()).Return(nil)

	up, err := svc.LoadDemo(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, upload.StatusProcessed, up.Status)
	assert.Equal(t, demo.Filename, up.Filename)
	assert.Equal(t, len(created), up.TransactionCount)
	require.NotEmpty(t, created)
	assert.Equal(t, up.ID+"_0", created[0].ID)
}
