package chat_test

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/genai"

	"github.com/clairehq/claire/internal/ai"
	"github.com/clairehq/claire/internal/chat"
	"github.com/clairehq/claire/internal/transaction"
)

type fakeGenerator struct {
	text      string
	chunks    []string
	err       error
	gotConfig *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(
	_ context.Context, _ string, _ []*genai.Content, config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.gotConfig = config

	if f.err != nil {
		return nil, f.err
	}

	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}}},
		},
	}, nil
}

func (f *fakeGenerator) GenerateContentStream(
	_ context.Context, _ string, _ []*genai.Content, config *genai.GenerateContentConfig,
) iter.Seq2[*genai.GenerateContentResponse, error] {
	f.gotConfig = config

	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		if f.err != nil {
			yield(nil, f.err)
			return
		}

		for _, chunk := range f.chunks {
			resp := &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{
					{Content: &genai.Content{Parts: []*genai.Part{{Text: chunk}}}},
				},
			}
			if !yield(resp, nil) {
				return
			}
		}
	}
}

var _ ai.ContentGenerator = (*fakeGenerator)(nil)

func newAgent(t *testing.T, gen ai.ContentGenerator, txs []*transaction.Transaction, txErr error) *chat.Agent {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockTxs := chat.NewMockTransactions(ctrl)
	mockTxs.EXPECT().List(gomock.Any(), gomock.Any()).Return(txs, txErr).AnyTimes()

	return chat.NewAgent(gen, mockTxs)
}

func systemText(config *genai.GenerateContentConfig) string {
	var sb strings.Builder

	for _, part := range config.SystemInstruction.Parts {
		sb.WriteString(part.Text)
	}

	return sb.String()
}

func TestAgent_Respond_GroundsInTransactions(t *testing.T) {
	gen := &fakeGenerator{text: "You spent 200.00 on groceries."}

	agent := newAgent(t, gen, []*transaction.Transaction{
		{Type: transaction.TypeCredit, Amount: decimal.NewFromInt(3000), Currency: "EUR"},
		{Type: transaction.TypeDebit, Amount: decimal.NewFromInt(200), Category: transaction.CategoryGroceries, Currency: "EUR"},
	}, nil)

	reply, err := agent.Respond(context.Background(), 1, []chat.Message{
		{Role: chat.RoleUser, Content: "groceries?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "You spent 200.00 on groceries.", reply)

	sys := systemText(gen.gotConfig)
	assert.Contains(t, sys, "income: 3000.00")
	assert.Contains(t, sys, "groceries: 200.00")
}

func TestAgent_Respond_NoDataDegrades(t *testing.T) {
	gen := &fakeGenerator{text: "Please upload a statement first."}

	agent := newAgent(t, gen, nil, errors.New("db down"))

	_, err := agent.Respond(context.Background(), 1, []chat.Message{
		{Role: chat.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	assert.Contains(t, systemText(gen.gotConfig), "no transaction data available")
}

func TestAgent_Stream(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"Hello", " there"}}

	agent := newAgent(t, gen, nil, nil)

	var got []string
	for chunk, err := range agent.Stream(context.Background(), 1, []chat.Message{
		{Role: chat.RoleUser, Content: "hi"},
	}) {
		require.NoError(t, err)
		got = append(got, chunk)
	}

	assert.Equal(t, []string{"Hello", " there"}, got)
}

func TestAgent_Stream_Error(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model down")}

	agent := newAgent(t, gen, nil, nil)

	var gotErr error
	for _, err := range agent.Stream(context.Background(), 1, []chat.Message{
		{Role: chat.RoleUser, Content: "hi"},
	}) {
		gotErr = err
	}

	assert.Error(t, gotErr)
}
