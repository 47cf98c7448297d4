package chat_test

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/clairehq/claire/internal/chat"
)

type fixture struct {
	svc       *chat.Service
	repo      *chat.MockRepository
	responder *chat.MockResponder
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := chat.NewMockRepository(ctrl)
	responder := chat.NewMockResponder(ctrl)

	return fixture{
		svc:       chat.NewService(repo, responder),
		repo:      repo,
		responder: responder,
	}
}

var session = &chat.Session{ID: "s1", UserID: 1, Name: "Chat with Claire"}

func TestService_Chat(t *testing.T) {
	f := newFixture(t)

	incoming := []chat.Message{{Role: chat.RoleUser, Content: "How much did I spend on groceries?"}}
	history := []chat.Message{
		{ID: 1, SessionID: "s1", Role: chat.RoleUser, Content: "How much did I spend on groceries?"},
	}

	f.repo.EXPECT().EnsureSession(gomock.Any(), int64(1)).Return(session, nil)
	f.repo.EXPECT().Append(gomock.Any(), "s1", incoming).Return(nil)
	f.repo.EXPECT().Messages(gomock.Any(), "s1").Return(history, nil)
	f.responder.EXPECT().Respond(gomock.Any(), int64(1), history).Return("You spent 200.00.", nil)
	f.repo.EXPECT().Append(gomock.Any(), "s1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, msgs []chat.Message) error {
			require.Len(t, msgs, 1)
			assert.Equal(t, chat.RoleAssistant, msgs[0].Role)
			assert.Equal(t, "You spent 200.00.", msgs[0].Content)

			return nil
		})

	out, err := f.svc.Chat(context.Background(), 1, incoming)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, chat.RoleAssistant, out[1].Role)
}

func TestService_Chat_Validation(t *testing.T) {
	tests := []struct {
		name    string
		msgs    []chat.Message
		wantErr error
	}{
		{"NoMessages", nil, chat.ErrEmptyMessage},
		{"BlankContent", []chat.Message{{Role: chat.RoleUser, Content: "   "}}, chat.ErrEmptyMessage},
		{"UnknownRole", []chat.Message{{Role: chat.Role("system"), Content: "hi"}}, chat.ErrBadRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.Chat(context.Background(), 1, tt.msgs)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_ChatStream(t *testing.T) {
	f := newFixture(t)

	incoming := []chat.Message{{Role: chat.RoleUser, Content: "hi"}}
	chunks := []string{"Hello", ", how can I help?"}

	f.repo.EXPECT().EnsureSession(gomock.Any(), int64(1)).Return(session, nil)
	f.repo.EXPECT().Append(gomock.Any(), "s1", incoming).Return(nil)
	f.repo.EXPECT().Messages(gomock.Any(), "s1").Return(nil, nil)
	f.responder.EXPECT().Stream(gomock.Any(), int64(1), gomock.Any()).
		Return(iter.Seq2[string, error](func(yield func(string, error) bool) {
			for _, c := range chunks {
				if !yield(c, nil) {
					return
				}
			}
		}))
	// The accumulated reply is persisted after the stream ends.
	f.repo.EXPECT().Append(gomock.Any(), "s1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, msgs []chat.Message) error {
			require.Len(t, msgs, 1)
			assert.Equal(t, "Hello, how can I help?", msgs[0].Content)

			return nil
		})

	stream, err := f.svc.ChatStream(context.Background(), 1, incoming)
	require.NoError(t, err)

	var got []string
	for chunk, err := range stream {
		require.NoError(t, err)
		got = append(got, chunk)
	}

	assert.Equal(t, chunks, got)
}

func TestService_ChatStream_ErrorMidStream(t *testing.T) {
	f := newFixture(t)

	incoming := []chat.Message{{Role: chat.RoleUser, Content: "hi"}}
	streamErr := errors.New("model down")

	f.repo.EXPECT().EnsureSession(gomock.Any(), int64(1)).Return(session, nil)
	f.repo.EXPECT().Append(gomock.Any(), "s1", incoming).Return(nil)
	f.repo.EXPECT().Messages(gomock.Any(), "s1").Return(nil, nil)
	f.responder.EXPECT().Stream(gomock.Any(), int64(1), gomock.Any()).
		Return(iter.Seq2[string, error](func(yield func(string, error) bool) {
			if !yield("partial", nil) {
				return
			}
			yield("", streamErr)
		}))
	// The partial reply still lands in history.
	f.repo.EXPECT().Append(gomock.Any(), "s1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, msgs []chat.Message) error {
			require.Len(t, msgs, 1)
			assert.Equal(t, "partial", msgs[0].Content)

			return nil
		})

	stream, err := f.svc.ChatStream(context.Background(), 1, incoming)
	require.NoError(t, err)

	var gotErr error
	for _, err := range stream {
		if err != nil {
			gotErr = err
		}
	}

	assert.ErrorIs(t, gotErr, streamErr)
}

func TestService_HistoryAndClear(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().EnsureSession(gomock.Any(), int64(1)).Return(session, nil).Times(2)
	f.repo.EXPECT().Messages(gomock.Any(), "s1").
		Return([]chat.Message{{ID: 1, Role: chat.RoleUser, Content: "hi"}}, nil)
	f.repo.EXPECT().Clear(gomock.Any(), "s1").Return(nil)

	msgs, err := f.svc.History(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	require.NoError(t, f.svc.Clear(context.Background(), 1))
}
