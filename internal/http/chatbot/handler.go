// Package chatbot serves the assistant's chat endpoints, including the
// server-sent-events stream.
package chatbot

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clairehq/claire/internal/auth"
	"github.com/clairehq/claire/internal/chat"
	"github.com/clairehq/claire/internal/http/respond"
)

type Handler struct {
	svc *chat.Service
}

func NewHandler(svc *chat.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/chat", h.chat)
	r.Post("/chat/stream", h.chatStream)
	r.Get("/messages", h.messages)
	r.Delete("/messages", h.clear)
}

type messagePayload struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []messagePayload `json:"messages"`
}

type chatResponse struct {
	Messages []messagePayload `json:"messages"`
}

// streamChunk is one server-sent event on the stream endpoint.
type streamChunk struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
}

func (r chatRequest) toMessages() []chat.Message {
	msgs := make([]chat.Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		msgs = append(msgs, chat.Message{Role: chat.Role(m.Role), Content: m.Content})
	}

	return msgs
}

func toChatResponse(msgs []chat.Message) chatResponse {
	out := chatResponse{Messages: make([]messagePayload, 0, len(msgs))}
	for _, m := range msgs {
		out.Messages = append(out.Messages, messagePayload{Role: string(m.Role), Content: m.Content})
	}

	return out
}

func writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		respond.Error(w, http.StatusBadRequest, "messages must not be empty")
	case errors.Is(err, chat.ErrBadRole):
		respond.Error(w, http.StatusBadRequest, "message roles must be user or assistant")
	default:
		respond.Error(w, http.StatusInternalServerError, "chat request failed")
	}
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msgs, err := h.svc.Chat(r.Context(), u.ID, req.toMessages())
	if err != nil {
		writeChatError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toChatResponse(msgs))
}

// chatStream replies as server-sent events, one JSON chunk per event, with
// a final done marker. Errors after the stream has started are reported as
// a done chunk carrying the message, since the status line is already out.
func (h *Handler) chatStream(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stream, err := h.svc.ChatStream(r.Context(), u.ID, req.toMessages())
	if err != nil {
		writeChatError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respond.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeChunk := func(chunk streamChunk) bool {
		data, err := json.Marshal(chunk)
		if err != nil {
			return false
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return false
		}

		flusher.Flush()

		return true
	}

	for content, err := range stream {
		if err != nil {
			writeChunk(streamChunk{Content: "the assistant is unavailable right now", Done: true})
			return
		}

		if !writeChunk(streamChunk{Content: content}) {
			return
		}
	}

	writeChunk(streamChunk{Done: true})
}

func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	msgs, err := h.svc.History(r.Context(), u.ID)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to load chat history")
		return
	}

	respond.JSON(w, http.StatusOK, toChatResponse(msgs))
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	if err := h.svc.Clear(r.Context(), u.ID); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to clear chat history")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Chat history cleared successfully"})
}
