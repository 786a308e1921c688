package http

import (
	"net/http"
	"time"

	"kindred/pkg/httputil"
)

type chatSendRequest struct {
	To   string `json:"to" validate:"required"`
	Text string `json:"text" validate:"required,max=4000"`
}

func (h *Handlers) handleChatSend(w http.ResponseWriter, r *http.Request) {
	var req chatSendRequest
	if !h.decode(w, r, &req) {
		return
	}
	msg, err := h.chat.Send(r.Context(), actorID(r), req.To, req.Text)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, map[string]any{
		"messageId": msg.ID,
		"sentAt":    msg.SentAt,
	})
}

type chatHistoryRequest struct {
	With  string `json:"with" validate:"required"`
	Limit int    `json:"limit" validate:"omitempty,gte=1,lte=200"`
}

func (h *Handlers) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	var req chatHistoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	hist, err := h.chat.History(r.Context(), actorID(r), req.With, req.Limit)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	msgs := make([]map[string]any, len(hist.Messages))
	for i, m := range hist.Messages {
		msgs[i] = map[string]any{
			"id":     m.ID,
			"from":   m.FromID,
			"to":     m.ToID,
			"text":   m.Body,
			"sentAt": m.SentAt,
			"readAt": m.ReadAt,
		}
	}
	httputil.WriteOK(w, map[string]any{
		"messages":   msgs,
		"peerTyping": hist.PeerTyping,
	})
}

type chatTypingRequest struct {
	To string `json:"to" validate:"required"`
}

func (h *Handlers) handleChatTyping(w http.ResponseWriter, r *http.Request) {
	var req chatTypingRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.chat.Typing(r.Context(), actorID(r), req.To); err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, nil)
}

type chatMarkReadRequest struct {
	With  string     `json:"with" validate:"required"`
	Until *time.Time `json:"until"`
}

func (h *Handlers) handleChatMarkRead(w http.ResponseWriter, r *http.Request) {
	var req chatMarkReadRequest
	if !h.decode(w, r, &req) {
		return
	}
	until := time.Time{}
	if req.Until != nil {
		until = *req.Until
	}
	n, err := h.chat.MarkRead(r.Context(), actorID(r), req.With, until)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, map[string]any{"updated": n})
}
