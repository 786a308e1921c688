package http

import (
	"net/http"

	"kindred/internal/audit"
	"kindred/pkg/httputil"
)

type modVerifyRequest struct {
	UserID string `json:"userId" validate:"required"`
}

func (h *Handlers) handleModVerify(w http.ResponseWriter, r *http.Request) {
	var req modVerifyRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.mods.Verify(r.Context(), actorID(r), req.UserID); err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, nil)
}

type modBlockRequest struct {
	UserID string `json:"userId" validate:"required"`
	Reason string `json:"reason" validate:"required,max=200"`
}

func (h *Handlers) handleModBlock(w http.ResponseWriter, r *http.Request) {
	var req modBlockRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.mods.BlockUser(r.Context(), actorID(r), req.UserID, req.Reason); err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, nil)
}

type modAuditRequest struct {
	UserID string `json:"userId" validate:"required"`
}

func (h *Handlers) handleModAudit(w http.ResponseWriter, r *http.Request) {
	var req modAuditRequest
	if !h.decode(w, r, &req) {
		return
	}
	entries, err := h.audits.Trail(r.Context(), req.UserID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	httputil.WriteOK(w, map[string]any{"entries": entries})
}
