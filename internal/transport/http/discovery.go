package http

import (
	"net/http"
	"time"

	"kindred/internal/domain"
	"kindred/pkg/httputil"
)

type recsRequest struct {
	Limit          int      `json:"limit" validate:"omitempty,gte=1,lte=50"`
	MinAge         *int     `json:"minAge" validate:"omitempty,gte=18,lte=120"`
	MaxAge         *int     `json:"maxAge" validate:"omitempty,gte=18,lte=120"`
	MaxDistanceKm  *int     `json:"maxDistanceKm" validate:"omitempty,gte=1,lte=20000"`
	GenderInterest []string `json:"genderInterest" validate:"omitempty,max=10"`
	Intents        []string `json:"intents" validate:"omitempty,max=10"`
}

func (h *Handlers) handleRecs(w http.ResponseWriter, r *http.Request) {
	var req recsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Limit == 0 {
		req.Limit = 20
	}

	candidates, err := h.recs.Recommend(r.Context(), actorID(r), domain.DiscoveryOverrides{
		MinAge:         req.MinAge,
		MaxAge:         req.MaxAge,
		MaxDistanceKm:  req.MaxDistanceKm,
		GenderInterest: req.GenderInterest,
		Intents:        req.Intents,
	}, req.Limit)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, map[string]any{"candidates": candidates})
}

type targetRequest struct {
	UserID string `json:"userId" validate:"required"`
}

func (h *Handlers) handleLike(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.matches.Like(r.Context(), actorID(r), req.UserID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	payload := map[string]any{"matched": res.Matched}
	if res.Matched {
		payload["matchKey"] = res.MatchKey
	}
	httputil.WriteOK(w, payload)
}

func (h *Handlers) handlePass(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.matches.Pass(r.Context(), actorID(r), req.UserID); err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, nil)
}

func (h *Handlers) handleBlock(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.blocks.Block(r.Context(), actorID(r), req.UserID); err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, nil)
}

func (h *Handlers) handleUnblock(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.blocks.Unblock(r.Context(), actorID(r), req.UserID); err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, nil)
}

type matchView struct {
	MatchKey  string `json:"matchKey"`
	Peer      string `json:"peer"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

func (h *Handlers) handleMatches(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	list, err := h.matches.List(r.Context(), actor)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	out := make([]matchView, 0, len(list))
	for _, m := range list {
		out = append(out, matchView{
			MatchKey:  m.Key,
			Peer:      m.Other(actor),
			Status:    string(m.Status),
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	httputil.WriteOK(w, map[string]any{"matches": out})
}

func (h *Handlers) handleUnmatch(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.matches.Unmatch(r.Context(), actorID(r), req.UserID); err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, nil)
}

type reportRequest struct {
	UserID  string `json:"userId" validate:"required"`
	Reason  string `json:"reason" validate:"required,max=100"`
	Details string `json:"details" validate:"omitempty,max=2000"`
}

func (h *Handlers) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.reports.Report(r.Context(), actorID(r), req.UserID, req.Reason, req.Details); err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, nil)
}
