package http

import (
	"net/http"

	"kindred/internal/account"
	"kindred/pkg/httputil"
)

type exportRequest struct {
	Format string `json:"format" validate:"omitempty,oneof=json csv"`
}

func (h *Handlers) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !h.decode(w, r, &req) {
		return
	}

	data, err := h.accounts.ExportData(r.Context(), actorID(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	if req.Format == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="export.csv"`)
		if err := account.WriteCSV(w, data); err != nil {
			h.log.ErrorContext(r.Context(), "csv export write failed", "error", err)
		}
		return
	}
	httputil.WriteOK(w, map[string]any{"data": data})
}

type deleteRequest struct {
	Confirm bool `json:"confirm"`
}

func (h *Handlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.accounts.Delete(r.Context(), actorID(r), req.Confirm); err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, nil)
}
