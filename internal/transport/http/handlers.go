// Package http wires the chi routes for every endpoint and keeps the
// response envelope uniform: success {ok:true,...}, guard/domain failures
// {ok:false,code,error}, validation failures {ok:false,code,details,
// correlationId}.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"kindred/internal/account"
	"kindred/internal/audit"
	"kindred/internal/chat"
	"kindred/internal/geosvc"
	"kindred/internal/match"
	"kindred/internal/moderation"
	"kindred/internal/platform/metrics"
	"kindred/internal/privacy"
	"kindred/internal/profile"
	"kindred/internal/recs"
	dErrors "kindred/pkg/domainerrors"
	"kindred/pkg/httputil"
	"kindred/pkg/requestcontext"
	"kindred/pkg/validate"
)

// Handlers bundles the services behind the API surface.
type Handlers struct {
	log      *slog.Logger
	metrics  *metrics.Metrics
	recs     *recs.Engine
	profiles *profile.Service
	privacy  *privacy.Service
	matches  *match.Service
	blocks   *moderation.BlockService
	reports  *moderation.Service
	mods     *moderation.ModService
	chat     *chat.Service
	geo      *geosvc.Service
	accounts *account.Service
	audits   *audit.Logger
}

func NewHandlers(
	log *slog.Logger,
	m *metrics.Metrics,
	recsEngine *recs.Engine,
	profiles *profile.Service,
	privacySvc *privacy.Service,
	matches *match.Service,
	blocks *moderation.BlockService,
	reports *moderation.Service,
	mods *moderation.ModService,
	chatSvc *chat.Service,
	geoSvc *geosvc.Service,
	accounts *account.Service,
	audits *audit.Logger,
) *Handlers {
	return &Handlers{
		log:      log,
		metrics:  m,
		recs:     recsEngine,
		profiles: profiles,
		privacy:  privacySvc,
		matches:  matches,
		blocks:   blocks,
		reports:  reports,
		mods:     mods,
		chat:     chatSvc,
		geo:      geoSvc,
		accounts: accounts,
		audits:   audits,
	}
}

// decode parses the JSON body into dst and validates it, writing the
// validation envelope itself on failure. The bool reports whether the handler
// should continue.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			h.validationFailed(w, r, []httputil.FieldError{{Path: "", Message: "invalid JSON body"}})
			return false
		}
	}
	if details := validate.Struct(dst); details != nil {
		h.validationFailed(w, r, details)
		return false
	}
	return true
}

func (h *Handlers) validationFailed(w http.ResponseWriter, r *http.Request, details []httputil.FieldError) {
	h.metrics.ValidationFailures.WithLabelValues(r.URL.Path).Inc()
	httputil.WriteValidation(w, r, details)
}

// respondErr renders a service error. Validation errors raised inside a
// service keep the validation envelope shape; everything else goes through
// the coded-error mapping. Only internal failures are logged as errors.
func (h *Handlers) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	code := dErrors.CodeOf(err)
	switch {
	case code == dErrors.CodeValidation:
		h.validationFailed(w, r, []httputil.FieldError{{Path: "", Message: dErrors.MessageOf(err)}})
	case code == dErrors.CodeInternal:
		h.log.ErrorContext(r.Context(), "request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, err)
	default:
		httputil.WriteError(w, err)
	}
}

func actorID(r *http.Request) string {
	return requestcontext.UserID(r.Context())
}
