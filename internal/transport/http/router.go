package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kindred/internal/identity"
	"kindred/internal/platform/metrics"
	"kindred/internal/platform/middleware"
	"kindred/internal/store"
	"kindred/pkg/httputil"
)

const requestTimeout = 15 * time.Second

// RouterConfig carries the transport-level wiring the handlers themselves do
// not own.
type RouterConfig struct {
	Verifier       identity.Verifier
	Users          store.Users
	ModSigningKey  string
	MetricsHandler http.Handler
	Health         func(r *http.Request) error
}

// NewRouter builds the chi router with the full middleware chain and every
// route group.
func NewRouter(h *Handlers, log *slog.Logger, m *metrics.Metrics, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.ClientMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(req); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"ok":false,"error":"unhealthy"}`))
				return
			}
		}
		httputil.WriteOK(w, nil)
	})
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		// Authenticated user surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireIdentity(cfg.Verifier, cfg.Users, log))

			r.Post("/recs", h.handleRecs)
			r.Post("/sendData", h.handleSendData)

			r.Post("/like", h.handleLike)
			r.Post("/pass", h.handlePass)
			r.Get("/matches", h.handleMatches)
			r.Post("/unmatch", h.handleUnmatch)
			r.Post("/block", h.handleBlock)
			r.Post("/unblock", h.handleUnblock)
			r.Post("/report", h.handleReport)

			r.Post("/chat/send", h.handleChatSend)
			r.Post("/chat/history", h.handleChatHistory)
			r.Post("/chat/typing", h.handleChatTyping)
			r.Post("/chat/mark-read", h.handleChatMarkRead)

			r.Get("/map/nearby", h.handleMapNearby)
			r.Post("/map/consent", h.handleMapConsent)
			r.Post("/map/location", h.handleMapLocation)

			r.Post("/privacy/incognito", h.handleIncognito)
			r.Post("/privacy/settings", h.handlePrivacySettings)
			r.Post("/discovery/settings", h.handleDiscoverySettings)

			r.Post("/me/export", h.handleExport)
			r.Post("/me/delete", h.handleDelete)
		})

		// Moderator surface, gated by a signed moderator token.
		r.Route("/mod", func(r chi.Router) {
			r.Use(middleware.RequireModerator(cfg.ModSigningKey, log))
			r.Post("/verify", h.handleModVerify)
			r.Post("/block-user", h.handleModBlock)
			r.Post("/audit", h.handleModAudit)
		})
	})

	return r
}
