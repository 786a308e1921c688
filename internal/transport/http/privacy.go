package http

import (
	"net/http"

	"kindred/internal/domain"
	"kindred/internal/privacy"
	"kindred/pkg/httputil"
)

type incognitoRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

func (h *Handlers) handleIncognito(w http.ResponseWriter, r *http.Request) {
	var req incognitoRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.privacy.SetIncognito(r.Context(), actorID(r), *req.Enabled)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, map[string]any{"incognito": p.Incognito})
}

type privacySettingsRequest struct {
	Incognito      *bool `json:"incognito"`
	HideDistance   *bool `json:"hideDistance"`
	ProfileVisible *bool `json:"profileVisible"`
}

func (h *Handlers) handlePrivacySettings(w http.ResponseWriter, r *http.Request) {
	var req privacySettingsRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.privacy.Update(r.Context(), actorID(r), privacy.Overrides{
		Incognito:      req.Incognito,
		HideDistance:   req.HideDistance,
		ProfileVisible: req.ProfileVisible,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, map[string]any{
		"incognito":      p.Incognito,
		"hideDistance":   p.HideDistance,
		"profileVisible": p.ProfileVisible,
		"mapConsent":     p.MapConsent,
	})
}

type discoverySettingsRequest struct {
	MinAge         *int     `json:"minAge" validate:"omitempty,gte=18,lte=120"`
	MaxAge         *int     `json:"maxAge" validate:"omitempty,gte=18,lte=120"`
	MaxDistanceKm  *int     `json:"maxDistanceKm" validate:"omitempty,gte=1,lte=20000"`
	GenderInterest []string `json:"genderInterest" validate:"omitempty,max=10"`
	Intents        []string `json:"intents" validate:"omitempty,max=10"`
}

func (h *Handlers) handleDiscoverySettings(w http.ResponseWriter, r *http.Request) {
	var req discoverySettingsRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, err := h.privacy.UpdateDiscovery(r.Context(), actorID(r), domain.DiscoveryOverrides{
		MinAge:         req.MinAge,
		MaxAge:         req.MaxAge,
		MaxDistanceKm:  req.MaxDistanceKm,
		GenderInterest: req.GenderInterest,
		Intents:        req.Intents,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, map[string]any{
		"minAge":        s.MinAge,
		"maxAge":        s.MaxAge,
		"maxDistanceKm": s.MaxDistanceKm,
	})
}
