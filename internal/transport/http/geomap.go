package http

import (
	"net/http"
	"strconv"

	"kindred/internal/geosvc"
	"kindred/pkg/geo"
	"kindred/pkg/httputil"
)

type mapConsentRequest struct {
	Granted *bool `json:"granted" validate:"required"`
}

func (h *Handlers) handleMapConsent(w http.ResponseWriter, r *http.Request) {
	var req mapConsentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.geo.Consent(r.Context(), actorID(r), *req.Granted); err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, map[string]any{"granted": *req.Granted})
}

type mapLocationRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lon *float64 `json:"lon" validate:"required,longitude"`
}

func (h *Handlers) handleMapLocation(w http.ResponseWriter, r *http.Request) {
	var req mapLocationRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.geo.ShareLocation(r.Context(), actorID(r), geo.Point{Lat: *req.Lat, Lon: *req.Lon}); err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, nil)
}

func (h *Handlers) handleMapNearby(w http.ResponseWriter, r *http.Request) {
	radius := 0
	if raw := r.URL.Query().Get("radiusKm"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.validationFailed(w, r, []httputil.FieldError{{Path: "radiusKm", Message: "must be a positive integer"}})
			return
		}
		radius = n
	}

	users, err := h.geo.Nearby(r.Context(), actorID(r), radius)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	if users == nil {
		users = []geosvc.NearbyUser{}
	}
	httputil.WriteOK(w, map[string]any{"locations": users})
}
