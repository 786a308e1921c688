package http

import (
	"net/http"

	"kindred/internal/profile"
	"kindred/pkg/geo"
	"kindred/pkg/httputil"
)

type sendDataRequest struct {
	DisplayName string   `json:"displayName" validate:"required,max=80"`
	Pronouns    string   `json:"pronouns" validate:"omitempty,max=40"`
	Gender      string   `json:"gender" validate:"omitempty,max=40"`
	Orientation []string `json:"orientation" validate:"omitempty,max=10,dive,max=40"`
	Intents     []string `json:"intents" validate:"omitempty,max=10,dive,max=40"`
	Bio         string   `json:"bio" validate:"omitempty,max=2000"`
	BirthYear   int      `json:"birthYear" validate:"omitempty,gte=1900,lte=2100"`
	City        string   `json:"city" validate:"omitempty,max=100"`
	Lat         *float64 `json:"lat" validate:"omitempty,latitude"`
	Lon         *float64 `json:"lon" validate:"omitempty,longitude"`
}

func (h *Handlers) handleSendData(w http.ResponseWriter, r *http.Request) {
	var req sendDataRequest
	if !h.decode(w, r, &req) {
		return
	}
	if (req.Lat == nil) != (req.Lon == nil) {
		h.validationFailed(w, r, []httputil.FieldError{{Path: "lat", Message: "lat and lon must be given together"}})
		return
	}

	sub := profile.Submission{
		DisplayName: req.DisplayName,
		Pronouns:    req.Pronouns,
		Gender:      req.Gender,
		Orientation: req.Orientation,
		Intents:     req.Intents,
		Bio:         req.Bio,
		BirthYear:   req.BirthYear,
		City:        req.City,
	}
	if req.Lat != nil {
		sub.HasCoords = true
		sub.Coords = geo.Point{Lat: *req.Lat, Lon: *req.Lon}
	}

	if err := h.profiles.Submit(r.Context(), actorID(r), sub); err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteOK(w, nil)
}
