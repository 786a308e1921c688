package account

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

var csvHeader = []string{"type", "userId", "peer", "detail", "createdAt"}

// WriteCSV renders the export as CSV, one row per record with a type
// discriminator in the first column. An empty export still carries the header
// row.
func WriteCSV(w io.Writer, e Export) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	if e.User != nil {
		if err := cw.Write([]string{"user", e.User.ID, "", e.User.DisplayName, stamp(e.User.CreatedAt)}); err != nil {
			return err
		}
	}
	if e.Profile != nil && e.User != nil {
		detail := e.Profile.City
		if detail == "" {
			detail = e.Profile.Gender
		}
		if err := cw.Write([]string{"profile", e.User.ID, "", detail, ""}); err != nil {
			return err
		}
	}
	if e.Privacy != nil {
		detail := fmt.Sprintf("incognito=%t;hideDistance=%t;profileVisible=%t;mapConsent=%t",
			e.Privacy.Incognito, e.Privacy.HideDistance, e.Privacy.ProfileVisible, e.Privacy.MapConsent)
		if err := cw.Write([]string{"privacy", e.Privacy.UserID, "", detail, ""}); err != nil {
			return err
		}
	}
	if e.Discovery != nil {
		detail := fmt.Sprintf("minAge=%d;maxAge=%d;maxDistanceKm=%d",
			e.Discovery.MinAge, e.Discovery.MaxAge, e.Discovery.MaxDistanceKm)
		if err := cw.Write([]string{"discovery", e.Discovery.UserID, "", detail, ""}); err != nil {
			return err
		}
	}
	for _, l := range e.Likes {
		if err := cw.Write([]string{"like", l.FromID, l.ToID, "", stamp(l.CreatedAt)}); err != nil {
			return err
		}
	}
	for _, m := range e.Matches {
		if err := cw.Write([]string{"match", m.UserA, m.UserB, string(m.Status), stamp(m.CreatedAt)}); err != nil {
			return err
		}
	}
	for _, r := range e.Reports {
		if err := cw.Write([]string{"report", r.ReporterID, r.TargetID, r.Reason, stamp(r.CreatedAt)}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
