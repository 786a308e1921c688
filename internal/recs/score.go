package recs

import (
	"time"

	"kindred/internal/domain"
)

// Scoring weights. The score is a pure function of the two profiles, the
// requester's settings and the computed distance, so a fixed input set always
// produces the same ranking.
const (
	weightOrientation = 0.40
	weightIntents     = 0.30
	weightAgeFit      = 0.20
	weightDistance    = 0.10

	// distanceHalfKm is the distance at which the distance component decays
	// to half; the penalty grows monotonically with distance.
	distanceHalfKm = 25.0
)

// score computes the compatibility of a candidate for the requesting user.
// Result is in [0,1].
func score(actor domain.Profile, settings domain.DiscoverySettings, cand domain.Profile, distKm float64, hasDist bool, now time.Time) float64 {
	s := weightOrientation*overlap(actor.Orientation, cand.Orientation) +
		weightIntents*overlap(actor.Intents, cand.Intents) +
		weightAgeFit*ageFit(settings, cand.Age(now))

	// Unknown distance scores the neutral midpoint so coordinate-less
	// profiles are neither favored nor buried.
	distScore := 0.5
	if hasDist {
		distScore = distanceHalfKm / (distanceHalfKm + distKm)
	}
	return s + weightDistance*distScore
}

// overlap is the Jaccard index of two string sets. Two empty sets count as a
// full overlap: users who declared nothing should not be penalized against
// each other.
func overlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	inter := 0
	union := len(set)
	for _, v := range b {
		if _, ok := set[v]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// ageFit peaks at the center of the requested window and falls off linearly
// toward the edges. Candidates outside the window never reach scoring (they
// are filtered first), so the result is in [0.5,1].
func ageFit(s domain.DiscoverySettings, age int) float64 {
	if age == 0 {
		return 0.5
	}
	span := float64(s.MaxAge-s.MinAge) / 2
	if span == 0 {
		return 1
	}
	mid := float64(s.MinAge+s.MaxAge) / 2
	off := mid - float64(age)
	if off < 0 {
		off = -off
	}
	if off > span {
		off = span
	}
	return 1 - off/(2*span)
}
