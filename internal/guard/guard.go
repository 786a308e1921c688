// Package guard implements the ordered access-guard chain evaluated before
// any mutating or data-revealing operation touches a target. Every endpoint
// goes through the same chain so denials are indistinguishable by caller.
package guard

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"kindred/internal/domain"
	"kindred/internal/platform/metrics"
	"kindred/internal/store"
	dErrors "kindred/pkg/domainerrors"
	"kindred/pkg/requestcontext"
)

// Kind names the interaction being guarded. Applicability of each guard
// depends on the kind; the evaluation order never does.
type Kind string

const (
	KindLike        Kind = "like"
	KindReport      Kind = "report"
	KindBlock       Kind = "block"
	KindChatSend    Kind = "chat_send"
	KindChatRead    Kind = "chat_read"
	KindMapNearby   Kind = "map_nearby"
	KindProfileView Kind = "profile_view"
)

// Config carries the policy switches left open by product.
type Config struct {
	// AllowMatchedPeers lifts the incognito restriction toward a target the
	// actor holds an ACTIVE match with.
	AllowMatchedPeers bool
	// PremiumBypass disables the entitlement guard (dev/staging).
	PremiumBypass bool
}

// Chain evaluates the guards in fixed order with fail-fast semantics: once a
// guard denies, no further store lookup happens.
type Chain struct {
	privacy store.Privacy
	blocks  store.Blocks
	matches store.Matches
	cfg     Config
	metrics *metrics.Metrics
}

func NewChain(privacy store.Privacy, blocks store.Blocks, matches store.Matches, cfg Config, m *metrics.Metrics) *Chain {
	return &Chain{privacy: privacy, blocks: blocks, matches: matches, cfg: cfg, metrics: m}
}

var tracer = otel.Tracer("kindred/guard")

// Evaluate runs the chain for (actor, target, kind). targetID is empty for
// target-less kinds (map nearby). A nil return means every applicable guard
// passed; a coded error identifies the first failing guard.
func (c *Chain) Evaluate(ctx context.Context, actorID, targetID string, kind Kind) error {
	ctx, span := tracer.Start(ctx, "guard.evaluate")
	span.SetAttributes(attribute.String("guard.kind", string(kind)))
	defer span.End()

	err := c.evaluate(ctx, actorID, targetID, kind)
	if err != nil {
		code := dErrors.CodeOf(err)
		if dErrors.IsGuardDenial(code) {
			span.SetAttributes(attribute.String("guard.denial", string(code)))
			c.metrics.GuardDenials.WithLabelValues(string(code)).Inc()
		}
	}
	return err
}

func (c *Chain) evaluate(ctx context.Context, actorID, targetID string, kind Kind) error {
	// 1. Self-target: reflexive interactions make no sense.
	if appliesSelf(kind) && actorID == targetID {
		return dErrors.New(dErrors.CodeSelfTarget, "cannot target yourself")
	}

	// 2. Incognito: an incognito actor stays invisible, so outbound
	// discovery-visible actions are denied.
	if appliesIncognito(kind) {
		actorPrivacy, err := c.getPrivacy(ctx, actorID)
		if err != nil {
			return err
		}
		if actorPrivacy.Incognito {
			exempt := false
			if c.cfg.AllowMatchedPeers && targetID != "" {
				m, err := c.matches.Get(ctx, domain.MatchKey(actorID, targetID))
				if err != nil && !errors.Is(err, store.ErrNotFound) {
					return internal(err)
				}
				exempt = err == nil && m.Status == domain.MatchActive
			}
			if !exempt {
				return dErrors.New(dErrors.CodeIncognito, "incognito mode is enabled")
			}
		}
	}

	// 3. Block: either direction suppresses all interaction.
	if targetID != "" {
		blocked, err := c.blocks.ExistsBetween(ctx, actorID, targetID)
		if err != nil {
			return internal(err)
		}
		if blocked {
			return dErrors.New(dErrors.CodeBlocked, "interaction not available")
		}
	}

	// 4. Visibility: a target that hid their profile is unreachable.
	if appliesVisibility(kind) && targetID != "" {
		targetPrivacy, err := c.getPrivacy(ctx, targetID)
		if err != nil {
			return err
		}
		if !targetPrivacy.ProfileVisible {
			return dErrors.New(dErrors.CodePeerHidden, "user is not available")
		}
	}

	// 5. Consent: map features require explicit opt-in from the actor.
	if kind == KindMapNearby {
		actorPrivacy, err := c.getPrivacy(ctx, actorID)
		if err != nil {
			return err
		}
		if !actorPrivacy.MapConsent {
			return dErrors.New(dErrors.CodeConsentRequired, "location consent required")
		}

		// 6. Entitlement: the map is a paid feature.
		if !c.cfg.PremiumBypass && !requestcontext.Premium(ctx) {
			return dErrors.New(dErrors.CodePaymentRequired, "premium required")
		}
	}

	return nil
}

// getPrivacy treats a missing document as default settings (visible, no
// incognito, no consent): users who never touched privacy are discoverable.
func (c *Chain) getPrivacy(ctx context.Context, userID string) (domain.PrivacySettings, error) {
	p, err := c.privacy.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.DefaultPrivacySettings(userID), nil
	}
	if err != nil {
		return domain.PrivacySettings{}, internal(err)
	}
	return p, nil
}

func internal(err error) error {
	return dErrors.New(dErrors.CodeInternal, err.Error())
}

func appliesSelf(kind Kind) bool {
	switch kind {
	case KindLike, KindReport, KindBlock, KindChatSend, KindChatRead:
		return true
	}
	return false
}

func appliesIncognito(kind Kind) bool {
	switch kind {
	case KindLike, KindChatSend:
		return true
	}
	return false
}

func appliesVisibility(kind Kind) bool {
	switch kind {
	case KindLike, KindChatSend, KindChatRead, KindProfileView:
		return true
	}
	return false
}
