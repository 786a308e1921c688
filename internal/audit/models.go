package audit

import "time"

// Discovery action names recorded for every candidate interaction.
const (
	ActionView  = "view"
	ActionLike  = "like"
	ActionPass  = "pass"
	ActionBlock = "block"
)

// Entry is one immutable audit record. Keep it transport-agnostic so stores
// and sinks can fan out.
type Entry struct {
	ID        string            `json:"id"`
	ActorID   string            `json:"actorId"`
	TargetID  string            `json:"targetId,omitempty"`
	Action    string            `json:"action"`
	Details   map[string]string `json:"details,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}
