package entitlement

import "time"

// ToolATSScore is the tool name stored for the scoring endpoint.
const ToolATSScore = "ats-score"

// Grant records that a caller may use a tool until ExpiresAt. A nil
// ExpiresAt never expires.
type Grant struct {
	CallerKey string     `json:"callerKey"`
	Tool      string     `json:"tool"`
	GrantedAt time.Time  `json:"grantedAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Active reports whether the grant is valid at now.
func (g Grant) Active(now time.Time) bool {
	return g.ExpiresAt == nil || g.ExpiresAt.After(now)
}
