package token

import (
	"strings"
	"time"

	"github.com/MrEthical07/goSession/role"
)

// SessionTTL is the fixed validity window of every minted token.
const SessionTTL = 7 * 24 * time.Hour

// Identity is the authenticated identity snapshot before the codec stamps it.
type Identity struct {
	UserID     string
	Email      string
	Name       string
	Role       role.Role
	IdentityID string
}

// Validate checks the required fields of an identity.
func (id Identity) Validate() error {
	switch {
	case strings.TrimSpace(id.UserID) == "":
		return invalidPayload("user id is empty")
	case strings.TrimSpace(id.Email) == "":
		return invalidPayload("email is empty")
	case strings.TrimSpace(id.Name) == "":
		return invalidPayload("name is empty")
	case !id.Role.Valid():
		return invalidPayload("role " + id.Role.String() + " is not defined")
	case strings.TrimSpace(id.IdentityID) == "":
		return invalidPayload("identity id is empty")
	}
	return nil
}

// Payload is a verified session: the identity plus the validity window the codec stamped.
type Payload struct {
	Identity

	// TokenID is the unique jti of the token this payload was read from.
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ValidAt reports whether the payload is inside its validity window at now.
func (p *Payload) ValidAt(now time.Time) bool {
	return p != nil && now.Before(p.ExpiresAt)
}
