// Package scope resolves who is asking (signed-in user or anonymous guest) and
// derives the storage namespace every cached record is keyed under.
package scope

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Namespace keys local cache entries and in-memory results for one identity.
type Namespace string

// Anonymous is the namespace before any guest token is known.
const Anonymous Namespace = "anonymous"

// Key qualifies a collection name with the namespace.
func (n Namespace) Key(collection string) string {
	return string(n) + "/" + collection
}

// DefaultGuestHeader carries the guest token on backend requests.
const DefaultGuestHeader = "X-Guest-Token"

// Identity is the resolved caller. Exactly one of AccessToken and GuestToken is set.
type Identity struct {
	AccessToken string
	UserID      string
	GuestToken  string
}

// Authenticated reports whether the identity comes from a session.
func (i Identity) Authenticated() bool {
	return i.AccessToken != ""
}

// Namespace derives the storage namespace for the identity.
func (i Identity) Namespace() Namespace {
	switch {
	case i.AccessToken != "":
		return Namespace("user:" + i.UserID)
	case i.GuestToken != "":
		return Namespace("guest:" + i.GuestToken)
	default:
		return Anonymous
	}
}

// Apply sets the credential header for a backend request.
// guestHeader defaults to DefaultGuestHeader.
func (i Identity) Apply(h http.Header, guestHeader string) {
	if guestHeader == "" {
		guestHeader = DefaultGuestHeader
	}
	h.Del("Authorization")
	h.Del(guestHeader)

	switch {
	case i.AccessToken != "":
		h.Set("Authorization", "Bearer "+i.AccessToken)
	case i.GuestToken != "":
		h.Set(guestHeader, i.GuestToken)
	}
}

// Session is an authenticated session handed over by the host's auth layer.
type Session struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id,omitempty"`
}

// identity converts the session, deriving the user id when the session lacks one.
func (s Session) identity() Identity {
	uid := strings.TrimSpace(s.UserID)
	if uid == "" {
		uid = userIDFromToken(s.AccessToken)
	}
	return Identity{AccessToken: s.AccessToken, UserID: uid}
}

// userIDFromToken reads the subject of a JWT access token without verifying it;
// the backend verifies, this only picks a stable cache namespace. Opaque tokens
// fall back to a digest prefix.
func userIDFromToken(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			return sub
		}
		for _, k := range []string{"user_id", "uid"} {
			if v, ok := claims[k].(string); ok && v != "" {
				return v
			}
		}
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:16]
}
