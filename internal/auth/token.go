// file: internal/auth/token.go

package auth

import (
	"fmt"
	"time"
)

// HeaderName is the header every provider writes
const HeaderName = "Authorization"

// Token is a credential produced by a successful refresh. Tokens are never
// modified after creation; a refresh replaces the whole value.
type Token struct {
	Value    string
	Lifespan Lifespan
	IssuedAt time.Time
}

// ExpiresAt returns the instant the token stops being valid. The second
// return value is false for indefinite tokens. Single-use tokens expire at
// issuance. Lifetimes beyond what time.Duration holds are clamped to
// IssuedAt plus math.MaxInt64 nanoseconds.
func (t Token) ExpiresAt() (time.Time, bool) {
	switch t.Lifespan.Kind() {
	case LifespanIndefinite:
		return time.Time{}, false
	case LifespanSingleUse:
		return t.IssuedAt, true
	default:
		return t.IssuedAt.Add(t.Lifespan.Duration()), true
	}
}

// stale reports whether the token must be refreshed before it is handed out
// at now. Timed tokens are refreshed once half their window has passed,
// comparing whole elapsed seconds against the floored half window.
func (t Token) stale(now time.Time) bool {
	switch t.Lifespan.Kind() {
	case LifespanIndefinite:
		return false
	case LifespanSingleUse:
		return true
	default:
		elapsed := int64(now.Sub(t.IssuedAt) / time.Second)
		return elapsed > t.Lifespan.Seconds()/2
	}
}

// String masks the credential so tokens can be logged
func (t Token) String() string {
	return fmt.Sprintf("Token{value=%s lifespan=%s issuedAt=%s}",
		MaskToken(t.Value), t.Lifespan, t.IssuedAt.Format(time.RFC3339))
}

// MaskToken keeps a short prefix of a credential for logs
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..."
}

// Header is a single header name/value pair
type Header struct {
	Name  string
	Value string
}

// NewHeader builds the Authorization header for a scheme and credential
func NewHeader(scheme Scheme, credential string) Header {
	return Header{
		Name:  HeaderName,
		Value: scheme.String() + " " + credential,
	}
}

func (h Header) String() string {
	return h.Name + ": " + h.Value
}
