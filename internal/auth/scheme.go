// file: internal/auth/scheme.go

package auth

import (
	"fmt"
	"strings"
)

// Scheme is the authorization scheme placed in front of the credential in
// the Authorization header. New schemes are added as constants plus a case
// in ParseScheme and String.
type Scheme int

const (
	// SchemeBearer is the RFC 6750 bearer scheme
	SchemeBearer Scheme = iota
)

// ParseScheme parses a scheme name, ignoring case. Surrounding whitespace
// is not accepted.
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(s) {
	case "bearer":
		return SchemeBearer, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedScheme, s)
	}
}

// String returns the scheme name as it appears in the header
func (s Scheme) String() string {
	switch s {
	case SchemeBearer:
		return "Bearer"
	default:
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Scheme) MarshalText() ([]byte, error) {
	switch s {
	case SchemeBearer:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedScheme, int(s))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Scheme) UnmarshalText(text []byte) error {
	parsed, err := ParseScheme(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
