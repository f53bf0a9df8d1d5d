// file: internal/auth/lifespan.go

package auth

import (
	"fmt"
	"math"
	"time"
)

// maxDurationSeconds is the longest window time.Duration can hold
const maxDurationSeconds = math.MaxInt64 / int64(time.Second)

// LifespanKind classifies how long a token stays valid
type LifespanKind int

const (
	// LifespanIndefinite tokens never expire
	LifespanIndefinite LifespanKind = iota
	// LifespanSingleUse tokens must be refreshed on every access
	LifespanSingleUse
	// LifespanSeconds tokens are valid for a fixed number of seconds after issuance
	LifespanSeconds
)

// Lifespan is the validity window of a token. The zero value is Indefinite.
type Lifespan struct {
	kind    LifespanKind
	seconds int64
}

// Indefinite returns a lifespan that never expires
func Indefinite() Lifespan {
	return Lifespan{kind: LifespanIndefinite}
}

// SingleUse returns a lifespan that is spent on first use
func SingleUse() Lifespan {
	return Lifespan{kind: LifespanSingleUse}
}

// Seconds returns a lifespan of n seconds. Non-positive n is classified
// the same way LifespanFromSeconds does.
func Seconds(n int64) Lifespan {
	return LifespanFromSeconds(n)
}

// LifespanFromSeconds classifies a lifetime reported by a refresh command:
// negative is indefinite, zero is single use, positive is a duration.
func LifespanFromSeconds(n int64) Lifespan {
	switch {
	case n < 0:
		return Indefinite()
	case n == 0:
		return SingleUse()
	default:
		return Lifespan{kind: LifespanSeconds, seconds: n}
	}
}

// Kind returns the lifespan classification
func (l Lifespan) Kind() LifespanKind {
	return l.kind
}

// Seconds returns the validity window in seconds. Only meaningful for
// LifespanSeconds; other kinds return 0.
func (l Lifespan) Seconds() int64 {
	return l.seconds
}

// Duration returns the validity window as a time.Duration, or 0 for
// kinds without a window. Windows longer than time.Duration can represent
// (about 292 years) saturate at math.MaxInt64.
func (l Lifespan) Duration() time.Duration {
	if l.seconds > maxDurationSeconds {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(l.seconds) * time.Second
}

// RawSeconds returns the integer a refresh command would print for this
// lifespan.
func (l Lifespan) RawSeconds() int64 {
	switch l.kind {
	case LifespanIndefinite:
		return -1
	case LifespanSingleUse:
		return 0
	default:
		return l.seconds
	}
}

func (l Lifespan) String() string {
	switch l.kind {
	case LifespanIndefinite:
		return "indefinite"
	case LifespanSingleUse:
		return "single-use"
	default:
		return fmt.Sprintf("%ds", l.seconds)
	}
}
