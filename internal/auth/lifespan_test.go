// file: internal/auth/lifespan_test.go

package auth

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestLifespanFromSeconds(t *testing.T) {
	tests := []struct {
		input       int64
		wantKind    LifespanKind
		wantSeconds int64
		wantString  string
	}{
		{input: -1, wantKind: LifespanIndefinite, wantString: "indefinite"},
		{input: -9999, wantKind: LifespanIndefinite, wantString: "indefinite"},
		{input: 0, wantKind: LifespanSingleUse, wantString: "single-use"},
		{input: 1, wantKind: LifespanSeconds, wantSeconds: 1, wantString: "1s"},
		{input: 300, wantKind: LifespanSeconds, wantSeconds: 300, wantString: "300s"},
	}

	for _, tt := range tests {
		t.Run(tt.wantString, func(t *testing.T) {
			got := LifespanFromSeconds(tt.input)
			if got.Kind() != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", got.Kind(), tt.wantKind)
			}
			if got.Seconds() != tt.wantSeconds {
				t.Errorf("Seconds() = %d, want %d", got.Seconds(), tt.wantSeconds)
			}
			if got.String() != tt.wantString {
				t.Errorf("String() = %q, want %q", got.String(), tt.wantString)
			}
		})
	}
}

func TestLifespan_RawSecondsRoundTrip(t *testing.T) {
	for _, l := range []Lifespan{Indefinite(), SingleUse(), Seconds(42)} {
		if back := LifespanFromSeconds(l.RawSeconds()); back != l {
			t.Errorf("LifespanFromSeconds(%d) = %v, want %v", l.RawSeconds(), back, l)
		}
	}
}

func TestLifespan_ZeroValueIsIndefinite(t *testing.T) {
	var l Lifespan
	if l.Kind() != LifespanIndefinite {
		t.Errorf("zero Lifespan kind = %v, want indefinite", l.Kind())
	}
}

func TestToken_Stale(t *testing.T) {
	issued := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		lifespan Lifespan
		elapsed  time.Duration
		want     bool
	}{
		{"indefinite never stale", Indefinite(), 1000 * time.Hour, false},
		{"single use always stale", SingleUse(), 0, true},
		{"before half life", Seconds(10), 4 * time.Second, false},
		{"exactly half life", Seconds(10), 5 * time.Second, false},
		{"fractional seconds floor", Seconds(10), 5*time.Second + 900*time.Millisecond, false},
		{"past half life", Seconds(10), 6 * time.Second, true},
		{"odd window floors half", Seconds(11), 6 * time.Second, true},
		{"one second window", Seconds(1), 900 * time.Millisecond, false},
		{"one second window elapsed", Seconds(1), time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := Token{Value: "v", Lifespan: tt.lifespan, IssuedAt: issued}
			if got := token.stale(issued.Add(tt.elapsed)); got != tt.want {
				t.Errorf("stale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToken_ExpiresAt(t *testing.T) {
	issued := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	if _, ok := (Token{Lifespan: Indefinite(), IssuedAt: issued}).ExpiresAt(); ok {
		t.Error("indefinite token reported an expiry")
	}
	if at, ok := (Token{Lifespan: SingleUse(), IssuedAt: issued}).ExpiresAt(); !ok || !at.Equal(issued) {
		t.Errorf("single-use ExpiresAt() = %v, %v", at, ok)
	}
	if at, ok := (Token{Lifespan: Seconds(300), IssuedAt: issued}).ExpiresAt(); !ok || !at.Equal(issued.Add(5*time.Minute)) {
		t.Errorf("timed ExpiresAt() = %v, %v", at, ok)
	}

	farFuture := issued.Add(time.Duration(math.MaxInt64))
	tests := []struct {
		name    string
		seconds int64
		want    time.Time
	}{
		{"largest exact window", maxDurationSeconds, issued.Add(time.Duration(maxDurationSeconds) * time.Second)},
		{"just past duration range", maxDurationSeconds + 1, farFuture},
		{"max int64 lifetime", math.MaxInt64, farFuture},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := Token{Lifespan: LifespanFromSeconds(tt.seconds), IssuedAt: issued}
			at, ok := token.ExpiresAt()
			if !ok {
				t.Fatal("ExpiresAt() reported no expiry")
			}
			if !at.After(issued) {
				t.Errorf("ExpiresAt() = %v, not after issuance %v", at, issued)
			}
			if !at.Equal(tt.want) {
				t.Errorf("ExpiresAt() = %v, want %v", at, tt.want)
			}
		})
	}
}

func TestParseRefreshOutput_MaxLifetimeExpiry(t *testing.T) {
	issued := time.Unix(0, 0).UTC()
	token, err := ParseRefreshOutput("x 9223372036854775807", issued)
	if err != nil {
		t.Fatalf("ParseRefreshOutput() error = %v", err)
	}
	if got := token.Lifespan.Duration(); got != time.Duration(math.MaxInt64) {
		t.Errorf("Duration() = %v, want saturated", got)
	}
	if at, ok := token.ExpiresAt(); !ok || !at.After(issued) {
		t.Errorf("ExpiresAt() = %v, %v; want a time after %v", at, ok, issued)
	}
}

func TestMaskToken(t *testing.T) {
	if got := MaskToken("short"); got != "***" {
		t.Errorf("MaskToken(short) = %q", got)
	}
	if got := MaskToken("abcdefghijkl"); got != "abcd..." {
		t.Errorf("MaskToken(abcdefghijkl) = %q", got)
	}
	token := Token{Value: "supersecretvalue", Lifespan: Seconds(5)}
	if s := token.String(); s == "" || strings.Contains(s, "supersecretvalue") {
		t.Errorf("Token.String() leaks credential: %s", s)
	}
}

