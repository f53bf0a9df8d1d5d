// file: internal/auth/record.go

package auth

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// TokenRecord is the serialized form of a token, as published to KV
// storage or printed by the CLI
type TokenRecord struct {
	Provider        string     `json:"provider" yaml:"provider"`
	Scheme          Scheme     `json:"scheme" yaml:"scheme"`
	Token           string     `json:"token" yaml:"token"`
	Header          string     `json:"header" yaml:"header"`
	Lifespan        string     `json:"lifespan" yaml:"lifespan"`
	LifetimeSeconds int64      `json:"lifetimeSeconds" yaml:"lifetimeSeconds"`
	IssuedAt        time.Time  `json:"issuedAt" yaml:"issuedAt"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
}

// NewTokenRecord describes token as issued by the named provider
func NewTokenRecord(provider string, scheme Scheme, token Token) TokenRecord {
	rec := TokenRecord{
		Provider:        provider,
		Scheme:          scheme,
		Token:           token.Value,
		Header:          NewHeader(scheme, token.Value).Value,
		Lifespan:        token.Lifespan.String(),
		LifetimeSeconds: token.Lifespan.RawSeconds(),
		IssuedAt:        token.IssuedAt.UTC(),
	}
	if at, ok := token.ExpiresAt(); ok {
		at = at.UTC()
		rec.ExpiresAt = &at
	}
	return rec
}

// Masked returns a copy safe for display
func (r TokenRecord) Masked() TokenRecord {
	r.Token = MaskToken(r.Token)
	r.Header = r.Scheme.String() + " " + r.Token
	return r
}

// Marshal encodes the record as JSON
func (r TokenRecord) Marshal() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token record: %w", err)
	}
	return data, nil
}

// DecodeTokenRecord parses a record produced by Marshal
func DecodeTokenRecord(data []byte) (TokenRecord, error) {
	var rec TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return TokenRecord{}, fmt.Errorf("failed to decode token record: %w", err)
	}
	return rec, nil
}
