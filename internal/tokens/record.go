package tokens

import (
	"time"

	"github.com/golden-vcr/kickauth/internal/oauth"
)

// Record is the token state associated with a single logged-in user (or with the whole
// process, for a FileStore)
type Record struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	TokenType    string `json:"tokenType,omitempty"`

	// ExpiresAt is the time at which the access token expires, in milliseconds since the
	// Unix epoch; 0 if unknown
	ExpiresAt int64 `json:"expiresAt,omitempty"`
}

// NewRecord builds a Record from a token endpoint response received at the given time
func NewRecord(t *oauth.Token, now time.Time) Record {
	r := Record{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
	if t.ExpiresIn > 0 {
		r.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second).UnixMilli()
	}
	return r
}

// Expiry returns ExpiresAt as a time.Time, or the zero time if unknown
func (r Record) Expiry() time.Time {
	if r.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(r.ExpiresAt)
}

// Type returns the token type to present in an Authorization header
func (r Record) Type() string {
	if r.TokenType == "" {
		return oauth.DefaultTokenType
	}
	return r.TokenType
}
