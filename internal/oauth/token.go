package oauth

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/golden-vcr/kickauth"
	"golang.org/x/oauth2"
)

// DefaultTokenType is assumed when Kick omits token_type from a token response
const DefaultTokenType = "Bearer"

// Token is the subset of a token endpoint response that we make use of
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
}

func newToken(tok *oauth2.Token) *Token {
	t := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    expiresIn(tok),
	}
	if t.TokenType == "" {
		t.TokenType = DefaultTokenType
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		t.Scope = scope
	}
	return t
}

// expiresIn recovers the raw expires_in value from the token response, falling back to
// the expiry computed by x/oauth2 if the field can't be read directly
func expiresIn(tok *oauth2.Token) int {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int(v)
	case int64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	if !tok.Expiry.IsZero() {
		return int(time.Until(tok.Expiry).Round(time.Second).Seconds())
	}
	return 0
}

func (t *Token) String() string {
	return fmt.Sprintf("%s token %s (expires in %ds)", t.TokenType, kickauth.MaskToken(t.AccessToken), t.ExpiresIn)
}
