package kickauth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_RequiredScopes_String(t *testing.T) {
	assert.Equal(t, "user:read channel:read", Scopes.String())
	assert.Equal(t, "", RequiredScopes{}.String())
}

func Test_RequiredScopes_Missing(t *testing.T) {
	tests := []struct {
		name    string
		scopes  RequiredScopes
		granted string
		want    []string
	}{
		{
			"all scopes granted",
			RequiredScopes{"user:read", "channel:read"},
			"channel:read user:read",
			[]string{},
		},
		{
			"extra scopes are ignored",
			RequiredScopes{"user:read"},
			"user:read events:subscribe",
			[]string{},
		},
		{
			"missing scopes are reported in order",
			RequiredScopes{"user:read", "channel:read", "chat:write"},
			"channel:read",
			[]string{"user:read", "chat:write"},
		},
		{
			"empty grant misses everything",
			RequiredScopes{"user:read"},
			"",
			[]string{"user:read"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.scopes.Missing(tt.granted)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_MaskToken(t *testing.T) {
	assert.Equal(t, "abcdefghij...", MaskToken("abcdefghijklmnop"))
	assert.Equal(t, "abc...", MaskToken("abc"))
	assert.Equal(t, "...", MaskToken(""))
}

func Test_UpstreamError(t *testing.T) {
	var err error = fmt.Errorf("failed to get user: %w", &UpstreamError{StatusCode: 401, Body: []byte(`{"message":"Unauthorized"}`)})

	var upstreamErr *UpstreamError
	assert.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, 401, upstreamErr.StatusCode)
	assert.Equal(t, `failed to get user: got response 401 from Kick: {"message":"Unauthorized"}`, err.Error())
}
