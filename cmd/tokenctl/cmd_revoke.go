package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/golden-vcr/kickauth/internal/oauth"
)

var revokeRefreshToken bool

func initRevokeCommand(cmd *flag.FlagSet) {
	cmd.BoolVar(&revokeRefreshToken, "refresh-token", false, "Also revoke the stored refresh token")
}

// runRevokeCommand revokes the stored tokens and clears the token file. The file is
// cleared even if revocation fails.
func runRevokeCommand(ctx context.Context, e *Env) error {
	record := e.store.Record()

	var revokeErr error
	if record.AccessToken != "" {
		revokeErr = e.oauth.RevokeToken(ctx, record.AccessToken, oauth.TokenTypeHintAccessToken)
	}
	if revokeErr == nil && revokeRefreshToken && record.RefreshToken != "" {
		revokeErr = e.oauth.RevokeToken(ctx, record.RefreshToken, oauth.TokenTypeHintRefreshToken)
	}

	if err := e.store.Clear(); err != nil {
		return err
	}
	if revokeErr != nil {
		return fmt.Errorf("token file was cleared, but revocation failed: %w", revokeErr)
	}
	fmt.Printf("Tokens revoked; %s cleared\n", e.store.Path())
	return nil
}
