package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/golden-vcr/kickauth"
	"github.com/golden-vcr/kickauth/internal/gate"
)

var showReveal bool

func initShowCommand(cmd *flag.FlagSet) {
	cmd.BoolVar(&showReveal, "reveal", false, "Print full token values instead of truncating them")
}

func runShowCommand(ctx context.Context, e *Env) error {
	record := e.store.Record()
	if record.AccessToken == "" {
		fmt.Printf("No tokens stored in %s\n", e.store.Path())
		return nil
	}

	fmt.Printf("Tokens stored in %s:\n", e.store.Path())
	fmt.Printf("  access token:  %s\n", reveal(record.AccessToken, showReveal))
	fmt.Printf("  refresh token: %s\n", reveal(record.RefreshToken, showReveal))
	fmt.Printf("  token type:    %s\n", record.Type())
	if record.ExpiresAt == 0 {
		fmt.Printf("  expires at:    unknown\n")
	} else {
		fmt.Printf("  expires at:    %s\n", record.Expiry().Format(time.RFC3339))
	}
	fmt.Printf("  needs refresh: %t\n", gate.NeedsRefresh(record, e.clock.Now(), e.buffer))
	return nil
}

func reveal(token string, full bool) string {
	if token == "" {
		return "(none)"
	}
	if full {
		return token
	}
	return kickauth.MaskToken(token)
}
