package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/golden-vcr/kickauth/internal/tokens"
)

func initRefreshCommand(cmd *flag.FlagSet) {
}

// runRefreshCommand refreshes the stored access token regardless of when it expires
func runRefreshCommand(ctx context.Context, e *Env) error {
	current := e.store.Record()
	token, err := e.oauth.RefreshAccessToken(ctx, current.RefreshToken)
	if err != nil {
		return err
	}

	record := tokens.NewRecord(token, e.clock.Now())
	if record.RefreshToken == "" {
		record.RefreshToken = current.RefreshToken
	}
	if err := e.store.Put(record); err != nil {
		return err
	}
	fmt.Printf("Access token refreshed; now expires at %s\n", record.Expiry().Format(time.RFC3339))
	return nil
}
