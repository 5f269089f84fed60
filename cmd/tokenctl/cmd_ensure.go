package main

import (
	"context"
	"flag"
	"fmt"
	"time"
)

func initEnsureCommand(cmd *flag.FlagSet) {
}

func runEnsureCommand(ctx context.Context, e *Env) error {
	before := e.store.AccessToken()
	record, err := e.gate.Ensure(ctx, e.store)
	if err != nil {
		return err
	}
	if record.AccessToken != before {
		fmt.Printf("Access token was refreshed; now expires at %s\n", record.Expiry().Format(time.RFC3339))
	} else {
		fmt.Printf("Access token is valid until %s\n", record.Expiry().Format(time.RFC3339))
	}
	return nil
}
