package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
)

var userChannel string

func initUserCommand(cmd *flag.FlagSet) {
	cmd.StringVar(&userChannel, "channel", "", "Look up the named channel instead of the authenticated user")
}

// runUserCommand calls the Kick API with the stored access token, refreshing it first if
// needed, and prints the response
func runUserCommand(ctx context.Context, e *Env) error {
	record, err := e.gate.Ensure(ctx, e.store)
	if err != nil {
		return err
	}
	e.api.SetAccessToken(record.AccessToken, record.Type())

	var data json.RawMessage
	if userChannel != "" {
		data, err = e.api.GetChannel(ctx, userChannel)
	} else {
		data, err = e.api.GetUser(ctx)
	}
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "    "); err != nil {
		return err
	}
	fmt.Printf("%s\n", pretty.String())
	return nil
}
