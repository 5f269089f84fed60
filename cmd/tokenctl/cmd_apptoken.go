package main

import (
	"context"
	"flag"
	"fmt"
)

var appTokenReveal bool

func initAppTokenCommand(cmd *flag.FlagSet) {
	cmd.BoolVar(&appTokenReveal, "reveal", false, "Print the full token value instead of truncating it")
}

// runAppTokenCommand obtains an app access token; it is printed but never stored
func runAppTokenCommand(ctx context.Context, e *Env) error {
	token, err := e.oauth.AppAccessToken(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("App access token: %s (%s, expires in %ds)\n", reveal(token.AccessToken, appTokenReveal), token.TokenType, token.ExpiresIn)
	return nil
}
