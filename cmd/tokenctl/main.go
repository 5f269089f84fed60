package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/codingconcepts/env"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"

	"github.com/golden-vcr/kickauth/internal/events"
	"github.com/golden-vcr/kickauth/internal/gate"
	"github.com/golden-vcr/kickauth/internal/kickapi"
	"github.com/golden-vcr/kickauth/internal/oauth"
	"github.com/golden-vcr/kickauth/internal/tokens"
)

type Config struct {
	KickClientId     string `env:"KICK_CLIENT_ID" required:"true"`
	KickClientSecret string `env:"KICK_CLIENT_SECRET" required:"true"`
	KickRedirectURI  string `env:"KICK_REDIRECT_URI" default:"http://localhost:3000/auth/callback"`
	KickOAuthURL     string `env:"KICK_OAUTH_URL" default:"https://id.kick.com"`
	KickAPIURL       string `env:"KICK_API_URL" default:"https://kick.com/api"`

	TokenFile                string `env:"TOKEN_FILE" default:"tokens.json"`
	TokenExpiryBufferSeconds int    `env:"TOKEN_EXPIRY_BUFFER_SECONDS" default:"300"`
}

// Env carries everything a subcommand needs in order to operate on the token file
type Env struct {
	oauth  oauth.Client
	store  *tokens.FileStore
	gate   *gate.Gate
	clock  clockwork.Clock
	buffer time.Duration
	api    *kickapi.Client
}

type Command struct {
	name     string
	initFunc func(cmd *flag.FlagSet)
	runFunc  func(ctx context.Context, e *Env) error
}

var commands = []Command{
	{"show", initShowCommand, runShowCommand},
	{"ensure", initEnsureCommand, runEnsureCommand},
	{"refresh", initRefreshCommand, runRefreshCommand},
	{"revoke", initRevokeCommand, runRevokeCommand},
	{"app-token", initAppTokenCommand, runAppTokenCommand},
	{"user", initUserCommand, runUserCommand},
}

func main() {
	// Parse config from environment variables
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	// Parse the subcommand that we want to run, or print usage if no match
	var command *Command
	commandName := ""
	if len(os.Args) > 1 {
		commandName = os.Args[1]
	}
	for i := range commands {
		if commands[i].name == commandName {
			command = &commands[i]
			break
		}
	}
	if command == nil {
		commandNames := make([]string, 0, len(commands))
		for i := range commands {
			commandNames = append(commandNames, commands[i].name)
		}
		log.Fatalf("Usage: tokenctl [%s]", strings.Join(commandNames, "|"))
	}

	// Initialize command-line flags for the chosen subcommand
	flagSet := flag.NewFlagSet(command.name, flag.ExitOnError)
	command.initFunc(flagSet)
	if err := flagSet.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Parse error: %v", err)
	}

	// Load tokens from the token file, which is shared with any server running with
	// TOKEN_STORE=file
	store, err := tokens.OpenFileStore(config.TokenFile)
	if err != nil {
		log.Fatalf("Failed to open token file: %v", err)
	}
	oauthClient := oauth.NewClient(oauth.Config{
		ClientID:     config.KickClientId,
		ClientSecret: config.KickClientSecret,
		RedirectURI:  config.KickRedirectURI,
		OAuthBaseURL: config.KickOAuthURL,
	})
	clock := clockwork.NewRealClock()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	buffer := time.Duration(config.TokenExpiryBufferSeconds) * time.Second
	e := &Env{
		oauth:  oauthClient,
		store:  store,
		gate:   gate.New(oauthClient, clock, buffer, events.NopPublisher{}, logger),
		clock:  clock,
		buffer: buffer,
		api:    kickapi.NewClient(config.KickAPIURL, nil),
	}

	if err := command.runFunc(context.Background(), e); err != nil {
		log.Fatalf("%s failed: %v", command.name, err)
	}
}
