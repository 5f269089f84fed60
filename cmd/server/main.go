package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/codingconcepts/env"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/golden-vcr/kickauth"
	"github.com/golden-vcr/kickauth/internal/dashboard"
	"github.com/golden-vcr/kickauth/internal/events"
	"github.com/golden-vcr/kickauth/internal/gate"
	"github.com/golden-vcr/kickauth/internal/oauth"
	"github.com/golden-vcr/kickauth/internal/proxy"
	"github.com/golden-vcr/kickauth/internal/ratelimit"
	"github.com/golden-vcr/kickauth/internal/tokens"
	"github.com/golden-vcr/kickauth/internal/userauth"
	"github.com/golden-vcr/server-common/entry"
	"github.com/golden-vcr/server-common/rmq"
)

type Config struct {
	BindAddr   string `env:"BIND_ADDR"`
	ListenPort uint16 `env:"LISTEN_PORT" default:"3000"`

	KickClientId     string `env:"KICK_CLIENT_ID" required:"true"`
	KickClientSecret string `env:"KICK_CLIENT_SECRET" required:"true"`
	KickRedirectURI  string `env:"KICK_REDIRECT_URI" default:"http://localhost:3000/auth/callback"`
	KickOAuthURL     string `env:"KICK_OAUTH_URL" default:"https://id.kick.com"`
	KickAPIURL       string `env:"KICK_API_URL" default:"https://kick.com/api"`

	TokenStore    string `env:"TOKEN_STORE" default:"session"`
	TokenFile     string `env:"TOKEN_FILE" default:"tokens.json"`
	SessionSecret string `env:"SESSION_SECRET" required:"true"`
	SessionDir    string `env:"SESSION_DIR"`
	SecureCookies bool   `env:"SECURE_COOKIES" default:"false"`

	TokenExpiryBufferSeconds int    `env:"TOKEN_EXPIRY_BUFFER_SECONDS" default:"300"`
	LoginRateLimit           uint64 `env:"LOGIN_RATE_LIMIT" default:"20"`

	RmqHost     string `env:"RMQ_HOST"`
	RmqPort     int    `env:"RMQ_PORT" default:"5672"`
	RmqVhost    string `env:"RMQ_VHOST" default:"/"`
	RmqUser     string `env:"RMQ_USER"`
	RmqPassword string `env:"RMQ_PASSWORD"`
}

func main() {
	app, ctx := entry.NewApplication("kickauth")
	defer app.Stop()

	// Parse config from environment variables
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		app.Fail("Failed to load .env file", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		app.Fail("Failed to load config", err)
	}

	// Decide where users' tokens will be kept: either in each user's session, or in a
	// single file shared by the whole process
	var opener tokens.Opener
	switch config.TokenStore {
	case "session":
		if config.SessionDir != "" {
			if err := os.MkdirAll(config.SessionDir, 0o700); err != nil {
				app.Fail("Failed to create session directory", err)
			}
			opener = tokens.NewFilesystemSessions(config.SessionDir, []byte(config.SessionSecret), config.SecureCookies)
		} else {
			opener = tokens.NewCookieSessions([]byte(config.SessionSecret), config.SecureCookies)
		}
	case "file":
		fileStore, err := tokens.OpenFileStore(config.TokenFile)
		if err != nil {
			app.Fail("Failed to open token file", err)
		}
		opener = fileStore
		app.Log().Info("Using file-backed token store", "path", fileStore.Path())
	default:
		app.Fail("Failed to load config", fmt.Errorf("unsupported TOKEN_STORE '%s': expected 'session' or 'file'", config.TokenStore))
	}

	// If a message broker is configured, announce logins, refreshes and revocations to
	// other services via a fanout exchange
	var publisher events.Publisher = events.NopPublisher{}
	if config.RmqHost != "" {
		amqpConn, err := amqp.Dial(rmq.FormatConnectionString(config.RmqHost, config.RmqPort, config.RmqVhost, config.RmqUser, config.RmqPassword))
		if err != nil {
			app.Fail("Failed to connect to AMQP server", err)
		}
		defer amqpConn.Close()
		amqpPublisher, err := events.NewAMQPPublisher(amqpConn, events.DefaultExchange)
		if err != nil {
			app.Fail("Failed to initialize AMQP publisher", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	// Prepare a client for Kick's OAuth server, and a gate that will refresh our users'
	// tokens as they near expiry
	httpClient := &http.Client{}
	oauthClient := oauth.NewClient(oauth.Config{
		ClientID:     config.KickClientId,
		ClientSecret: config.KickClientSecret,
		RedirectURI:  config.KickRedirectURI,
		OAuthBaseURL: config.KickOAuthURL,
		HTTPClient:   httpClient,
	})
	clock := clockwork.NewRealClock()
	buffer := time.Duration(config.TokenExpiryBufferSeconds) * time.Second
	g := gate.New(oauthClient, clock, buffer, publisher, app.Log())

	// Limit how quickly any one client can start logins or mint app tokens
	limiterStore, err := ratelimit.NewStore(config.LoginRateLimit)
	if err != nil {
		app.Fail("Failed to initialize rate limiter", err)
	}
	defer limiterStore.Close(ctx)
	limit, err := ratelimit.NewMiddleware(limiterStore)
	if err != nil {
		app.Fail("Failed to initialize rate limiter", err)
	}

	// Start setting up our HTTP handlers, using gorilla/mux for routing
	r := mux.NewRouter()

	// A user can GET /auth/login to begin logging in with Kick, which will redirect
	// them back to GET /auth/callback; they can later GET /auth/logout to end their
	// session. POST /auth/token and POST /auth/refresh obtain tokens directly.
	userauthServer := userauth.NewServer(oauthClient, opener, clock, publisher, limit, config.SecureCookies)
	userauthServer.RegisterRoutes(r)

	// GET / serves a simple landing page, and GET /dashboard is only shown to users who
	// are logged in
	dashboardServer := dashboard.NewServer(g, opener)
	dashboardServer.RegisterRoutes(r)

	// GET /api/... relays read-only requests to the Kick API on behalf of the user
	proxyServer := proxy.NewServer(g, opener, config.KickAPIURL, httpClient)
	proxyServer.RegisterRoutes(r)

	app.Log().Info(
		"Initialized Kick OAuth client",
		"clientId", config.KickClientId,
		"redirectUri", config.KickRedirectURI,
		"scopes", kickauth.Scopes.String(),
		"tokenStore", config.TokenStore,
	)

	// Handle incoming HTTP connections until our top-level context is canceled, at
	// which point shut down cleanly
	entry.RunServer(ctx, app.Log(), r, config.BindAddr, config.ListenPort)
}
