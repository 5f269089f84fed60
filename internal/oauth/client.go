package oauth

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/golden-vcr/kickauth"
	"github.com/golden-vcr/kickauth/internal/pkce"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Client represents the full set of interactions we have with Kick's OAuth server
type Client interface {
	AuthorizationURL(scope, codeChallenge, state string) string
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*Token, error)
	AppAccessToken(ctx context.Context) (*Token, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*Token, error)
	RevokeToken(ctx context.Context, token, tokenTypeHint string) error
}

// Token type hints accepted by the revocation endpoint
const (
	TokenTypeHintAccessToken  = "access_token"
	TokenTypeHintRefreshToken = "refresh_token"
)

// Config carries our app's credentials as registered with Kick
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	OAuthBaseURL string

	// HTTPClient is used for all requests; http.DefaultClient if nil
	HTTPClient *http.Client
}

type client struct {
	codeGrant  oauth2.Config
	appGrant   clientcredentials.Config
	revokeURL  string
	httpClient *http.Client
	r          *resty.Client
}

func NewClient(c Config) Client {
	baseURL := strings.TrimSuffix(c.OAuthBaseURL, "/")
	if baseURL == "" {
		baseURL = kickauth.DefaultOAuthBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	endpoint := oauth2.Endpoint{
		AuthURL:   baseURL + "/oauth/authorize",
		TokenURL:  baseURL + "/oauth/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	return &client{
		codeGrant: oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  c.RedirectURI,
		},
		appGrant: clientcredentials.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			TokenURL:     endpoint.TokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		revokeURL:  baseURL + "/oauth/revoke",
		httpClient: httpClient,
		r:          resty.NewWithClient(httpClient),
	}
}

// AuthorizationURL builds the URL of Kick's authorize page, to which the user's browser
// should be redirected in order to begin a login
func (c *client) AuthorizationURL(scope, codeChallenge, state string) string {
	conf := c.codeGrant
	conf.Scopes = strings.Fields(scope)
	return conf.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", pkce.ChallengeMethod),
	)
}

// ExchangeCode redeems the authorization code that Kick sent to our redirect URI,
// proving possession of the code verifier from which the login's challenge was derived
func (c *client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*Token, error) {
	tok, err := c.codeGrant.Exchange(c.withHTTPClient(ctx), code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, wrap(ErrExchangeFailed, err)
	}
	return newToken(tok), nil
}

// AppAccessToken obtains an app access token via the client credentials grant: such a
// token identifies our application only, and it comes without a refresh token
func (c *client) AppAccessToken(ctx context.Context) (*Token, error) {
	tok, err := c.appGrant.Token(c.withHTTPClient(ctx))
	if err != nil {
		return nil, wrap(ErrAppTokenFailed, err)
	}
	t := newToken(tok)
	t.RefreshToken = ""
	return t, nil
}

// RefreshAccessToken trades a refresh token for a new token pair. If Kick does not rotate
// the refresh token, the one we presented is carried over into the result.
func (c *client) RefreshAccessToken(ctx context.Context, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}
	src := c.codeGrant.TokenSource(c.withHTTPClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, wrap(ErrRefreshFailed, err)
	}
	return newToken(tok), nil
}

// RevokeToken asks Kick to invalidate the given token. The response body is ignored;
// only the status code is checked.
func (c *client) RevokeToken(ctx context.Context, token, tokenTypeHint string) error {
	req := c.r.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetQueryParam("token", token)
	if tokenTypeHint != "" {
		req.SetQueryParam("token_hint_type", tokenTypeHint)
	}
	res, err := req.Post(c.revokeURL)
	if err != nil {
		return wrap(ErrRevokeFailed, err)
	}
	if !res.IsSuccess() {
		return wrap(ErrRevokeFailed, &kickauth.UpstreamError{
			StatusCode: res.StatusCode(),
			Body:       res.Body(),
		})
	}
	return nil
}

func (c *client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

var _ Client = (*client)(nil)
