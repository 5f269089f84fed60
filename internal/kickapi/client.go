package kickapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/golden-vcr/kickauth"
	"github.com/golden-vcr/kickauth/internal/oauth"
)

// DefaultTimeout bounds each API request, including reading the response body
const DefaultTimeout = 10 * time.Second

// ErrNoAccessToken is returned by any request made before SetAccessToken is called
var ErrNoAccessToken = errors.New("no access token set")

// Client makes authenticated calls to the Kick API. A Client holds a single access
// token, so it should not be shared between users; use WithAccessToken to derive a
// client for each user from a shared one.
type Client struct {
	r           *resty.Client
	accessToken string
	tokenType   string
}

// NewClient prepares a client for the API at the given base URL; the default HTTP
// client is used if httpClient is nil. httpClient is copied, never modified.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = kickauth.DefaultAPIBaseURL
	}
	var r *resty.Client
	if httpClient != nil {
		hc := *httpClient
		r = resty.NewWithClient(&hc)
	} else {
		r = resty.New()
	}
	r.SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json")
	return &Client{r: r, tokenType: oauth.DefaultTokenType}
}

// WithAccessToken returns a client that shares c's connection settings but presents
// the given token. If tokenType is empty, "Bearer" is used.
func (c *Client) WithAccessToken(token, tokenType string) *Client {
	derived := &Client{r: c.r}
	derived.SetAccessToken(token, tokenType)
	return derived
}

// SetAccessToken sets the token to present in the Authorization header of subsequent
// requests. If tokenType is empty, "Bearer" is used.
func (c *Client) SetAccessToken(token, tokenType string) {
	if tokenType == "" {
		tokenType = oauth.DefaultTokenType
	}
	c.accessToken = token
	c.tokenType = tokenType
}

// Request makes an authenticated request to the given API path, returning the response
// body verbatim if the request succeeds. For a GET request, body may be a
// map[string]string of query parameters; otherwise it's sent as JSON. Any non-2xx
// response is returned as a *kickauth.UpstreamError.
func (c *Client) Request(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	if c.accessToken == "" {
		return nil, ErrNoAccessToken
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req := c.r.R().
		SetContext(ctx).
		SetHeader("Authorization", fmt.Sprintf("%s %s", c.tokenType, c.accessToken))
	if body != nil {
		if params, ok := body.(map[string]string); ok && method == http.MethodGet {
			req.SetQueryParams(params)
		} else {
			req.SetBody(body)
		}
	}

	res, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	if !res.IsSuccess() {
		return nil, &kickauth.UpstreamError{
			StatusCode: res.StatusCode(),
			Body:       res.Body(),
		}
	}
	return json.RawMessage(res.Body()), nil
}

// GetUser returns the profile of the user who owns the access token
func (c *Client) GetUser(ctx context.Context) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodGet, "/v1/user", nil)
}

// GetChannel returns details about the channel with the given name
func (c *Client) GetChannel(ctx context.Context, name string) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodGet, "/v1/channels/"+url.PathEscape(name), nil)
}

// GetLivestream returns the current livestream of the given channel
func (c *Client) GetLivestream(ctx context.Context, channelID string) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodGet, "/v1/channels/"+url.PathEscape(channelID)+"/livestream", nil)
}
