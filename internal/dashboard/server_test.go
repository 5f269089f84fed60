package dashboard

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"github.com/golden-vcr/kickauth/internal/events"
	"github.com/golden-vcr/kickauth/internal/gate"
	"github.com/golden-vcr/kickauth/internal/kicktest"
	"github.com/golden-vcr/kickauth/internal/oauth"
	"github.com/golden-vcr/kickauth/internal/tokens"
	"github.com/golden-vcr/kickauth/internal/userauth"
)

const testRedirectURI = "http://localhost:3000/auth/callback"

// browser carries cookies between requests made to a router, the way a user's browser
// would
type browser struct {
	handler http.Handler
	cookies map[string]*http.Cookie
}

func (b *browser) get(target string) *http.Response {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, cookie := range b.cookies {
		req.AddCookie(cookie)
	}
	res := httptest.NewRecorder()
	b.handler.ServeHTTP(res, req)

	result := res.Result()
	for _, cookie := range result.Cookies() {
		if cookie.MaxAge < 0 {
			delete(b.cookies, cookie.Name)
		} else {
			b.cookies[cookie.Name] = cookie
		}
	}
	return result
}

func newTestRouter(t *testing.T, provider *kicktest.Provider, clock clockwork.Clock, opener tokens.Opener) *mux.Router {
	client := oauth.NewClient(oauth.Config{
		ClientID:     provider.ClientID,
		ClientSecret: provider.ClientSecret,
		RedirectURI:  testRedirectURI,
		OAuthBaseURL: provider.OAuthURL(),
		HTTPClient:   provider.HTTPClient(),
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g := gate.New(client, clock, gate.DefaultBuffer, events.NopPublisher{}, logger)

	r := mux.NewRouter()
	userauth.NewServer(client, opener, clock, events.NopPublisher{}, nil, false).RegisterRoutes(r)
	NewServer(g, opener).RegisterRoutes(r)
	return r
}

func Test_Server_handleHome(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	s.handleHome(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "text/html; charset=utf-8", res.Header().Get("content-type"))
	assert.Contains(t, res.Body.String(), `<a href="/auth/login">Login with Kick</a>`)
}

func Test_Server_dashboardRequiresLogin(t *testing.T) {
	provider := kicktest.NewProvider(t, "my-client-id", "my-client-secret")
	sessions := tokens.NewCookieSessions([]byte("my-very-secret-session-secret-32"), false)
	r := newTestRouter(t, provider, clockwork.NewFakeClock(), sessions)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	assert.Equal(t, http.StatusFound, res.Code)
	assert.Equal(t, "/auth/login", res.Header().Get("location"))
	assert.Equal(t, 0, provider.TotalCalls())
}

func Test_loginThenRefresh(t *testing.T) {
	provider := kicktest.NewProvider(t, "my-client-id", "my-client-secret")
	provider.RedirectURI = testRedirectURI
	clock := clockwork.NewFakeClock()
	sessions := tokens.NewCookieSessions([]byte("my-very-secret-session-secret-32"), false)
	b := &browser{
		handler: newTestRouter(t, provider, clock, sessions),
		cookies: make(map[string]*http.Cookie),
	}

	// Starting a login sends us to Kick's authorize page
	res := b.get("/auth/login")
	require.Equal(t, http.StatusFound, res.StatusCode)
	authorizeURL := res.Header.Get("location")
	require.True(t, strings.HasPrefix(authorizeURL, provider.OAuthURL()+"/oauth/authorize?"))

	// Kick approves the login and sends us back to our redirect URI with a code
	providerClient := *provider.HTTPClient()
	providerClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	authorizeRes, err := providerClient.Get(authorizeURL)
	require.NoError(t, err)
	authorizeRes.Body.Close()
	require.Equal(t, http.StatusFound, authorizeRes.StatusCode)
	callbackURL, err := url.Parse(authorizeRes.Header.Get("location"))
	require.NoError(t, err)
	require.Equal(t, "/auth/callback", callbackURL.Path)

	// Completing the login exchanges the code for tokens, which are stored in our
	// session
	res = b.get(callbackURL.RequestURI())
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 1, provider.CountGrant("authorization_code"))
	assert.Equal(t, "access-token-2", storedRecord(t, b, sessions).AccessToken)
	assert.Equal(t, "refresh-token-2", storedRecord(t, b, sessions).RefreshToken)
	_, hasPendingCookie := b.cookies[userauth.PendingCookieName]
	assert.False(t, hasPendingCookie)

	// The dashboard is accessible with the fresh token, without any refresh
	res = b.get("/dashboard")
	require.Equal(t, http.StatusOK, res.StatusCode)
	body, _ := io.ReadAll(res.Body)
	assert.Contains(t, string(body), "You are authenticated!")
	assert.Contains(t, string(body), "access-tok...")
	assert.Equal(t, 0, provider.CountGrant("refresh_token"))

	// Just short of the refresh buffer, the token is still used as-is
	clock.Advance(3600*time.Second - gate.DefaultBuffer)
	res = b.get("/dashboard")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 0, provider.CountGrant("refresh_token"))

	// Once we're within the refresh buffer, exactly one refresh happens before the
	// dashboard is shown, and the new tokens replace the old ones in our session
	clock.Advance(time.Second)
	res = b.get("/dashboard")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 1, provider.CountGrant("refresh_token"))
	assert.Equal(t, "access-token-3", storedRecord(t, b, sessions).AccessToken)
	assert.Equal(t, "refresh-token-3", storedRecord(t, b, sessions).RefreshToken)

	res = b.get("/dashboard")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 1, provider.CountGrant("refresh_token"))

	// Logging out revokes the access token and ends the session
	res = b.get("/auth/logout")
	require.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/", res.Header.Get("location"))
	assert.Equal(t, []string{"access-token-3"}, provider.Revoked())
	assert.Equal(t, "", storedRecord(t, b, sessions).AccessToken)

	res = b.get("/dashboard")
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/auth/login", res.Header.Get("location"))
}

func Test_failedRefreshRequiresLogin(t *testing.T) {
	provider := kicktest.NewProvider(t, "my-client-id", "my-client-secret")
	clock := clockwork.NewFakeClock()
	sessions := tokens.NewCookieSessions([]byte("my-very-secret-session-secret-32"), false)
	b := &browser{
		handler: newTestRouter(t, provider, clock, sessions),
		cookies: make(map[string]*http.Cookie),
	}

	// Seed the session with tokens that are already stale
	accessToken, refreshToken := provider.IssueTokens()
	seedSession(t, b, sessions, tokens.Record{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    clock.Now().UnixMilli() - 1,
	})
	provider.Fail("/oauth/token", http.StatusBadRequest, `{"error":"invalid_grant"}`)

	res := b.get("/dashboard")
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/auth/login", res.Header.Get("location"))
	assert.Equal(t, 1, provider.CountGrant("refresh_token"))
	assert.Equal(t, tokens.Record{}, storedRecord(t, b, sessions))
}

// storedRecord reads the token record from the browser's current session
func storedRecord(t *testing.T, b *browser, sessions *tokens.Sessions) tokens.Record {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range b.cookies {
		req.AddCookie(cookie)
	}
	store, err := sessions.Open(httptest.NewRecorder(), req)
	require.NoError(t, err)
	return store.Record()
}

// seedSession stores a token record in a new session and gives the browser its cookie
func seedSession(t *testing.T, b *browser, sessions *tokens.Sessions, record tokens.Record) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	store, err := sessions.Open(res, req)
	require.NoError(t, err)
	require.NoError(t, store.Put(record))
	for _, cookie := range res.Result().Cookies() {
		b.cookies[cookie.Name] = cookie
	}
}
