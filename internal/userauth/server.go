package userauth

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"

	"github.com/golden-vcr/kickauth"
	"github.com/golden-vcr/kickauth/internal/events"
	"github.com/golden-vcr/kickauth/internal/oauth"
	"github.com/golden-vcr/kickauth/internal/pkce"
	"github.com/golden-vcr/kickauth/internal/tokens"
	"github.com/golden-vcr/server-common/entry"
)

// PendingCookieName is the name of the short-lived cookie that identifies a login in
// progress
const PendingCookieName = "session_id"

type Server struct {
	oauth          oauth.Client
	tokens         tokens.Opener
	pending        *pendingStore
	clock          clockwork.Clock
	publisher      events.Publisher
	limit          func(http.Handler) http.Handler
	secureCookies  bool
	requiredScopes kickauth.RequiredScopes
	newSessionID   func() string
}

// NewServer initializes the auth endpoints. If limit is non-nil, it's applied to the
// endpoints that start a login or mint an app access token.
func NewServer(client oauth.Client, opener tokens.Opener, clock clockwork.Clock, publisher events.Publisher, limit func(http.Handler) http.Handler, secureCookies bool) *Server {
	if limit == nil {
		limit = func(h http.Handler) http.Handler { return h }
	}
	return &Server{
		oauth:          client,
		tokens:         opener,
		pending:        newPendingStore(clock),
		clock:          clock,
		publisher:      publisher,
		limit:          limit,
		secureCookies:  secureCookies,
		requiredScopes: kickauth.Scopes,
		newSessionID:   uuid.NewString,
	}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Path("/auth/login").Methods("GET").Handler(s.limit(http.HandlerFunc(s.handleLogin)))
	r.Path("/auth/callback").Methods("GET").HandlerFunc(s.handleCallback)
	r.Path("/auth/token").Methods("POST").Handler(s.limit(http.HandlerFunc(s.handleAppToken)))
	r.Path("/auth/refresh").Methods("POST").HandlerFunc(s.handleRefresh)
	r.Path("/auth/logout").Methods("GET").HandlerFunc(s.handleLogout)
}

func (s *Server) handleLogin(res http.ResponseWriter, req *http.Request) {
	logger := entry.Log(req)

	// Generate a PKCE code verifier, which we'll hold on to until the user comes back
	// to us with an authorization code: Kick only gets the challenge derived from it
	codeVerifier, err := pkce.GenerateCodeVerifier()
	if err != nil {
		logger.Error("Failed to generate code verifier", "error", err)
		http.Error(res, "Error initiating login flow", http.StatusInternalServerError)
		return
	}
	state, err := pkce.GenerateState()
	if err != nil {
		logger.Error("Failed to generate state", "error", err)
		http.Error(res, "Error initiating login flow", http.StatusInternalServerError)
		return
	}

	// Remember this login attempt, and give the browser a cookie that identifies it
	sessionID := s.newSessionID()
	s.pending.put(sessionID, state, codeVerifier)
	http.SetCookie(res, &http.Cookie{
		Name:     PendingCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(pendingTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	authURL := s.oauth.AuthorizationURL(s.requiredScopes.String(), pkce.GenerateCodeChallenge(codeVerifier), state)
	http.Redirect(res, req, authURL, http.StatusFound)
}

func (s *Server) handleCallback(res http.ResponseWriter, req *http.Request) {
	logger := entry.Log(req)

	// Look up the login that this callback completes: whatever happens next, it can't
	// be completed again
	cookie, err := req.Cookie(PendingCookieName)
	if err != nil {
		http.Error(res, "Invalid session", http.StatusBadRequest)
		return
	}
	pending, ok := s.pending.take(cookie.Value)
	if !ok {
		http.Error(res, "Invalid session", http.StatusBadRequest)
		return
	}
	http.SetCookie(res, &http.Cookie{
		Name:     PendingCookieName,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	// Verify the state value that Kick echoed back to us
	q := req.URL.Query()
	if subtle.ConstantTimeCompare([]byte(q.Get("state")), []byte(pending.state)) != 1 {
		logger.Warn("Rejected callback with mismatched state")
		http.Error(res, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	// If the user declined to authorize our app, Kick tells us why instead of giving
	// us a code
	if errorCode := q.Get("error"); errorCode != "" {
		logger.Info("Authorization was not granted", "error", errorCode, "description", q.Get("error_description"))
		http.Error(res, fmt.Sprintf("Authorization failed: %s", errorCode), http.StatusBadRequest)
		return
	}
	code := q.Get("code")
	if code == "" {
		http.Error(res, "Authorization code is required", http.StatusBadRequest)
		return
	}

	// Redeem the code, proving that we're the ones who started this login
	token, err := s.oauth.ExchangeCode(req.Context(), code, pending.codeVerifier)
	if err != nil {
		logger.Error("Failed to exchange authorization code", "error", err)
		http.Error(res, "Error processing authentication", http.StatusInternalServerError)
		return
	}
	if missing := s.requiredScopes.Missing(token.Scope); token.Scope != "" && len(missing) > 0 {
		logger.Warn("Required scopes were not granted", "missing", missing)
	}

	store, err := s.tokens.Open(res, req)
	if err != nil {
		logger.Error("Failed to open token store", "error", err)
		http.Error(res, "Error processing authentication", http.StatusInternalServerError)
		return
	}
	if err := store.Put(tokens.NewRecord(token, s.clock.Now())); err != nil {
		logger.Error("Failed to store tokens", "error", err)
		http.Error(res, "Error processing authentication", http.StatusInternalServerError)
		return
	}
	events.Announce(req.Context(), logger, s.publisher, events.Event{
		Type:      events.TypeUserAuthenticated,
		Scope:     token.Scope,
		ExpiresIn: token.ExpiresIn,
		Timestamp: s.clock.Now(),
	})

	writeJSON(res, callbackResponse{
		Success: true,
		Message: "Successfully authenticated with Kick",
		TokenInfo: tokenInfo{
			AccessToken: kickauth.MaskToken(token.AccessToken),
			ExpiresIn:   token.ExpiresIn,
			TokenType:   token.TokenType,
			Scope:       token.Scope,
		},
	})
}

func (s *Server) handleAppToken(res http.ResponseWriter, req *http.Request) {
	logger := entry.Log(req)

	token, err := s.oauth.AppAccessToken(req.Context())
	if err != nil {
		logger.Error("Failed to get app access token", "error", err)
		http.Error(res, "Error obtaining access token", http.StatusInternalServerError)
		return
	}

	writeJSON(res, appTokenResponse{
		Success:     true,
		AccessToken: kickauth.MaskToken(token.AccessToken),
		ExpiresIn:   token.ExpiresIn,
		TokenType:   token.TokenType,
	})
}

func (s *Server) handleRefresh(res http.ResponseWriter, req *http.Request) {
	logger := entry.Log(req)

	refreshToken := parseRefreshToken(req)
	if refreshToken == "" {
		http.Error(res, "Refresh token is required", http.StatusBadRequest)
		return
	}

	token, err := s.oauth.RefreshAccessToken(req.Context(), refreshToken)
	if err != nil {
		logger.Error("Failed to refresh token", "error", err)
		http.Error(res, "Error refreshing token", http.StatusInternalServerError)
		return
	}

	info := tokenInfo{
		AccessToken: kickauth.MaskToken(token.AccessToken),
		ExpiresIn:   token.ExpiresIn,
		TokenType:   token.TokenType,
		Scope:       token.Scope,
	}
	if token.RefreshToken != "" {
		info.RefreshToken = kickauth.MaskToken(token.RefreshToken)
	}
	writeJSON(res, refreshResponse{
		Success:   true,
		TokenInfo: info,
	})
}

func (s *Server) handleLogout(res http.ResponseWriter, req *http.Request) {
	logger := entry.Log(req)

	store, err := s.tokens.Open(res, req)
	if err != nil {
		logger.Error("Failed to open token store", "error", err)
		http.Redirect(res, req, "/", http.StatusFound)
		return
	}

	// Revocation is best-effort: the user is logged out locally regardless
	if accessToken := store.AccessToken(); accessToken != "" {
		if err := s.oauth.RevokeToken(req.Context(), accessToken, oauth.TokenTypeHintAccessToken); err != nil {
			logger.Warn("Failed to revoke access token", "error", err)
		} else {
			events.Announce(req.Context(), logger, s.publisher, events.Event{
				Type:      events.TypeTokenRevoked,
				Timestamp: s.clock.Now(),
			})
		}
	}
	if err := store.Clear(); err != nil {
		logger.Error("Failed to clear token store", "error", err)
	}
	http.Redirect(res, req, "/", http.StatusFound)
}

// parseRefreshToken reads the refreshToken field from a JSON or form-encoded request
// body, returning an empty string if it can't be found
func parseRefreshToken(req *http.Request) string {
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return ""
		}
		return body.RefreshToken
	}
	if err := req.ParseForm(); err != nil {
		return ""
	}
	return req.PostForm.Get("refreshToken")
}

func writeJSON(res http.ResponseWriter, v interface{}) {
	res.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(res).Encode(v); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
	}
}
