package kicktest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/golden-vcr/kickauth/internal/pkce"
	"github.com/gorilla/mux"
)

// Call records a single request received by the fake provider
type Call struct {
	Method    string
	Path      string
	GrantType string
	Form      url.Values
	Query     url.Values
	Header    http.Header
}

type failure struct {
	status int
	body   string
}

// Provider is a fake Kick OAuth server and API
type Provider struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	ExpiresIn    int
	Scope        string

	srv *httptest.Server

	mu       sync.Mutex
	seq      int
	codes    map[string]string
	access   map[string]bool
	refresh  map[string]bool
	revoked  []string
	failures map[string]failure
	calls    []Call
}

// NewProvider starts a fake provider that accepts the given client credentials; it is
// shut down when the test completes
func NewProvider(t testing.TB, clientID, clientSecret string) *Provider {
	p := &Provider{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		ExpiresIn:    3600,
		Scope:        "user:read channel:read",
		codes:        make(map[string]string),
		access:       make(map[string]bool),
		refresh:      make(map[string]bool),
		failures:     make(map[string]failure),
	}

	r := mux.NewRouter()
	r.Path("/oauth/authorize").Methods("GET").HandlerFunc(p.handleAuthorize)
	r.Path("/oauth/token").Methods("POST").HandlerFunc(p.handleToken)
	r.Path("/oauth/revoke").Methods("POST").HandlerFunc(p.handleRevoke)
	r.Path("/api/v1/user").Methods("GET").HandlerFunc(p.handleGetUser)
	r.Path("/api/v1/channels/{slug}").Methods("GET").HandlerFunc(p.handleGetChannel)
	r.Path("/api/v1/channels/{id}/livestream").Methods("GET").HandlerFunc(p.handleGetLivestream)

	p.srv = httptest.NewServer(r)
	t.Cleanup(p.srv.Close)
	return p
}

// OAuthURL is the base URL of the fake OAuth server, i.e. our stand-in for id.kick.com
func (p *Provider) OAuthURL() string {
	return p.srv.URL
}

// APIURL is the base URL of the fake REST API
func (p *Provider) APIURL() string {
	return p.srv.URL + "/api"
}

// HTTPClient returns a client configured to talk to the fake provider
func (p *Provider) HTTPClient() *http.Client {
	return p.srv.Client()
}

// IssueCode registers a new authorization code bound to the given S256 code challenge,
// as if the user had approved a login
func (p *Provider) IssueCode(codeChallenge string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.issueCode(codeChallenge)
}

// IssueTokens mints a live access/refresh token pair without going through any grant
func (p *Provider) IssueTokens() (accessToken, refreshToken string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := p.issueTokens(true)
	return res["access_token"].(string), res["refresh_token"].(string)
}

// Fail causes all subsequent requests to the given path to fail with the given status
// and body
func (p *Provider) Fail(path string, status int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[path] = failure{status: status, body: body}
}

// Calls returns every recorded request made to the given path
func (p *Provider) Calls(path string) []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	calls := make([]Call, 0)
	for _, call := range p.calls {
		if call.Path == path {
			calls = append(calls, call)
		}
	}
	return calls
}

// TotalCalls returns the number of requests received on any path
func (p *Provider) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// CountGrant returns the number of token requests made with the given grant_type
func (p *Provider) CountGrant(grantType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, call := range p.calls {
		if call.Path == "/oauth/token" && call.GrantType == grantType {
			n++
		}
	}
	return n
}

// Revoked returns every token that has been revoked, in order
func (p *Provider) Revoked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.revoked...)
}

func (p *Provider) handleAuthorize(res http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	p.mu.Lock()
	p.record(req, nil)
	if q.Get("response_type") != "code" || q.Get("client_id") != p.ClientID || q.Get("code_challenge_method") != pkce.ChallengeMethod {
		p.mu.Unlock()
		http.Error(res, "invalid authorization request", http.StatusBadRequest)
		return
	}
	code := p.issueCode(q.Get("code_challenge"))
	p.mu.Unlock()

	u, err := url.Parse(q.Get("redirect_uri"))
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	cq := u.Query()
	cq.Set("code", code)
	cq.Set("state", q.Get("state"))
	u.RawQuery = cq.Encode()
	http.Redirect(res, req, u.String(), http.StatusFound)
}

func (p *Provider) handleToken(res http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	form := req.PostForm

	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(req, form)
	if p.writeFailure(res, req) {
		return
	}

	if form.Get("client_id") != p.ClientID || form.Get("client_secret") != p.ClientSecret {
		writeJSON(res, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}

	switch form.Get("grant_type") {
	case "authorization_code":
		challenge, ok := p.codes[form.Get("code")]
		delete(p.codes, form.Get("code"))
		if !ok || !pkce.VerifyCodeChallenge(challenge, form.Get("code_verifier")) {
			writeJSON(res, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		if p.RedirectURI != "" && form.Get("redirect_uri") != p.RedirectURI {
			writeJSON(res, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": "redirect_uri mismatch"})
			return
		}
		writeJSON(res, http.StatusOK, p.issueTokens(true))
	case "refresh_token":
		refreshToken := form.Get("refresh_token")
		if !p.refresh[refreshToken] {
			writeJSON(res, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		delete(p.refresh, refreshToken)
		writeJSON(res, http.StatusOK, p.issueTokens(true))
	case "client_credentials":
		writeJSON(res, http.StatusOK, p.issueTokens(false))
	default:
		writeJSON(res, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
	}
}

func (p *Provider) handleRevoke(res http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(req, nil)
	if p.writeFailure(res, req) {
		return
	}

	token := req.URL.Query().Get("token")
	if token == "" {
		http.Error(res, "token is required", http.StatusBadRequest)
		return
	}
	delete(p.access, token)
	delete(p.refresh, token)
	p.revoked = append(p.revoked, token)
	res.WriteHeader(http.StatusOK)
}

func (p *Provider) handleGetUser(res http.ResponseWriter, req *http.Request) {
	if !p.authorizeAPIRequest(res, req) {
		return
	}
	writeJSON(res, http.StatusOK, map[string]interface{}{
		"data": []map[string]interface{}{
			{"user_id": 1337, "name": "BigJoeBob", "email": "bigjoebob@example.com"},
		},
		"message": "OK",
	})
}

func (p *Provider) handleGetChannel(res http.ResponseWriter, req *http.Request) {
	if !p.authorizeAPIRequest(res, req) {
		return
	}
	slug := mux.Vars(req)["slug"]
	if slug == "nobody" {
		writeJSON(res, http.StatusNotFound, map[string]string{"message": "Channel not found"})
		return
	}
	writeJSON(res, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"broadcaster_user_id": 1337,
			"slug":                slug,
		},
		"message": "OK",
	})
}

func (p *Provider) handleGetLivestream(res http.ResponseWriter, req *http.Request) {
	if !p.authorizeAPIRequest(res, req) {
		return
	}
	writeJSON(res, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"channel_id": mux.Vars(req)["id"],
			"is_live":    true,
		},
		"message": "OK",
	})
}

func (p *Provider) authorizeAPIRequest(res http.ResponseWriter, req *http.Request) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(req, nil)
	if p.writeFailure(res, req) {
		return false
	}

	token, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
	if !ok || !p.access[token] {
		writeJSON(res, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return false
	}
	return true
}

// record must be called with p.mu held
func (p *Provider) record(req *http.Request, form url.Values) {
	p.calls = append(p.calls, Call{
		Method:    req.Method,
		Path:      req.URL.Path,
		GrantType: form.Get("grant_type"),
		Form:      form,
		Query:     req.URL.Query(),
		Header:    req.Header.Clone(),
	})
}

// writeFailure must be called with p.mu held
func (p *Provider) writeFailure(res http.ResponseWriter, req *http.Request) bool {
	f, ok := p.failures[req.URL.Path]
	if !ok {
		return false
	}
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(f.status)
	res.Write([]byte(f.body))
	return true
}

// issueCode must be called with p.mu held
func (p *Provider) issueCode(codeChallenge string) string {
	p.seq++
	code := fmt.Sprintf("code-%d", p.seq)
	p.codes[code] = codeChallenge
	return code
}

// issueTokens must be called with p.mu held
func (p *Provider) issueTokens(withRefreshToken bool) map[string]interface{} {
	p.seq++
	accessToken := fmt.Sprintf("access-token-%d", p.seq)
	p.access[accessToken] = true
	body := map[string]interface{}{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   p.ExpiresIn,
		"scope":        p.Scope,
	}
	if withRefreshToken {
		refreshToken := fmt.Sprintf("refresh-token-%d", p.seq)
		p.refresh[refreshToken] = true
		body["refresh_token"] = refreshToken
	}
	return body
}

func writeJSON(res http.ResponseWriter, status int, v interface{}) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	json.NewEncoder(res).Encode(v)
}
