package dashboard

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/golden-vcr/kickauth"
	"github.com/golden-vcr/kickauth/internal/gate"
	"github.com/golden-vcr/kickauth/internal/tokens"
	"github.com/golden-vcr/server-common/entry"
)

const homeHTML = `<!DOCTYPE html><html><head><title>Kick API Bot</title></head><body><h1>Kick API Bot</h1><a href="/auth/login">Login with Kick</a></body></html>`

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head><title>Kick Dashboard</title></head>
<body>
<h1>Kick Dashboard</h1>
<p>You are authenticated!</p>
<p>Access token: <code>{{.AccessToken}}</code>{{if .ExpiresAt}} (expires {{.ExpiresAt}}){{end}}</p>
<a href="/auth/logout">Logout</a>
</body>
</html>
`))

type dashboardData struct {
	AccessToken string
	ExpiresAt   string
}

type Server struct {
	gate   *gate.Gate
	tokens tokens.Opener
}

func NewServer(g *gate.Gate, opener tokens.Opener) *Server {
	return &Server{
		gate:   g,
		tokens: opener,
	}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Path("/").Methods("GET").HandlerFunc(s.handleHome)
	r.Path("/dashboard").Methods("GET").Handler(s.gate.Require(s.tokens, gate.RedirectToLogin, http.HandlerFunc(s.handleDashboard)))
}

func (s *Server) handleHome(res http.ResponseWriter, req *http.Request) {
	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	res.Write([]byte(homeHTML))
}

func (s *Server) handleDashboard(res http.ResponseWriter, req *http.Request) {
	record, ok := gate.RecordFromContext(req.Context())
	if !ok {
		gate.RedirectToLogin(res, req)
		return
	}

	data := dashboardData{AccessToken: kickauth.MaskToken(record.AccessToken)}
	if record.ExpiresAt != 0 {
		data.ExpiresAt = record.Expiry().UTC().Format(time.RFC1123)
	}
	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTemplate.Execute(res, data); err != nil {
		entry.Log(req).Error("Failed to render dashboard", "error", err)
	}
}
