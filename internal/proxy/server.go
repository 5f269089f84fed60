package proxy

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/golden-vcr/kickauth"
	"github.com/golden-vcr/kickauth/internal/gate"
	"github.com/golden-vcr/kickauth/internal/kickapi"
	"github.com/golden-vcr/kickauth/internal/tokens"
	"github.com/golden-vcr/server-common/entry"
)

type handlerFunc func(res http.ResponseWriter, req *http.Request, client *kickapi.Client)

type Server struct {
	gate   *gate.Gate
	tokens tokens.Opener
	api    *kickapi.Client
}

func NewServer(g *gate.Gate, opener tokens.Opener, apiBaseURL string, httpClient *http.Client) *Server {
	return &Server{
		gate:   g,
		tokens: opener,
		api:    kickapi.NewClient(apiBaseURL, httpClient),
	}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Path("/api/user").Methods("GET").Handler(s.authorized(s.handleGetUser))
	r.Path("/api/channels/{username}").Methods("GET").Handler(s.authorized(s.handleGetChannel))
	r.Path("/api/channels/{id}/livestream").Methods("GET").Handler(s.authorized(s.handleGetLivestream))
}

func (s *Server) handleGetUser(res http.ResponseWriter, req *http.Request, client *kickapi.Client) {
	data, err := client.GetUser(req.Context())
	if err != nil {
		writeUpstreamError(res, req, "Error fetching user data", err)
		return
	}
	writeRaw(res, data)
}

func (s *Server) handleGetChannel(res http.ResponseWriter, req *http.Request, client *kickapi.Client) {
	data, err := client.GetChannel(req.Context(), mux.Vars(req)["username"])
	if err != nil {
		writeUpstreamError(res, req, "Error fetching channel data", err)
		return
	}
	writeRaw(res, data)
}

func (s *Server) handleGetLivestream(res http.ResponseWriter, req *http.Request, client *kickapi.Client) {
	data, err := client.GetLivestream(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		writeUpstreamError(res, req, "Error fetching livestream data", err)
		return
	}
	writeRaw(res, data)
}

// authorized resolves the access token for a request and passes h an API client that
// will present it. A bearer token in the Authorization header takes precedence over
// the caller's stored token.
func (s *Server) authorized(h handlerFunc) http.Handler {
	fromStore := s.gate.Require(s.tokens, denyUnauthorized, http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		record, ok := gate.RecordFromContext(req.Context())
		if !ok {
			denyUnauthorized(res, req)
			return
		}
		h(res, req, s.api.WithAccessToken(record.AccessToken, record.Type()))
	}))

	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		header := req.Header.Get("Authorization")
		if header == "" {
			fromStore.ServeHTTP(res, req)
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			denyUnauthorized(res, req)
			return
		}
		h(res, req, s.api.WithAccessToken(token, "Bearer"))
	})
}

func denyUnauthorized(res http.ResponseWriter, req *http.Request) {
	writeJSON(res, http.StatusUnauthorized, errorResponse{Error: "Authorization token required"})
}

// writeUpstreamError relays a failed API call to the client: if Kick responded, its
// status code and response body are passed along
func writeUpstreamError(res http.ResponseWriter, req *http.Request, message string, err error) {
	entry.Log(req).Error(message, "error", err)

	var upstreamErr *kickauth.UpstreamError
	if errors.As(err, &upstreamErr) {
		var details interface{} = string(upstreamErr.Body)
		if json.Valid(upstreamErr.Body) {
			details = json.RawMessage(upstreamErr.Body)
		}
		writeJSON(res, upstreamErr.StatusCode, errorResponse{Error: message, Details: details})
		return
	}
	writeJSON(res, http.StatusInternalServerError, errorResponse{Error: message, Details: err.Error()})
}

type errorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func writeRaw(res http.ResponseWriter, data json.RawMessage) {
	res.Header().Set("Content-Type", "application/json")
	res.Write(data)
}

func writeJSON(res http.ResponseWriter, status int, v interface{}) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	json.NewEncoder(res).Encode(v)
}
