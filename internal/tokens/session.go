package tokens

import (
	"net/http"

	"github.com/gorilla/sessions"
)

// SessionName is the name of the cookie that identifies a user's session
const SessionName = "kick-session"

const sessionMaxAgeSeconds = 24 * 60 * 60

const (
	keyAccessToken  = "accessToken"
	keyRefreshToken = "refreshToken"
	keyTokenType    = "tokenType"
	keyExpiresAt    = "expiresAt"
)

// Sessions opens a per-session token Store for each request
type Sessions struct {
	store sessions.Store
	name  string
}

// NewSessions wraps an existing gorilla/sessions store
func NewSessions(store sessions.Store) *Sessions {
	return &Sessions{store: store, name: SessionName}
}

// NewCookieSessions keeps each session's tokens in a signed cookie
func NewCookieSessions(secret []byte, secure bool) *Sessions {
	store := sessions.NewCookieStore(secret)
	store.Options = sessionOptions(secure)
	return NewSessions(store)
}

// NewFilesystemSessions keeps each session's tokens in a file in dir, with only the
// session ID carried in the cookie
func NewFilesystemSessions(dir string, secret []byte, secure bool) *Sessions {
	store := sessions.NewFilesystemStore(dir, secret)
	store.Options = sessionOptions(secure)
	store.MaxLength(0)
	return NewSessions(store)
}

func sessionOptions(secure bool) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAgeSeconds,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Sessions) Open(res http.ResponseWriter, req *http.Request) (Store, error) {
	// If the cookie can't be decoded (e.g. after the secret is rotated), gorilla/sessions
	// still gives us a new, empty session along with the error: the user simply appears
	// logged out
	session, err := s.store.Get(req, s.name)
	if session == nil {
		return nil, err
	}
	return &sessionStore{session: session, res: res, req: req}, nil
}

type sessionStore struct {
	session *sessions.Session
	res     http.ResponseWriter
	req     *http.Request
}

func (s *sessionStore) AccessToken() string {
	return s.getString(keyAccessToken)
}

func (s *sessionStore) SetAccessToken(token string) error {
	s.session.Values[keyAccessToken] = token
	return s.save()
}

func (s *sessionStore) RefreshToken() string {
	return s.getString(keyRefreshToken)
}

func (s *sessionStore) SetRefreshToken(token string) error {
	s.session.Values[keyRefreshToken] = token
	return s.save()
}

func (s *sessionStore) Record() Record {
	expiresAt, _ := s.session.Values[keyExpiresAt].(int64)
	return Record{
		AccessToken:  s.getString(keyAccessToken),
		RefreshToken: s.getString(keyRefreshToken),
		TokenType:    s.getString(keyTokenType),
		ExpiresAt:    expiresAt,
	}
}

func (s *sessionStore) Put(record Record) error {
	s.session.Values[keyAccessToken] = record.AccessToken
	s.session.Values[keyRefreshToken] = record.RefreshToken
	s.session.Values[keyTokenType] = record.TokenType
	s.session.Values[keyExpiresAt] = record.ExpiresAt
	s.session.Options.MaxAge = sessionMaxAgeSeconds
	return s.save()
}

// Clear destroys the session entirely
func (s *sessionStore) Clear() error {
	s.session.Values = make(map[interface{}]interface{})
	s.session.Options.MaxAge = -1
	return s.save()
}

func (s *sessionStore) getString(key string) string {
	value, _ := s.session.Values[key].(string)
	return value
}

func (s *sessionStore) save() error {
	return s.session.Save(s.req, s.res)
}
