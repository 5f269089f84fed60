package userauth

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// pendingTTL is how long a user has to complete a login after starting it
const pendingTTL = 10 * time.Minute

// pendingAuthorization records a login that has been started but not yet completed: the
// state we expect Kick to send back, and the PKCE code verifier needed to redeem the
// authorization code
type pendingAuthorization struct {
	state        string
	codeVerifier string
	expiresAt    time.Time
}

// pendingStore holds pending authorizations keyed by an opaque ID that's given to the
// user's browser in a cookie
type pendingStore struct {
	clock   clockwork.Clock
	mu      sync.Mutex
	entries map[string]pendingAuthorization
}

func newPendingStore(clock clockwork.Clock) *pendingStore {
	return &pendingStore{
		clock:   clock,
		entries: make(map[string]pendingAuthorization),
	}
}

func (s *pendingStore) put(id, state, codeVerifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purge()
	s.entries[id] = pendingAuthorization{
		state:        state,
		codeVerifier: codeVerifier,
		expiresAt:    s.clock.Now().Add(pendingTTL),
	}
}

// take removes and returns the pending authorization with the given ID. Each pending
// authorization can only be taken once, whether or not the login then succeeds.
func (s *pendingStore) take(id string) (pendingAuthorization, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purge()
	p, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	return p, ok
}

func (s *pendingStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// purge must be called with s.mu held
func (s *pendingStore) purge() {
	now := s.clock.Now()
	for id, p := range s.entries {
		if !now.Before(p.expiresAt) {
			delete(s.entries, id)
		}
	}
}
