package tokens

import "net/http"

// Store holds a single token record
type Store interface {
	AccessToken() string
	SetAccessToken(token string) error
	RefreshToken() string
	SetRefreshToken(token string) error

	// Record returns a copy of the full token record
	Record() Record
	// Put overwrites the full token record
	Put(record Record) error
	// Clear discards all tokens
	Clear() error
}

// Opener resolves the Store that applies to an incoming HTTP request
type Opener interface {
	Open(res http.ResponseWriter, req *http.Request) (Store, error)
}
