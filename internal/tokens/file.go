package tokens

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/peterbourgon/diskv/v3"
)

// DefaultFilePath is where a FileStore keeps its tokens unless configured otherwise
const DefaultFilePath = "tokens.json"

// FileStore is a process-wide token Store persisted as JSON to a single local file
type FileStore struct {
	dv  *diskv.Diskv
	key string

	// mu only serializes access within this process; other processes writing the same
	// file are not coordinated with
	mu     sync.Mutex
	record Record
}

// OpenFileStore loads tokens from the file at path, if it exists. A missing file simply
// means that no tokens have been stored yet.
func OpenFileStore(path string) (*FileStore, error) {
	flatTransform := func(s string) []string { return []string{} }
	s := &FileStore{
		dv: diskv.New(diskv.Options{
			BasePath:  filepath.Dir(path),
			Transform: flatTransform,
			PathPerm:  0o700,
			FilePerm:  0o600,
		}),
		key: filepath.Base(path),
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load tokens from %s: %w", path, err)
	}
	return s, nil
}

// Path returns the location of the token file
func (s *FileStore) Path() string {
	return filepath.Join(s.dv.BasePath, s.key)
}

// Open returns the FileStore itself: every request shares the same tokens
func (s *FileStore) Open(res http.ResponseWriter, req *http.Request) (Store, error) {
	return s, nil
}

func (s *FileStore) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.AccessToken
}

func (s *FileStore) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record.AccessToken = token
	return s.save()
}

func (s *FileStore) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.RefreshToken
}

func (s *FileStore) SetRefreshToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record.RefreshToken = token
	return s.save()
}

func (s *FileStore) Record() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

func (s *FileStore) Put(record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = record
	return s.save()
}

// Clear discards all tokens, leaving an empty JSON object in the file
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = Record{}
	return s.save()
}

func (s *FileStore) load() error {
	if !s.dv.Has(s.key) {
		return nil
	}
	data, err := s.dv.Read(s.key)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, &s.record)
}

// save must be called with s.mu held
func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.record, "", "  ")
	if err != nil {
		return err
	}
	if err := s.dv.Write(s.key, data); err != nil {
		return fmt.Errorf("failed to write tokens to %s: %w", s.Path(), err)
	}
	return nil
}

var _ Opener = (*FileStore)(nil)
var _ Opener = (*Sessions)(nil)
