package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// Store is durable key-value storage for small string values.
// Every method may fail; callers treat failures as non-fatal.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// Error wraps a storage read or write failure.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// FileName is the file FileStore keeps under its directory.
const FileName = "state.json"

// FileStore keeps all keys in one JSON object on disk. Writes go to a
// temporary file renamed over the old one, so a crash never leaves a
// half-written file behind.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store rooted at dir. The directory is created on
// the first write, not here.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, FileName)}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return "", false, &Error{Op: "get", Key: key, Err: err}
	}
	v, ok := m[key]
	return v, ok, nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}
	m[key] = value
	if err := s.write(m); err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}
	return nil
}

func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return &Error{Op: "remove", Key: key, Err: err}
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	if err := s.write(m); err != nil {
		return &Error{Op: "remove", Key: key, Err: err}
	}
	return nil
}

func (s *FileStore) read() (map[string]string, error) {
	m := map[string]string{}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.path, err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

func (s *FileStore) write(m map[string]string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Memory is an in-process Store. Failures can be injected per operation,
// which is how callers exercise their degraded paths.
type Memory struct {
	mu        sync.Mutex
	data      map[string]string
	GetErr    error
	SetErr    error
	RemoveErr error
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: map[string]string{}}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", false, &Error{Op: "get", Key: key, Err: m.GetErr}
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return &Error{Op: "set", Key: key, Err: m.SetErr}
	}
	m.data[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RemoveErr != nil {
		return &Error{Op: "remove", Key: key, Err: m.RemoveErr}
	}
	delete(m.data, key)
	return nil
}
