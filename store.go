package main

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Account is the persisted record for a registered nickname, grounded on
// original_source/mammon/ext/ircv3/register.py's REG CREATE handler,
// which stores a password hash, an email (when required), and the
// account's own metadata-ish extra fields.
type Account struct {
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash"`
	Email        string `json:"email,omitempty"`
}

// AccountStore persists registered accounts. The default implementation
// is a single JSON file, matching the component design's "a simple
// key-value file keyed account.<name>" description; a SQL-backed store
// (soju's manifest shows lib/pq and mattn/go-sqlite3 both in the pack)
// would contradict that description, so no SQL dependency is wired here
// — see DESIGN.md.
type AccountStore interface {
	Get(name string) (Account, bool, error)
	Put(a Account) error
	Delete(name string) error
}

// jsonAccountStore is grounded on mammon/data.py's DataStore: a
// single in-memory map, mutated under a lock, flushed to a JSON file on
// every write (DataStore.save() is also called eagerly after each put in
// mammon's own register.py handler).
type jsonAccountStore struct {
	mu   sync.Mutex
	path string
	data map[string]Account
}

func newJSONAccountStore(dir string) (*jsonAccountStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "unable to create data directory")
	}

	path := filepath.Join(dir, "accounts.json")
	s := &jsonAccountStore{path: path, data: map[string]Account{}}

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrap(err, "unable to read account store")
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, errors.Wrap(err, "unable to parse account store")
		}
	}

	return s, nil
}

func (s *jsonAccountStore) Get(name string) (Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.data[canonicalizeNick(name)]
	return a, ok, nil
}

func (s *jsonAccountStore) Put(a Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[canonicalizeNick(a.Name)] = a
	return s.flushLocked()
}

func (s *jsonAccountStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, canonicalizeNick(name))
	return s.flushLocked()
}

func (s *jsonAccountStore) flushLocked() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return errors.Wrap(err, "unable to serialize account store")
	}
	if err := ioutil.WriteFile(s.path, raw, 0o600); err != nil {
		return errors.Wrap(err, "unable to write account store")
	}
	return nil
}

// MetadataStore holds arbitrary client/channel METADATA key-value pairs,
// keyed by target ("nick:" or "chan:" plus the casefolded nickname or
// channel name). Grounded the
// same way as AccountStore: a JSON file, mirroring mammon's generic
// DataStore being reused across both register.py and its metadata
// extension rather than standing up a second storage engine.
type MetadataStore struct {
	mu   sync.Mutex
	path string
	data map[string]map[string]string
}

func newMetadataStore(dir string) (*MetadataStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "unable to create data directory")
	}

	path := filepath.Join(dir, "metadata.json")
	s := &MetadataStore{path: path, data: map[string]map[string]string{}}

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrap(err, "unable to read metadata store")
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, errors.Wrap(err, "unable to parse metadata store")
		}
	}
	return s, nil
}

func (s *MetadataStore) Get(target, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[casefold(target)][casefold(key)]
	return v, ok
}

func (s *MetadataStore) List(target string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]string{}
	for k, v := range s.data[casefold(target)] {
		out[k] = v
	}
	return out
}

func (s *MetadataStore) Set(target, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := casefold(target)
	if s.data[t] == nil {
		s.data[t] = map[string]string{}
	}
	s.data[t][casefold(key)] = value
	return s.flushLocked()
}

func (s *MetadataStore) Clear(target, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[casefold(target)], casefold(key))
	return s.flushLocked()
}

func (s *MetadataStore) KeyCount(target string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data[casefold(target)])
}

func (s *MetadataStore) flushLocked() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return errors.Wrap(err, "unable to serialize metadata store")
	}
	return ioutil.WriteFile(s.path, raw, 0o600)
}
