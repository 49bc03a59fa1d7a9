package safety

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/relist-cli/internal/fault"
)

// Store persists a Dictionary as a category to term-list JSON object.
type Store struct {
	mu   sync.RWMutex
	path string
	dict Dictionary
	// unreadable is set when the file exists but could not be loaded.
	// Incremental edits are refused until Replace rewrites it.
	unreadable bool
}

// NewStore returns an empty store bound to path. Call Load to read it.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the dictionary file location.
func (s *Store) Path() string { return s.path }

// Load reads the dictionary file. A missing or corrupt file leaves the
// store with an empty dictionary, so nothing is flagged; the returned
// fault.SafetyDictionary error is informational. A file that exists but
// cannot be read or decoded is left on disk untouched: AddTerm and
// RemoveTerm refuse to run until Replace overwrites it.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dict = Dictionary{}
	s.unreadable = false

	raw, err := os.ReadFile(s.path)
	if err != nil {
		s.unreadable = !errors.Is(err, fs.ErrNotExist)
		return s.degrade(eris.Wrapf(err, "safety: read dictionary %s", s.path))
	}

	var m map[string][]string
	if err := json.Unmarshal(raw, &m); err != nil {
		s.unreadable = true
		return s.degrade(eris.Wrapf(err, "safety: decode dictionary %s", s.path))
	}

	s.dict = NewDictionary(m)
	zap.L().Debug("safety: dictionary loaded",
		zap.String("path", s.path),
		zap.Int("categories", len(s.dict.terms)),
		zap.Int("terms", s.dict.Len()),
	)
	return nil
}

func (s *Store) degrade(err error) error {
	f := fault.New(fault.SafetyDictionary, err)
	zap.L().Warn("safety: dictionary unavailable, nothing will be flagged", zap.Error(f))
	return f
}

// Unreadable reports whether the last Load found a file it could not use.
func (s *Store) Unreadable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unreadable
}

// guardEdit refuses incremental edits that would overwrite an unreadable
// file with a near-empty dictionary. Caller holds the lock.
func (s *Store) guardEdit() error {
	if s.unreadable {
		return fault.New(fault.SafetyDictionary,
			eris.Errorf("safety: %s could not be loaded, fix it or reinitialize with 'safety init --force'", s.path))
	}
	return nil
}

// Dictionary returns the current dictionary. The value is immutable and
// safe to share across goroutines.
func (s *Store) Dictionary() Dictionary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dict
}

// AddTerm adds term to category and persists. Adding an existing term is a
// no-op that reports changed=false.
func (s *Store) AddTerm(category, term string) (bool, error) {
	if CategoryKey(category) == "" || normalize(term) == "" {
		return false, eris.New("safety: category and term are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardEdit(); err != nil {
		return false, err
	}
	if s.dict.Contains(category, term) {
		return false, nil
	}
	next := s.dict.with(category, term)
	if err := s.write(next); err != nil {
		return false, err
	}
	s.dict = next
	return true, nil
}

// RemoveTerm removes term from category and persists. Removing an absent
// term is a no-op that reports changed=false.
func (s *Store) RemoveTerm(category, term string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardEdit(); err != nil {
		return false, err
	}
	if !s.dict.Contains(category, term) {
		return false, nil
	}
	next := s.dict.without(category, term)
	if err := s.write(next); err != nil {
		return false, err
	}
	s.dict = next
	return true, nil
}

// Replace overwrites the whole dictionary and persists. It is the only
// write allowed over an unreadable file.
func (s *Store) Replace(d Dictionary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(d); err != nil {
		return err
	}
	s.dict = d
	s.unreadable = false
	return nil
}

func (s *Store) write(d Dictionary) error {
	data, err := json.MarshalIndent(d.Map(), "", "  ")
	if err != nil {
		return eris.Wrap(err, "safety: encode dictionary")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "safety: create dir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".dictionary-*")
	if err != nil {
		return eris.Wrap(err, "safety: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "safety: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "safety: close temp file")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return eris.Wrapf(err, "safety: replace %s", s.path)
	}
	return nil
}

// ParseYAML reads a category to term-list mapping from YAML.
func ParseYAML(data []byte) (Dictionary, error) {
	var m map[string][]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Dictionary{}, eris.Wrap(err, "safety: decode yaml dictionary")
	}
	return NewDictionary(m), nil
}

// ParseJSON reads a category to term-list mapping from JSON.
func ParseJSON(data []byte) (Dictionary, error) {
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return Dictionary{}, eris.Wrap(err, "safety: decode json dictionary")
	}
	return NewDictionary(m), nil
}
