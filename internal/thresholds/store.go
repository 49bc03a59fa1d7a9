package thresholds

import (
	"encoding/json"
	"errors"
	"io/fs"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/relist-cli/internal/fault"
)

// SystemUser is recorded for changes the store makes on its own.
const SystemUser = "system"

// Store holds the live threshold document. Reads are lock-free with respect
// to each other; every mutation runs its read-diff-persist-history sequence
// under a single writer lock.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	doc     Document
	history []HistoryEntry

	now        func() time.Time
	newID      func() string
	validators []Validator
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides history entry id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New returns a Store backed by backend. The store starts with the balanced
// defaults in memory; call Load to read persisted state.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.doc = defaultDocument(s.now(), SystemUser)
	return s
}

// NewFileStore returns a Store persisted to the given JSON files.
func NewFileStore(configPath, historyPath string, opts ...Option) *Store {
	return New(NewFileBackend(configPath, historyPath), opts...)
}

// Load reads persisted state. It never leaves the store unusable: on any
// failure the store falls back to defaults and the returned error, a
// fault.ConfigLoad or fault.ConfigMigration, is informational only.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := zap.L().With(zap.String("component", "thresholds"))

	history, histErr := s.readHistory()
	if histErr != nil {
		log.Warn("thresholds: history unreadable, starting empty", zap.Error(histErr))
	}
	s.history = history

	raw, err := s.backend.ReadConfig()
	if errors.Is(err, fs.ErrNotExist) {
		doc := defaultDocument(s.now(), SystemUser)
		s.doc = doc
		if perr := s.persist(doc, s.history); perr != nil {
			log.Warn("thresholds: could not persist defaults", zap.Error(perr))
			return fault.New(fault.ConfigLoad, perr)
		}
		log.Info("thresholds: materialized defaults", zap.String("version", SchemaVersion))
		return nil
	}
	if err != nil {
		return s.fallBack(fault.New(fault.ConfigLoad, err))
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return s.fallBack(fault.New(fault.ConfigLoad, eris.Wrap(err, "thresholds: decode config")))
	}
	if doc.Thresholds == nil {
		return s.fallBack(fault.New(fault.ConfigLoad, eris.New("thresholds: config has no thresholds section")))
	}
	normalizeDocument(&doc)

	if doc.ConfigVersion != SchemaVersion {
		return s.migrate(doc)
	}

	s.doc = doc
	if histErr != nil {
		return fault.New(fault.ConfigLoad, histErr)
	}
	log.Debug("thresholds: loaded",
		zap.String("version", doc.ConfigVersion),
		zap.Int("revision", doc.Revision),
		zap.String("preset", doc.AppliedPresetName),
	)
	return nil
}

// migrate merges an out-of-date document into a fresh default skeleton.
// Caller holds the write lock.
func (s *Store) migrate(old Document) error {
	merged := mergeValues(DefaultValues(), old.Thresholds)
	next := old.clone()
	next.Thresholds = merged
	next.ConfigVersion = SchemaVersion
	next.Revision = old.Revision + 1
	next.LastUpdated = s.now()
	next.LastUpdatedBy = SystemUser
	if next.AppliedPresetName == "" {
		next.AppliedPresetName = PresetBalanced
	}

	entry := s.entry(ActionMigration, SystemUser, Diff(old.Thresholds, merged), old.ConfigVersion, next)
	history := appendEntry(s.history, entry)

	if err := s.persist(next, history); err != nil {
		return s.fallBack(fault.New(fault.ConfigMigration, err))
	}

	s.doc = next
	s.history = history
	zap.L().Info("thresholds: migrated config",
		zap.String("from", old.ConfigVersion),
		zap.String("to", SchemaVersion),
		zap.Int("changes", len(entry.Changes)),
	)
	return nil
}

// fallBack installs defaults in memory and logs the recovered fault.
func (s *Store) fallBack(err error) error {
	s.doc = defaultDocument(s.now(), SystemUser)
	zap.L().Warn("thresholds: falling back to defaults",
		zap.String("fault", string(fault.KindOf(err))),
		zap.Error(err),
	)
	return err
}

func (s *Store) readHistory() ([]HistoryEntry, error) {
	raw, err := s.backend.ReadHistory()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var history []HistoryEntry
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, eris.Wrap(err, "thresholds: decode history")
	}
	return history, nil
}

// Get returns the stored value for category.key, or fallback when absent.
func (s *Store) Get(category, key string, fallback any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.doc.Thresholds.lookup(category, key); ok {
		return cloneValue(v)
	}
	return fallback
}

// Set stores value at category.key on behalf of user. Integer values are
// stored as float64. Exactly one history entry is appended per call. A
// value that fails validation returns a fault.InvalidValue; on that or a
// persist failure the in-memory config is left as it was.
func (s *Store) Set(category, key string, value any, user string) error {
	if category == "" || key == "" {
		return eris.New("thresholds: category and key are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.clone()
	if next.Thresholds == nil {
		next.Thresholds = Values{}
	}
	if _, ok := next.Thresholds[category]; !ok {
		next.Thresholds[category] = map[string]any{}
	}
	next.Thresholds[category][key] = normalizeValue(cloneValue(value))

	return s.commit(ActionSet, user, next)
}

// ApplyPreset replaces the whole config with a named preset. An unknown
// name, or a preset table that breaks the loosest-to-strictest ordering,
// returns a fault.InvalidPreset and changes nothing.
func (s *Store) ApplyPreset(name, user string) error {
	values, ok := PresetValues(name)
	if !ok {
		return fault.New(fault.InvalidPreset, eris.Errorf("thresholds: unknown preset %q", name))
	}
	if err := ValidatePresetOrdering(); err != nil {
		return fault.New(fault.InvalidPreset, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.clone()
	next.Thresholds = values
	next.AppliedPresetName = name
	return s.commit(ActionPreset, user, next)
}

// Reset restores the balanced defaults.
func (s *Store) Reset(user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.clone()
	next.Thresholds = DefaultValues()
	next.AppliedPresetName = PresetBalanced
	return s.commit(ActionReset, user, next)
}

// ExportSnapshot serializes the live document.
func (s *Store) ExportSnapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "thresholds: encode snapshot")
	}
	return data, nil
}

// ImportSnapshot replaces the live document with data. Thresholds, preset
// name and update metadata are restored verbatim, so an exported snapshot
// imports back deep-equal. The revision never moves backwards: a snapshot
// older than the live document is stamped one past the live revision. A
// snapshot from an older schema is merged into the current defaults.
// Invalid input, including values that fail validation, returns a
// fault.InvalidSnapshot and leaves the store untouched.
func (s *Store) ImportSnapshot(data []byte, user string) error {
	if err := validateSnapshot(data); err != nil {
		return fault.New(fault.InvalidSnapshot, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fault.New(fault.InvalidSnapshot, eris.Wrap(err, "thresholds: decode snapshot"))
	}
	normalizeDocument(&doc)
	if doc.ConfigVersion != SchemaVersion {
		doc.Thresholds = mergeValues(DefaultValues(), doc.Thresholds)
		doc.ConfigVersion = SchemaVersion
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validate(doc.Thresholds); err != nil {
		return fault.New(fault.InvalidSnapshot, err)
	}

	old := s.doc
	if doc.Revision <= old.Revision {
		doc.Revision = old.Revision + 1
	}
	entry := s.entry(ActionImport, user, Diff(old.Thresholds, doc.Thresholds), old.ConfigVersion, doc)
	history := appendEntry(s.history, entry)
	if err := s.persist(doc, history); err != nil {
		return err
	}
	s.doc = doc
	s.history = history
	zap.L().Info("thresholds: imported snapshot",
		zap.String("user", user),
		zap.String("preset", doc.AppliedPresetName),
		zap.Int("revision", doc.Revision),
		zap.Int("changes", len(entry.Changes)),
	)
	return nil
}

// commit stamps next, persists it with a new history entry, and installs
// it. Caller holds the write lock.
func (s *Store) commit(action Action, user string, next Document) error {
	if user == "" {
		user = SystemUser
	}
	if err := s.validate(next.Thresholds); err != nil {
		return fault.New(fault.InvalidValue, err)
	}
	old := s.doc
	next.ConfigVersion = SchemaVersion
	next.Revision = old.Revision + 1
	next.LastUpdated = s.now()
	next.LastUpdatedBy = user

	entry := s.entry(action, user, Diff(old.Thresholds, next.Thresholds), old.ConfigVersion, next)
	history := appendEntry(s.history, entry)

	if err := s.persist(next, history); err != nil {
		zap.L().Error("thresholds: persist failed",
			zap.String("action", string(action)),
			zap.String("user", user),
			zap.Error(err),
		)
		return err
	}

	s.doc = next
	s.history = history
	zap.L().Info("thresholds: config updated",
		zap.String("action", string(action)),
		zap.String("user", user),
		zap.Int("revision", next.Revision),
		zap.Int("changes", len(entry.Changes)),
	)
	return nil
}

func (s *Store) entry(action Action, user string, changes []Change, oldVersion string, next Document) HistoryEntry {
	if changes == nil {
		changes = []Change{}
	}
	return HistoryEntry{
		ID:         s.newID(),
		Timestamp:  s.now(),
		User:       user,
		Action:     action,
		Changes:    changes,
		OldVersion: oldVersion,
		NewVersion: next.ConfigVersion,
		Revision:   next.Revision,
	}
}

// persist writes doc and history through the backend, reporting any
// failure as fault.ConfigPersist.
func (s *Store) persist(doc Document, history []HistoryEntry) error {
	cfgData, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fault.New(fault.ConfigPersist, eris.Wrap(err, "thresholds: encode config"))
	}
	if history == nil {
		history = []HistoryEntry{}
	}
	histData, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fault.New(fault.ConfigPersist, eris.Wrap(err, "thresholds: encode history"))
	}
	if err := s.backend.Write(cfgData, histData); err != nil {
		return fault.New(fault.ConfigPersist, err)
	}
	return nil
}

// Snapshot returns an immutable copy of the current values.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		values:   s.doc.Thresholds.Clone(),
		revision: s.doc.Revision,
		preset:   s.doc.AppliedPresetName,
	}
}

// Document returns a copy of the live document.
func (s *Store) Document() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.clone()
}

// History returns a copy of the change history, oldest first.
func (s *Store) History() []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]HistoryEntry, len(s.history))
	for i, e := range s.history {
		out[i] = e.clone()
	}
	return out
}

// ValidatePresetOrdering checks aggressive <= balanced <= conservative for
// every comparable threshold.
func ValidatePresetOrdering() error {
	aggressive, _ := PresetValues(PresetAggressive)
	balanced, _ := PresetValues(PresetBalanced)
	conservative, _ := PresetValues(PresetConservative)
	a, b, c := NewSnapshot(aggressive), NewSnapshot(balanced), NewSnapshot(conservative)

	for _, p := range ComparableThresholds() {
		av := a.Float(p.Category, p.Key, 0)
		bv := b.Float(p.Category, p.Key, 0)
		cv := c.Float(p.Category, p.Key, 0)
		if av > bv || bv > cv {
			return eris.Errorf("thresholds: preset ordering violated at %s (%.2f, %.2f, %.2f)", p, av, bv, cv)
		}
	}
	return nil
}

// appendEntry returns a new slice so previously returned histories never
// observe the append.
func appendEntry(history []HistoryEntry, e HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, len(history), len(history)+1)
	copy(out, history)
	return append(out, e)
}

// normalizeDocument widens numeric leaves decoded from JSON.
func normalizeDocument(doc *Document) {
	for cat, keys := range doc.Thresholds {
		if keys == nil {
			doc.Thresholds[cat] = map[string]any{}
			continue
		}
		for k, v := range keys {
			keys[k] = normalizeValue(v)
		}
	}
}
