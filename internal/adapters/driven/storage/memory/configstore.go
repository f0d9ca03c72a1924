package memory

import (
	"sync"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in a map. Writes can be made to fail so
// services can be tested against a read-only or full disk.
type ConfigStore struct {
	mu       sync.RWMutex
	values   map[string]any
	writeErr error
	writes   int
}

// NewConfigStore creates an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

// NewConfigStoreWith creates a store holding a copy of values.
func NewConfigStoreWith(values map[string]any) *ConfigStore {
	s := NewConfigStore()
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// FailWrites makes every later Set and Save return err. Nil restores writes.
func (s *ConfigStore) FailWrites(err error) {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
}

// Writes returns the number of successful Set calls.
func (s *ConfigStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	n, _ := number(v)
	return int(n)
}

func (s *ConfigStore) GetBool(key string) bool {
	v, _ := s.Get(key)
	b, _ := v.(bool)
	return b
}

func (s *ConfigStore) GetFloat(key string) float64 {
	v, _ := s.Get(key)
	n, _ := number(v)
	return n
}

// number converts the numeric types a decoded config file can hold.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.values[key] = value
	s.writes++
	return nil
}

// Save has nothing to flush.
func (s *ConfigStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writeErr
}

// Load has nothing to read.
func (s *ConfigStore) Load() error {
	return nil
}

func (s *ConfigStore) Path() string {
	return ":memory:"
}
