// Package store is a small JSON-file backed key-value store used to
// cache estimate results: each namespace (e.g. "estimates") is
// persisted as its own JSON file, so a restart doesn't lose previously
// computed times. Job history is kept separately by package history.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Store is a namespaced JSON-file backed key-value store.
type Store struct {
	mu      sync.RWMutex
	dataDir string
	cache   map[string]map[string]interface{}
}

// New creates a Store rooted at dataDir, loading any namespaces
// already on disk there.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	s := &Store{
		dataDir: dataDir,
		cache:   make(map[string]map[string]interface{}),
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("reading store directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		namespace := strings.TrimSuffix(entry.Name(), ".json")
		if err := s.loadNamespace(namespace); err != nil {
			logrus.WithError(err).WithField("namespace", namespace).Warn("store: failed to load namespace, starting empty")
		}
	}

	return s, nil
}

func (s *Store) loadNamespace(namespace string) error {
	path := filepath.Join(s.dataDir, namespace+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var ns map[string]interface{}
	if err := json.Unmarshal(data, &ns); err != nil {
		return err
	}

	s.cache[namespace] = ns
	return nil
}

func (s *Store) saveNamespace(namespace string) error {
	ns, ok := s.cache[namespace]
	if !ok {
		return nil
	}

	data, err := json.MarshalIndent(ns, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(s.dataDir, namespace+".json")
	return os.WriteFile(path, data, 0644)
}

// GetItem retrieves a value by namespace and key. Key may use dot
// notation for nested access (e.g. "profile.dialect").
func (s *Store) GetItem(namespace, key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns, ok := s.cache[namespace]
	if !ok {
		return nil, false
	}
	return getNestedValue(ns, key)
}

// GetNamespace returns a copy of every item in namespace.
func (s *Store) GetNamespace(namespace string) (map[string]interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns, ok := s.cache[namespace]
	if !ok {
		return nil, false
	}
	result := make(map[string]interface{}, len(ns))
	for k, v := range ns {
		result[k] = v
	}
	return result, true
}

// SetItem stores a value by namespace and key, persisting the
// namespace to disk immediately.
func (s *Store) SetItem(namespace, key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.cache[namespace]
	if !ok {
		ns = make(map[string]interface{})
		s.cache[namespace] = ns
	}

	setNestedValue(ns, key, value)
	return s.saveNamespace(namespace)
}

// DeleteItem removes a value by namespace and key.
func (s *Store) DeleteItem(namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.cache[namespace]
	if !ok {
		return nil
	}
	deleteNestedValue(ns, key)
	return s.saveNamespace(namespace)
}

// ListNamespaces returns every namespace currently loaded.
func (s *Store) ListNamespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	namespaces := make([]string, 0, len(s.cache))
	for ns := range s.cache {
		namespaces = append(namespaces, ns)
	}
	return namespaces
}

func getNestedValue(m map[string]interface{}, key string) (interface{}, bool) {
	parts := strings.Split(key, ".")
	current := interface{}(m)

	for _, part := range parts {
		v, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = v[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func setNestedValue(m map[string]interface{}, key string, value interface{}) {
	parts := strings.Split(key, ".")
	if len(parts) == 1 {
		m[key] = value
		return
	}

	current := m
	for i, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		if !ok {
			next = make(map[string]interface{})
			current[part] = next
		}
		nextMap, ok := next.(map[string]interface{})
		if !ok {
			nextMap = make(map[string]interface{})
			current[part] = nextMap
		}
		if i == len(parts)-2 {
			nextMap[parts[len(parts)-1]] = value
		} else {
			current = nextMap
		}
	}
}

func deleteNestedValue(m map[string]interface{}, key string) {
	parts := strings.Split(key, ".")
	if len(parts) == 1 {
		delete(m, key)
		return
	}

	current := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		if !ok {
			return
		}
		nextMap, ok := next.(map[string]interface{})
		if !ok {
			return
		}
		current = nextMap
	}
	delete(current, parts[len(parts)-1])
}
