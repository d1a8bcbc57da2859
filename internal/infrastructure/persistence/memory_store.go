package persistence

import (
	"context"
	"sync"

	"github.com/formcraft/backend/internal/domain/models"
)

// MemoryValueStore is an in-memory value store for tests and local
// development. It mirrors the repository semantics exactly: Get
// distinguishes a missing key from an empty value, Delete of a missing
// key is a no-op.
type MemoryValueStore struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

func NewMemoryValueStore() *MemoryValueStore {
	return &MemoryValueStore{values: make(map[string]map[string]string)}
}

func (s *MemoryValueStore) Get(ctx context.Context, subject, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[subject][key]
	return v, ok, nil
}

func (s *MemoryValueStore) Set(ctx context.Context, subject, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values[subject] == nil {
		s.values[subject] = make(map[string]string)
	}
	s.values[subject][key] = value
	return nil
}

func (s *MemoryValueStore) Delete(ctx context.Context, subject, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values[subject], key)
	return nil
}

// Keys returns all stored keys for a subject. Test helper.
func (s *MemoryValueStore) Keys(subject string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values[subject]))
	for k := range s.values[subject] {
		keys = append(keys, k)
	}
	return keys
}

// MemoryDefinitionStore keeps field group definitions in memory, in
// insertion order.
type MemoryDefinitionStore struct {
	mu     sync.RWMutex
	order  []string
	groups map[string]*models.FieldGroup
}

func NewMemoryDefinitionStore() *MemoryDefinitionStore {
	return &MemoryDefinitionStore{groups: make(map[string]*models.FieldGroup)}
}

func (s *MemoryDefinitionStore) LoadAll(ctx context.Context) ([]*models.FieldGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.FieldGroup, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.groups[key])
	}
	return out, nil
}

func (s *MemoryDefinitionStore) Save(ctx context.Context, group *models.FieldGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[group.Key]; !ok {
		s.order = append(s.order, group.Key)
	}
	s.groups[group.Key] = group
	return nil
}

func (s *MemoryDefinitionStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[key]; !ok {
		return nil
	}
	delete(s.groups, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
