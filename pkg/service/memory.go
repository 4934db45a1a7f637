package service

import (
	"reflect"
	"strings"
	"sync"
)

// MemoryService keeps persisted values in process memory. It backs a run
// without a persistence section in the config, snapshots simply do not
// survive a restart. The update loop and the api cache may save
// concurrently, so the slot map is guarded.
type MemoryService struct {
	mu    sync.RWMutex
	slots map[string]interface{}
}

func NewMemoryService() *MemoryService {
	return &MemoryService{
		slots: make(map[string]interface{}),
	}
}

func (s *MemoryService) NewStore(id string, subIDs ...string) Store {
	return &MemoryStore{
		memory: s,
		key:    strings.Join(append([]string{id}, subIDs...), ":"),
	}
}

type MemoryStore struct {
	memory *MemoryService
	key    string
}

func (store *MemoryStore) Save(val interface{}) error {
	store.memory.mu.Lock()
	defer store.memory.mu.Unlock()

	store.memory.slots[store.key] = val
	return nil
}

// Load copies the stored value into val, which must be a pointer to the
// same type that was saved.
func (store *MemoryStore) Load(val interface{}) error {
	store.memory.mu.RLock()
	defer store.memory.mu.RUnlock()

	data, ok := store.memory.slots[store.key]
	if !ok {
		return ErrPersistenceNotExists
	}

	reflect.ValueOf(val).Elem().Set(reflect.ValueOf(data))
	return nil
}

func (store *MemoryStore) Reset() error {
	store.memory.mu.Lock()
	defer store.memory.mu.Unlock()

	delete(store.memory.slots, store.key)
	return nil
}
