package storage

import "sync"

// MemoryStorage is a process-local Storage, used by tests and the
// "memory" backend.
type MemoryStorage struct {
	items sync.Map
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) GetItem(key string) (string, bool, error) {
	if err := ValidateKey(key); err != nil {
		return "", false, err
	}
	v, ok := s.items.Load(key)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (s *MemoryStorage) SetItem(key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.items.Store(key, value)
	return nil
}

func (s *MemoryStorage) RemoveItem(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.items.Delete(key)
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
