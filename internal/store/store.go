// Package store provides the durable string-keyed, string-valued stores
// that back accounts and reward balances.
package store

import "errors"

// ErrKeyNotFound is returned by Get when the key has never been set.
var ErrKeyNotFound = errors.New("key not found")

// KV is a durable key-value store. Writes are expected to be synchronous:
// when Set returns without error the value has reached the backing medium.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// MemStore is a map-backed KV used in tests and as the graceful-degradation
// fallback when a durable store cannot be opened.
type MemStore struct {
	values map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string]string)}
}

func (m *MemStore) Get(key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (m *MemStore) Set(key, value string) error {
	m.values[key] = value
	return nil
}

func (m *MemStore) Delete(key string) error {
	delete(m.values, key)
	return nil
}

func (m *MemStore) Close() error { return nil }
