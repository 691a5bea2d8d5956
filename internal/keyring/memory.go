package keyring

import (
	"fmt"
	"sync"
)

type memoryKey struct {
	keyring     int
	keyType     string
	description string
	payload     []byte
}

// Memory is a process local keyring, used when the kernel keyring isn't wanted.
type Memory struct {
	mu sync.Mutex

	next     int
	keyrings map[string]int
	keys     map[int]memoryKey
}

// NewMemory returns a memory backend holding the given keyrings.
func NewMemory(keyrings ...string) *Memory {
	m := &Memory{
		next:     0x10000000,
		keyrings: map[string]int{},
		keys:     map[int]memoryKey{},
	}

	for _, description := range keyrings {
		m.AddKeyring(description)
	}

	return m
}

// AddKeyring creates a keyring if missing and returns its serial.
func (m *Memory) AddKeyring(description string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	serial, ok := m.keyrings[description]
	if ok {
		return serial
	}

	m.next++
	m.keyrings[description] = m.next
	m.keys[m.next] = memoryKey{keyType: "keyring", description: description}

	return m.next
}

// Lookup returns the serial of the keyring with the given description.
func (m *Memory) Lookup(description string) (int, error) {
	if description == "" {
		description = DefaultKeyring
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	serial, ok := m.keyrings[description]
	if !ok {
		return 0, fmt.Errorf("keyring %q: %w", description, ErrNotFound)
	}

	return serial, nil
}

// Describe returns the description of the keyring or key with the given serial.
func (m *Memory) Describe(serial int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, ok := m.keys[serial]
	if !ok {
		return "", fmt.Errorf("serial %d: %w", serial, ErrNotFound)
	}

	return k.description, nil
}

// InsertKey adds (or updates) a key in the keyring and returns its serial.
func (m *Memory) InsertKey(keyring int, keyType string, identity string, payload []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ring, ok := m.keys[keyring]
	if !ok || ring.keyType != "keyring" {
		return 0, fmt.Errorf("keyring %d: %w", keyring, ErrNotFound)
	}

	// Like add_key(2), an existing key with the same type and description is updated.
	for serial, k := range m.keys {
		if k.keyring == keyring && k.keyType == keyType && k.description == identity {
			k.payload = append([]byte(nil), payload...)
			m.keys[serial] = k

			return serial, nil
		}
	}

	m.next++
	m.keys[m.next] = memoryKey{
		keyring:     keyring,
		keyType:     keyType,
		description: identity,
		payload:     append([]byte(nil), payload...),
	}

	return m.next, nil
}

// ReadKey returns the payload of a key held in the keyring.
func (m *Memory) ReadKey(keyring int, key int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, ok := m.keys[key]
	if !ok || k.keyType == "keyring" || (keyring != 0 && k.keyring != keyring) {
		return nil, fmt.Errorf("key %d: %w", key, ErrNotFound)
	}

	return append([]byte(nil), k.payload...), nil
}
