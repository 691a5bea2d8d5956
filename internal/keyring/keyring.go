// Package keyring gives access to the keyrings holding NVMe TLS pre-shared keys.
package keyring

import (
	"errors"
)

// DefaultKeyring is the description of the keyring used for NVMe keys.
const DefaultKeyring = ".nvme"

// KeyTypePSK is the kernel key type of NVMe TLS pre-shared keys.
const KeyTypePSK = "psk"

// ErrNotFound is returned when a keyring or key doesn't exist.
var ErrNotFound = errors.New("key not found")

// Keyring is a store of keyrings and keys addressed by integer serials.
type Keyring interface {
	// Lookup returns the serial of the keyring with the given description.
	Lookup(description string) (int, error)

	// Describe returns the description of the keyring or key with the given serial.
	Describe(serial int) (string, error)

	// InsertKey adds (or updates) a key in the keyring and returns its serial.
	InsertKey(keyring int, keyType string, identity string, payload []byte) (int, error)

	// ReadKey returns the payload of a key held in the keyring.
	ReadKey(keyring int, key int) ([]byte, error)
}
