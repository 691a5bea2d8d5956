//go:build linux

package keyring

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// Kernel is the Linux kernel keyring, searched from the session keyring.
type Kernel struct{}

// NewKernel returns the kernel keyring backend.
func NewKernel() (*Kernel, error) {
	return &Kernel{}, nil
}

// Lookup returns the serial of the keyring with the given description.
func (*Kernel) Lookup(description string) (int, error) {
	if description == "" {
		description = DefaultKeyring
	}

	serial, err := unix.KeyctlSearch(unix.KEY_SPEC_SESSION_KEYRING, "keyring", description, 0)
	if err != nil {
		return 0, mapErr(fmt.Sprintf("keyring %q", description), err)
	}

	return serial, nil
}

// Describe returns the description of the keyring or key with the given serial.
func (*Kernel) Describe(serial int) (string, error) {
	// The kernel returns "type;uid;gid;perm;description".
	desc, err := unix.KeyctlString(unix.KEYCTL_DESCRIBE, serial)
	if err != nil {
		return "", mapErr(fmt.Sprintf("serial %d", serial), err)
	}

	fields := strings.SplitN(desc, ";", 5)
	if len(fields) != 5 {
		return "", fmt.Errorf("unexpected key description %q", desc)
	}

	return fields[4], nil
}

// InsertKey adds (or updates) a key in the keyring and returns its serial.
func (*Kernel) InsertKey(keyring int, keyType string, identity string, payload []byte) (int, error) {
	serial, err := unix.AddKey(keyType, identity, payload, keyring)
	if err != nil {
		return 0, fmt.Errorf("failed to add %s key %q: %w", keyType, identity, err)
	}

	return serial, nil
}

// ReadKey returns the payload of a key held in the keyring.
//
// Key serials are global to the kernel, the keyring is only needed by other backends.
func (*Kernel) ReadKey(_ int, key int) ([]byte, error) {
	buf := make([]byte, 64)

	for {
		n, err := unix.KeyctlBuffer(unix.KEYCTL_READ, key, buf, 0)
		if err != nil {
			return nil, mapErr(fmt.Sprintf("key %d", key), err)
		}

		if n <= len(buf) {
			return buf[:n], nil
		}

		buf = make([]byte, n)
	}
}

func mapErr(what string, err error) error {
	if errors.Is(err, unix.ENOKEY) || errors.Is(err, unix.EKEYREVOKED) || errors.Is(err, unix.EKEYEXPIRED) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}

	return fmt.Errorf("%s: %w", what, err)
}
