package pskey

import (
	"errors"
	"fmt"

	"github.com/lxc/incus-os/nvme-config/internal/keyring"
)

// ErrMissingNQN is returned when a key can't be scoped to a host and subsystem.
var ErrMissingNQN = errors.New("host and subsystem NQNs are required")

// Identity returns the keyring description of a retained PSK.
func Identity(hostNQN string, subsysNQN string, hash HashID) string {
	return fmt.Sprintf("NVMe0R%02d %s %s", int(hash), hostNQN, subsysNQN)
}

// Import decodes an interchange string and inserts the key into the keyring, returning
// the key serial.
func Import(kr keyring.Keyring, keyringID int, hostNQN string, subsysNQN string, interchange string) (int, error) {
	if hostNQN == "" || subsysNQN == "" {
		return 0, fmt.Errorf("%w (%q, %q)", ErrMissingNQN, hostNQN, subsysNQN)
	}

	key, hash, err := Decode(interchange)
	if err != nil {
		return 0, err
	}

	serial, err := kr.InsertKey(keyringID, keyring.KeyTypePSK, Identity(hostNQN, subsysNQN, hash), key)
	if err != nil {
		return 0, err
	}

	if serial <= 0 {
		return 0, fmt.Errorf("keyring returned invalid serial %d", serial)
	}

	return serial, nil
}

// Export reads a key from the keyring and returns it in interchange format.
//
// A key that can't be read or encoded isn't an error, there simply is nothing to export.
func Export(kr keyring.Keyring, keyringID int, key int) (string, bool) {
	data, err := kr.ReadKey(keyringID, key)
	if err != nil || len(data) == 0 {
		return "", false
	}

	interchange, err := Encode(data)
	if err != nil {
		return "", false
	}

	return interchange, true
}
