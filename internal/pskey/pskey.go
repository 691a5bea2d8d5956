// Package pskey converts NVMe TLS pre-shared keys between the PSK interchange format
// and keyring resident key material.
//
// An interchange string looks like "NVMeTLSkey-1:01:<base64>:" where the two digits
// select the PSK hash and the base64 payload is the key followed by its little-endian
// CRC32.
package pskey

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strconv"
	"strings"
)

// HashID identifies the hash function associated with a PSK.
type HashID int

// Supported PSK hashes.
const (
	HashNone   HashID = 0
	HashSHA256 HashID = 1
	HashSHA384 HashID = 2
)

const interchangePrefix = "NVMeTLSkey-1"

// ErrInvalidKey is returned when an interchange string or raw key can't be used.
var ErrInvalidKey = errors.New("invalid TLS key")

// KeyLen returns the key length for the hash, or zero if unknown.
func (h HashID) KeyLen() int {
	switch h {
	case HashSHA256:
		return 32
	case HashSHA384:
		return 48
	default:
		return 0
	}
}

// Decode returns the raw key and hash of an interchange string.
func Decode(interchange string) ([]byte, HashID, error) {
	fields := strings.Split(interchange, ":")
	if len(fields) != 4 || fields[0] != interchangePrefix || fields[3] != "" {
		return nil, 0, fmt.Errorf("%w: not in PSK interchange format", ErrInvalidKey)
	}

	if len(fields[1]) != 2 {
		return nil, 0, fmt.Errorf("%w: bad hash identifier %q", ErrInvalidKey, fields[1])
	}

	hmac, err := strconv.ParseUint(fields[1], 16, 8)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: bad hash identifier %q", ErrInvalidKey, fields[1])
	}

	hash := HashID(hmac)
	if hash != HashNone && hash.KeyLen() == 0 {
		return nil, 0, fmt.Errorf("%w: unsupported hash %d", ErrInvalidKey, hash)
	}

	decoded, err := base64.StdEncoding.DecodeString(fields[2])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	keyLen := len(decoded) - 4
	if keyLen != 32 && keyLen != 48 {
		return nil, 0, fmt.Errorf("%w: bad key length %d", ErrInvalidKey, keyLen)
	}

	if hash != HashNone && keyLen != hash.KeyLen() {
		return nil, 0, fmt.Errorf("%w: key length %d doesn't match hash %d", ErrInvalidKey, keyLen, hash)
	}

	key := decoded[:keyLen]

	if crc32.ChecksumIEEE(key) != binary.LittleEndian.Uint32(decoded[keyLen:]) {
		return nil, 0, fmt.Errorf("%w: CRC mismatch", ErrInvalidKey)
	}

	return key, hash, nil
}

// Encode returns the interchange string for a raw key.
func Encode(key []byte) (string, error) {
	var hash HashID

	switch len(key) {
	case HashSHA256.KeyLen():
		hash = HashSHA256
	case HashSHA384.KeyLen():
		hash = HashSHA384
	default:
		return "", fmt.Errorf("%w: bad key length %d", ErrInvalidKey, len(key))
	}

	payload := binary.LittleEndian.AppendUint32(append([]byte(nil), key...), crc32.ChecksumIEEE(key))

	return fmt.Sprintf("%s:%02x:%s:", interchangePrefix, int(hash), base64.StdEncoding.EncodeToString(payload)), nil
}

// Generate returns a new random key for the hash.
func Generate(hash HashID) ([]byte, error) {
	if hash.KeyLen() == 0 {
		return nil, fmt.Errorf("%w: unsupported hash %d", ErrInvalidKey, hash)
	}

	key := make([]byte, hash.KeyLen())

	_, err := rand.Read(key)
	if err != nil {
		return nil, err
	}

	return key, nil
}
