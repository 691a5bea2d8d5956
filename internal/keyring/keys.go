package keyring

import (
	"bufio"
	"context"
	"io"
	"os"
	"strconv"
	"strings"
)

// Key represents a key in the Linux kernel keyring.
type Key struct {
	Serial      int    `json:"serial"      yaml:"serial"`
	Description string `json:"description" yaml:"description"`
	Type        string `json:"type"        yaml:"type"`
	Summary     string `json:"summary"     yaml:"summary"`
}

// GetKeys returns the kernel keys of the requested type visible to the process.
func GetKeys(_ context.Context, keyType string) ([]Key, error) {
	// Read the key list.
	fd, err := os.Open("/proc/keys")
	if err != nil {
		return nil, err
	}

	defer fd.Close()

	return parseKeys(fd, keyType)
}

// parseKeys parses the /proc/keys format, keeping entries of the requested type.
func parseKeys(r io.Reader, keyType string) ([]Key, error) {
	keys := []Key{}

	// Iterate over the entries.
	fdScan := bufio.NewScanner(r)
	for fdScan.Scan() {
		fields := strings.Fields(fdScan.Text())

		if len(fields) < 9 {
			// Skipping invalid entries.
			continue
		}

		if keyType != "" && fields[7] != keyType {
			continue
		}

		serial, err := strconv.ParseInt(fields[0], 16, 64)
		if err != nil {
			continue
		}

		// NQNs contain colons, so only the last ": " separates the summary.
		key := Key{
			Serial:      int(serial),
			Type:        fields[7],
			Description: strings.Join(fields[8:], " "),
		}

		idx := strings.LastIndex(key.Description, ": ")
		if idx >= 0 {
			key.Summary = key.Description[idx+2:]
			key.Description = key.Description[:idx]
		}

		keys = append(keys, key)
	}

	err := fdScan.Err()
	if err != nil {
		return nil, err
	}

	return keys, nil
}
