package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"
)

// ErrFormat is returned for documents that aren't strictly valid or aren't shaped as expected.
var ErrFormat = errors.New("malformed topology document")

// ReadDocument reads the whole stream and parses it as strict JSON.
func ReadDocument(r io.Reader) (gjson.Result, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read document: %w", err)
	}

	if len(buf) == 0 {
		return gjson.Result{}, fmt.Errorf("%w: empty document", ErrFormat)
	}

	if !gjson.ValidBytes(buf) {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrFormat, diagnose(buf))
	}

	return gjson.ParseBytes(buf), nil
}

// ReadFile reads and parses the document stored at path.
func ReadFile(path string) (gjson.Result, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to open %q: %w", path, err)
	}

	defer f.Close()

	return ReadDocument(f)
}

// diagnose describes why buf isn't valid JSON.
func diagnose(buf []byte) string {
	var v any

	err := json.Unmarshal(buf, &v)

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("%s (offset %d)", syntaxErr.Error(), syntaxErr.Offset)
	}

	if err != nil {
		return err.Error()
	}

	return "invalid JSON"
}
