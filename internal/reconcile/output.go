package reconcile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lxc/incus/v6/shared/revert"
	"github.com/tidwall/pretty"
)

// WriteConfig writes the persisted configuration to w.
func (r *Reconciler) WriteConfig(ctx context.Context, w io.Writer) error {
	doc, err := r.ExportConfig(ctx)
	if err != nil {
		return err
	}

	return writePretty(w, doc)
}

// SaveConfig replaces the configuration file at path.
//
// The file is written next to its final location and renamed over it, so a failure
// leaves the previous configuration untouched.
func (r *Reconciler) SaveConfig(ctx context.Context, path string) error {
	doc, err := r.ExportConfig(ctx)
	if err != nil {
		return err
	}

	reverter := revert.New()
	defer reverter.Fail()

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".")
	if err != nil {
		return fmt.Errorf("failed to write to %q: %w", path, err)
	}

	reverter.Add(func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	})

	err = f.Chmod(0o600)
	if err != nil {
		return fmt.Errorf("failed to write to %q: %w", path, err)
	}

	_, err = f.Write(pretty.Pretty(doc))
	if err != nil {
		return fmt.Errorf("failed to write to %q: %w", path, err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("failed to write to %q: %w", path, err)
	}

	err = os.Rename(f.Name(), path)
	if err != nil {
		return fmt.Errorf("failed to write to %q: %w", path, err)
	}

	reverter.Success()

	return nil
}

// DumpStatus writes the status view of the topology to w.
func (r *Reconciler) DumpStatus(ctx context.Context, w io.Writer) error {
	doc, err := r.ExportStatus(ctx)
	if err != nil {
		return err
	}

	return writePretty(w, doc)
}
