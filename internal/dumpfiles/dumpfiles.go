// Package dumpfiles writes intermediate artefacts (automata, term streams,
// random-test inputs) to disk for later inspection.  Dumping is off unless
// the MERC_DUMP environment variable names an absolute directory; combined
// with MERC_SEED this makes failing random runs reproducible.
package dumpfiles

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// EnvVar is the environment variable that enables dumping.
const EnvVar = "MERC_DUMP"

// DumpFiles writes named artefacts into a dedicated subdirectory of the dump
// root.  The zero state (no MERC_DUMP) turns every Dump into a no-op.
type DumpFiles struct {
	// directory is empty when dumping is disabled.
	directory string
	logger    *zap.Logger
}

// New creates a DumpFiles rooted at MERC_DUMP/<name>.  MERC_DUMP must be an
// absolute path, because tests run with working directories relative to their
// source files; a relative path is a contract violation and panics.
func New(name string, logger *zap.Logger) *DumpFiles {
	if logger == nil {
		logger = zap.NewNop()
	}

	root, ok := os.LookupEnv(EnvVar)
	if !ok {
		return &DumpFiles{logger: logger}
	}
	if !filepath.IsAbs(root) {
		panic(EnvVar + " must be an absolute path")
	}

	return &DumpFiles{directory: filepath.Join(root, name), logger: logger}
}

// Enabled reports whether artefacts will actually reach disk.
func (d *DumpFiles) Enabled() bool {
	return d.directory != ""
}

// Dump creates filename under the dump directory and calls write with it.
// When dumping is disabled the write function is not invoked.
func (d *DumpFiles) Dump(filename string, write func(io.Writer) error) error {
	if d.directory == "" {
		d.logger.Debug("no "+EnvVar+" set, skipping dump", zap.String("file", filename))
		return nil
	}

	if err := os.MkdirAll(d.directory, 0o755); err != nil {
		return err
	}

	path := filepath.Join(d.directory, filename)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := write(f); err != nil {
		return err
	}

	d.logger.Info("dumped file", zap.String("path", path))
	return nil
}
