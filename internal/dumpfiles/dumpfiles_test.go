package dumpfiles

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestDisabledWithoutEnv(t *testing.T) {
	t.Setenv(EnvVar, "")
	os.Unsetenv(EnvVar)

	d := New("unit", nil)
	if d.Enabled() {
		t.Fatal("dumping enabled without " + EnvVar)
	}

	called := false
	if err := d.Dump("out.txt", func(io.Writer) error { called = true; return nil }); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("write callback invoked while dumping is disabled")
	}
}

func TestDumpWritesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvVar, dir)

	d := New("unit", nil)
	if !d.Enabled() {
		t.Fatal("dumping not enabled")
	}

	err := d.Dump("out.txt", func(w io.Writer) error {
		_, err := w.Write([]byte("artefact"))
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "unit", "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "artefact" {
		t.Fatalf("dumped contents = %q", data)
	}
}

func TestRelativePathPanics(t *testing.T) {
	t.Setenv(EnvVar, "relative/dir")
	defer func() {
		if recover() == nil {
			t.Fatal("relative " + EnvVar + " did not panic")
		}
	}()
	New("unit", nil)
}
