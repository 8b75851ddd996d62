package queue

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Spool copies r into a new file under dir and returns it as a spooled
// LocalFile named name. The copy is removed when its locator is released.
func Spool(dir, name string, r io.Reader) (LocalFile, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return LocalFile{}, fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.CreateTemp(dir, "upload-*"+filepath.Ext(name))
	if err != nil {
		return LocalFile{}, fmt.Errorf("create spool file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return LocalFile{}, fmt.Errorf("spool %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return LocalFile{}, fmt.Errorf("close spool file: %w", err)
	}

	return LocalFile{Name: filepath.Base(name), Path: f.Name(), Spooled: true}, nil
}

// FromPath describes an existing file on disk. It is never deleted by the store.
func FromPath(path string) (LocalFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return LocalFile{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return LocalFile{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.IsDir() {
		return LocalFile{}, fmt.Errorf("%s is a directory", path)
	}
	return LocalFile{Name: fi.Name(), Path: abs}, nil
}
