package ports

import (
	"io"
	"os"
)

// OSFileSystem is the production FileSystem, a thin wrapper over
// os.MkdirAll, os.WriteFile, os.Remove, os.Stat, and os.Open.
type OSFileSystem struct{}

func (OSFileSystem) MkdirAll(path string, perm uint32) error {
	return os.MkdirAll(path, os.FileMode(perm))
}

func (OSFileSystem) WriteFile(path string, data []byte, perm uint32) error {
	return os.WriteFile(path, data, os.FileMode(perm))
}

func (OSFileSystem) Remove(path string) error {
	return os.Remove(path)
}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFileSystem) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
