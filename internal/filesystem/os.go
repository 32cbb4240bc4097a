package filesystem

import (
	"errors"
	"io/fs"
	"os"
)

// OSFileSystem is the FileSystem backed by the os package.
type OSFileSystem struct{}

func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

func (*OSFileSystem) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (*OSFileSystem) WriteFile(path string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(path, data, perm)
}

// AppendFile creates path with perm when missing.
func (*OSFileSystem) AppendFile(path string, data []byte, perm fs.FileMode) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = f.Write(data)
	return err
}

func (*OSFileSystem) Remove(path string) error { return os.Remove(path) }

func (*OSFileSystem) ReadDir(path string) ([]fs.DirEntry, error) { return os.ReadDir(path) }

func (*OSFileSystem) MkdirAll(path string, perm fs.FileMode) error { return os.MkdirAll(path, perm) }

func (*OSFileSystem) Stat(path string) (fs.FileInfo, error) { return os.Stat(path) }

// Exists reports false only when path definitely does not exist; permission
// errors count as existing so callers do not overwrite what they cannot see.
func (*OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func (*OSFileSystem) Getwd() (string, error) { return os.Getwd() }
