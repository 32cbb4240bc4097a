package filesystem

import (
	"io/fs"
)

// FileSystem abstracts the file operations used while scaffolding so the
// materializer and file mutations can run against memory in tests.
type FileSystem interface {
	// File operations
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm fs.FileMode) error
	AppendFile(path string, data []byte, perm fs.FileMode) error
	Remove(path string) error

	// Directory operations
	ReadDir(path string) ([]fs.DirEntry, error)
	MkdirAll(path string, perm fs.FileMode) error

	// Path operations
	Stat(path string) (fs.FileInfo, error)
	Exists(path string) bool
	Getwd() (string, error)
}

// IsEmptyDir reports whether path is missing or an empty directory.
func IsEmptyDir(fsys FileSystem, path string) (bool, error) {
	if !fsys.Exists(path) {
		return true, nil
	}
	entries, err := fsys.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
