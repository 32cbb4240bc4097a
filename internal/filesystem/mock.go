package filesystem

import (
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MockFileSystem is an in-memory FileSystem for tests. Paths are cleaned and
// treated as absolute; parents are created implicitly by AddFile and AddDir.
type MockFileSystem struct {
	mu    sync.Mutex
	nodes map[string]*node
	cwd   string
}

type node struct {
	data    []byte
	mode    fs.FileMode
	modTime time.Time
}

func (n *node) dir() bool {
	return n.mode.IsDir()
}

type nodeInfo struct {
	name string
	n    *node
}

func (i nodeInfo) Name() string               { return i.name }
func (i nodeInfo) Size() int64                { return int64(len(i.n.data)) }
func (i nodeInfo) Mode() fs.FileMode          { return i.n.mode }
func (i nodeInfo) ModTime() time.Time         { return i.n.modTime }
func (i nodeInfo) IsDir() bool                { return i.n.dir() }
func (i nodeInfo) Sys() any                   { return nil }
func (i nodeInfo) Type() fs.FileMode          { return i.n.mode.Type() }
func (i nodeInfo) Info() (fs.FileInfo, error) { return i, nil }

// NewMockFileSystem creates an empty filesystem whose working directory is "/".
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		nodes: map[string]*node{"/": {mode: fs.ModeDir | 0755}},
		cwd:   "/",
	}
}

// AddFile stores content at path with mode 0644, creating parents.
func (m *MockFileSystem) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	m.mkdirAll(filepath.Dir(path), 0755)
	m.nodes[path] = &node{data: content, mode: 0644, modTime: time.Now()}
}

// AddDir creates path and its parents.
func (m *MockFileSystem) AddDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAll(filepath.Clean(path), 0755)
}

// SetCurrentDir sets the directory Getwd returns.
func (m *MockFileSystem) SetCurrentDir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cwd = filepath.Clean(dir)
}

// Paths lists every stored file and directory, sorted.
func (m *MockFileSystem) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := make([]string, 0, len(m.nodes))
	for p := range m.nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (m *MockFileSystem) mkdirAll(path string, perm fs.FileMode) {
	for p := path; ; p = filepath.Dir(p) {
		if _, ok := m.nodes[p]; !ok {
			m.nodes[p] = &node{mode: fs.ModeDir | perm.Perm(), modTime: time.Now()}
		}
		if parent := filepath.Dir(p); parent == p || parent == "." {
			return
		}
	}
}

func (m *MockFileSystem) lookup(op, path string) (*node, error) {
	n, ok := m.nodes[filepath.Clean(path)]
	if !ok {
		return nil, &fs.PathError{Op: op, Path: path, Err: fs.ErrNotExist}
	}
	return n, nil
}

func (m *MockFileSystem) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.lookup("open", path)
	if err != nil {
		return nil, err
	}
	if n.dir() {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrInvalid}
	}
	return append([]byte(nil), n.data...), nil
}

// WriteFile mirrors os.WriteFile: the parent must exist and an existing
// file keeps its mode.
func (m *MockFileSystem) WriteFile(path string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(path, data, perm, false)
}

func (m *MockFileSystem) AppendFile(path string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(path, data, perm, true)
}

func (m *MockFileSystem) write(path string, data []byte, perm fs.FileMode, appendData bool) error {
	clean := filepath.Clean(path)
	parent, ok := m.nodes[filepath.Dir(clean)]
	if !ok || !parent.dir() {
		return &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}

	existing, ok := m.nodes[clean]
	switch {
	case ok && existing.dir():
		return &fs.PathError{Op: "open", Path: path, Err: fs.ErrInvalid}
	case ok:
		if appendData {
			data = append(append([]byte(nil), existing.data...), data...)
		}
		existing.data = append([]byte(nil), data...)
		existing.modTime = time.Now()
	default:
		m.nodes[clean] = &node{data: append([]byte(nil), data...), mode: perm.Perm(), modTime: time.Now()}
	}
	return nil
}

func (m *MockFileSystem) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clean := filepath.Clean(path)
	if _, err := m.lookup("remove", clean); err != nil {
		return err
	}
	for p := range m.nodes {
		if filepath.Dir(p) == clean && p != clean {
			return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrExist}
		}
	}
	delete(m.nodes, clean)
	return nil
}

func (m *MockFileSystem) ReadDir(path string) ([]fs.DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clean := filepath.Clean(path)
	n, err := m.lookup("open", clean)
	if err != nil {
		return nil, err
	}
	if !n.dir() {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: fs.ErrInvalid}
	}

	var entries []fs.DirEntry
	for p, child := range m.nodes {
		if p != clean && filepath.Dir(p) == clean {
			entries = append(entries, nodeInfo{name: filepath.Base(p), n: child})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (m *MockFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clean := filepath.Clean(path)
	for p := clean; ; p = filepath.Dir(p) {
		if n, ok := m.nodes[p]; ok && !n.dir() {
			return &fs.PathError{Op: "mkdir", Path: p, Err: fs.ErrExist}
		}
		if parent := filepath.Dir(p); parent == p || parent == "." {
			break
		}
	}
	m.mkdirAll(clean, perm)
	return nil
}

func (m *MockFileSystem) Stat(path string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.lookup("stat", path)
	if err != nil {
		return nil, err
	}
	return nodeInfo{name: filepath.Base(filepath.Clean(path)), n: n}, nil
}

func (m *MockFileSystem) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.nodes[filepath.Clean(path)]
	return ok
}

func (m *MockFileSystem) Getwd() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cwd, nil
}
