package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	gitignore "github.com/denormal/go-gitignore"
	"github.com/fiberplane/create-honc-app/internal/filesystem"
)

// EnvFileName is the local secrets file read by wrangler dev.
const EnvFileName = ".dev.vars"

const gitIgnoreFile = ".gitignore"

// TouchEnvFile creates dir/.dev.vars with content if it does not exist yet.
// An existing file is never modified. Reports whether the file was created.
func TouchEnvFile(fsys filesystem.FileSystem, dir, content string) (bool, error) {
	path := filepath.Join(dir, EnvFileName)
	if fsys.Exists(path) {
		return false, nil
	}
	if err := fsys.WriteFile(path, []byte(content), 0600); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", EnvFileName, err)
	}
	return true, nil
}

// SetEnvVar sets key=value in dir/.dev.vars, replacing an existing assignment
// of key or appending a new line.
func SetEnvVar(fsys filesystem.FileSystem, dir, key, value string) error {
	path := filepath.Join(dir, EnvFileName)

	data, err := fsys.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read %s: %w", EnvFileName, err)
	}

	assignment := key + "=" + quoteEnvValue(value)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(data) == 0 {
		lines = nil
	}

	replaced := false
	for i, line := range lines {
		name, _, ok := strings.Cut(strings.TrimSpace(line), "=")
		if ok && strings.TrimSpace(strings.TrimPrefix(name, "export ")) == key {
			lines[i] = assignment
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, assignment)
	}

	if err := fsys.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", EnvFileName, err)
	}
	return nil
}

func quoteEnvValue(value string) string {
	if strings.ContainsAny(value, " #\"'") {
		return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
	}
	return value
}

// EnsureIgnored appends name to dir/.gitignore unless an existing rule already
// ignores it. Reports whether .gitignore was changed.
func EnsureIgnored(fsys filesystem.FileSystem, dir, name string) (bool, error) {
	path := filepath.Join(dir, gitIgnoreFile)

	if !fsys.Exists(path) {
		if err := fsys.WriteFile(path, []byte(name+"\n"), 0644); err != nil {
			return false, fmt.Errorf("failed to create %s: %w", gitIgnoreFile, err)
		}
		return true, nil
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", gitIgnoreFile, err)
	}

	ignore := gitignore.New(bytes.NewReader(data), dir, nil)
	if match := ignore.Relative(name, false); match != nil && match.Ignore() {
		return false, nil
	}

	entry := name + "\n"
	if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
		entry = "\n" + entry
	}
	if err := fsys.AppendFile(path, []byte(entry), 0644); err != nil {
		return false, fmt.Errorf("failed to update %s: %w", gitIgnoreFile, err)
	}
	return true, nil
}

func filePermOf(fsys filesystem.FileSystem, path string) fs.FileMode {
	info, err := fsys.Stat(path)
	if err != nil {
		return 0644
	}
	return info.Mode().Perm()
}
