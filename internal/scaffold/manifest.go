package scaffold

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fiberplane/create-honc-app/internal/filesystem"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	PackageJSONFile = "package.json"
	WranglerFile    = "wrangler.toml"
)

var (
	wranglerNamePattern = regexp.MustCompile(`(?m)^(\s*name\s*=\s*)("[^"\n]*"|'[^'\n]*')`)
	invalidNameChars    = regexp.MustCompile(`[^a-z0-9._~-]+`)
)

// PackageName normalizes a directory name into a valid npm package / worker name.
func PackageName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = invalidNameChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-._")
	if name == "" {
		return "honc-app"
	}
	return name
}

// RenameProject rewrites the project name in package.json and wrangler.toml.
// Files that are missing or fail to parse are left untouched. It returns the
// files that were rewritten.
func RenameProject(fsys filesystem.FileSystem, logger *slog.Logger, dir, name string) []string {
	name = PackageName(name)

	var renamed []string
	if renamePackageJSON(fsys, logger, filepath.Join(dir, PackageJSONFile), name) {
		renamed = append(renamed, PackageJSONFile)
	}
	if renameWrangler(fsys, logger, filepath.Join(dir, WranglerFile), name) {
		renamed = append(renamed, WranglerFile)
	}
	return renamed
}

func renamePackageJSON(fsys filesystem.FileSystem, logger *slog.Logger, path, name string) bool {
	data, err := fsys.ReadFile(path)
	if err != nil {
		logger.Debug("skipping package.json rename", "path", path, "error", err)
		return false
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		logger.Debug("skipping package.json rename, not a JSON object", "path", path)
		return false
	}

	updated, err := sjson.SetBytes(data, "name", name)
	if err != nil {
		logger.Debug("skipping package.json rename", "path", path, "error", err)
		return false
	}
	return writeBack(fsys, logger, path, updated)
}

func renameWrangler(fsys filesystem.FileSystem, logger *slog.Logger, path, name string) bool {
	data, err := fsys.ReadFile(path)
	if err != nil {
		logger.Debug("skipping wrangler.toml rename", "path", path, "error", err)
		return false
	}

	var config struct {
		Name string `toml:"name"`
	}
	if _, err := toml.Decode(string(data), &config); err != nil {
		logger.Debug("skipping wrangler.toml rename, invalid toml", "path", path, "error", err)
		return false
	}
	if config.Name == "" {
		return false
	}

	loc := wranglerNamePattern.FindSubmatchIndex(data)
	if loc == nil {
		return false
	}

	var b strings.Builder
	b.Write(data[:loc[3]])
	b.WriteString(`"` + name + `"`)
	b.Write(data[loc[5]:])
	return writeBack(fsys, logger, path, []byte(b.String()))
}

func writeBack(fsys filesystem.FileSystem, logger *slog.Logger, path string, data []byte) bool {
	perm := filePermOf(fsys, path)
	if err := fsys.WriteFile(path, data, perm); err != nil {
		logger.Debug("failed to write renamed manifest", "path", path, "error", err)
		return false
	}
	return true
}
