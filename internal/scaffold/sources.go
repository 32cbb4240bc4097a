package scaffold

import (
	"log/slog"
	"path/filepath"

	"github.com/fiberplane/create-honc-app/internal/filesystem"
	"github.com/fiberplane/create-honc-app/internal/models"
)

// Paths of generated sources read back after materialization.
const (
	IndexSource  = "src/index.ts"
	SchemaSource = "src/db/schema.ts"
	SeedSource   = "seed.ts"
)

// ReadSources reads the template's entry point, schema and seed script.
// Missing or unreadable files are left empty.
func ReadSources(fsys filesystem.FileSystem, logger *slog.Logger, dir string) models.SourceFiles {
	read := func(rel string) string {
		data, err := fsys.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			logger.Debug("source not available", "path", rel, "error", err)
			return ""
		}
		return string(data)
	}

	return models.SourceFiles{
		Index:  read(IndexSource),
		Schema: read(SchemaSource),
		Seed:   read(SeedSource),
	}
}
