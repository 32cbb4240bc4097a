package scaffold

import (
	"bytes"
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/adrg/frontmatter"
	"github.com/fiberplane/create-honc-app/internal/filesystem"
	"github.com/fiberplane/create-honc-app/internal/models"
)

// RulesFile is the AI-assistant rules file written into the project.
const RulesFile = ".cursor/rules/hono.mdc"

// RulesGenerator marks rules files this tool owns and may overwrite.
const RulesGenerator = "create-fiberplane"

const rulesTemplate = `---
description: Conventions for the {{ .Name }} API (Hono, Drizzle, Cloudflare Workers)
globs: src/**/*.ts
alwaysApply: false
generatedBy: {{ .Generator }}
---
# {{ .Name }}

This project is a Hono API running on Cloudflare Workers.
{{- if .Database }} Data lives in {{ .Database }} and is accessed through Drizzle ORM.{{ end }}

- Keep route handlers in src/index.ts small and typed with Hono's context.
- Change tables in {{ .SchemaPath }} and generate migrations instead of editing SQL by hand.
- Read secrets from the worker environment (c.env); local values live in {{ .EnvFile }}.
{{- with .Sources.Index }}

## Entry point ({{ $.IndexPath }})

~~~ts
{{ trim . }}
~~~
{{- end }}
{{- with .Sources.Schema }}

## Schema ({{ $.SchemaPath }})

~~~ts
{{ trim . }}
~~~
{{- end }}
{{- with .Sources.Seed }}

## Seed script ({{ $.SeedPath }})

~~~ts
{{ trim . | trunc 4000 }}
~~~
{{- end }}
`

var parsedRulesTemplate = template.Must(template.New("rules").Funcs(sprig.TxtFuncMap()).Parse(rulesTemplate))

// RulesData feeds the rules template.
type RulesData struct {
	Name     string
	Database string
	Sources  models.SourceFiles
}

// RenderRules renders the rules file content.
func RenderRules(data RulesData) (string, error) {
	var buf bytes.Buffer
	err := parsedRulesTemplate.Execute(&buf, map[string]any{
		"Name":       data.Name,
		"Database":   data.Database,
		"Sources":    data.Sources,
		"Generator":  RulesGenerator,
		"IndexPath":  IndexSource,
		"SchemaPath": SchemaSource,
		"SeedPath":   SeedSource,
		"EnvFile":    EnvFileName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render rules: %w", err)
	}
	return buf.String(), nil
}

// WriteRules writes the rules file into dir. An existing file is replaced only
// when its frontmatter shows it was generated by this tool. Reports whether
// the file was written.
func WriteRules(fsys filesystem.FileSystem, dir string, data RulesData) (bool, error) {
	path := filepath.Join(dir, filepath.FromSlash(RulesFile))

	if fsys.Exists(path) {
		existing, err := fsys.ReadFile(path)
		if err != nil {
			return false, fmt.Errorf("failed to read %s: %w", RulesFile, err)
		}

		var matter struct {
			GeneratedBy string `yaml:"generatedBy"`
		}
		if _, err := frontmatter.Parse(bytes.NewReader(existing), &matter); err != nil || matter.GeneratedBy != RulesGenerator {
			return false, nil
		}
	}

	content, err := RenderRules(data)
	if err != nil {
		return false, err
	}

	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create rules directory: %w", err)
	}
	if err := fsys.WriteFile(path, []byte(content), 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", RulesFile, err)
	}
	return true, nil
}
