package models

import (
	"fmt"
	"strings"
)

// Template identifies a starter template.
type Template string

const (
	TemplateD1             Template = "d1"
	TemplateNeon           Template = "neon"
	TemplateSupabase       Template = "supabase"
	TemplateFiberplaneBase Template = "base"
)

// HoncTemplates lists the templates offered by create-honc-app, in prompt order.
var HoncTemplates = []Template{TemplateD1, TemplateNeon, TemplateSupabase}

// Database identifies the database provider a project is wired to.
type Database string

const (
	DatabaseD1       Database = "d1"
	DatabaseNeon     Database = "neon"
	DatabaseSupabase Database = "supabase"
)

// ParseTemplate parses a template identifier.
func ParseTemplate(s string) (Template, error) {
	switch Template(strings.TrimSpace(s)) {
	case TemplateD1:
		return TemplateD1, nil
	case TemplateNeon:
		return TemplateNeon, nil
	case TemplateSupabase:
		return TemplateSupabase, nil
	case TemplateFiberplaneBase:
		return TemplateFiberplaneBase, nil
	default:
		return "", fmt.Errorf("unknown template: %s", s)
	}
}

// Label is the human readable name shown in prompts.
func (t Template) Label() string {
	switch t {
	case TemplateD1:
		return "Cloudflare D1"
	case TemplateNeon:
		return "Neon Postgres"
	case TemplateSupabase:
		return "Supabase Postgres"
	case TemplateFiberplaneBase:
		return "Fiberplane API"
	default:
		return string(t)
	}
}

// Database returns the database provider the template is built around.
func (t Template) Database() Database {
	switch t {
	case TemplateNeon:
		return DatabaseNeon
	case TemplateSupabase:
		return DatabaseSupabase
	default:
		return DatabaseD1
	}
}

// RemoteID returns the template's directory inside the template repository.
func (t Template) RemoteID(withOpenAPI bool) string {
	id := "templates/" + string(t)
	if withOpenAPI {
		id += "-openapi"
	}
	return id
}

// Label is the human readable database name.
func (d Database) Label() string {
	switch d {
	case DatabaseD1:
		return "Cloudflare D1"
	case DatabaseNeon:
		return "Neon Postgres"
	case DatabaseSupabase:
		return "Supabase Postgres"
	default:
		return string(d)
	}
}
