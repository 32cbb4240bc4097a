package github

import (
	"context"
	"fmt"
	"strings"
)

// TemplateSource resolves where a template repository's archive can be downloaded.
type TemplateSource interface {
	// ArchiveURL returns a short-lived URL to a gzipped tarball of repo at repo.Ref.
	ArchiveURL(ctx context.Context, repo Repo) (string, error)
}

// Repo identifies a repository and ref holding templates.
type Repo struct {
	Owner string
	Name  string
	Ref   string
}

// DefaultRef is used when a repo reference does not name one.
const DefaultRef = "main"

// ParseRepo parses "owner/name" or "owner/name#ref".
func ParseRepo(s string) (Repo, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "github:")

	ref := DefaultRef
	if path, r, ok := strings.Cut(s, "#"); ok {
		s = path
		if r != "" {
			ref = r
		}
	}

	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repo{}, fmt.Errorf("invalid repository %q (expected owner/name)", s)
	}

	return Repo{Owner: owner, Name: name, Ref: ref}, nil
}

func (r Repo) String() string {
	return fmt.Sprintf("%s/%s#%s", r.Owner, r.Name, r.Ref)
}
