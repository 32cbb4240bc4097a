// Package scaffold materializes templates into a project directory and
// performs the follow-up file mutations.
package scaffold

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fiberplane/create-honc-app/internal/filesystem"
	"github.com/fiberplane/create-honc-app/internal/github"
)

const (
	maxArchiveSize   = 64 << 20
	downloadAttempts = 3
	downloadTimeout  = 2 * time.Minute
)

var (
	// ErrDirectoryNotEmpty is returned when the target holds files and Force is not set.
	ErrDirectoryNotEmpty = errors.New("target directory is not empty")

	// ErrTemplateNotFound is returned when the archive holds no file for the template.
	ErrTemplateNotFound = errors.New("template not found in archive")
)

// Request describes one materialization.
type Request struct {
	// TemplateID is the template directory inside the repository, e.g. "templates/neon".
	TemplateID string

	// Dir is the absolute target directory.
	Dir string

	// Force allows writing over existing files in Dir.
	Force bool
}

// Materializer downloads template archives and extracts them.
type Materializer struct {
	fs         filesystem.FileSystem
	source     github.TemplateSource
	repo       github.Repo
	httpClient *http.Client
	logger     *slog.Logger
	newBackoff func() backoff.BackOff
}

// MaterializerOption configures a Materializer.
type MaterializerOption func(*Materializer)

// WithHTTPClient sets the client used to download archives.
func WithHTTPClient(hc *http.Client) MaterializerOption {
	return func(m *Materializer) {
		m.httpClient = hc
	}
}

// WithBackoff sets the retry policy factory for downloads.
func WithBackoff(fn func() backoff.BackOff) MaterializerOption {
	return func(m *Materializer) {
		m.newBackoff = fn
	}
}

// NewMaterializer creates a Materializer pulling templates from repo.
func NewMaterializer(fsys filesystem.FileSystem, source github.TemplateSource, repo github.Repo, logger *slog.Logger, opts ...MaterializerOption) *Materializer {
	m := &Materializer{
		fs:         fsys,
		source:     source,
		repo:       repo,
		httpClient: &http.Client{Timeout: downloadTimeout},
		logger:     logger,
		newBackoff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Materialize fetches the repository archive and extracts req.TemplateID into req.Dir.
func (m *Materializer) Materialize(ctx context.Context, req Request) error {
	empty, err := filesystem.IsEmptyDir(m.fs, req.Dir)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", req.Dir, err)
	}
	if !empty && !req.Force {
		return fmt.Errorf("%w: %s", ErrDirectoryNotEmpty, req.Dir)
	}

	link, err := m.source.ArchiveURL(ctx, m.repo)
	if err != nil {
		return err
	}

	m.logger.Debug("downloading template", "repo", m.repo.String(), "template", req.TemplateID)
	data, err := m.download(ctx, link)
	if err != nil {
		return err
	}

	if err := m.fs.MkdirAll(req.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", req.Dir, err)
	}

	written, err := extractTarGz(m.fs, bytes.NewReader(data), req.TemplateID, req.Dir)
	if err != nil {
		return fmt.Errorf("failed to extract template %s: %w", req.TemplateID, err)
	}
	if written == 0 {
		return fmt.Errorf("%w: %s in %s", ErrTemplateNotFound, req.TemplateID, m.repo)
	}

	m.logger.Debug("template extracted", "files", written, "dir", req.Dir)
	return nil
}

func (m *Materializer) download(ctx context.Context, link string) ([]byte, error) {
	var data []byte

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("invalid archive URL: %w", err))
		}

		resp, err := m.httpClient.Do(req)
		if err != nil {
			m.logger.Debug("template download failed, retrying", "error", err)
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("template download failed with status %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("template download failed with status %d", resp.StatusCode))
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveSize+1))
		if err != nil {
			return err
		}
		if len(body) > maxArchiveSize {
			return backoff.Permanent(fmt.Errorf("template archive exceeds %d bytes", maxArchiveSize))
		}
		data = body
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(m.newBackoff(), downloadAttempts-1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("failed to download template: %w", err)
	}
	return data, nil
}
