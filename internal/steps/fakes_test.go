package steps

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fiberplane/create-honc-app/internal/auth"
	"github.com/fiberplane/create-honc-app/internal/filesystem"
	"github.com/fiberplane/create-honc-app/internal/git"
	"github.com/fiberplane/create-honc-app/internal/models"
	"github.com/fiberplane/create-honc-app/internal/neon"
	"github.com/fiberplane/create-honc-app/internal/scaffold"
	"github.com/fiberplane/create-honc-app/internal/shell"
	"github.com/fiberplane/create-honc-app/internal/tui"
	"golang.org/x/oauth2"
)

type passthroughProgress struct{}

func (passthroughProgress) Run(ctx context.Context, title string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// interruptingProgress behaves like ctrl+c pressed while the spinner titled
// title is shown.
type interruptingProgress struct {
	title string
}

func (p interruptingProgress) Run(ctx context.Context, title string, fn func(ctx context.Context) error) error {
	if title == p.title {
		return tui.ErrCancelled
	}
	return fn(ctx)
}

// fakeMaterializer writes a minimal project instead of downloading one.
type fakeMaterializer struct {
	mu       sync.Mutex
	fs       *filesystem.MockFileSystem
	err      error
	requests []scaffold.Request
}

func (m *fakeMaterializer) Materialize(ctx context.Context, req scaffold.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.err != nil {
		return m.err
	}
	m.fs.AddFile(filepath.Join(req.Dir, "package.json"), []byte(`{"name":"template","scripts":{"dev":"wrangler dev"}}`))
	m.fs.AddFile(filepath.Join(req.Dir, "wrangler.toml"), []byte("name = \"template\"\n"))
	m.fs.AddFile(filepath.Join(req.Dir, "src/index.ts"), []byte("const app = new Hono();\n"))
	return nil
}

type fakeAuthorizer struct {
	token *oauth2.Token
	err   error
	calls int
}

func (a *fakeAuthorizer) Authorize(ctx context.Context) (*oauth2.Token, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.token, nil
}

type fakeNeon struct {
	project *neon.Project
	err     error
	names   []string
	tokens  []string
}

func (n *fakeNeon) client(ctx context.Context, token *oauth2.Token) ProjectCreator {
	n.tokens = append(n.tokens, token.AccessToken)
	return n
}

func (n *fakeNeon) CreateProject(ctx context.Context, name string) (*neon.Project, error) {
	n.names = append(n.names, name)
	if n.err != nil {
		return nil, n.err
	}
	return n.project, nil
}

type fixture struct {
	fs           *filesystem.MockFileSystem
	runner       *shell.MockRunner
	git          *git.MockGitClient
	materializer *fakeMaterializer
	out          *bytes.Buffer
}

func newFixture() *fixture {
	fs := filesystem.NewMockFileSystem()
	fs.AddDir("/work")
	fs.SetCurrentDir("/work")

	return &fixture{
		fs:           fs,
		runner:       shell.NewMockRunner(),
		git:          git.NewMockGitClient(),
		materializer: &fakeMaterializer{fs: fs},
		out:          &bytes.Buffer{},
	}
}

func (f *fixture) common(prompter tui.Prompter) Common {
	return Common{
		FS:        f.fs,
		Prompter:  prompter,
		Progress:  passthroughProgress{},
		Runner:    f.runner,
		Git:       f.git,
		Templates: f.materializer,
		Out:       f.out,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func staticExchanger(token string, calls *[]auth.ServiceTokenRequest) TokenExchanger {
	return func(ctx context.Context, access *oauth2.Token, req auth.ServiceTokenRequest) (*auth.ServiceToken, error) {
		*calls = append(*calls, req)
		return &auth.ServiceToken{Token: token}, nil
	}
}

func newHoncContext() *models.Context {
	return models.NewContext("/work", "", models.PackageManagerPNPM)
}
