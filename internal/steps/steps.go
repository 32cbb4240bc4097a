// Package steps defines the prompt/action stages of both scaffolders.
package steps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fiberplane/create-honc-app/internal/filesystem"
	"github.com/fiberplane/create-honc-app/internal/git"
	"github.com/fiberplane/create-honc-app/internal/models"
	"github.com/fiberplane/create-honc-app/internal/pipeline"
	"github.com/fiberplane/create-honc-app/internal/scaffold"
	"github.com/fiberplane/create-honc-app/internal/shell"
	"github.com/fiberplane/create-honc-app/internal/tui"
	"golang.org/x/oauth2"
)

// PackageTimeout bounds dependency installs and deploys.
const PackageTimeout = 3 * time.Minute

// Materializer extracts a template into a directory.
type Materializer interface {
	Materialize(ctx context.Context, req scaffold.Request) error
}

// Authorizer runs an interactive OAuth authorization.
type Authorizer interface {
	Authorize(ctx context.Context) (*oauth2.Token, error)
}

// Progress runs work while showing a progress indicator.
type Progress interface {
	Run(ctx context.Context, title string, fn func(ctx context.Context) error) error
}

// Common holds the collaborators shared by both variants.
type Common struct {
	FS        filesystem.FileSystem
	Prompter  tui.Prompter
	Progress  Progress
	Runner    shell.Runner
	Git       git.GitClient
	Templates Materializer
	Out       io.Writer
	Logger    *slog.Logger
}

// baseStage adapts a stage working on the shared Base to a variant context.
func baseStage[C any](base func(*C) *models.Base, fn func(context.Context, *models.Base) pipeline.Result) pipeline.Func[C] {
	return func(ctx context.Context, c *C) pipeline.Result {
		return fn(ctx, base(c))
	}
}

// errResult fails with err unless the user interrupted the run.
func errResult(err error) pipeline.Result {
	if interrupted(err) {
		return pipeline.Cancelled()
	}
	return pipeline.Failed(err)
}

func interrupted(err error) bool {
	return errors.Is(err, tui.ErrCancelled) || errors.Is(err, context.Canceled)
}

func (s *Common) confirm(ctx context.Context, b *models.Base, title string, def bool, flag string) pipeline.Result {
	ok, err := s.Prompter.Confirm(ctx, title, def)
	if err != nil {
		return errResult(err)
	}
	if ok {
		b.Flags.Add(flag)
	}
	return pipeline.OK()
}

// promptPath asks for the target directory unless one was given on the
// command line, then confirms writing into a non-empty directory.
func (s *Common) promptPath(ctx context.Context, b *models.Base) pipeline.Result {
	if !b.Path.IsSet() {
		input, err := s.Prompter.Input(ctx, tui.InputPrompt{
			Title:       "Where should we create your project?",
			Description: "Use . for the current directory",
			Placeholder: b.Name,
			Default:     b.Name,
			Validate:    s.validatePath(b),
		})
		if err != nil {
			return errResult(err)
		}
		b.Path.Set(b.ResolvePath(input))
	}

	path, err := b.RequirePath()
	if err != nil {
		return pipeline.Failed(err)
	}
	b.Name = filepath.Base(path)

	if b.Force {
		return pipeline.OK()
	}

	empty, err := filesystem.IsEmptyDir(s.FS, path)
	if err != nil {
		return pipeline.Failed(fmt.Errorf("failed to inspect %s: %w", path, err))
	}
	if empty {
		return pipeline.OK()
	}

	ok, err := s.Prompter.Confirm(ctx, fmt.Sprintf("%s is not empty. Continue and overwrite existing files?", b.RelativePath()), false)
	if err != nil {
		return errResult(err)
	}
	if !ok {
		return pipeline.Cancelled()
	}
	b.Force = true
	return pipeline.OK()
}

func (s *Common) validatePath(b *models.Base) func(string) error {
	return func(input string) error {
		if strings.TrimSpace(input) == "" {
			return errors.New("please enter a path")
		}
		info, err := s.FS.Stat(b.ResolvePath(input))
		if err == nil && !info.IsDir() {
			return fmt.Errorf("%s is a file", input)
		}
		return nil
	}
}

// materialize downloads templateID into the project directory and applies
// the follow-up file edits. Only the download itself is fatal.
func (s *Common) materialize(ctx context.Context, b *models.Base, templateID, envContent string) pipeline.Result {
	path, err := b.RequirePath()
	if err != nil {
		return pipeline.Failed(err)
	}

	err = s.Progress.Run(ctx, "Downloading template...", func(ctx context.Context) error {
		return s.Templates.Materialize(ctx, scaffold.Request{
			TemplateID: templateID,
			Dir:        path,
			Force:      b.Force,
		})
	})
	if err != nil {
		return errResult(fmt.Errorf("failed to download template: %w", err))
	}

	renamed := scaffold.RenameProject(s.FS, s.Logger, path, b.Name)
	s.Logger.Debug("project renamed", "files", renamed)

	if envContent != "" {
		if _, err := scaffold.TouchEnvFile(s.FS, path, envContent); err != nil {
			s.Logger.Debug("skipping env file", "error", err)
		} else if _, err := scaffold.EnsureIgnored(s.FS, path, scaffold.EnvFileName); err != nil {
			s.Logger.Debug("failed to update .gitignore", "error", err)
		}
	}

	tui.Success(s.Out, "Template ready in %s", b.RelativePath())
	return pipeline.OK()
}

func (s *Common) promptInstall(ctx context.Context, b *models.Base) pipeline.Result {
	return s.confirm(ctx, b, fmt.Sprintf("Install dependencies with %s?", b.PackageManager), true, models.FlagInstallDependencies)
}

func (s *Common) installDependencies(ctx context.Context, b *models.Base) pipeline.Result {
	if !b.Flags.Has(models.FlagInstallDependencies) {
		return pipeline.OK()
	}
	path, err := b.RequirePath()
	if err != nil {
		return pipeline.Failed(err)
	}

	args := b.PackageManager.InstallArgs()
	err = s.Progress.Run(ctx, "Installing dependencies...", func(ctx context.Context) error {
		return s.Runner.Run(ctx, shell.Command{Dir: path, Args: args, Timeout: PackageTimeout})
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		if interrupted(err) || ctx.Err() != nil {
			return errResult(err)
		}
		s.Logger.Debug("dependency install failed", "error", err)
		tui.Recovery(s.Out, "Installing dependencies", "cd "+b.RelativePath(), joinArgs(args))
		return pipeline.OK()
	}

	b.Installed = true
	tui.Success(s.Out, "Dependencies installed")
	return pipeline.OK()
}

func (s *Common) promptGit(ctx context.Context, b *models.Base) pipeline.Result {
	dir := s.existingAncestor(b.Path.OrElse(b.Cwd))
	if s.Git.IsInsideWorkTree(ctx, dir) {
		s.Logger.Debug("already inside a git work tree, skipping git init", "dir", dir)
		return pipeline.OK()
	}
	return s.confirm(ctx, b, "Initialize a new git repository?", true, models.FlagInitializeGit)
}

// existingAncestor returns path or its closest parent that exists, since the
// project directory is only created once the template is downloaded.
func (s *Common) existingAncestor(path string) string {
	for !s.FS.Exists(path) {
		parent := filepath.Dir(path)
		if parent == path {
			break
		}
		path = parent
	}
	return path
}

func (s *Common) initializeGit(ctx context.Context, b *models.Base) pipeline.Result {
	if !b.Flags.Has(models.FlagInitializeGit) {
		return pipeline.OK()
	}
	path, err := b.RequirePath()
	if err != nil {
		return pipeline.Failed(err)
	}

	if err := git.InitRepository(ctx, s.Git, path); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		if interrupted(err) || ctx.Err() != nil {
			return errResult(err)
		}
		s.Logger.Debug("git init failed", "error", err)
		tui.Recovery(s.Out, "Initializing git",
			"cd "+b.RelativePath(),
			"git init",
			"git add -A",
			fmt.Sprintf("git commit -m %q", git.InitialCommitMessage),
		)
		return pipeline.OK()
	}

	tui.Success(s.Out, "Git repository initialized")
	return pipeline.OK()
}

// printNextSteps closes a successful run.
func (s *Common) printNextSteps(b *models.Base, extra ...string) pipeline.Result {
	out, err := scaffold.NextSteps(scaffold.NextStepsData{
		Dir:         b.RelativePath(),
		Installed:   b.Installed,
		InstallArgs: b.PackageManager.InstallArgs(),
		DevArgs:     b.PackageManager.RunArgs("dev"),
		Extra:       extra,
	})
	if err != nil {
		return pipeline.Failed(err)
	}
	_, _ = fmt.Fprintln(s.Out)
	_, _ = fmt.Fprintln(s.Out, tui.Box(out))
	return pipeline.OK()
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
