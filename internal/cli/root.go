package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fiberplane/create-honc-app/internal/auth"
	"github.com/fiberplane/create-honc-app/internal/config"
	"github.com/fiberplane/create-honc-app/internal/filesystem"
	"github.com/fiberplane/create-honc-app/internal/git"
	"github.com/fiberplane/create-honc-app/internal/github"
	"github.com/fiberplane/create-honc-app/internal/models"
	"github.com/fiberplane/create-honc-app/internal/neon"
	"github.com/fiberplane/create-honc-app/internal/pipeline"
	"github.com/fiberplane/create-honc-app/internal/scaffold"
	"github.com/fiberplane/create-honc-app/internal/shell"
	"github.com/fiberplane/create-honc-app/internal/steps"
	"github.com/fiberplane/create-honc-app/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

// Dependencies are the collaborators of a single run.
type Dependencies struct {
	FS        filesystem.FileSystem
	Runner    shell.Runner
	Git       git.GitClient
	Prompter  tui.Prompter
	Progress  steps.Progress
	Templates steps.Materializer

	NeonAuth steps.Authorizer
	NewNeon  func(ctx context.Context, token *oauth2.Token) steps.ProjectCreator

	FiberplaneAuth steps.Authorizer
	ExchangeToken  steps.TokenExchanger
}

// Wiring builds the dependencies once configuration and logger are known.
type Wiring func(cfg *config.Config, logger *slog.Logger, out io.Writer) *Dependencies

// CreateCommand runs one scaffolder variant.
type CreateCommand struct {
	variant    Variant
	loadConfig func() (*config.Config, error)
	wire       Wiring

	force   bool
	verbose bool
}

// NewRootCommand creates the root command for variant.
func NewRootCommand(variant Variant, loadConfig func() (*config.Config, error), wire Wiring) *cobra.Command {
	c := &CreateCommand{
		variant:    variant,
		loadConfig: loadConfig,
		wire:       wire,
	}

	rootCmd := &cobra.Command{
		Use:           variant.String() + " [name]",
		Short:         variant.short(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.Run,
	}

	rootCmd.Flags().BoolVarP(&c.force, "force", "f", false, "Write into a non-empty directory without asking")
	rootCmd.Flags().BoolVarP(&c.verbose, "verbose", "v", false, "Print debug logs to stderr")

	return rootCmd
}

// Run executes the scaffolder. A cancelled run returns nil; a failed one
// returns the error that stopped it.
func (c *CreateCommand) Run(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), c.verbose || cfg.Debug)
	deps := c.wire(cfg, logger, out)

	cwd, err := deps.FS.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	pm := models.DetectPackageManager(cfg.UserAgent)
	logger.Debug("starting", "variant", c.variant.String(), "package_manager", pm.String(), "cwd", cwd)

	tui.Banner(out, c.variant.title(), c.variant.subtitle())
	if err := models.CheckNodeVersion(cfg.UserAgent); err != nil {
		tui.Warn(out, "%v", err)
	}

	common := steps.Common{
		FS:        deps.FS,
		Prompter:  deps.Prompter,
		Progress:  deps.Progress,
		Runner:    deps.Runner,
		Git:       deps.Git,
		Templates: deps.Templates,
		Out:       out,
		Logger:    logger,
	}

	var result pipeline.Result
	switch c.variant {
	case VariantFiberplane:
		state := models.NewFiberplaneContext(cwd, "", pm)
		c.applyArgs(&state.Base, args)
		fp := &steps.Fiberplane{Common: common, Auth: deps.FiberplaneAuth, ExchangeToken: deps.ExchangeToken}
		result = pipeline.Run(cmd.Context(), logger, fp.Stages(), state)
	default:
		state := models.NewContext(cwd, "", pm)
		c.applyArgs(&state.Base, args)
		honc := &steps.Honc{Common: common, NeonAuth: deps.NeonAuth, NewNeon: deps.NewNeon}
		result = pipeline.Run(cmd.Context(), logger, honc.Stages(), state)
	}

	logger.Debug("finished", "status", result.Status.String())
	switch result.Status {
	case pipeline.StatusCancelled:
		tui.Warn(out, "Operation cancelled")
		return nil
	case pipeline.StatusFailed:
		return result.Err
	default:
		return nil
	}
}

func (c *CreateCommand) applyArgs(b *models.Base, args []string) {
	b.Force = c.force
	if len(args) == 0 {
		return
	}
	path := b.ResolvePath(args[0])
	b.Path.Set(path)
	b.Name = filepath.Base(path)
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	if !debug {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Wire builds the production dependencies.
func Wire(cfg *config.Config, logger *slog.Logger, out io.Writer) *Dependencies {
	fs := filesystem.NewOSFileSystem()
	runner := shell.NewOSRunner()
	source := github.NewClientFromToken(cfg.GitHubToken)

	return &Dependencies{
		FS:        fs,
		Runner:    runner,
		Git:       git.NewOSGitClient(runner),
		Prompter:  tui.NewHuhPrompter(os.Stdin, out),
		Progress:  tui.NewSpinner(os.Stdin, out),
		Templates: scaffold.NewMaterializer(fs, source, cfg.TemplateRepo, logger),

		NeonAuth: auth.NewClient(cfg.NeonAuth(), logger, auth.WithOutput(out)),
		NewNeon: func(ctx context.Context, token *oauth2.Token) steps.ProjectCreator {
			return neon.NewClient(ctx, cfg.NeonAPIURL, token, nil, logger)
		},

		FiberplaneAuth: auth.NewClient(cfg.FiberplaneAuth(), logger, auth.WithOutput(out)),
		ExchangeToken: func(ctx context.Context, access *oauth2.Token, req auth.ServiceTokenRequest) (*auth.ServiceToken, error) {
			return auth.ExchangeServiceToken(ctx, nil, cfg.FiberplaneServiceTokenURL, access, req)
		},
	}
}

// Execute runs variant against the process environment and returns the exit code.
func Execute(variant Variant) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCommand(variant, config.Load, Wire)
	return run(ctx, rootCmd, os.Args[1:], os.Stdout)
}

func run(ctx context.Context, rootCmd *cobra.Command, args []string, out io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		tui.Error(out, "%v", err)
		return pipeline.ExitCode(pipeline.Failed(err))
	}
	return 0
}
