package steps

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/fiberplane/create-honc-app/internal/models"
	"github.com/fiberplane/create-honc-app/internal/neon"
	"github.com/fiberplane/create-honc-app/internal/pipeline"
	"github.com/fiberplane/create-honc-app/internal/scaffold"
	"github.com/fiberplane/create-honc-app/internal/shell"
	"github.com/fiberplane/create-honc-app/internal/tui"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newHonc(f *fixture, prompter tui.Prompter, authorizer *fakeAuthorizer, provisioner *fakeNeon) *Honc {
	return &Honc{
		Common:   f.common(prompter),
		NeonAuth: authorizer,
		NewNeon:  provisioner.client,
	}
}

func runHonc(t *testing.T, h *Honc, c *models.Context) pipeline.Result {
	t.Helper()
	return pipeline.Run(context.Background(), h.Logger, h.Stages(), c)
}

func TestHonc_NeonWithProvisioning(t *testing.T) {
	f := newFixture()
	prompter := tui.NewScriptedPrompter(
		tui.Answer{Text: "my-app"},
		tui.Answer{Text: "neon"},
		tui.Answer{Confirmed: true},
		tui.Answer{Confirmed: true},
		tui.Answer{Confirmed: true},
		tui.Answer{Confirmed: true},
	)
	authorizer := &fakeAuthorizer{token: &oauth2.Token{AccessToken: "neon-access"}}
	provisioner := &fakeNeon{project: &neon.Project{ID: "p1", Name: "my-app", ConnectionURI: "postgresql://neon/db"}}

	c := newHoncContext()
	r := runHonc(t, newHonc(f, prompter, authorizer, provisioner), c)
	require.Equal(t, pipeline.StatusOK, r.Status, r.Err)
	require.Zero(t, prompter.Remaining())

	require.Equal(t, "/work/my-app", c.Path.OrElse(""))
	require.Equal(t, "my-app", c.Name)
	require.Equal(t, []string{
		models.FlagWithOpenAPI,
		models.FlagSetupNeon,
		models.FlagInstallDependencies,
		models.FlagInitializeGit,
	}, c.Flags.List())

	require.Len(t, f.materializer.requests, 1)
	require.Equal(t, scaffold.Request{TemplateID: "templates/neon-openapi", Dir: "/work/my-app"}, f.materializer.requests[0])

	pkg, err := f.fs.ReadFile("/work/my-app/package.json")
	require.NoError(t, err)
	require.Contains(t, string(pkg), `"name":"my-app"`)

	env, err := f.fs.ReadFile("/work/my-app/.dev.vars")
	require.NoError(t, err)
	require.Equal(t, "DATABASE_URL=postgresql://neon/db\n", string(env))

	ignore, err := f.fs.ReadFile("/work/my-app/.gitignore")
	require.NoError(t, err)
	require.Contains(t, string(ignore), ".dev.vars")

	require.Equal(t, 1, authorizer.calls)
	require.Equal(t, []string{"neon-access"}, provisioner.tokens)
	require.Equal(t, []string{"my-app"}, provisioner.names)
	require.Equal(t, "neon-access", c.AuthToken.OrElse(""))
	require.Equal(t, "postgresql://neon/db", c.ConnectionURI.OrElse(""))

	require.Equal(t, []string{"pnpm install"}, f.runner.CommandStrings())
	require.Equal(t, "/work/my-app", f.runner.Commands()[0].Dir)
	require.Equal(t, []string{"Initial commit"}, f.git.Commits("/work/my-app"))

	require.True(t, c.Installed)
	require.Contains(t, f.out.String(), "pnpm run dev")
}

func TestHonc_InstallDeclinedSkipsInstall(t *testing.T) {
	f := newFixture()
	prompter := tui.NewScriptedPrompter(
		tui.Answer{Text: "my-app"},
		tui.Answer{Text: "d1"},
		tui.Answer{Confirmed: false},
		tui.Answer{Confirmed: false},
		tui.Answer{Confirmed: false},
	)

	c := newHoncContext()
	r := runHonc(t, newHonc(f, prompter, &fakeAuthorizer{}, &fakeNeon{}), c)
	require.Equal(t, pipeline.StatusOK, r.Status, r.Err)

	require.False(t, c.Flags.Has(models.FlagInstallDependencies))
	require.Empty(t, f.runner.Commands())
	require.False(t, f.git.IsRepo("/work/my-app"))
	require.Equal(t, "templates/d1", f.materializer.requests[0].TemplateID)
	require.False(t, f.fs.Exists("/work/my-app/.dev.vars"))
	require.Contains(t, f.out.String(), "pnpm install")
}

func TestHonc_CancelAtSecondPromptStopsEverything(t *testing.T) {
	f := newFixture()
	prompter := tui.NewScriptedPrompter(
		tui.Answer{Text: "my-app"},
		tui.Answer{Cancel: true},
		tui.Answer{Confirmed: true},
		tui.Answer{Confirmed: true},
		tui.Answer{Confirmed: true},
	)

	c := newHoncContext()
	r := runHonc(t, newHonc(f, prompter, &fakeAuthorizer{}, &fakeNeon{}), c)
	require.Equal(t, pipeline.StatusCancelled, r.Status)
	require.Equal(t, 0, pipeline.ExitCode(r))

	require.Len(t, prompter.Asked(), 2)
	require.Equal(t, 3, prompter.Remaining())
	require.Empty(t, f.materializer.requests)
	require.Empty(t, f.runner.Commands())
	require.False(t, f.fs.Exists("/work/my-app"))
}

func TestHonc_NonEmptyDirectory(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		f := newFixture()
		f.fs.AddFile("/work/my-app/README.md", []byte("existing"))
		prompter := tui.NewScriptedPrompter(
			tui.Answer{Text: "my-app"},
			tui.Answer{Confirmed: false},
		)

		r := runHonc(t, newHonc(f, prompter, &fakeAuthorizer{}, &fakeNeon{}), newHoncContext())
		require.Equal(t, pipeline.StatusCancelled, r.Status)
		require.Empty(t, f.materializer.requests)
	})

	t.Run("accepted", func(t *testing.T) {
		f := newFixture()
		f.fs.AddFile("/work/my-app/README.md", []byte("existing"))
		prompter := tui.NewScriptedPrompter(
			tui.Answer{Text: "my-app"},
			tui.Answer{Confirmed: true},
			tui.Answer{Text: "supabase"},
			tui.Answer{Confirmed: false},
			tui.Answer{Confirmed: false},
			tui.Answer{Confirmed: false},
		)

		c := newHoncContext()
		r := runHonc(t, newHonc(f, prompter, &fakeAuthorizer{}, &fakeNeon{}), c)
		require.Equal(t, pipeline.StatusOK, r.Status, r.Err)
		require.True(t, f.materializer.requests[0].Force)

		env, err := f.fs.ReadFile("/work/my-app/.dev.vars")
		require.NoError(t, err)
		require.Contains(t, string(env), "54322")
	})

	t.Run("force flag skips confirmation", func(t *testing.T) {
		f := newFixture()
		f.fs.AddFile("/work/my-app/README.md", []byte("existing"))
		prompter := tui.NewScriptedPrompter(
			tui.Answer{Text: "d1"},
			tui.Answer{Confirmed: false},
			tui.Answer{Confirmed: false},
			tui.Answer{Confirmed: false},
		)

		c := newHoncContext()
		c.Force = true
		c.Path.Set("/work/my-app")

		r := runHonc(t, newHonc(f, prompter, &fakeAuthorizer{}, &fakeNeon{}), c)
		require.Equal(t, pipeline.StatusOK, r.Status, r.Err)
		require.Equal(t, "Which template do you want to use?", prompter.Asked()[0])
		require.True(t, f.materializer.requests[0].Force)
	})
}

func TestHonc_PathValidation(t *testing.T) {
	f := newFixture()
	f.fs.AddFile("/work/notes.txt", []byte("a file"))

	h := newHonc(f, nil, &fakeAuthorizer{}, &fakeNeon{})
	c := newHoncContext()
	validate := h.validatePath(&c.Base)

	require.Error(t, validate("  "))
	require.Error(t, validate("notes.txt"))
	require.NoError(t, validate("my-app"))
	require.NoError(t, validate("."))
}

func TestHonc_DownloadFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.materializer.err = errors.New("network unreachable")
	prompter := tui.NewScriptedPrompter(
		tui.Answer{Text: "my-app"},
		tui.Answer{Text: "d1"},
		tui.Answer{Confirmed: false},
		tui.Answer{Confirmed: true},
		tui.Answer{Confirmed: true},
	)

	r := runHonc(t, newHonc(f, prompter, &fakeAuthorizer{}, &fakeNeon{}), newHoncContext())
	require.Equal(t, pipeline.StatusFailed, r.Status)
	require.Equal(t, 1, pipeline.ExitCode(r))
	require.ErrorContains(t, r.Err, "network unreachable")
	require.Empty(t, f.runner.Commands())
	require.False(t, f.git.IsRepo("/work/my-app"))
}

func TestHonc_InstallFailureIsRecoverable(t *testing.T) {
	f := newFixture()
	f.runner.SetResult("pnpm install", &shell.ExitError{Command: "pnpm install", Code: 1})
	prompter := tui.NewScriptedPrompter(
		tui.Answer{Text: "my-app"},
		tui.Answer{Text: "d1"},
		tui.Answer{Confirmed: false},
		tui.Answer{Confirmed: true},
		tui.Answer{Confirmed: true},
	)

	c := newHoncContext()
	r := runHonc(t, newHonc(f, prompter, &fakeAuthorizer{}, &fakeNeon{}), c)
	require.Equal(t, pipeline.StatusOK, r.Status, r.Err)
	require.False(t, c.Installed)
	require.Contains(t, f.out.String(), "Installing dependencies failed")
	require.Equal(t, []string{"Initial commit"}, f.git.Commits("/work/my-app"))
}

func TestHonc_CtrlCDuringDownloadCancels(t *testing.T) {
	f := newFixture()
	prompter := tui.NewScriptedPrompter(
		tui.Answer{Text: "my-app"},
		tui.Answer{Text: "d1"},
		tui.Answer{Confirmed: false},
		tui.Answer{Confirmed: true},
		tui.Answer{Confirmed: true},
	)
	h := newHonc(f, prompter, &fakeAuthorizer{}, &fakeNeon{})
	h.Progress = interruptingProgress{title: "Downloading template..."}

	r := runHonc(t, h, newHoncContext())
	require.Equal(t, pipeline.StatusCancelled, r.Status)
	require.Equal(t, 0, pipeline.ExitCode(r))
	require.Empty(t, f.runner.Commands())
	require.False(t, f.git.IsRepo("/work/my-app"))
}

func TestHonc_CtrlCDuringInstallStopsRun(t *testing.T) {
	f := newFixture()
	prompter := tui.NewScriptedPrompter(
		tui.Answer{Text: "my-app"},
		tui.Answer{Text: "d1"},
		tui.Answer{Confirmed: false},
		tui.Answer{Confirmed: true},
		tui.Answer{Confirmed: true},
	)
	h := newHonc(f, prompter, &fakeAuthorizer{}, &fakeNeon{})
	h.Progress = interruptingProgress{title: "Installing dependencies..."}

	c := newHoncContext()
	r := runHonc(t, h, c)
	require.Equal(t, pipeline.StatusCancelled, r.Status)
	require.Equal(t, 0, pipeline.ExitCode(r))
	require.False(t, c.Installed)
	require.False(t, f.git.IsRepo("/work/my-app"))
	require.NotContains(t, f.out.String(), "Installing dependencies failed")
	require.NotContains(t, f.out.String(), "Next steps")
}

func TestHonc_InterruptedInstallCommandStopsRun(t *testing.T) {
	f := newFixture()
	prompter := tui.NewScriptedPrompter(
		tui.Answer{Text: "my-app"},
		tui.Answer{Text: "d1"},
		tui.Answer{Confirmed: false},
		tui.Answer{Confirmed: true},
		tui.Answer{Confirmed: true},
	)
	f.runner.SetResult("pnpm install", context.Canceled)

	r := runHonc(t, newHonc(f, prompter, &fakeAuthorizer{}, &fakeNeon{}), newHoncContext())
	require.Equal(t, pipeline.StatusCancelled, r.Status)
	require.False(t, f.git.IsRepo("/work/my-app"))
}

func TestHonc_NeonLoginInterruptedCancels(t *testing.T) {
	f := newFixture()
	prompter := tui.NewScriptedPrompter(
		tui.Answer{Text: "my-app"},
		tui.Answer{Text: "neon"},
		tui.Answer{Confirmed: false},
		tui.Answer{Confirmed: true},
		tui.Answer{Confirmed: false},
		tui.Answer{Confirmed: false},
	)
	authorizer := &fakeAuthorizer{err: fmt.Errorf("waiting for callback: %w", context.Canceled)}

	r := runHonc(t, newHonc(f, prompter, authorizer, &fakeNeon{}), newHoncContext())
	require.Equal(t, pipeline.StatusCancelled, r.Status)
	require.Equal(t, 1, authorizer.calls)
}

func TestHonc_GitFailureIsRecoverable(t *testing.T) {
	f := newFixture()
	f.git.FailOn("init", errors.New("git not found"))
	prompter := tui.NewScriptedPrompter(
		tui.Answer{Text: "my-app"},
		tui.Answer{Text: "d1"},
		tui.Answer{Confirmed: false},
		tui.Answer{Confirmed: false},
		tui.Answer{Confirmed: true},
	)

	r := runHonc(t, newHonc(f, prompter, &fakeAuthorizer{}, &fakeNeon{}), newHoncContext())
	require.Equal(t, pipeline.StatusOK, r.Status, r.Err)
	require.Contains(t, f.out.String(), "git init")
	require.Contains(t, f.out.String(), `git commit -m "Initial commit"`)
}

func TestHonc_InsideWorkTreeSkipsGitPrompt(t *testing.T) {
	f := newFixture()
	f.git.SetInsideWorkTree("/work")
	prompter := tui.NewScriptedPrompter(
		tui.Answer{Text: "my-app"},
		tui.Answer{Text: "d1"},
		tui.Answer{Confirmed: false},
		tui.Answer{Confirmed: false},
	)

	c := newHoncContext()
	r := runHonc(t, newHonc(f, prompter, &fakeAuthorizer{}, &fakeNeon{}), c)
	require.Equal(t, pipeline.StatusOK, r.Status, r.Err)
	require.Zero(t, prompter.Remaining())
	require.False(t, c.Flags.Has(models.FlagInitializeGit))
	require.False(t, f.git.IsRepo("/work/my-app"))
}

func TestHonc_GitPromptFollowsTargetDirectory(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		workTree  string
		expectAsk bool
	}{
		{name: "target inside another repository", path: "/repos/api/my-app", workTree: "/repos/api", expectAsk: false},
		{name: "target outside the cwd repository", path: "/srv/my-app", workTree: "/work", expectAsk: true},
		{name: "current directory inside a repository", path: "/work", workTree: "/work", expectAsk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.fs.AddDir("/repos/api")
			f.fs.AddDir("/srv")
			f.git.SetInsideWorkTree(tt.workTree)

			answers := []tui.Answer{{Text: tt.path}, {Text: "d1"}, {Confirmed: false}}
			if tt.expectAsk {
				answers = append(answers, tui.Answer{Confirmed: false})
			}
			prompter := tui.NewScriptedPrompter(answers...)

			c := newHoncContext()
			r := runHonc(t, newHonc(f, prompter, &fakeAuthorizer{}, &fakeNeon{}), c)
			require.Equal(t, pipeline.StatusOK, r.Status, r.Err)
			require.Zero(t, prompter.Remaining())
			require.Equal(t, tt.expectAsk, slices.Contains(prompter.Asked(), "Initialize a new git repository?"))
		})
	}
}

func TestHonc_NeonAuthFailureIsFatal(t *testing.T) {
	f := newFixture()
	prompter := tui.NewScriptedPrompter(
		tui.Answer{Text: "my-app"},
		tui.Answer{Text: "neon"},
		tui.Answer{Confirmed: false},
		tui.Answer{Confirmed: true},
		tui.Answer{Confirmed: true},
		tui.Answer{Confirmed: true},
	)
	authorizer := &fakeAuthorizer{err: errors.New("state mismatch")}
	provisioner := &fakeNeon{}

	c := newHoncContext()
	r := runHonc(t, newHonc(f, prompter, authorizer, provisioner), c)
	require.Equal(t, pipeline.StatusFailed, r.Status)
	require.ErrorContains(t, r.Err, "state mismatch")
	require.False(t, c.AuthToken.IsSet())
	require.Empty(t, provisioner.names)
	require.Empty(t, f.runner.Commands())

	env, err := f.fs.ReadFile("/work/my-app/.dev.vars")
	require.NoError(t, err)
	require.Equal(t, "DATABASE_URL=\n", string(env))
}

func TestHonc_NeonWithoutProvisioning(t *testing.T) {
	f := newFixture()
	prompter := tui.NewScriptedPrompter(
		tui.Answer{Text: "my-app"},
		tui.Answer{Text: "neon"},
		tui.Answer{Confirmed: false},
		tui.Answer{Confirmed: false},
		tui.Answer{Confirmed: false},
		tui.Answer{Confirmed: false},
	)
	authorizer := &fakeAuthorizer{}

	r := runHonc(t, newHonc(f, prompter, authorizer, &fakeNeon{}), newHoncContext())
	require.Equal(t, pipeline.StatusOK, r.Status, r.Err)
	require.Zero(t, authorizer.calls)
	require.Contains(t, f.out.String(), "DATABASE_URL")
}

func TestHonc_MissingPathIsFatal(t *testing.T) {
	f := newFixture()
	h := newHonc(f, nil, &fakeAuthorizer{}, &fakeNeon{})

	c := newHoncContext()
	c.Template.Set(models.TemplateD1)
	r := h.downloadTemplate(context.Background(), c)
	require.Equal(t, pipeline.StatusFailed, r.Status)
	require.ErrorIs(t, r.Err, models.ErrMissingPath)
}
