package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/fiberplane/create-honc-app/internal/auth"
	"github.com/fiberplane/create-honc-app/internal/models"
	"github.com/fiberplane/create-honc-app/internal/pipeline"
	"github.com/fiberplane/create-honc-app/internal/scaffold"
	"github.com/fiberplane/create-honc-app/internal/shell"
	"github.com/fiberplane/create-honc-app/internal/tui"
	"golang.org/x/oauth2"
)

// DeployTokenTTL is the lifetime requested for the deploy service token.
const DeployTokenTTL = 30 * 24 * time.Hour

// DeployTokenScopes are requested for the deploy service token.
var DeployTokenScopes = []string{"deploy"}

// TokenExchanger trades an access token for a service token.
type TokenExchanger func(ctx context.Context, access *oauth2.Token, req auth.ServiceTokenRequest) (*auth.ServiceToken, error)

// Fiberplane builds the create-fiberplane pipeline.
type Fiberplane struct {
	Common

	// Auth logs the user into Fiberplane.
	Auth Authorizer

	// ExchangeToken obtains the service token used to deploy.
	ExchangeToken TokenExchanger
}

// Stages returns path, template, AI rules, install, git and deploy stages
// followed by the closing summary.
func (f *Fiberplane) Stages() []pipeline.Stage[models.FiberplaneContext] {
	base := func(c *models.FiberplaneContext) *models.Base { return &c.Base }

	return []pipeline.Stage[models.FiberplaneContext]{
		{Name: "path", Prompt: baseStage(base, f.promptPath)},
		{Name: "template", Prompt: f.promptTemplate, Action: f.downloadTemplate},
		{Name: "ai-rules", Prompt: f.promptRules, Action: f.writeRules},
		{Name: "install", Prompt: baseStage(base, f.promptInstall), Action: baseStage(base, f.installDependencies)},
		{Name: "git", Prompt: baseStage(base, f.promptGit), Action: baseStage(base, f.initializeGit)},
		{Name: "deploy", Prompt: f.promptDeploy, Action: f.deploy},
		{Name: "summary", Action: f.summary},
	}
}

func (f *Fiberplane) promptTemplate(ctx context.Context, c *models.FiberplaneContext) pipeline.Result {
	c.Template.Set(models.TemplateFiberplaneBase)
	return f.confirm(ctx, &c.Base, "Would you like to generate an OpenAPI spec?", true, models.FlagWithOpenAPI)
}

func (f *Fiberplane) downloadTemplate(ctx context.Context, c *models.FiberplaneContext) pipeline.Result {
	template := c.Template.OrElse(models.TemplateFiberplaneBase)
	if r := f.materialize(ctx, &c.Base, template.RemoteID(c.Flags.Has(models.FlagWithOpenAPI)), ""); r.Status != pipeline.StatusOK {
		return r
	}

	path, err := c.RequirePath()
	if err != nil {
		return pipeline.Failed(err)
	}
	c.Sources.Set(scaffold.ReadSources(f.FS, f.Logger, path))
	return pipeline.OK()
}

func (f *Fiberplane) promptRules(ctx context.Context, c *models.FiberplaneContext) pipeline.Result {
	return f.confirm(ctx, &c.Base, "Generate AI assistant rules for Cursor?", true, models.FlagAIRules)
}

func (f *Fiberplane) writeRules(ctx context.Context, c *models.FiberplaneContext) pipeline.Result {
	if !c.Flags.Has(models.FlagAIRules) {
		return pipeline.OK()
	}
	path, err := c.RequirePath()
	if err != nil {
		return pipeline.Failed(err)
	}

	template := c.Template.OrElse(models.TemplateFiberplaneBase)
	written, err := scaffold.WriteRules(f.FS, path, scaffold.RulesData{
		Name:     c.Name,
		Database: template.Database().Label(),
		Sources:  c.Sources.OrElse(models.SourceFiles{}),
	})
	switch {
	case err != nil:
		f.Logger.Debug("failed to write rules", "error", err)
		tui.Warn(f.Out, "Could not write %s, skipping AI rules", scaffold.RulesFile)
	case !written:
		tui.Info(f.Out, "Keeping existing %s", scaffold.RulesFile)
	default:
		tui.Success(f.Out, "AI rules written to %s", scaffold.RulesFile)
	}
	return pipeline.OK()
}

func (f *Fiberplane) promptDeploy(ctx context.Context, c *models.FiberplaneContext) pipeline.Result {
	return f.confirm(ctx, &c.Base, "Deploy to Fiberplane now?", false, models.FlagDeployFiberplane)
}

func (f *Fiberplane) deploy(ctx context.Context, c *models.FiberplaneContext) pipeline.Result {
	if !c.Flags.Has(models.FlagDeployFiberplane) {
		return pipeline.OK()
	}
	if !c.Installed {
		tui.Warn(f.Out, "Dependencies are not installed, skipping deploy")
		return pipeline.OK()
	}
	path, err := c.RequirePath()
	if err != nil {
		return pipeline.Failed(err)
	}

	tui.Info(f.Out, "Opening your browser to log in to Fiberplane...")
	access, err := f.Auth.Authorize(ctx)
	if err != nil {
		return errResult(fmt.Errorf("fiberplane authorization failed: %w", err))
	}

	req := auth.NewServiceTokenRequest(c.Name, DeployTokenScopes, DeployTokenTTL)
	token, err := f.ExchangeToken(ctx, access, req)
	if err != nil {
		return errResult(fmt.Errorf("failed to obtain deploy token: %w", err))
	}
	c.AuthToken.Set(token.Token)
	if !token.ExpiresAt.IsZero() {
		f.Logger.Debug("deploy token issued", "expires_at", token.ExpiresAt)
	}

	args := c.PackageManager.RunArgs("deploy")
	err = f.Progress.Run(ctx, "Deploying to Fiberplane...", func(ctx context.Context) error {
		return f.Runner.Run(ctx, shell.Command{
			Dir:     path,
			Args:    args,
			Env:     map[string]string{"FIBERPLANE_TOKEN": token.Token},
			Timeout: PackageTimeout,
		})
	})
	if err != nil {
		return errResult(fmt.Errorf("deploy failed: %w", err))
	}

	tui.Success(f.Out, "Deployed to Fiberplane")
	return pipeline.OK()
}

func (f *Fiberplane) summary(ctx context.Context, c *models.FiberplaneContext) pipeline.Result {
	var extra []string
	if !c.Flags.Has(models.FlagDeployFiberplane) || !c.Installed {
		extra = append(extra, joinArgs(c.PackageManager.RunArgs("deploy")))
	}
	return f.printNextSteps(&c.Base, extra...)
}
