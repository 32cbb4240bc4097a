package models

// Flag tokens recording affirmative answers. An action runs its side effect
// only when its token is present.
const (
	FlagWithOpenAPI         = "with-openapi"
	FlagSetupNeon           = "setup-neon"
	FlagInstallDependencies = "install-dependencies"
	FlagInitializeGit       = "initialize-git"
	FlagAIRules             = "ai-rules"
	FlagDeployFiberplane    = "deploy-fiberplane"
)

// Flags is an insertion-ordered set of tokens.
type Flags struct {
	order []string
	index map[string]struct{}
}

// Add records a token. Adding an existing token is a no-op.
func (f *Flags) Add(token string) {
	if f.index == nil {
		f.index = make(map[string]struct{})
	}
	if _, ok := f.index[token]; ok {
		return
	}
	f.index[token] = struct{}{}
	f.order = append(f.order, token)
}

// Has reports whether token was recorded.
func (f *Flags) Has(token string) bool {
	_, ok := f.index[token]
	return ok
}

// List returns the tokens in insertion order.
func (f *Flags) List() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Len returns the number of recorded tokens.
func (f *Flags) Len() int {
	return len(f.order)
}
