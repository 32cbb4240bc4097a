package cli

import "fmt"

// Variant selects which scaffolder a binary runs.
type Variant int

const (
	VariantHonc Variant = iota
	VariantFiberplane
)

func (v Variant) String() string {
	switch v {
	case VariantHonc:
		return "create-honc-app"
	case VariantFiberplane:
		return "create-fiberplane"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

func (v Variant) short() string {
	if v == VariantFiberplane {
		return "Create a Hono app with Fiberplane tooling and deploy it"
	}
	return "Create a HONC stack app (Hono, ORM, Neon/D1/Supabase, Cloudflare)"
}

func (v Variant) title() string {
	if v == VariantFiberplane {
		return "create-fiberplane"
	}
	return "🪿 create-honc-app"
}

func (v Variant) subtitle() string {
	if v == VariantFiberplane {
		return "Scaffold, document and deploy a Hono API"
	}
	return "Hono + Drizzle ORM + database + Cloudflare Workers"
}
