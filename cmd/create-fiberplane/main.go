// Command create-fiberplane scaffolds a Hono API with Fiberplane tooling.
package main

import (
	"os"

	"github.com/fiberplane/create-honc-app/internal/cli"
)

func main() {
	os.Exit(cli.Execute(cli.VariantFiberplane))
}
