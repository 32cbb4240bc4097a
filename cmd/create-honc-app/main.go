// Command create-honc-app scaffolds a HONC stack project.
package main

import (
	"os"

	"github.com/fiberplane/create-honc-app/internal/cli"
)

func main() {
	os.Exit(cli.Execute(cli.VariantHonc))
}
