// Command castlists manages castlists and tribe memberships from the
// command line.
package main

import (
	"os"

	"github.com/mesh-intelligence/castlists/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
