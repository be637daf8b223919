/*
go-planning is a CLI for interacting with a project planning server via HTTP and with a Bonita server directly.

Usage:

	go-planning [flags]
	go-planning [command]

Available Commands:

	auth        Register, log in and show the profile
	bonita      Interact with a Bonita server directly
	completion  Generate the autocompletion script for the specified shell
	help        Help about any command
	project     Create and query projects
	resource    Offer, accept and query resources
	version     Show version

Flags:

	    --debug              Log HTTP requests and responses
	-h, --help               help for go-planning
	    --timeout duration   Time limit for requests made by the HTTP client (default 40s)
	    --token string       Bearer token, issued by "auth login"
	    --url string         HTTP server URL

Use "go-planning [command] --help" for more information about a command.

Each flag can also be set via an environment variable, prefixed with GO_PLANNING_ - for example GO_PLANNING_URL.
*/
package main

import (
	"os"

	"github.com/gclaussn/go-planning/cli"
)

var (
	version = "unknown-version"
)

func main() {
	cli := cli.New(version)
	os.Exit(cli.Execute())
}
