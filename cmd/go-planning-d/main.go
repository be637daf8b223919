/*
go-planning-d is a daemon, running the project planning HTTP API in front of a Bonita server.

Projects, resources and users are stored in PostgreSQL, if GO_PLANNING_DATABASE_URL is set, or in memory otherwise.

Usage:

	-config string
		read in a YAML configuration file
	-create-jwt-key
		create a new JWT key - used for GO_PLANNING_JWT_KEY
	-env value
		set environment variables
	-list-conf
		list configuration
	-list-conf-opts
		list configuration options
	-version
		show version
*/
package main

import (
	"log"
	"os"

	"github.com/gclaussn/go-planning/daemon"
)

func main() {
	log.SetOutput(os.Stdout)

	code := daemon.Run(os.Args[1:])
	os.Exit(code)
}
