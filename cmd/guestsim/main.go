// Command guestsim runs the guest executor inside an ordinary process, with a
// simulated or eventfd-backed host, a set of demo computations, and an
// optional Prometheus endpoint.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "guestsim",
		Usage: "Run guest computations on a simulated host",
		Commands: []*cli.Command{
			RunCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
