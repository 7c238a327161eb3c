package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/xiechanglei/xie-jijin/server"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the local web UI and API" }
func (*serveCmd) Usage() string {
	return `jijin serve [-addr <host:port>]

  Starts a local HTTP server exposing the fund report as a web page
  and a small JSON API over the same holdings store.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "127.0.0.1:8090", "listen address of the web server")
}

func (c *serveCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading store: %v\n", err)
		return subcommands.ExitFailure
	}

	srv, err := server.New(store, NewAggregator(store))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting server: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Serving on http://%s\n", c.addr)
	if err := srv.Run(c.addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
