package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type removeCmd struct{}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "stop tracking a fund code" }
func (*removeCmd) Usage() string {
	return `jijin remove <code>

  Stops tracking a fund code. Removing an unknown code is not an error.
`
}

func (c *removeCmd) SetFlags(f *flag.FlagSet) {}

func (c *removeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	code := f.Arg(0)
	if code == "" {
		fmt.Fprintln(os.Stderr, "Error: a fund code is required.")
		return subcommands.ExitUsageError
	}

	store, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading store: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := store.Remove(code); err != nil {
		fmt.Fprintf(os.Stderr, "Error removing fund %s: %v\n", code, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Stopped tracking fund %s.\n", code)
	return subcommands.ExitSuccess
}
