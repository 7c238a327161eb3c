package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type setSharesCmd struct{}

func (*setSharesCmd) Name() string     { return "set-shares" }
func (*setSharesCmd) Synopsis() string { return "set the share count of a tracked fund" }
func (*setSharesCmd) Usage() string {
	return `jijin set-shares <code> <shares>

  Sets the exact share count of an already tracked fund. The invested
  amount is cleared since shares are now authoritative.
`
}

func (c *setSharesCmd) SetFlags(f *flag.FlagSet) {}

func (c *setSharesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	code := f.Arg(0)
	if code == "" {
		fmt.Fprintln(os.Stderr, "Error: a fund code is required.")
		return subcommands.ExitUsageError
	}
	raw := f.Arg(1)
	if raw == "" {
		fmt.Fprintln(os.Stderr, "Error: a share count is required.")
		return subcommands.ExitUsageError
	}
	shares, err := decimal.NewFromString(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid share count %q: %v\n", raw, err)
		return subcommands.ExitUsageError
	}

	store, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading store: %v\n", err)
		return subcommands.ExitFailure
	}
	if !store.Has(code) {
		fmt.Fprintf(os.Stderr, "Error: fund %s is not tracked. Use 'jijin add' first.\n", code)
		return subcommands.ExitUsageError
	}

	if err := store.SetShares(code, shares); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting shares for fund %s: %v\n", code, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Updated fund %s.\n", code)
	return subcommands.ExitSuccess
}
