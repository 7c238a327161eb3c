package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// addCmd holds the flags for the 'add' subcommand.
type addCmd struct {
	money string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "track a fund code, optionally with an invested amount" }
func (*addCmd) Usage() string {
	return `jijin add [-m <amount>] <code>

  Tracks a fund code. With -m, the amount is converted into shares at the
  current base net value; adding an already tracked code overwrites its
  position.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.money, "m", "", "Invested amount to convert into shares")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	code := f.Arg(0)
	if code == "" {
		fmt.Fprintln(os.Stderr, "Error: a fund code is required.")
		return subcommands.ExitUsageError
	}

	money := decimal.Zero
	if c.money != "" {
		var err error
		money, err = decimal.NewFromString(c.money)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid amount %q: %v\n", c.money, err)
			return subcommands.ExitUsageError
		}
	}

	store, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading store: %v\n", err)
		return subcommands.ExitFailure
	}

	agg := NewAggregator(store)
	if err := store.Add(code, money, func(code string) (decimal.Decimal, error) {
		return agg.BaseValue(ctx, code)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error adding fund %s: %v\n", code, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Tracking fund %s.\n", code)
	return subcommands.ExitSuccess
}
