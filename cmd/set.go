package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type setCmd struct {
	amount string
}

func (*setCmd) Name() string     { return "set" }
func (*setCmd) Synopsis() string { return "set the invested amount of a tracked fund" }
func (*setCmd) Usage() string {
	return `jijin set -m <amount> <code>

  Replaces the invested amount of an already tracked fund. Shares are
  derived again from the fund's latest unit value.
`
}

func (c *setCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "m", "", "invested amount of money, in CNY")
}

func (c *setCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	code := f.Arg(0)
	if code == "" {
		fmt.Fprintln(os.Stderr, "Error: a fund code is required.")
		return subcommands.ExitUsageError
	}
	if c.amount == "" {
		fmt.Fprintln(os.Stderr, "Error: -m <amount> is required.")
		return subcommands.ExitUsageError
	}
	money, err := decimal.NewFromString(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid amount %q: %v\n", c.amount, err)
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

	agg := NewAggregator(store)
	err = store.SetMoney(code, money, func(code string) (decimal.Decimal, error) {
		return agg.BaseValue(ctx, code)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting amount for fund %s: %v\n", code, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Updated fund %s.\n", code)
	return subcommands.ExitSuccess
}
