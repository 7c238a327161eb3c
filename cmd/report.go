package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/xiechanglei/xie-jijin/renderer"
)

type reportCmd struct{}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "print the live valuation report of all tracked funds" }
func (*reportCmd) Usage() string {
	return `jijin report

  Fetches the latest valuation of every tracked fund and prints a
  table sorted by descending share count. This is the default command.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading store: %v\n", err)
		return subcommands.ExitFailure
	}
	if store.Len() == 0 {
		fmt.Println("No funds tracked yet. Use 'jijin add -m <amount> <code>' to start.")
		return subcommands.ExitSuccess
	}

	agg := NewAggregator(store)
	records := agg.Batch(ctx, store.Holdings())
	printMarkdown(renderer.ReportMarkdown(records))
	return subcommands.ExitSuccess
}
