package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	jijin "github.com/xiechanglei/xie-jijin"
	"github.com/xiechanglei/xie-jijin/eastmoney"
	"github.com/xiechanglei/xie-jijin/renderer"
)

type detailCmd struct {
	limit int
}

func (*detailCmd) Name() string     { return "detail" }
func (*detailCmd) Synopsis() string { return "print the stock holdings of a fund" }
func (*detailCmd) Usage() string {
	return `jijin detail [-n <count>] <code>

  Fetches the fund's disclosed stock positions and prints each stock
  with its live quote.
`
}

func (c *detailCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 0, "maximum number of stocks to show, 0 for all")
}

func (c *detailCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	code := f.Arg(0)
	if code == "" {
		fmt.Fprintln(os.Stderr, "Error: a fund code is required.")
		return subcommands.ExitUsageError
	}

	quotes, err := eastmoney.FetchFundStocks(ctx, jijin.NewClient(), code, c.limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching detail for fund %s: %v\n", code, err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.DetailMarkdown(code, quotes))
	return subcommands.ExitSuccess
}
