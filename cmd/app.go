// Package cmd implements the CLI application to track fund holdings.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	jijin "github.com/xiechanglei/xie-jijin"
	"github.com/xiechanglei/xie-jijin/dayfund"
	"github.com/xiechanglei/xie-jijin/eastmoney"
	"github.com/xiechanglei/xie-jijin/sina"
)

// Commands lists all subcommands of the application. A main package
// registers them all and executes the user-selected one.
var Commands = []subcommands.Command{
	&addCmd{},
	&removeCmd{},
	&setCmd{},
	&setSharesCmd{},
	&reportCmd{},
	&detailCmd{},
	&serveCmd{},
	&topicCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var storeFile = flag.String("store", "", "Path to the holdings store file. Overrides -user.")
var userLabel = flag.String("user", "", "Identity label; selects ~/.xie_jijin.<label>.json")

// StorePath resolves the holdings store file from the global flags.
func StorePath() string {
	if *storeFile != "" {
		return *storeFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	name := ".xie_jijin.json"
	if *userLabel != "" {
		name = ".xie_jijin." + *userLabel + ".json"
	}
	return filepath.Join(home, name)
}

// OpenStore is the central function to open the holdings store.
func OpenStore() (*jijin.Store, error) {
	return jijin.OpenStore(StorePath())
}

// NewAggregator wires the quote source chain in its fixed priority order:
// eastmoney first, then dayfund, then sina. The store, when given, provides
// the day-scoped history cache and receives the lazy share repairs.
func NewAggregator(store *jijin.Store) *jijin.Aggregator {
	client := jijin.NewClient()
	df := dayfund.New(client)
	agg := jijin.NewAggregator(df, eastmoney.New(client), df, sina.New(client))
	if store != nil {
		agg.Cache = store
		agg.Repairer = store
	}
	return agg
}

// printMarkdown renders a markdown document to the terminal.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		// fall back to the raw markdown, still perfectly readable
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}
