package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
	"github.com/xiechanglei/xie-jijin/cmd"
)

func main() {
	// shell completion, a no-op outside of a completion request
	sub := make(map[string]*complete.Command, len(cmd.Commands))
	for _, c := range cmd.Commands {
		sub[c.Name()] = &complete.Command{}
	}
	cmp := &complete.Command{
		Sub: sub,
		Flags: map[string]complete.Predictor{
			"store": predict.Files("*.json"),
			"user":  predict.Nothing,
		},
	}
	cmp.Complete("jijin")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	// no subcommand after the flags defaults to the report, so both
	// `jijin` and `jijin -user bob` render it
	if flag.NArg() == 0 {
		flag.CommandLine.Parse([]string{"report"})
	}
	os.Exit(int(commander.Execute(context.Background())))
}
