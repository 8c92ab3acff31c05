package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go-peopleflow/cmd/peopleflow/commands"
)

func main() {
	opts := &commands.Options{}
	root := &cobra.Command{
		Use:           "peopleflow",
		Short:         "Aggregate people-flow counts from AI cameras",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.AddFlags(root)
	root.AddCommand(
		commands.NewAggregateCommand(opts),
		commands.NewHolidaysCommand(opts),
		commands.NewRegionCommand(),
		commands.NewServeCommand(opts),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
