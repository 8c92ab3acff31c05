package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"go-peopleflow/internal/region"
)

// NewRegionCommand creates the region command.
func NewRegionCommand() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:     "region [office...]",
		Short:   "Show the prefecture and macro-region of license-plate offices",
		Example: "  peopleflow region 福井 金沢 品川\n  peopleflow region --list",
		RunE: func(cmd *cobra.Command, args []string) error {
			offices := args
			if list {
				offices = region.Offices()
			}
			if len(offices) == 0 {
				return fmt.Errorf("name at least one office or pass --list")
			}

			tbl := newTable()
			tbl.AppendHeader(table.Row{"office", "prefecture", "region"})
			unknown := 0
			for _, o := range offices {
				c := region.Classify(o)
				if !c.Known {
					unknown++
				}
				tbl.AppendRow(table.Row{c.Office, c.Prefecture, c.Region})
			}
			if unknown > 0 {
				tbl.AppendFooter(table.Row{fmt.Sprintf("%d unknown", unknown), "", ""})
			}
			fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list every known office")
	return cmd
}
