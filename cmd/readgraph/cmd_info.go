package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sanonone/readgraph/pkg/engine"
)

func newInfoCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print read and alignment counts of the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := engine.Open(cmd.Context(), c.cfg.EngineOptions())
			if err != nil {
				return err
			}
			defer eng.Close()

			info := eng.Info()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Data directory:\t%s\n", info.DataDir)
			fmt.Fprintf(tw, "Reads:\t%d\n", info.ReadCount)
			fmt.Fprintf(tw, "Bases:\t%d\n", info.TotalBases)
			fmt.Fprintf(tw, "Chimeric reads:\t%d\n", info.ChimericCount)
			fmt.Fprintf(tw, "Palindromic reads:\t%d\n", info.PalindromicCount)
			fmt.Fprintf(tw, "Alignments:\t%d\n", info.AlignmentCount)
			fmt.Fprintf(tw, "Alignment table:\t%s\n", tableSource(info.TableBuiltInMemory))
			return tw.Flush()
		},
	}
}

func tableSource(builtInMemory bool) string {
	if builtInMemory {
		return "built in memory"
	}
	return "on disk"
}
