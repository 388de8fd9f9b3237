package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sanonone/readgraph/pkg/pack"
)

func newPackCmd(c *cli) *cobra.Command {
	in := pack.Inputs{}
	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Serialize reads and precomputed alignments into a data directory",
		Long: `pack writes the binary stores read by the other commands.

The alignments file has one alignment per line:

  readId0  readId1  sameStrand(0|1)  markerCount  offset  overlap

Read ids follow FASTA order starting at 0. Lines starting with '#' are ignored.
The --chimeric and --palindromic files list one read id per line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := pack.Pack(c.cfg.DataDir, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Packed %d reads (%d bases) and %d alignments into %s\n",
				res.Reads, res.Bases, res.Alignments, c.cfg.DataDir)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&in.Fasta, "fasta", "", "reads in FASTA format")
	fl.StringVar(&in.Alignments, "alignments", "", "alignments as whitespace-separated columns")
	fl.StringVar(&in.Chimeric, "chimeric", "", "ids of chimeric reads")
	fl.StringVar(&in.Palindromic, "palindromic", "", "ids of palindromic reads")
	for _, name := range []string{"fasta", "alignments"} {
		cobra.CheckErr(cmd.MarkFlagRequired(name))
	}
	return cmd
}
