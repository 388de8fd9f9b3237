package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sanonone/readgraph/pkg/core/types"
	"github.com/sanonone/readgraph/pkg/engine"
	"github.com/sanonone/readgraph/pkg/readgraph"
)

type localReadsFlags struct {
	readID             uint32
	strand             uint32
	maxDistance        uint32
	allowChimericReads bool
	chimericPolicy     string
	output             string
	lineWidth          int
}

func newLocalReadsCmd(c *cli) *cobra.Command {
	f := &localReadsFlags{}
	cmd := &cobra.Command{
		Use:   "local-reads",
		Short: "Write the reads within a distance of a seed oriented read as FASTA",
		Long: `local-reads runs a breadth-first search of the read graph from one
oriented read and writes the sequences of every oriented read reached within
--maxDistance hops. Strand 1 reads are written reverse complemented.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocalReads(cmd, c, f)
		},
	}

	fl := cmd.Flags()
	fl.Uint32Var(&f.readID, "readId", 0, "seed read id")
	fl.Uint32Var(&f.strand, "strand", 0, "seed strand, 0 or 1")
	fl.Uint32Var(&f.maxDistance, "maxDistance", 0, "search radius in alignments; 0 writes the seed only")
	fl.BoolVar(&f.allowChimericReads, "allowChimericReads", false, "let chimeric reads take part in the search")
	fl.StringVar(&f.chimericPolicy, "chimericPolicy", "", "exclude or dead-end; how disallowed chimeric reads are treated")
	fl.StringVarP(&f.output, "output", "o", "", "output FASTA file (default \"LocalReadGraph.fasta\")")
	fl.IntVar(&f.lineWidth, "line-width", 0, "wrap sequences at this width; 0 keeps one line per sequence")
	for _, name := range []string{"readId", "strand", "maxDistance"} {
		cobra.CheckErr(cmd.MarkFlagRequired(name))
	}
	return cmd
}

func runLocalReads(cmd *cobra.Command, c *cli, f *localReadsFlags) error {
	if err := types.Strand(f.strand).Validate(); err != nil {
		return err
	}

	cfg := c.cfg
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = f.output
	}
	if flags.Changed("line-width") {
		cfg.LineWidth = f.lineWidth
	}
	if flags.Changed("allowChimericReads") {
		cfg.Query.AllowChimericReads = f.allowChimericReads
	}
	if flags.Changed("chimericPolicy") {
		cfg.Query.ChimericPolicy = f.chimericPolicy
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	policy, err := readgraph.ParseChimericPolicy(cfg.Query.ChimericPolicy)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	eng, err := engine.Open(ctx, cfg.EngineOptions())
	if err != nil {
		return err
	}
	defer eng.Close()

	sum, err := eng.WriteLocalReadGraphReads(ctx, engine.Query{
		ReadID:             f.readID,
		Strand:             f.strand,
		MaxDistance:        int(f.maxDistance),
		AllowChimericReads: cfg.Query.AllowChimericReads,
		ChimericPolicy:     policy,
	}, cfg.Output)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d oriented reads (%d bases, %d alignments) around %s to %s\n",
		sum.Vertices, sum.Bases, sum.Edges, sum.Seed, sum.Output)
	return nil
}
