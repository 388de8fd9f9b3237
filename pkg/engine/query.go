package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sanonone/readgraph/pkg/core/types"
	"github.com/sanonone/readgraph/pkg/metrics"
	"github.com/sanonone/readgraph/pkg/readgraph"
)

// Query selects the seed oriented read and the traversal radius.
type Query struct {
	ReadID             uint32
	Strand             uint32
	MaxDistance        int
	AllowChimericReads bool
	ChimericPolicy     readgraph.ChimericPolicy
}

func (q Query) options(maxVertices int) readgraph.Options {
	return readgraph.Options{
		MaxDistance:        q.MaxDistance,
		AllowChimericReads: q.AllowChimericReads,
		ChimericPolicy:     q.ChimericPolicy,
		MaxVertices:        maxVertices,
	}
}

// Summary reports what a query produced.
type Summary struct {
	QueryID  string
	Seed     types.OrientedReadID
	Vertices int
	Edges    int
	Bases    int64
	Output   string
	Elapsed  time.Duration
}

// LocalReadGraph extracts the local graph around the query seed.
func (e *Engine) LocalReadGraph(ctx context.Context, q Query) (*readgraph.LocalReadGraph, error) {
	return e.extractor.Extract(ctx, types.ReadID(q.ReadID), types.Strand(q.Strand), q.options(e.opts.MaxVertices))
}

// WriteLocalReadGraphReads extracts the local graph around the query seed and
// writes the sequences of its oriented reads to outputPath as FASTA.
//
// The file is created or replaced atomically; on failure no file is left at
// outputPath and a previous file there is untouched.
func (e *Engine) WriteLocalReadGraphReads(ctx context.Context, q Query, outputPath string) (Summary, error) {
	start := time.Now()
	sum := Summary{QueryID: uuid.NewString(), Output: outputPath}
	log := slog.With("query", sum.QueryID)

	log.Info("Local read graph query started",
		"readId", q.ReadID,
		"strand", q.Strand,
		"maxDistance", q.MaxDistance,
		"allowChimericReads", q.AllowChimericReads,
		"chimericPolicy", q.ChimericPolicy)

	err := e.writeLocalReadGraphReads(ctx, q, outputPath, &sum)
	sum.Elapsed = time.Since(start)

	metrics.ExtractionDuration.Observe(sum.Elapsed.Seconds())
	metrics.ExtractionsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		log.Error("Local read graph query failed", "error", err, "elapsed", sum.Elapsed)
		return Summary{}, err
	}
	metrics.ExtractionVertices.Observe(float64(sum.Vertices))

	log.Info("Local read graph written",
		"seed", sum.Seed,
		"vertices", sum.Vertices,
		"edges", sum.Edges,
		"bases", sum.Bases,
		"output", outputPath,
		"elapsed", sum.Elapsed)
	return sum, nil
}

func (e *Engine) writeLocalReadGraphReads(ctx context.Context, q Query, outputPath string, sum *Summary) error {
	if outputPath == "" {
		return fmt.Errorf("output path not set: %w", types.ErrInvalidArgument)
	}
	g, err := e.LocalReadGraph(ctx, q)
	if err != nil {
		return err
	}
	sum.Seed = g.Seed
	sum.Vertices = g.VertexCount()
	sum.Edges = len(g.Edges())

	return writeAtomic(outputPath, func(w io.Writer) error {
		stats, err := readgraph.Export(w, g, e.reads, readgraph.ExportOptions{LineWidth: e.opts.LineWidth})
		if err != nil {
			return err
		}
		sum.Bases = stats.Bases
		return nil
	})
}

// outcome maps an error to the metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, types.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, types.ErrInvalidArgument):
		return metrics.OutcomeInvalidArgument
	case errors.Is(err, types.ErrStorageUnavailable):
		return metrics.OutcomeUnavailable
	case errors.Is(err, types.ErrLimitExceeded):
		return metrics.OutcomeLimitExceeded
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	}
	return metrics.OutcomeError
}
