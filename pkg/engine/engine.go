// Package engine provides the high-level interface for read graph queries.
//
// It owns the read-only Sequence and Alignment stores of one data directory
// and runs local read graph extractions against them. An Engine holds no
// mutable state after Open, so any number of goroutines may query it.
//
// Basic usage:
//
//	eng, err := engine.Open(ctx, engine.DefaultOptions("./data"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	sum, err := eng.WriteLocalReadGraphReads(ctx, engine.Query{ReadID: 12, MaxDistance: 2}, "LocalReadGraph.fasta")
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sanonone/readgraph/pkg/core/types"
	"github.com/sanonone/readgraph/pkg/metrics"
	"github.com/sanonone/readgraph/pkg/readgraph"
	"github.com/sanonone/readgraph/pkg/store/alignments"
	"github.com/sanonone/readgraph/pkg/store/reads"
)

// Options configures an Engine.
type Options struct {
	// DataDir holds ReadSequences.bin, ReadFlags.bin, AlignmentData.bin and
	// optionally ReadNames.bin and AlignmentTable.bin.
	DataDir string

	// LineWidth wraps output sequences. 0 writes each sequence on one line.
	LineWidth int

	// MaxVertices caps every extraction. 0 means no limit.
	MaxVertices int
}

// DefaultOptions returns unlimited extractions with single-line sequences.
func DefaultOptions(dataDir string) Options {
	return Options{
		DataDir:     dataDir,
		LineWidth:   0,
		MaxVertices: 0,
	}
}

// Engine is the main entry point. Use Open to create one and Close to
// release the mapped stores.
type Engine struct {
	opts Options

	reads     *reads.Store
	aligns    *alignments.Store
	extractor *readgraph.Extractor

	closeOnce sync.Once
	closeErr  error
}

// Open maps both stores of opts.DataDir in parallel and checks that they
// describe the same reads.
func Open(ctx context.Context, opts Options) (*Engine, error) {
	if opts.DataDir == "" {
		return nil, fmt.Errorf("data directory not set: %w", types.ErrInvalidArgument)
	}
	if opts.LineWidth < 0 || opts.MaxVertices < 0 {
		return nil, fmt.Errorf("line width %d and max vertices %d must not be negative: %w",
			opts.LineWidth, opts.MaxVertices, types.ErrInvalidArgument)
	}

	e := &Engine{opts: opts}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		s, err := reads.Open(opts.DataDir)
		if err != nil {
			return fmt.Errorf("sequence store: %w", err)
		}
		e.reads = s
		metrics.StoreOpenDuration.WithLabelValues("reads").Observe(time.Since(start).Seconds())
		return gctx.Err()
	})
	g.Go(func() error {
		start := time.Now()
		s, err := alignments.Open(opts.DataDir)
		if err != nil {
			return fmt.Errorf("alignment store: %w", err)
		}
		e.aligns = s
		metrics.StoreOpenDuration.WithLabelValues("alignments").Observe(time.Since(start).Seconds())
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		e.Close()
		return nil, err
	}

	if rc, ac := e.reads.ReadCount(), e.aligns.ReadCount(); rc != ac {
		e.Close()
		return nil, fmt.Errorf("sequence store has %d reads but alignments were computed over %d: %w",
			rc, ac, types.ErrStorageUnavailable)
	}

	e.extractor = readgraph.NewExtractor(e.reads, e.aligns)
	metrics.StoreReads.Set(float64(e.reads.ReadCount()))

	slog.Info("Stores opened",
		"dir", opts.DataDir,
		"reads", e.reads.ReadCount(),
		"alignments", e.aligns.AlignmentCount(),
		"tableBuiltInMemory", e.aligns.TableBuiltInMemory())
	return e, nil
}

// Close unmaps both stores. It is safe to call more than once; later calls
// return the result of the first.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		var errs []error
		if e.reads != nil {
			errs = append(errs, e.reads.Close())
		}
		if e.aligns != nil {
			errs = append(errs, e.aligns.Close())
		}
		e.closeErr = errors.Join(errs...)
	})
	return e.closeErr
}

// Info describes the open stores.
type Info struct {
	DataDir            string
	ReadCount          uint32
	TotalBases         uint64
	ChimericCount      uint32
	PalindromicCount   uint32
	AlignmentCount     uint32
	TableBuiltInMemory bool
}

// Info returns store-level counts.
func (e *Engine) Info() Info {
	st := e.reads.Stats()
	return Info{
		DataDir:            e.opts.DataDir,
		ReadCount:          st.ReadCount,
		TotalBases:         st.TotalBases,
		ChimericCount:      st.ChimericCount,
		PalindromicCount:   st.PalindromicCount,
		AlignmentCount:     e.aligns.AlignmentCount(),
		TableBuiltInMemory: e.aligns.TableBuiltInMemory(),
	}
}

// Reads exposes the sequence store for callers that export graphs themselves.
func (e *Engine) Reads() readgraph.ReadSource { return e.reads }
