// Package extract turns collections of raw trace files into per-day
// observation files. Parsing runs on a bounded worker pool; rows are
// accumulated into fixed-size batches and flushed to a columnar sink to
// bound peak memory.
package extract

import (
	"context"
	"log"
	"sync"

	"github.com/planequery/adsbcompact/internal/errors"
	"github.com/planequery/adsbcompact/pkg/types"
)

// Parser parses a single trace file into observation rows. Implementations
// are external to the pipeline; a failure applies to that file only.
type Parser interface {
	Parse(ctx context.Context, location string) ([]types.Observation, error)
}

// Sink receives flushed observation batches. Any sink error aborts the unit.
type Sink interface {
	Append(ctx context.Context, observations []types.Observation) error
}

// Stats summarizes one extraction run.
type Stats struct {
	// Rows is the total number of observations flushed to the sink.
	Rows int64
	// Parsed is the number of trace files parsed successfully.
	Parsed int
	// Failed is the number of trace files skipped due to parse errors.
	Failed int
}

// Extractor coordinates parallel trace-file parsing.
type Extractor struct {
	parser    Parser
	workers   int
	batchRows int
}

// New creates an extractor. workers bounds parse parallelism; batchRows is
// the row-count threshold that triggers a sink flush.
func New(parser Parser, workers, batchRows int) *Extractor {
	if workers <= 0 {
		workers = 1
	}
	if batchRows <= 0 {
		batchRows = 100_000
	}
	return &Extractor{parser: parser, workers: workers, batchRows: batchRows}
}

type parseResult struct {
	location string
	rows     []types.Observation
	err      error
}

// Run parses all locations and flushes the resulting observations to sink.
// A single fixed-size pool consumes a bounded job queue for the whole run;
// results stream back over a channel to a single collector, so the sink is
// never called concurrently. Per-file parse failures are logged and
// skipped; a sink failure aborts the run.
func (e *Extractor) Run(ctx context.Context, locations []string, sink Sink) (Stats, error) {
	var stats Stats
	if len(locations) == 0 {
		return stats, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string, e.workers*2)
	results := make(chan parseResult, e.workers)

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for location := range jobs {
				rows, err := e.parser.Parse(ctx, location)
				select {
				case results <- parseResult{location: location, rows: rows, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, location := range locations {
			select {
			case jobs <- location:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var buf []types.Observation
	for res := range results {
		if res.err != nil {
			log.Printf("extract: skipping %s: %v", res.location, res.err)
			stats.Failed++
			continue
		}
		stats.Parsed++
		buf = append(buf, res.rows...)

		if len(buf) >= e.batchRows {
			if err := sink.Append(ctx, buf); err != nil {
				cancel()
				for range results {
					// Drain so workers can exit
				}
				return stats, errors.NewExtractError(errors.CodeSinkFailed,
					"failed to flush observation batch", err)
			}
			stats.Rows += int64(len(buf))
			// Drop the buffer so the backing array is reclaimable
			buf = nil
		}
	}

	if len(buf) > 0 {
		if err := sink.Append(ctx, buf); err != nil {
			return stats, errors.NewExtractError(errors.CodeSinkFailed,
				"failed to flush final observation batch", err)
		}
		stats.Rows += int64(len(buf))
	}

	return stats, nil
}
