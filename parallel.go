package duckdb

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// AllRowsParallel materializes every chunk of the result concurrently and
// concatenates the row tuples in chunk order. Chunk retrieval stays on the
// calling goroutine because the result handle is single-owner; each
// retrieved chunk is then decoded by exactly one worker. Worker count is
// capped at GOMAXPROCS. On any failure all partial output is discarded.
func (r *Result) AllRowsParallel(ctx context.Context) ([][]Value, error) {
	count, err := r.ChunkCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	chunks := make([]*DataChunk, count)
	for i := uint64(0); i < count; i++ {
		chunk, err := r.GetChunk(i)
		if err != nil {
			for _, c := range chunks[:i] {
				c.Destroy()
			}
			return nil, err
		}
		chunks[i] = chunk
	}

	perChunk := make([][][]Value, count)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range chunks {
		i := i
		g.Go(func() error {
			defer chunks[i].Destroy()
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := chunks[i].Rows()
			if err != nil {
				return err
			}
			perChunk[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, rows := range perChunk {
		total += len(rows)
	}
	out := make([][]Value, 0, total)
	for _, rows := range perChunk {
		out = append(out, rows...)
	}
	return out, nil
}
