// Package batch runs an operation over many keys in independent chunks with
// bounded concurrency and per-chunk retries. A failed chunk never undoes the
// chunks that already succeeded; callers re-run the batch to finish the rest.
package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Options struct {
	Name        string
	ChunkSize   int
	Workers     int
	MaxAttempts int
	Backoff     time.Duration

	// Permanent reports errors that retrying cannot fix.
	Permanent func(error) bool
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 25
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	return o
}

type Failure struct {
	Keys []string
	Err  error
}

// Result counts keys, not chunks.
type Result struct {
	Total     int
	Succeeded int
	Failed    int
	Affected  int64
	Failures  []Failure
}

// ChunkFunc processes one chunk and returns the number of rows it changed.
type ChunkFunc func(ctx context.Context, keys []string) (int64, error)

// Chunk splits keys into slices of at most size elements.
func Chunk(keys []string, size int) [][]string {
	if size <= 0 {
		size = len(keys)
	}
	var chunks [][]string
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		chunks = append(chunks, keys[start:end])
	}
	return chunks
}

// Run executes fn for every chunk of keys. It returns after every chunk was
// attempted; failures are collected in the result.
func Run(ctx context.Context, keys []string, opts Options, fn ChunkFunc) Result {
	opts = opts.withDefaults()

	var (
		mu     sync.Mutex
		result = Result{Total: len(keys)}
		g      errgroup.Group
	)
	g.SetLimit(opts.Workers)

	for i, chunk := range Chunk(keys, opts.ChunkSize) {
		g.Go(func() error {
			affected, err := runChunk(ctx, chunk, opts, fn)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("Batch chunk failed",
					"batch", opts.Name,
					"chunk", i,
					"size", len(chunk),
					"error", err,
				)
				result.Failed += len(chunk)
				result.Failures = append(result.Failures, Failure{Keys: chunk, Err: err})
				return nil
			}
			result.Succeeded += len(chunk)
			result.Affected += affected
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("Batch finished",
		"batch", opts.Name,
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"affected", result.Affected,
	)

	return result
}

func runChunk(ctx context.Context, chunk []string, opts Options, fn ChunkFunc) (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		affected, err := fn(ctx, chunk)
		if err == nil {
			return affected, nil
		}
		lastErr = err

		if opts.Permanent != nil && opts.Permanent(err) {
			return 0, err
		}
		if attempt == opts.MaxAttempts {
			break
		}

		slog.Debug("Retrying batch chunk", "batch", opts.Name, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Duration(attempt) * opts.Backoff):
		}
	}
	return 0, lastErr
}
