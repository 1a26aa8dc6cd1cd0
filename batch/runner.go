package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/openclaw/instantqr/generator"
)

// Renderer produces the documents for one request without side effects.
// *generator.Service implements it.
type Renderer interface {
	Render(ctx context.Context, req generator.Request) (*generator.Result, error)
}

// Runner generates QR codes for many values on a pool of workers.
type Runner struct {
	Renderer Renderer
	// Workers is the pool size; values below 1 mean one worker.
	Workers int
	// MaxValues rejects larger batches; 0 means unlimited.
	MaxValues int
	Log       *slog.Logger
	Now       func() time.Time
}

// NewRunner returns a Runner with the given pool size and limit.
func NewRunner(r Renderer, workers, maxValues int, log *slog.Logger) *Runner {
	return &Runner{
		Renderer:  r,
		Workers:   workers,
		MaxValues: maxValues,
		Log:       log,
		Now:       time.Now,
	}
}

// TooManyValuesError is returned when a batch exceeds MaxValues.
type TooManyValuesError struct {
	Count, Max int
}

func (e *TooManyValuesError) Error() string {
	return fmt.Sprintf("batch: %d values exceed the limit of %d", e.Count, e.Max)
}

type outcome struct {
	result *generator.Result
	err    error
}

// Run generates one QR code per value using tmpl for everything but the
// text. A value that fails to generate is recorded in the archive's
// failures and does not stop the batch. Run returns an error only for an
// empty or oversized batch and for a cancelled context.
func (r *Runner) Run(ctx context.Context, values []Value, tmpl generator.Request) (*Archive, error) {
	if len(values) == 0 {
		return nil, ErrNoValues
	}
	if r.MaxValues > 0 && len(values) > r.MaxValues {
		return nil, &TooManyValuesError{Count: len(values), Max: r.MaxValues}
	}

	workers := max(1, r.Workers)
	workers = min(workers, len(values))

	started := r.now()
	outcomes := make([]outcome, len(values))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				req := tmpl
				req.Text = values[i].Text
				res, err := r.Renderer.Render(ctx, req)
				outcomes[i] = outcome{result: res, err: err}
			}
		}()
	}

dispatch:
	for i := range values {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	archive := newArchive(started)
	for i, o := range outcomes {
		if o.err != nil {
			r.logger().Warn("batch value failed", "line", values[i].Line, "error", o.err)
			archive.addFailure(values[i], o.err)
			continue
		}
		archive.addItem(values[i], o.result)
	}

	r.logger().Info("batch generated",
		"values", len(values),
		"generated", len(archive.Items),
		"failed", len(archive.Failures),
		"workers", workers,
		"size", humanize.Bytes(uint64(archive.Size())),
		"took", r.now().Sub(started).Truncate(time.Millisecond),
	)
	return archive, nil
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Runner) logger() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}
