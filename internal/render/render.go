// Package render turns a composition into a video by cutting every match
// with the video tool and concatenating the pieces. Large compositions are
// rendered in batches so only one batch of clips exists at a time.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/supercut/internal/domain/batch"
	"github.com/forPelevin/supercut/internal/ports"
	"github.com/forPelevin/supercut/internal/types"
	"github.com/gofrs/flock"
)

type Options struct {
	Output string
	// WorkDir holds per-clip intermediates; defaults to the output directory.
	WorkDir   string
	BatchSize int
	Encode    ports.EncodeOptions
	Logger    *slog.Logger
}

// RenderError reports a failed batch. Batch is -1 for a non-batched render.
type RenderError struct {
	Batch  int
	Offset int
	Err    error
}

func (e *RenderError) Error() string {
	if e.Batch < 0 {
		return fmt.Sprintf("render: %v", e.Err)
	}
	return fmt.Sprintf("render batch %d (clips from %d): %v", e.Batch, e.Offset, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

var ErrLocked = errors.New("output is locked by another run")

type Renderer struct {
	video     ports.VideoTool
	opts      Options
	log       *slog.Logger
	durations map[string]time.Duration
}

func New(video ports.VideoTool, opts Options) *Renderer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = batch.DefaultSize
	}
	if opts.WorkDir == "" {
		opts.WorkDir = filepath.Dir(opts.Output)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Renderer{video: video, opts: opts, log: log, durations: make(map[string]time.Duration)}
}

// Render writes c to the configured output while holding an exclusive lock
// on it. Compositions larger than the batch size go through RenderBatches;
// anything else is rendered in one pass and any failure is fatal.
func (r *Renderer) Render(ctx context.Context, c types.Composition) (types.RenderReport, error) {
	lock := flock.New(r.opts.Output + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return types.RenderReport{}, fmt.Errorf("lock output: %w", err)
	}
	if !locked {
		return types.RenderReport{}, fmt.Errorf("%w: %s", ErrLocked, r.opts.Output)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	if len(c) > r.opts.BatchSize {
		r.log.Info("starting batch job", "clips", len(c), "batch_size", r.opts.BatchSize)
		return r.RenderBatches(ctx, c)
	}
	if err := r.RenderOne(ctx, c, r.opts.Output, "all"); err != nil {
		return types.RenderReport{Output: r.opts.Output, Batches: []types.BatchResult{{Batch: -1, Err: err}}},
			&RenderError{Batch: -1, Err: err}
	}
	return types.RenderReport{Output: r.opts.Output, Batches: []types.BatchResult{{Batch: -1, Output: r.opts.Output}}}, nil
}

// RenderOne cuts every clip of c and concatenates them, in order, into out.
// Intermediate clips are removed before returning.
func (r *Renderer) RenderOne(ctx context.Context, c types.Composition, out, tag string) error {
	if len(c) == 0 {
		return errors.New("nothing to render")
	}
	dir, err := os.MkdirTemp(r.opts.WorkDir, "supercut-"+tag+"-")
	if err != nil {
		return fmt.Errorf("create clip dir: %w", err)
	}
	defer os.RemoveAll(dir)

	r.log.Info("creating clips", "clips", len(c), "output", out)
	parts := make([]string, 0, len(c))
	for i, m := range c {
		if err := ctx.Err(); err != nil {
			return err
		}
		start, end := r.bounds(ctx, m)
		part := filepath.Join(dir, fmt.Sprintf("clip-%04d.mp4", i))
		r.log.Debug("cutting clip", "file", m.File, "start", start.Seconds(), "end", end.Seconds())
		if err := r.video.ExtractClip(ctx, m.File, start, end, part); err != nil {
			return fmt.Errorf("clip %d of %s: %w", i, m.File, err)
		}
		parts = append(parts, part)
	}

	r.log.Info("concatenating clips", "output", out)
	if err := r.video.Concat(ctx, parts, out, r.opts.Encode); err != nil {
		return err
	}
	return nil
}

// RenderBatches renders each batch to <output>.tmp<offset>.mp4, skipping
// batches that fail, then concatenates the survivors in batch order. The
// temporary files and stray *ogg.log files next to the output are removed
// afterwards. An error is returned only when no batch survived or the
// final concatenation failed; partial failures are in the report.
func (r *Renderer) RenderBatches(ctx context.Context, c types.Composition) (types.RenderReport, error) {
	report := types.RenderReport{Output: r.opts.Output}
	batches, err := batch.Plan(c, r.opts.BatchSize)
	if err != nil {
		return report, err
	}

	var done []string
	defer func() {
		for _, f := range done {
			if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
				r.log.Warn("could not remove temporary batch file", "file", f, "error", err)
			}
		}
	}()

	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		tmp := TempName(r.opts.Output, b.Offset)
		res := types.BatchResult{Batch: b.Index, Offset: b.Offset, Output: tmp}
		if err := r.RenderOne(ctx, b.Clips, tmp, "batch"+strconv.Itoa(b.Index)); err != nil {
			res.Err = &RenderError{Batch: b.Index, Offset: b.Offset, Err: err}
			r.log.Warn("skipping batch", "batch", b.Index, "offset", b.Offset, "error", err)
			_ = os.Remove(tmp)
		} else {
			done = append(done, tmp)
		}
		report.Batches = append(report.Batches, res)
	}

	if len(done) == 0 {
		return report, fmt.Errorf("render: all %d batches failed", len(batches))
	}
	if failed := report.Failed(); len(failed) > 0 {
		r.log.Warn("some batches were skipped", "failed", len(failed), "total", len(batches))
	}

	r.log.Info("writing output file", "output", r.opts.Output, "batches", len(done))
	if err := r.video.Concat(ctx, done, r.opts.Output, r.opts.Encode); err != nil {
		return report, &RenderError{Batch: -1, Err: fmt.Errorf("concatenate batches: %w", err)}
	}
	if err := SweepLogs(filepath.Dir(r.opts.Output)); err != nil {
		r.log.Warn("could not remove log files", "error", err)
	}
	return report, nil
}

// TempName is the intermediate file for the batch starting at offset.
func TempName(output string, offset int) string {
	return output + ".tmp" + strconv.Itoa(offset) + ".mp4"
}

// SweepLogs deletes *ogg.log files left in dir by the encoder.
func SweepLogs(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), "ogg.log") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// bounds converts a match to durations, clamping the padded end to the
// source length when the video tool can report it.
func (r *Renderer) bounds(ctx context.Context, m types.Match) (time.Duration, time.Duration) {
	start := seconds(m.Start)
	end := seconds(m.End)
	if start < 0 {
		start = 0
	}
	length, ok := r.durations[m.File]
	if !ok {
		d, err := r.video.ProbeDuration(ctx, m.File)
		if err != nil {
			r.log.Debug("probe duration failed", "file", m.File, "error", err)
		}
		length = d
		r.durations[m.File] = d
	}
	if length > 0 && end > length {
		end = length
	}
	return start, end
}

func seconds(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
