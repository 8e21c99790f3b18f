package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/supercut/internal/ports"
	"github.com/forPelevin/supercut/internal/types"
	"github.com/gofrs/flock"
)

// fakeVideoTool writes each clip as "file@start-end" and concatenation as
// the newline-joined contents of its parts, so output order is observable.
type fakeVideoTool struct {
	failFile  string
	durations map[string]time.Duration
	probes    int
	concats   [][]string
	lastOpts  ports.EncodeOptions
}

func (f *fakeVideoTool) ExtractAudioMono16k(context.Context, string, string) error { return nil }

func (f *fakeVideoTool) ExtractClip(_ context.Context, in string, start, end time.Duration, out string) error {
	if in == f.failFile {
		return errors.New("decode error")
	}
	body := fmt.Sprintf("%s@%.2f-%.2f", in, start.Seconds(), end.Seconds())
	return os.WriteFile(out, []byte(body), 0o644)
}

func (f *fakeVideoTool) Concat(_ context.Context, parts []string, out string, opts ports.EncodeOptions) error {
	f.concats = append(f.concats, append([]string(nil), parts...))
	f.lastOpts = opts
	var chunks []string
	for _, p := range parts {
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		chunks = append(chunks, string(b))
	}
	return os.WriteFile(out, []byte(strings.Join(chunks, "\n")), 0o644)
}

func (f *fakeVideoTool) ProbeDuration(_ context.Context, in string) (time.Duration, error) {
	f.probes++
	if d, ok := f.durations[in]; ok {
		return d, nil
	}
	return 0, errors.New("unknown file")
}

func clips(files ...string) types.Composition {
	var c types.Composition
	for i, f := range files {
		c = append(c, types.Match{File: f, Start: float64(i), End: float64(i) + 1})
	}
	return c
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(string(b), "\n")
}

func TestRender_SinglePass(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "super.mp4")
	video := &fakeVideoTool{durations: map[string]time.Duration{"a.mp4": 90 * time.Second}}
	enc := ports.EncodeOptions{VideoCodec: "libx264", AudioCodec: "aac", TempAudioFile: "temp-audio.m4a", RemoveTemp: true}
	r := New(video, Options{Output: out, BatchSize: 5, Encode: enc})

	report, err := r.Render(context.Background(), clips("a.mp4", "a.mp4", "a.mp4"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(report.Batches) != 1 || report.Batches[0].Err != nil {
		t.Fatalf("unexpected report: %#v", report)
	}
	lines := readLines(t, out)
	want := []string{"a.mp4@0.00-1.00", "a.mp4@1.00-2.00", "a.mp4@2.00-3.00"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected output order: %v", lines)
	}
	if video.probes != 1 {
		t.Fatalf("expected duration to be probed once per file, got %d", video.probes)
	}
	if video.lastOpts != enc {
		t.Fatalf("encode options not passed through: %#v", video.lastOpts)
	}
	assertNoLeftovers(t, dir, "super.mp4")
}

func TestRender_SingleFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "super.mp4")
	r := New(&fakeVideoTool{failFile: "bad.mp4"}, Options{Output: out, BatchSize: 5})

	_, err := r.Render(context.Background(), clips("a.mp4", "bad.mp4"))
	var re *RenderError
	if !errors.As(err, &re) || re.Batch != -1 {
		t.Fatalf("expected non-batched RenderError, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("expected no output file")
	}
}

func TestRender_BatchesSkipFailures(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "super.mp4")
	if err := os.WriteFile(filepath.Join(dir, "x.ogg.log"), []byte("log"), 0o644); err != nil {
		t.Fatal(err)
	}
	video := &fakeVideoTool{failFile: "bad.mp4"}
	r := New(video, Options{Output: out, BatchSize: 2})

	// batches: [a a] [bad b] [c]
	report, err := r.Render(context.Background(), clips("a.mp4", "a.mp4", "bad.mp4", "b.mp4", "c.mp4"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(report.Batches) != 3 || report.Succeeded() != 2 {
		t.Fatalf("unexpected report: %#v", report)
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].Batch != 1 || failed[0].Offset != 2 {
		t.Fatalf("unexpected failures: %#v", failed)
	}
	var re *RenderError
	if !errors.As(failed[0].Err, &re) || re.Batch != 1 {
		t.Fatalf("expected RenderError in report, got %v", failed[0].Err)
	}

	final := video.concats[len(video.concats)-1]
	if len(final) != 2 || final[0] != TempName(out, 0) || final[1] != TempName(out, 4) {
		t.Fatalf("unexpected final concat inputs: %v", final)
	}
	lines := readLines(t, out)
	if len(lines) != 3 || !strings.HasPrefix(lines[2], "c.mp4@") {
		t.Fatalf("unexpected final output: %v", lines)
	}
	assertNoLeftovers(t, dir, "super.mp4")
}

func TestRender_AllBatchesFail(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "super.mp4")
	r := New(&fakeVideoTool{failFile: "bad.mp4"}, Options{Output: out, BatchSize: 1})

	report, err := r.Render(context.Background(), clips("bad.mp4", "bad.mp4"))
	if err == nil {
		t.Fatalf("expected error when every batch fails")
	}
	if len(report.Failed()) != 2 {
		t.Fatalf("expected 2 failed batches, got %#v", report)
	}
}

func TestRender_Locked(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "super.mp4")
	r := New(&fakeVideoTool{}, Options{Output: out})

	held := flock.New(out + ".lock")
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("could not take test lock: %v", err)
	}
	defer held.Unlock()

	if _, err := r.Render(context.Background(), clips("a.mp4")); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestBounds_ClampsToDuration(t *testing.T) {
	video := &fakeVideoTool{durations: map[string]time.Duration{"a.mp4": 10 * time.Second}}
	r := New(video, Options{Output: "out.mp4"})
	start, end := r.bounds(context.Background(), types.Match{File: "a.mp4", Start: -0.5, End: 12})
	if start != 0 || end != 10*time.Second {
		t.Fatalf("unexpected bounds: %s-%s", start, end)
	}
	_, end = r.bounds(context.Background(), types.Match{File: "unknown.mp4", Start: 1, End: 12})
	if end != 12*time.Second {
		t.Fatalf("unprobed files must keep their end, got %s", end)
	}
}

func TestTempName(t *testing.T) {
	if got := TempName("/out/super.mp4", 40); got != "/out/super.mp4.tmp40.mp4" {
		t.Fatalf("unexpected temp name: %s", got)
	}
}

func assertNoLeftovers(t *testing.T, dir string, keep string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != keep {
			t.Fatalf("unexpected leftover %s", e.Name())
		}
	}
}
