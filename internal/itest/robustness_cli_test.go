//go:build integration

package itest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

const cliTimeout = 30 * time.Second

type robustCase struct {
	name            string
	args            func(t *testing.T, repoRoot string) []string
	env             map[string]string
	wantContains    []string
	wantNotContains []string
}

type cliRunResult struct {
	exitCode int
	output   string
}

func TestRobustness_ArgsValidation(t *testing.T) {
	repoRoot := mustRepoRoot(t)
	fx := newFixtures(t)

	cases := []robustCase{
		{
			name: "no args",
			args: staticArgs(),
			wantContains: []string{
				"--input is required",
			},
		},
		{
			name: "no search",
			args: staticArgs("-i", fx.video),
			wantContains: []string{
				"--search is required",
			},
		},
		{
			name: "positional arg",
			args: staticArgs(fx.video),
			wantContains: []string{
				`unknown command "` + fx.video + `"`,
			},
		},
		{
			name: "unknown flag",
			args: staticArgs("-i", fx.video, "--wat"),
			wantContains: []string{
				"unknown flag: --wat",
			},
		},
		{
			name: "max clips non int",
			args: staticArgs("-i", fx.video, "-s", "cat", "--max-clips", "nope"),
			wantContains: []string{
				`invalid argument "nope"`,
			},
		},
		{
			name: "unknown search type",
			args: staticArgs("-i", fx.video, "-s", "cat", "-t", "telepathy"),
			wantContains: []string{
				`unknown search type "telepathy"`,
			},
		},
		{
			name: "pos without linguistic command",
			args: staticArgs("-i", fx.video, "-s", "NN", "-t", "pos"),
			wantContains: []string{
				"needs tools.linguistic_bin",
			},
		},
		{
			name: "bad batch size env",
			args: staticArgs("-i", fx.video, "-s", "cat"),
			env: map[string]string{
				"SUPERCUT_BATCH_SIZE": "lots",
			},
			wantContains: []string{
				"SUPERCUT_BATCH_SIZE",
			},
		},
	}

	runRobustCases(t, repoRoot, fx, cases)
}

func TestRobustness_InvalidInputMedia(t *testing.T) {
	repoRoot := mustRepoRoot(t)
	fx := newFixtures(t)

	cases := []robustCase{
		{
			name: "missing input path",
			args: staticArgs("-i", filepath.Join(fx.dir, "does-not-exist.mp4"), "-s", "cat"),
			wantContains: []string{
				"config: stat input:",
			},
		},
		{
			name: "term not found",
			args: staticArgs("-i", fx.video, "-s", "giraffe"),
			wantContains: []string{
				"search term not found",
			},
		},
		{
			name: "no subtitles and no transcripts",
			args: staticArgs("-i", fx.bare, "-s", "cat"),
			wantContains: []string{
				"no transcripts were found",
				"search term not found",
			},
		},
		{
			name: "input is non media file",
			args: func(t *testing.T, _ string) []string {
				t.Helper()
				return []string{"-i", fx.video, "-s", "cat", "-o", filepath.Join(t.TempDir(), "out.mp4")}
			},
			wantContains: []string{
				"ffmpeg extract clip:",
			},
		},
	}

	runRobustCases(t, repoRoot, fx, cases)
}

type fixtures struct {
	dir string
	// video is a non-media file with a matching subtitle file.
	video string
	// bare has no subtitle file.
	bare string
}

func newFixtures(t *testing.T) fixtures {
	t.Helper()
	dir := t.TempDir()
	fx := fixtures{
		dir:   dir,
		video: filepath.Join(dir, "clip.mp4"),
		bare:  filepath.Join(dir, "bare.mp4"),
	}
	srt := "1\n00:00:01,000 --> 00:00:02,000\nthe cat sat\n"
	files := map[string]string{
		fx.video:                       "not media",
		fx.bare:                        "not media",
		filepath.Join(dir, "clip.srt"): srt,
	}
	for path, body := range files {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	return fx
}

func runRobustCases(t *testing.T, repoRoot string, fx fixtures, cases []robustCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args := append(tc.args(t, repoRoot), "--config", filepath.Join(fx.dir, "none.toml"))
			env := map[string]string{"SUPERCUT_CACHE_DIR": filepath.Join(fx.dir, ".cache")}
			for k, v := range tc.env {
				env[k] = v
			}
			res := runCLI(t, repoRoot, args, env)
			if res.exitCode == 0 {
				t.Fatalf("expected non-zero exit code, got 0\noutput:\n%s", res.output)
			}
			for _, want := range tc.wantContains {
				if !strings.Contains(res.output, want) {
					t.Fatalf("expected output to contain %q\noutput:\n%s", want, res.output)
				}
			}
			for _, notWant := range tc.wantNotContains {
				if strings.Contains(res.output, notWant) {
					t.Fatalf("expected output to not contain %q\noutput:\n%s", notWant, res.output)
				}
			}
		})
	}
}

func runCLI(t *testing.T, repoRoot string, args []string, env map[string]string) cliRunResult {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	cmdArgs := append([]string{"run", "./cmd/supercut"}, args...)
	cmd := exec.CommandContext(ctx, "go", cmdArgs...)
	cmd.Dir = repoRoot
	cmd.Env = mergeEnv(
		os.Environ(),
		map[string]string{
			"NO_COLOR": "1",
			"TERM":     "dumb",
		},
		env,
	)

	out, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Fatalf("command timed out after %s: go %s", cliTimeout, strings.Join(cmdArgs, " "))
	}

	res := cliRunResult{output: string(out)}
	if err == nil {
		res.exitCode = 0
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.exitCode = exitErr.ExitCode()
		return res
	}

	t.Fatalf("run command: %v\noutput:\n%s", err, string(out))
	return cliRunResult{}
}

func mergeEnv(base []string, overrides ...map[string]string) []string {
	env := make(map[string]string, len(base))
	for _, kv := range base {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		env[kv[:i]] = kv[i+1:]
	}

	for _, set := range overrides {
		for k, v := range set {
			env[k] = v
		}
	}

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(out)
	return out
}

func mustRepoRoot(t *testing.T) string {
	t.Helper()

	repoRoot, err := findRepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	return repoRoot
}

func staticArgs(args ...string) func(t *testing.T, _ string) []string {
	clone := append([]string(nil), args...)
	return func(t *testing.T, _ string) []string {
		t.Helper()
		return append([]string(nil), clone...)
	}
}
