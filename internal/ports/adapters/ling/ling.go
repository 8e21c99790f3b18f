// Package ling runs an external part-of-speech / hypernym matcher. The
// command is invoked as `<bin> pos|hyper <query>` with the line on stdin and
// answers through its exit status: 0 match, 1 no match.
package ling

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

type Adapter struct {
	bin string
}

func New(binPath string) *Adapter {
	return &Adapter{bin: binPath}
}

func (a *Adapter) POSMatch(ctx context.Context, line, query string) (bool, error) {
	return a.ask(ctx, "pos", line, query)
}

func (a *Adapter) HypernymMatch(ctx context.Context, line, query string) (bool, error) {
	return a.ask(ctx, "hyper", line, query)
}

func (a *Adapter) ask(ctx context.Context, kind, line, query string) (bool, error) {
	cmd := exec.CommandContext(ctx, a.bin, kind, query)
	cmd.Stdin = strings.NewReader(line)
	b, err := cmd.CombinedOutput()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("%s search: %w\n%s", kind, err, strings.TrimSpace(string(b)))
}
