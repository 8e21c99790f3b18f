package search

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Matcher decides whether a single subtitle line matches. Implementations
// must not depend on where the line sits in its document.
type Matcher interface {
	Match(ctx context.Context, line string) (bool, error)
}

// Linguist is the part-of-speech / hypernym search backend.
type Linguist interface {
	POSMatch(ctx context.Context, line, query string) (bool, error)
	HypernymMatch(ctx context.Context, line, query string) (bool, error)
}

// Regex matches lines containing the pattern anywhere.
type Regex struct{ re *regexp.Regexp }

func NewRegex(pattern string) (*Regex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile search pattern: %w", err)
	}
	return &Regex{re: re}, nil
}

func (r *Regex) Match(_ context.Context, line string) (bool, error) {
	return r.re.MatchString(line), nil
}

type POS struct {
	query string
	ling  Linguist
}

func (p POS) Match(ctx context.Context, line string) (bool, error) {
	return p.ling.POSMatch(ctx, line, p.query)
}

type Hypernym struct {
	query string
	ling  Linguist
}

func (h Hypernym) Match(ctx context.Context, line string) (bool, error) {
	return h.ling.HypernymMatch(ctx, line, h.query)
}

var ErrTranscriptMode = errors.New("search mode needs word-level transcripts")

// New selects the matcher for a line-based search. Transcript-only modes
// have no line matcher and return ErrTranscriptMode.
func New(mode Mode, query string, ling Linguist) (Matcher, error) {
	switch mode {
	case ModeRegex:
		return NewRegex(query)
	case ModePOS, ModeHypernym:
		if ling == nil {
			return nil, fmt.Errorf("search type %q needs a linguistic backend (tools.linguistic_bin)", mode)
		}
		if mode == ModePOS {
			return POS{query: query, ling: ling}, nil
		}
		return Hypernym{query: query, ling: ling}, nil
	case ModeWord, ModeFragment, ModeFranken:
		return nil, fmt.Errorf("%w: %s", ErrTranscriptMode, mode)
	}
	return nil, fmt.Errorf("unknown search type %q", mode)
}
