package transcript

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/forPelevin/supercut/internal/domain/search"
	"github.com/forPelevin/supercut/internal/types"
	"golang.org/x/text/cases"
)

type timedWord struct {
	Start float64
	End   float64
	Text  string
	norm  string
}

// Search runs query over sources in order. With regex set each query term
// (or the whole query in sentence mode) is a regular expression; otherwise
// terms compare by case-folded equality and sentences by folded substring.
func Search(sources []Source, query string, mode search.Mode, regex bool) ([]types.Hit, error) {
	fold := cases.Fold()
	switch mode {
	case search.ModeRegex, search.ModePOS, search.ModeHypernym:
		return searchSentences(sources, query, regex, fold)
	case search.ModeWord, search.ModeFragment, search.ModeFranken:
	default:
		return nil, fmt.Errorf("unknown search type %q", mode)
	}

	terms, err := compileTerms(query, regex, fold)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, nil
	}

	switch mode {
	case search.ModeWord:
		return searchWords(sources, terms, fold), nil
	case search.ModeFragment:
		return searchFragments(sources, terms, fold), nil
	default:
		return searchFranken(sources, terms, fold), nil
	}
}

func searchSentences(sources []Source, query string, regex bool, fold cases.Caser) ([]types.Hit, error) {
	var match func(string) bool
	if regex {
		re, err := regexp.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("compile search pattern: %w", err)
		}
		match = re.MatchString
	} else {
		q := fold.String(strings.TrimSpace(query))
		match = func(s string) bool { return strings.Contains(fold.String(s), q) }
	}

	var out []types.Hit
	for _, src := range sources {
		for _, seg := range src.Transcript.Segments {
			text := strings.TrimSpace(seg.Text)
			if text == "" || !match(text) {
				continue
			}
			out = append(out, types.Hit{File: src.Path, Words: text, Start: seg.Start, End: seg.End})
		}
	}
	return out, nil
}

type term func(norm string) bool

func compileTerms(query string, regex bool, fold cases.Caser) ([]term, error) {
	var out []term
	for _, f := range strings.Fields(query) {
		if regex {
			re, err := regexp.Compile(`^(?i:` + f + `)$`)
			if err != nil {
				return nil, fmt.Errorf("compile search term %q: %w", f, err)
			}
			out = append(out, re.MatchString)
			continue
		}
		want := normalize(f, fold)
		if want == "" {
			continue
		}
		out = append(out, func(norm string) bool { return norm == want })
	}
	return out, nil
}

func normalize(s string, fold cases.Caser) string {
	s = strings.TrimFunc(s, func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSpace(r) })
	return fold.String(s)
}

func words(tr types.Transcript, fold cases.Caser) []timedWord {
	var out []timedWord
	for _, seg := range tr.Segments {
		for _, w := range seg.Words {
			text := strings.TrimSpace(w.Word)
			norm := normalize(text, fold)
			if norm == "" {
				continue
			}
			out = append(out, timedWord{Start: w.Start, End: w.End, Text: text, norm: norm})
		}
	}
	return out
}

func searchWords(sources []Source, terms []term, fold cases.Caser) []types.Hit {
	var out []types.Hit
	for _, src := range sources {
		for _, w := range words(src.Transcript, fold) {
			for _, t := range terms {
				if t(w.norm) {
					out = append(out, types.Hit{File: src.Path, Words: w.Text, Start: w.Start, End: w.End})
					break
				}
			}
		}
	}
	return out
}

func searchFragments(sources []Source, terms []term, fold cases.Caser) []types.Hit {
	var out []types.Hit
	n := len(terms)
	for _, src := range sources {
		ws := words(src.Transcript, fold)
		for i := 0; i+n <= len(ws); i++ {
			ok := true
			for k, t := range terms {
				if !t(ws[i+k].norm) {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			parts := make([]string, n)
			for k := range parts {
				parts[k] = ws[i+k].Text
			}
			out = append(out, types.Hit{
				File:  src.Path,
				Words: strings.Join(parts, " "),
				Start: ws[i].Start,
				End:   ws[i+n-1].End,
			})
			i += n - 1
		}
	}
	return out
}

// searchFranken assembles the query one word at a time, taking the first
// occurrence of each term across all sources. Terms never spoken are
// skipped.
func searchFranken(sources []Source, terms []term, fold cases.Caser) []types.Hit {
	all := make([][]timedWord, len(sources))
	for i, src := range sources {
		all[i] = words(src.Transcript, fold)
	}
	var out []types.Hit
	for _, t := range terms {
	lookup:
		for i, ws := range all {
			for _, w := range ws {
				if t(w.norm) {
					out = append(out, types.Hit{File: sources[i].Path, Words: w.Text, Start: w.Start, End: w.End})
					break lookup
				}
			}
		}
	}
	return out
}
