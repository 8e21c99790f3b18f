package search

import (
	"fmt"
	"strings"
)

type Mode string

const (
	ModeRegex    Mode = "re"
	ModePOS      Mode = "pos"
	ModeHypernym Mode = "hyper"
	ModeWord     Mode = "word"
	ModeFragment Mode = "fragment"
	ModeFranken  Mode = "franken"
)

var modes = []Mode{ModeRegex, ModePOS, ModeHypernym, ModeWord, ModeFragment, ModeFranken}

// Modes lists every accepted search mode.
func Modes() []Mode { return append([]Mode(nil), modes...) }

func ParseMode(s string) (Mode, error) {
	v := Mode(strings.ToLower(strings.TrimSpace(s)))
	if v == "regex" || v == "" {
		return ModeRegex, nil
	}
	for _, m := range modes {
		if v == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown search type %q (want one of %s)", s, joinModes())
}

// TranscriptOnly reports whether the mode works on word-level timing and so
// can only be answered by the transcription collaborator.
func (m Mode) TranscriptOnly() bool {
	switch m {
	case ModeWord, ModeFragment, ModeFranken:
		return true
	}
	return false
}

// Linguistic reports whether the mode needs the linguistic collaborator.
func (m Mode) Linguistic() bool {
	return m == ModePOS || m == ModeHypernym
}

func joinModes() string {
	parts := make([]string, len(modes))
	for i, m := range modes {
		parts[i] = string(m)
	}
	return strings.Join(parts, "|")
}
