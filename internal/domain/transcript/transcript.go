// Package transcript stores word-timed transcripts next to their videos and
// searches them at sentence, word, fragment or "franken" granularity.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/forPelevin/supercut/internal/types"
)

// Suffix is appended to a video path to name its transcript.
const Suffix = ".transcription.json"

func PathFor(video string) string {
	return video + Suffix
}

// Source is a loaded transcript and the path it came from.
type Source struct {
	Path       string
	Transcript types.Transcript
}

func Load(path string) (types.Transcript, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.Transcript{}, err
	}
	var tr types.Transcript
	if err := json.Unmarshal(b, &tr); err != nil {
		return types.Transcript{}, fmt.Errorf("decode transcript %s: %w", path, err)
	}
	return tr, nil
}

func Save(path string, tr types.Transcript) error {
	for i := range tr.Segments {
		tr.Segments[i].Text = strings.TrimSpace(tr.Segments[i].Text)
		for j := range tr.Segments[i].Words {
			tr.Segments[i].Words[j].Word = strings.TrimSpace(tr.Segments[i].Words[j].Word)
		}
	}
	b, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}
