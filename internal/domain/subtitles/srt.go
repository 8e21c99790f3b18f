package subtitles

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var reIndexLine = regexp.MustCompile(`(?m)^\d+\n`)

// Entry is one cue of a subtitle document: the raw timespan line and the
// text lines that followed it, joined by spaces.
type Entry struct {
	Timespan string
	Text     string
}

// Document keeps cues in file order. Timespans are unique; a repeated
// timespan line restarts the text of the earlier entry in place.
type Document struct {
	entries []Entry
	index   map[string]int
}

func (d *Document) Entries() []Entry { return d.entries }

func (d *Document) Len() int { return len(d.entries) }

func (d *Document) Lookup(timespan string) (string, bool) {
	i, ok := d.index[timespan]
	if !ok {
		return "", false
	}
	return d.entries[i].Text, true
}

func (d *Document) begin(key string) int {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[key]; ok {
		d.entries[i].Text = ""
		return i
	}
	d.entries = append(d.entries, Entry{Timespan: key})
	d.index[key] = len(d.entries) - 1
	return len(d.entries) - 1
}

// ParseFile reads and parses an SRT file.
func ParseFile(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}
	return Parse(string(b)), nil
}

// Parse builds a Document from SRT text. Sequence-number lines are dropped
// and wrapped text lines are joined with a trailing space each. Lines before
// the first timespan are ignored. Empty input gives an empty document.
func Parse(text string) *Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = reIndexLine.ReplaceAllString(text, "")

	doc := &Document{}
	cur := -1
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if strings.Contains(line, Arrow) {
			cur = doc.begin(line)
			continue
		}
		if cur < 0 || line == "" {
			continue
		}
		doc.entries[cur].Text += line + " "
	}
	return doc
}
