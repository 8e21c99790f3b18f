package subtitles

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Arrow separates the start and end timestamps of an SRT timespan.
const Arrow = "-->"

var reTimestamp = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2}),(\d{3})$`)

// FormatError reports timestamp or timespan text that cannot be parsed.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid timecode %q: %s", e.Input, e.Reason)
}

// ParseTimestamp converts "H+:MM:SS,mmm" into seconds.
func ParseTimestamp(text string) (float64, error) {
	t := strings.TrimSpace(text)
	m := reTimestamp.FindStringSubmatch(t)
	if m == nil {
		return 0, &FormatError{Input: text, Reason: "want H:MM:SS,mmm"}
	}
	hours, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, &FormatError{Input: text, Reason: "hours out of range"}
	}
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	millis, _ := strconv.Atoi(m[4])
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// ParseTimespan converts "start --> end" into a pair of seconds.
func ParseTimespan(text string) (float64, float64, error) {
	left, right, ok := strings.Cut(text, Arrow)
	if !ok {
		return 0, 0, &FormatError{Input: text, Reason: "missing " + Arrow}
	}
	start, err := ParseTimestamp(left)
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseTimestamp(right)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// FormatTimestamp renders seconds back into SRT notation.
func FormatTimestamp(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	ms := int64(sec*1000 + 0.5)
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
