package composition

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtensions is the video probe order for a subtitle file.
var DefaultExtensions = []string{"mp4", "avi", "mov", "mkv", "m4v"}

// MissingMediaError means no video sits next to a subtitle file.
type MissingMediaError struct {
	Subtitle   string
	Extensions []string
}

func (e *MissingMediaError) Error() string {
	return fmt.Sprintf("no video file found for %s (supported: %s)", e.Subtitle, strings.Join(e.Extensions, ", "))
}

// ResolveVideo returns the first existing sibling of srt whose extension is
// in exts, trying them in order.
func ResolveVideo(srt string, exts []string) (string, error) {
	base := strings.TrimSuffix(srt, filepath.Ext(srt))
	for _, ext := range exts {
		candidate := base + "." + strings.TrimPrefix(ext, ".")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", &MissingMediaError{Subtitle: srt, Extensions: exts}
}

// SubtitleFiles maps each input to its .srt sibling, keeping only those
// that exist. Order follows inputs; duplicates are dropped.
func SubtitleFiles(inputs []string) []string {
	seen := make(map[string]struct{}, len(inputs))
	var out []string
	for _, in := range inputs {
		srt := strings.TrimSuffix(in, filepath.Ext(in)) + ".srt"
		if _, ok := seen[srt]; ok {
			continue
		}
		info, err := os.Stat(srt)
		if err != nil || info.IsDir() {
			continue
		}
		seen[srt] = struct{}{}
		out = append(out, srt)
	}
	return out
}
