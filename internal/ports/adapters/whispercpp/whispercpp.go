package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forPelevin/supercut/internal/types"
)

type Adapter struct {
	bin   string
	model string
}

func New(binPath, modelPath string) *Adapter {
	return &Adapter{bin: binPath, model: modelPath}
}

// Transcribe runs whisper.cpp with full JSON output and converts its token
// stream into segments with word timings.
func (a *Adapter) Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error) {
	if a.model == "" {
		return types.Transcript{}, fmt.Errorf("whisper model path is required")
	}
	name := strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))
	outPrefix := filepath.Join(cacheDir, name+".whisper")
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-ojf",
		"-of", outPrefix,
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.Transcript{}, err
	}
	return decode(jb)
}

type output struct {
	Transcription []struct {
		Offsets offsets `json:"offsets"`
		Text    string  `json:"text"`
		Tokens  []struct {
			Text    string  `json:"text"`
			Offsets offsets `json:"offsets"`
		} `json:"tokens"`
	} `json:"transcription"`
}

// offsets are milliseconds.
type offsets struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

func decode(b []byte) (types.Transcript, error) {
	var raw output
	if err := json.Unmarshal(b, &raw); err != nil {
		return types.Transcript{}, fmt.Errorf("decode whisper output: %w", err)
	}
	var tr types.Transcript
	for _, s := range raw.Transcription {
		seg := types.Segment{
			Start: ms(s.Offsets.From),
			End:   ms(s.Offsets.To),
			Text:  strings.TrimSpace(s.Text),
		}
		for _, tok := range s.Tokens {
			// special tokens look like [_BEG_] or [_TT_123]
			if strings.HasPrefix(tok.Text, "[_") {
				continue
			}
			text := tok.Text
			if text == "" {
				continue
			}
			if n := len(seg.Words); n > 0 && !strings.HasPrefix(text, " ") {
				seg.Words[n-1].Word += text
				seg.Words[n-1].End = ms(tok.Offsets.To)
				continue
			}
			word := strings.TrimSpace(text)
			if word == "" {
				continue
			}
			seg.Words = append(seg.Words, types.Word{
				Start: ms(tok.Offsets.From),
				End:   ms(tok.Offsets.To),
				Word:  word,
			})
		}
		tr.Segments = append(tr.Segments, seg)
	}
	return tr, nil
}

func ms(v int64) float64 { return float64(v) / 1000 }
