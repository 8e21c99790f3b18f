package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/supercut/internal/ports"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
	preset  string
	crf     int
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, preset: "veryfast", crf: 18}
}

// WithQuality overrides the x264 preset and CRF used for clip extraction.
func (a *Adapter) WithQuality(preset string, crf int) *Adapter {
	if preset != "" {
		a.preset = preset
	}
	if crf > 0 {
		a.crf = crf
	}
	return a
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inVideo,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ExtractClip(ctx context.Context, inVideo string, start, end time.Duration, outMP4 string) error {
	if start < 0 {
		start = 0
	}
	if end <= start {
		return fmt.Errorf("ffmpeg extract clip: empty range %s-%s", fmtSeconds(start), fmtSeconds(end))
	}
	args := []string{
		"-y",
		"-ss", fmtSeconds(start),
		"-to", fmtSeconds(end),
		"-i", inVideo,
		"-c:v", "libx264",
		"-preset", a.preset,
		"-crf", strconv.Itoa(a.crf),
		"-c:a", "aac",
		"-b:a", "192k",
		outMP4,
	}
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract clip: %w\n%s", err, string(b))
	}
	return nil
}

// Concat joins parts in order through the concat demuxer. When a temporary
// audio file is requested the audio is encoded there first and muxed back
// with the video.
func (a *Adapter) Concat(ctx context.Context, parts []string, outMP4 string, opts ports.EncodeOptions) error {
	if len(parts) == 0 {
		return fmt.Errorf("ffmpeg concat: no inputs")
	}
	vcodec := opts.VideoCodec
	if vcodec == "" {
		vcodec = "libx264"
	}
	acodec := opts.AudioCodec
	if acodec == "" {
		acodec = "aac"
	}

	listPath := outMP4 + ".concat.txt"
	if err := os.WriteFile(listPath, []byte(concatList(parts)), 0o644); err != nil {
		return fmt.Errorf("ffmpeg concat list: %w", err)
	}
	defer os.Remove(listPath)

	input := []string{"-y", "-f", "concat", "-safe", "0", "-i", listPath}
	if opts.TempAudioFile == "" {
		args := append(input, "-c:v", vcodec, "-c:a", acodec, outMP4)
		return a.run(ctx, "ffmpeg concat", args)
	}

	tempAudio := opts.TempAudioFile
	if !filepath.IsAbs(tempAudio) {
		tempAudio = filepath.Join(filepath.Dir(outMP4), tempAudio)
	}
	if opts.RemoveTemp {
		defer os.Remove(tempAudio)
	}
	audioArgs := append(append([]string(nil), input...), "-vn", "-c:a", acodec, tempAudio)
	if err := a.run(ctx, "ffmpeg concat audio", audioArgs); err != nil {
		return err
	}
	muxArgs := append(append([]string(nil), input...),
		"-i", tempAudio,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", vcodec,
		"-c:a", "copy",
		outMP4,
	)
	return a.run(ctx, "ffmpeg concat", muxArgs)
}

func (a *Adapter) ProbeDuration(ctx context.Context, inVideo string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inVideo,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func (a *Adapter) run(ctx context.Context, what string, args []string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w\n%s", what, err, string(b))
	}
	return nil
}

func concatList(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		abs, err := filepath.Abs(p)
		if err == nil {
			p = abs
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
