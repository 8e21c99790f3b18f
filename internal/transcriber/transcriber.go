// Package transcriber produces word-timed transcripts next to each video and
// answers transcript searches over them.
package transcriber

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/forPelevin/supercut/internal/domain/search"
	"github.com/forPelevin/supercut/internal/domain/transcript"
	"github.com/forPelevin/supercut/internal/ports"
	"github.com/forPelevin/supercut/internal/types"
)

type Service struct {
	asr      ports.ASR
	video    ports.VideoTool
	cacheDir string
	log      *slog.Logger
}

func New(asr ports.ASR, video ports.VideoTool, cacheDir string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{asr: asr, video: video, cacheDir: cacheDir, log: log}
}

// Transcribe writes <video>.transcription.json for every video. A failing
// video is logged and the rest still run; all failures are returned joined.
func (s *Service) Transcribe(ctx context.Context, videos []string) error {
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return fmt.Errorf("create transcription cache: %w", err)
	}
	var errs []error
	for _, v := range videos {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.log.Info("transcribing", "video", v)
		if err := s.transcribeOne(ctx, v); err != nil {
			s.log.Warn("transcription failed", "video", v, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", v, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) transcribeOne(ctx context.Context, video string) error {
	wav := filepath.Join(s.cacheDir, wavName(video))
	if err := s.video.ExtractAudioMono16k(ctx, video, wav); err != nil {
		return err
	}
	defer os.Remove(wav)

	tr, err := s.asr.Transcribe(ctx, wav, s.cacheDir)
	if err != nil {
		return err
	}
	return transcript.Save(transcript.PathFor(video), tr)
}

// ConvertTimestamps returns every segment of the transcripts that exist for
// videos. An empty result means no transcripts are available.
func (s *Service) ConvertTimestamps(videos []string) []types.Segment {
	var out []types.Segment
	for _, src := range s.load(videos) {
		out = append(out, src.Transcript.Segments...)
	}
	return out
}

func (s *Service) Search(ctx context.Context, query string, videos []string, mode search.Mode, regex bool) ([]types.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return transcript.Search(s.load(videos), query, mode, regex)
}

func (s *Service) load(videos []string) []transcript.Source {
	var out []transcript.Source
	for _, v := range videos {
		path := transcript.PathFor(v)
		tr, err := transcript.Load(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				s.log.Warn("skipping unreadable transcript", "transcript", path, "error", err)
			}
			continue
		}
		out = append(out, transcript.Source{Path: path, Transcript: tr})
	}
	return out
}

func wavName(video string) string {
	sum := sha256.Sum256([]byte(video))
	base := strings.TrimSuffix(filepath.Base(video), filepath.Ext(video))
	return base + "-" + hex.EncodeToString(sum[:])[:8] + ".wav"
}
