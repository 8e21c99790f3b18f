package ports

import (
	"context"
	"time"

	"github.com/forPelevin/supercut/internal/domain/search"
	"github.com/forPelevin/supercut/internal/types"
)

// EncodeOptions controls the final write of a concatenation.
type EncodeOptions struct {
	VideoCodec    string
	AudioCodec    string
	TempAudioFile string
	RemoveTemp    bool
}

type VideoTool interface {
	ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error
	ExtractClip(ctx context.Context, inVideo string, start, end time.Duration, outMP4 string) error
	Concat(ctx context.Context, parts []string, outMP4 string, opts EncodeOptions) error
	ProbeDuration(ctx context.Context, inVideo string) (time.Duration, error)
}

type ASR interface {
	Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error)
}

// Transcriber produces and searches word-timed transcripts of videos.
type Transcriber interface {
	Transcribe(ctx context.Context, videos []string) error
	ConvertTimestamps(videos []string) []types.Segment
	Search(ctx context.Context, query string, videos []string, mode search.Mode, regex bool) ([]types.Hit, error)
}

type Linguist = search.Linguist
