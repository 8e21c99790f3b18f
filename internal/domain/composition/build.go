package composition

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/forPelevin/supercut/internal/domain/search"
	"github.com/forPelevin/supercut/internal/domain/subtitles"
	"github.com/forPelevin/supercut/internal/domain/transcript"
	"github.com/forPelevin/supercut/internal/types"
)

type Options struct {
	// Padding and Sync are in seconds.
	Padding    float64
	Sync       float64
	Extensions []string
	Logger     *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// FromSubtitles scans each subtitle file in order and returns one Match per
// matching cue. Files without a video, empty files, unreadable files,
// malformed timespans and failed matcher calls are logged and skipped. The
// only returned error is context cancellation.
func FromSubtitles(ctx context.Context, srts []string, m search.Matcher, opts Options) (types.Composition, error) {
	log := opts.logger()
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	var out types.Composition
	for _, srt := range srts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Debug("searching for video file", "subtitles", srt)
		video, err := ResolveVideo(srt, exts)
		if err != nil {
			var mm *MissingMediaError
			if errors.As(err, &mm) {
				log.Warn("no video file corresponds to subtitle file", "subtitles", srt, "supported", strings.Join(mm.Extensions, ", "))
				continue
			}
			return nil, err
		}
		log.Info("found video file", "video", video)

		doc, err := subtitles.ParseFile(srt)
		if err != nil {
			log.Warn("skipping unreadable subtitle file", "subtitles", srt, "error", err)
			continue
		}
		if doc.Len() == 0 {
			log.Warn("subtitle file is empty", "subtitles", srt)
			continue
		}

		found := 0
		for _, e := range doc.Entries() {
			line := strings.TrimSpace(e.Text)
			ok, err := m.Match(ctx, line)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				log.Warn("search failed on line", "subtitles", srt, "timespan", e.Timespan, "error", err)
				continue
			}
			if !ok {
				continue
			}
			start, end, err := subtitles.ParseTimespan(e.Timespan)
			if err != nil {
				log.Warn("skipping malformed timespan", "subtitles", srt, "error", err)
				continue
			}
			out = append(out, types.Match{
				File:  video,
				Text:  line,
				Start: start + opts.Sync - opts.Padding,
				End:   end + opts.Sync + opts.Padding,
			})
			found++
		}
		if found == 0 {
			log.Warn("search term not found in subtitle file", "subtitles", srt)
		}
	}
	return out, nil
}

// FromTranscript normalizes transcript search hits into matches pointing at
// the source videos.
func FromTranscript(hits []types.Hit) types.Composition {
	out := make(types.Composition, 0, len(hits))
	for _, h := range hits {
		out = append(out, types.Match{
			File:  strings.TrimSuffix(h.File, transcript.Suffix),
			Text:  h.Words,
			Start: h.Start,
			End:   h.End,
		})
	}
	return out
}
