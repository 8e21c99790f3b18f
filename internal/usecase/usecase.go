package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/forPelevin/supercut/internal/domain/composition"
	"github.com/forPelevin/supercut/internal/domain/search"
	"github.com/forPelevin/supercut/internal/ports"
	"github.com/forPelevin/supercut/internal/preview"
	"github.com/forPelevin/supercut/internal/types"
)

// ErrNotFound means no input produced a single match.
var ErrNotFound = errors.New("search term not found")

type Renderer interface {
	Render(ctx context.Context, c types.Composition) (types.RenderReport, error)
}

type Deps struct {
	Transcriber ports.Transcriber
	Linguist    ports.Linguist
	Renderer    Renderer
	Logger      *slog.Logger
	// Preview receives the dry-run listing.
	Preview io.Writer
	// Rand drives shuffling; nil uses the global source.
	Rand *rand.Rand
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Preview == nil {
		d.Preview = io.Discard
	}
	return Usecase{d: d}
}

type Input struct {
	Inputs     []string
	Query      string
	Mode       search.Mode
	MaxClips   int
	Padding    time.Duration
	Sync       time.Duration
	Demo       bool
	Randomize  bool
	Transcribe bool
	Extensions []string
}

type Result struct {
	// Found counts matches before truncation.
	Found       int
	Composition types.Composition
	Report      types.RenderReport
}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	log := u.d.Logger

	if in.Transcribe {
		if u.d.Transcriber == nil {
			return Result{}, errors.New("transcription is not configured")
		}
		if err := u.d.Transcriber.Transcribe(ctx, in.Inputs); err != nil {
			if ctx.Err() != nil {
				return Result{}, err
			}
			log.Warn("some inputs could not be transcribed", "error", err)
		}
	}

	comp, err := u.compose(ctx, in)
	if err != nil {
		return Result{}, err
	}
	if len(comp) == 0 {
		log.Warn("search term was not found in any file", "query", in.Query)
		return Result{}, fmt.Errorf("%w: %q", ErrNotFound, in.Query)
	}
	log.Info("search term found", "query", in.Query, "places", len(comp))

	res := Result{Found: len(comp)}
	comp = composition.Truncate(comp, in.MaxClips)
	if in.Randomize {
		composition.Shuffle(comp, u.d.Rand)
	}
	comp = composition.FixOverlaps(comp, in.Padding.Seconds())
	res.Composition = comp

	if in.Demo {
		return res, preview.Write(u.d.Preview, comp)
	}
	if u.d.Renderer == nil {
		return res, errors.New("renderer is not configured")
	}
	res.Report, err = u.d.Renderer.Render(ctx, comp)
	return res, err
}

// compose searches subtitles when any exist and the mode is line based,
// otherwise falls back to transcripts.
func (u Usecase) compose(ctx context.Context, in Input) (types.Composition, error) {
	log := u.d.Logger

	srts := composition.SubtitleFiles(in.Inputs)
	if len(srts) == 0 {
		log.Warn("no subtitle files were found")
	}

	if len(srts) > 0 && !in.Mode.TranscriptOnly() {
		m, err := search.New(in.Mode, in.Query, u.d.Linguist)
		if err != nil {
			return nil, err
		}
		return composition.FromSubtitles(ctx, srts, m, composition.Options{
			Padding:    in.Padding.Seconds(),
			Sync:       in.Sync.Seconds(),
			Extensions: in.Extensions,
			Logger:     log,
		})
	}

	if u.d.Transcriber == nil {
		return nil, nil
	}
	if len(u.d.Transcriber.ConvertTimestamps(in.Inputs)) == 0 {
		log.Warn("no transcripts were found; run with --transcribe first")
		return nil, nil
	}
	hits, err := u.d.Transcriber.Search(ctx, in.Query, in.Inputs, in.Mode, true)
	if err != nil {
		return nil, fmt.Errorf("transcript search: %w", err)
	}
	return composition.FromTranscript(hits), nil
}
