package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tunebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tunebot/internal/modules/music_player/domain"
	"golang.org/x/time/rate"
)

// UnknownTitle is used when the extractor returns no title.
const UnknownTitle = "Unknown title"

// LoadTrackInput contains the input for the LoadTrack use case.
type LoadTrackInput struct {
	Query         string
	RequesterID   snowflake.ID
	RequesterName string
}

// LoadTrackOutput contains the result of the LoadTrack use case.
type LoadTrackOutput struct {
	Track domain.Track
}

// TrackLoaderService resolves user queries into tracks.
type TrackLoaderService struct {
	extractor ports.Extractor
	limiter   *rate.Limiter
}

// NewTrackLoaderService creates a new TrackLoaderService.
// A nil limiter disables throttling.
func NewTrackLoaderService(extractor ports.Extractor, limiter *rate.Limiter) *TrackLoaderService {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &TrackLoaderService{
		extractor: extractor,
		limiter:   limiter,
	}
}

type extractResult struct {
	info *ports.ExtractionResult
	err  error
}

// LoadTrack resolves the query into a track. The extractor runs on its own
// goroutine so a slow extraction never holds up the caller past ctx.
func (s *TrackLoaderService) LoadTrack(
	ctx context.Context,
	input LoadTrackInput,
) (*LoadTrackOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	done := make(chan extractResult, 1)
	go func() {
		info, err := s.extractor.Extract(ctx, query)
		done <- extractResult{info: info, err: err}
	}()

	var res extractResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, ctx.Err())
	}

	if res.err != nil {
		slog.Warn("failed to extract track", "query", query, "error", res.err)
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, res.err)
	}

	track, err := trackFromExtraction(res.info, query, input.RequesterName, input.RequesterID)
	if err != nil {
		return nil, err
	}

	return &LoadTrackOutput{Track: track}, nil
}

// trackFromExtraction picks the first usable entry and validates it into a track.
func trackFromExtraction(
	info *ports.ExtractionResult,
	query string,
	requestedBy string,
	requesterID snowflake.ID,
) (domain.Track, error) {
	if info == nil {
		return domain.Track{}, ErrNoResults
	}

	if info.Entries != nil {
		var first *ports.ExtractionResult
		for _, entry := range info.Entries {
			if entry != nil {
				first = entry
				break
			}
		}
		if first == nil {
			return domain.Track{}, ErrNoResults
		}
		info = first
	}

	title := valueOr(info.Title, UnknownTitle)
	webpageURL := valueOr(info.WebpageURL, query)
	streamURL := valueOr(info.URL, "")

	track, err := domain.NewTrack(title, streamURL, webpageURL, requestedBy, requesterID)
	if err != nil {
		return domain.Track{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return track, nil
}

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
