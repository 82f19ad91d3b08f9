package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tunebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tunebot/internal/modules/music_player/domain"
)

// EnqueueInput contains the input for the Enqueue use case.
type EnqueueInput struct {
	GuildID               snowflake.ID
	Track                 domain.Track
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// EnqueueOutput contains the result of the Enqueue use case.
type EnqueueOutput struct {
	Position int  // 1-indexed position in the waiting queue
	Started  bool // true if this enqueue kicked off playback
}

// SkipInput contains the input for the Skip use case.
type SkipInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// SkipOutput contains the result of the Skip use case.
type SkipOutput struct {
	SkippedTrack *domain.Track // nil if the session was playing something unknown to the queue
}

// StopInput contains the input for the Stop use case.
type StopInput struct {
	GuildID snowflake.ID
}

// StopOutput contains the result of the Stop use case.
type StopOutput struct {
	ClearedCount int
}

// PlaybackService drives the per-guild playback state machine.
// Commands call Enqueue, Skip and Stop; completions reach HandleTrackEnded
// through the event bus, one guild at a time.
type PlaybackService struct {
	repo      domain.GuildStateRepository
	voice     ports.VoiceConnection
	publisher ports.EventPublisher
}

// NewPlaybackService creates a new PlaybackService.
func NewPlaybackService(
	repo domain.GuildStateRepository,
	voice ports.VoiceConnection,
	publisher ports.EventPublisher,
) *PlaybackService {
	return &PlaybackService{
		repo:      repo,
		voice:     voice,
		publisher: publisher,
	}
}

// Enqueue appends a track to the guild's queue and starts playback if the guild is idle.
func (p *PlaybackService) Enqueue(ctx context.Context, input EnqueueInput) (*EnqueueOutput, error) {
	session := p.voice.Session(input.GuildID)
	if session == nil {
		return nil, ErrNotConnected
	}

	state := p.repo.GetOrCreate(input.GuildID)
	if input.NotificationChannelID != 0 {
		state.SetNotificationChannel(input.NotificationChannelID)
	}

	position, shouldStart := state.Enqueue(input.Track, session.IsPlaying())

	slog.Debug("enqueued track",
		"guild", input.GuildID,
		"track", input.Track.Title,
		"position", position,
		"should_start", shouldStart,
	)

	if shouldStart {
		if err := p.Advance(ctx, input.GuildID); err != nil && !errors.Is(err, ErrQueueEmpty) {
			return nil, err
		}
	}

	return &EnqueueOutput{
		Position: position,
		Started:  shouldStart,
	}, nil
}

// Advance promotes the head of the queue to current and starts it.
// Returns ErrQueueEmpty if there was nothing to promote.
func (p *PlaybackService) Advance(ctx context.Context, guildID snowflake.ID) error {
	state := p.repo.GetOrCreate(guildID)

	track, playbackID, ok := state.Advance()
	if !ok {
		return ErrQueueEmpty
	}

	p.startPlayback(ctx, state, track, playbackID)
	return nil
}

// HandleTrackEnded advances the queue after a playback completion.
// Completions that do not belong to the active playback are ignored.
func (p *PlaybackService) HandleTrackEnded(ctx context.Context, event domain.TrackEndedEvent) {
	if event.Err != nil {
		slog.Warn("playback ended with error",
			"guild", event.GuildID,
			"playback_id", event.PlaybackID,
			"reason", event.Reason,
			"error", event.Err,
		)
	}

	state := p.repo.Get(event.GuildID)
	if state == nil {
		slog.Debug("track ended for unknown guild", "guild", event.GuildID)
		return
	}

	next, nextID, result := state.Finish(event.PlaybackID)

	slog.Debug("track ended",
		"guild", event.GuildID,
		"playback_id", event.PlaybackID,
		"reason", event.Reason,
		"result", result.String(),
	)

	switch result {
	case domain.FinishStale:
		return
	case domain.FinishExhausted:
		p.publish(domain.QueueExhaustedEvent{GuildID: event.GuildID})
		return
	}

	p.startPlayback(ctx, state, next, nextID)
}

// Skip stops the current playback; the completion advances the queue.
func (p *PlaybackService) Skip(ctx context.Context, input SkipInput) (*SkipOutput, error) {
	session := p.voice.Session(input.GuildID)
	if session == nil {
		return nil, ErrNotConnected
	}

	if !session.IsPlaying() {
		return nil, ErrNotPlaying
	}

	state := p.repo.GetOrCreate(input.GuildID)
	if input.NotificationChannelID != 0 {
		state.SetNotificationChannel(input.NotificationChannelID)
	}
	skipped := state.Current()

	if err := session.Stop(ctx); err != nil {
		return nil, fmt.Errorf("failed to stop playback: %w", err)
	}

	return &SkipOutput{SkippedTrack: skipped}, nil
}

// Stop clears the queue and current track, halts playback and leaves the voice channel.
// The completion of the halted track is stale and does not restart anything.
func (p *PlaybackService) Stop(ctx context.Context, input StopInput) (*StopOutput, error) {
	session := p.voice.Session(input.GuildID)
	if session == nil {
		return nil, ErrNotConnected
	}

	state := p.repo.GetOrCreate(input.GuildID)
	cleared := state.Clear()

	if session.IsPlaying() {
		if err := session.Stop(ctx); err != nil {
			slog.Warn("failed to stop playback before disconnecting",
				"guild", input.GuildID,
				"error", err,
			)
		}
	}

	if err := session.Disconnect(ctx); err != nil {
		return nil, fmt.Errorf("failed to disconnect: %w", err)
	}

	return &StopOutput{ClearedCount: cleared}, nil
}

// startPlayback plays track and keeps advancing past tracks that fail to start.
func (p *PlaybackService) startPlayback(
	ctx context.Context,
	state *domain.GuildState,
	track domain.Track,
	playbackID uint64,
) {
	guildID := state.GuildID()

	for {
		err := p.play(ctx, guildID, track, playbackID)
		if err == nil {
			slog.Info("started playback",
				"guild", guildID,
				"track", track.Title,
				"playback_id", playbackID,
			)
			p.publish(domain.PlaybackStartedEvent{GuildID: guildID, Track: track})
			return
		}

		if errors.Is(err, ErrNotConnected) {
			dropped := state.Clear()
			slog.Warn("voice session gone, dropped queue",
				"guild", guildID,
				"dropped", dropped,
			)
			return
		}

		slog.Warn("failed to start playback, skipping track",
			"guild", guildID,
			"track", track.Title,
			"playback_id", playbackID,
			"error", err,
		)
		p.publish(domain.PlaybackFailedEvent{GuildID: guildID, Track: track, Err: err})

		next, nextID, result := state.Finish(playbackID)
		switch result {
		case domain.FinishAdvanced:
			track, playbackID = next, nextID
		case domain.FinishExhausted:
			p.publish(domain.QueueExhaustedEvent{GuildID: guildID})
			return
		default:
			return
		}
	}
}

func (p *PlaybackService) play(
	ctx context.Context,
	guildID snowflake.ID,
	track domain.Track,
	playbackID uint64,
) error {
	session := p.voice.Session(guildID)
	if session == nil {
		return ErrNotConnected
	}

	if err := session.Play(ctx, track.StreamURL, p.completionFor(guildID, playbackID)); err != nil {
		return fmt.Errorf("%w: %w", ErrPlaybackFailed, err)
	}
	return nil
}

// completionFor returns the callback handed to the voice session. It runs on
// the audio backend's goroutine and only posts an event; the queue is advanced
// by HandleTrackEnded on the guild's event loop.
func (p *PlaybackService) completionFor(
	guildID snowflake.ID,
	playbackID uint64,
) ports.CompletionFunc {
	return func(reason domain.TrackEndReason, err error) {
		event := domain.TrackEndedEvent{
			GuildID:    guildID,
			PlaybackID: playbackID,
			Reason:     reason,
			Err:        err,
		}
		if pubErr := p.publisher.Publish(event); pubErr != nil {
			slog.Error("failed to deliver track completion, queue will not advance",
				"guild", guildID,
				"playback_id", playbackID,
				"error", pubErr,
			)
		}
	}
}

func (p *PlaybackService) publish(event domain.Event) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(event); err != nil {
		slog.Warn("failed to publish event",
			"guild", event.EventGuildID(),
			"event", fmt.Sprintf("%T", event),
			"error", err,
		)
	}
}
