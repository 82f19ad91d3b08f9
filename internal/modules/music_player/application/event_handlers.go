package application

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/sglre6355/tunebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tunebot/internal/modules/music_player/domain"
)

// TrackEndedHandler reacts to playback completions.
type TrackEndedHandler interface {
	HandleTrackEnded(ctx context.Context, event domain.TrackEndedEvent)
}

// PlaybackEventHandler feeds track completions back into the playback state machine.
type PlaybackEventHandler struct {
	playback   TrackEndedHandler
	subscriber ports.EventSubscriber
}

// NewPlaybackEventHandler creates a new PlaybackEventHandler.
func NewPlaybackEventHandler(
	playback TrackEndedHandler,
	subscriber ports.EventSubscriber,
) *PlaybackEventHandler {
	return &PlaybackEventHandler{
		playback:   playback,
		subscriber: subscriber,
	}
}

// Start registers event handlers with the subscriber.
func (h *PlaybackEventHandler) Start() error {
	err := h.subscriber.Subscribe(
		reflect.TypeFor[domain.TrackEndedEvent](),
		func(ctx context.Context, e domain.Event) {
			h.playback.HandleTrackEnded(ctx, e.(domain.TrackEndedEvent))
		},
	)
	if err != nil {
		return err
	}

	slog.Debug("playback event handlers properly registered")

	return nil
}

// NotificationEventHandler announces playback transitions in the guild's notification channel.
type NotificationEventHandler struct {
	playerStates domain.GuildStateRepository
	subscriber   ports.EventSubscriber
	notifier     ports.NotificationSender
}

// NewNotificationEventHandler creates a new NotificationEventHandler.
func NewNotificationEventHandler(
	playerStates domain.GuildStateRepository,
	subscriber ports.EventSubscriber,
	notifier ports.NotificationSender,
) *NotificationEventHandler {
	return &NotificationEventHandler{
		playerStates: playerStates,
		subscriber:   subscriber,
		notifier:     notifier,
	}
}

// Start registers event handlers with the subscriber.
func (h *NotificationEventHandler) Start() error {
	subscriptions := []struct {
		eventType reflect.Type
		handler   func(context.Context, domain.Event)
	}{
		{
			eventType: reflect.TypeFor[domain.PlaybackStartedEvent](),
			handler: func(_ context.Context, e domain.Event) {
				h.handlePlaybackStarted(e.(domain.PlaybackStartedEvent))
			},
		},
		{
			eventType: reflect.TypeFor[domain.PlaybackFailedEvent](),
			handler: func(_ context.Context, e domain.Event) {
				h.handlePlaybackFailed(e.(domain.PlaybackFailedEvent))
			},
		},
		{
			eventType: reflect.TypeFor[domain.QueueExhaustedEvent](),
			handler: func(_ context.Context, e domain.Event) {
				h.handleQueueExhausted(e.(domain.QueueExhaustedEvent))
			},
		},
	}

	for _, sub := range subscriptions {
		if err := h.subscriber.Subscribe(sub.eventType, sub.handler); err != nil {
			return err
		}
	}

	slog.Debug("notification event handlers properly registered")

	return nil
}

func (h *NotificationEventHandler) handlePlaybackStarted(event domain.PlaybackStartedEvent) {
	state := h.playerStates.Get(event.GuildID)
	if state == nil || state.NotificationChannelID() == 0 {
		return
	}

	// The track may already have been skipped by the time this runs.
	current := state.Current()
	if current == nil || current.StreamURL != event.Track.StreamURL {
		slog.Debug("skipping now playing notification, track no longer current",
			"guild", event.GuildID,
			"track", event.Track.Title,
		)
		return
	}

	if err := h.notifier.SendNowPlaying(state.NotificationChannelID(), event.Track); err != nil {
		slog.Error("failed to send now playing notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handlePlaybackFailed(event domain.PlaybackFailedEvent) {
	state := h.playerStates.Get(event.GuildID)
	if state == nil || state.NotificationChannelID() == 0 {
		return
	}

	if err := h.notifier.SendPlaybackFailed(state.NotificationChannelID(), event.Track); err != nil {
		slog.Error("failed to send playback failed notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleQueueExhausted(event domain.QueueExhaustedEvent) {
	state := h.playerStates.Get(event.GuildID)
	if state == nil || state.NotificationChannelID() == 0 {
		return
	}

	// Something was enqueued after the queue ran dry.
	if state.Current() != nil {
		return
	}

	if err := h.notifier.SendQueueExhausted(state.NotificationChannelID()); err != nil {
		slog.Error("failed to send queue exhausted notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}
