package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// Event is implemented by every event carried on the event bus.
// Events of the same guild are delivered in the order they were published.
type Event interface {
	EventGuildID() snowflake.ID
}

// TrackEndReason represents why a track ended.
type TrackEndReason string

const (
	// TrackEndFinished means the track finished normally.
	TrackEndFinished TrackEndReason = "finished"
	// TrackEndLoadFailed means the track failed to load or errored while playing.
	TrackEndLoadFailed TrackEndReason = "load_failed"
	// TrackEndStopped means playback was stopped (skip).
	TrackEndStopped TrackEndReason = "stopped"
	// TrackEndCleanup means the audio backend cleaned up the player.
	TrackEndCleanup TrackEndReason = "cleanup"
)

// TrackEndedEvent is published by a voice session's completion callback.
// Err is set when playback ended because of an error.
type TrackEndedEvent struct {
	GuildID    snowflake.ID
	PlaybackID uint64
	Reason     TrackEndReason
	Err        error
}

// PlaybackStartedEvent is published when a track starts playing.
type PlaybackStartedEvent struct {
	GuildID snowflake.ID
	Track   Track
}

// PlaybackFailedEvent is published when a track could not be started and was skipped.
type PlaybackFailedEvent struct {
	GuildID snowflake.ID
	Track   Track
	Err     error
}

// QueueExhaustedEvent is published when a completion finds the queue empty.
type QueueExhaustedEvent struct {
	GuildID snowflake.ID
}

func (e TrackEndedEvent) EventGuildID() snowflake.ID      { return e.GuildID }
func (e PlaybackStartedEvent) EventGuildID() snowflake.ID { return e.GuildID }
func (e PlaybackFailedEvent) EventGuildID() snowflake.ID  { return e.GuildID }
func (e QueueExhaustedEvent) EventGuildID() snowflake.ID  { return e.GuildID }
