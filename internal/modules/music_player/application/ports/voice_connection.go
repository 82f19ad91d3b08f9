package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tunebot/internal/modules/music_player/domain"
)

// CompletionFunc is invoked exactly once when a playback started by VoiceSession.Play ends.
// It runs on a goroutine owned by the audio backend and must not block.
// err is non-nil when playback ended because of an error.
type CompletionFunc func(reason domain.TrackEndReason, err error)

// VoiceSession is an active voice connection in a single guild.
type VoiceSession interface {
	// ChannelID returns the voice channel the session is connected to.
	ChannelID() snowflake.ID

	// Play starts streaming the media at streamURL. onComplete is called once
	// when playback ends for any reason, unless Play itself returns an error.
	Play(ctx context.Context, streamURL string, onComplete CompletionFunc) error

	// Stop halts the current playback. The pending completion fires with TrackEndStopped.
	Stop(ctx context.Context) error

	// IsPlaying reports whether audio is currently being played.
	IsPlaying() bool

	// Disconnect leaves the voice channel and releases the session.
	Disconnect(ctx context.Context) error
}

// VoiceConnection defines the interface for voice channel connection operations.
type VoiceConnection interface {
	// Connect joins the voice channel, or moves the existing session there,
	// and returns the guild's session.
	Connect(ctx context.Context, guildID, channelID snowflake.ID) (VoiceSession, error)

	// Session returns the guild's active session, or nil if not connected.
	Session(guildID snowflake.ID) VoiceSession
}

// VoiceStateProvider looks up members' voice channels from the gateway cache.
type VoiceStateProvider interface {
	// GetUserVoiceChannel returns the member's voice channel, or 0 when the member
	// is not in voice.
	GetUserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error)
}
