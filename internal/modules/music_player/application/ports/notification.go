package ports

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tunebot/internal/modules/music_player/domain"
)

// NotificationSender defines the interface for sending playback announcements to Discord channels.
type NotificationSender interface {
	// SendNowPlaying announces that a track started playing.
	SendNowPlaying(channelID snowflake.ID, track domain.Track) error

	// SendQueueExhausted announces that the queue ran out of tracks.
	SendQueueExhausted(channelID snowflake.ID) error

	// SendPlaybackFailed announces that a track could not be played and was skipped.
	SendPlaybackFailed(channelID snowflake.ID, track domain.Track) error
}
