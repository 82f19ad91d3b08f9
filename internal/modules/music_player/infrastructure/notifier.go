package infrastructure

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tunebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tunebot/internal/modules/music_player/domain"
)

// MessageSender is the part of *discordgo.Session the notifier needs.
type MessageSender interface {
	ChannelMessageSend(
		channelID string,
		content string,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
}

// Notifier sends playback announcements to Discord text channels.
type Notifier struct {
	sender MessageSender
}

// NewNotifier creates a new Notifier.
func NewNotifier(sender MessageSender) *Notifier {
	return &Notifier{sender: sender}
}

// SendNowPlaying announces the track that just started.
func (n *Notifier) SendNowPlaying(channelID snowflake.ID, track domain.Track) error {
	content := fmt.Sprintf("Now playing: **%s**", track.Title)
	if track.RequestedBy != "" {
		content += fmt.Sprintf(" (requested by %s)", track.RequestedBy)
	}
	return n.send(channelID, content)
}

// SendQueueExhausted announces that nothing is left to play.
func (n *Notifier) SendQueueExhausted(channelID snowflake.ID) error {
	return n.send(channelID, "Queue is empty.")
}

// SendPlaybackFailed announces a track that was skipped because it could not start.
func (n *Notifier) SendPlaybackFailed(channelID snowflake.ID, track domain.Track) error {
	return n.send(channelID, fmt.Sprintf("Could not play **%s**, skipping.", track.Title))
}

func (n *Notifier) send(channelID snowflake.ID, content string) error {
	if _, err := n.sender.ChannelMessageSend(channelID.String(), content); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Ensure Notifier implements ports.NotificationSender.
var _ ports.NotificationSender = (*Notifier)(nil)
