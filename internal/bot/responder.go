package bot

import "github.com/bwmarrin/discordgo"

// Responder replies to the channel a command came from.
// This interface enables testing handlers without a live Discord connection.
type Responder interface {
	// Reply sends a plain text message.
	Reply(content string) error
}

// DiscordResponder implements Responder using a live Discord session.
type DiscordResponder struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscordResponder creates a new DiscordResponder for the given channel.
func NewDiscordResponder(s *discordgo.Session, channelID string) *DiscordResponder {
	return &DiscordResponder{
		session:   s,
		channelID: channelID,
	}
}

// Reply sends the message via Discord API.
func (r *DiscordResponder) Reply(content string) error {
	_, err := r.session.ChannelMessageSend(r.channelID, content)
	return err
}

// MockResponder is a test double for Responder.
type MockResponder struct {
	Replies []string
	Err     error
}

// Reply records the message for testing.
func (m *MockResponder) Reply(content string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Replies = append(m.Replies, content)
	return nil
}

// LastReply returns the most recent reply, or "" if there was none.
func (m *MockResponder) LastReply() string {
	if len(m.Replies) == 0 {
		return ""
	}
	return m.Replies[len(m.Replies)-1]
}
