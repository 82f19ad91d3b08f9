package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tunebot/internal/bot"
	"github.com/sglre6355/tunebot/internal/modules/music_player/application/usecases"
)

// User-facing replies.
const (
	msgJoinVoiceFirst  = "Join a voice channel first."
	msgLoadFailed      = "Could not load track. Try a different URL/search query."
	msgMissingQuery    = "Give me a URL or a search query."
	msgQueueEmpty      = "Queue is empty."
	msgNothingPlaying  = "Nothing is playing."
	msgSkipped         = "Skipped current track."
	msgNotConnected    = "Not connected to voice."
	msgStopped         = "Stopped playback and disconnected."
	msgInvalidPage     = "Page must be a positive number."
	msgInvalidIdentity = "Could not read this message's server or author."
)

// VoiceJoiner makes sure the bot is in the caller's voice channel.
type VoiceJoiner interface {
	Join(ctx context.Context, input usecases.JoinInput) (*usecases.JoinOutput, error)
}

// TrackLoader resolves a query into a track.
type TrackLoader interface {
	LoadTrack(ctx context.Context, input usecases.LoadTrackInput) (*usecases.LoadTrackOutput, error)
}

// PlaybackController drives a guild's playback.
type PlaybackController interface {
	Enqueue(ctx context.Context, input usecases.EnqueueInput) (*usecases.EnqueueOutput, error)
	Skip(ctx context.Context, input usecases.SkipInput) (*usecases.SkipOutput, error)
	Stop(ctx context.Context, input usecases.StopInput) (*usecases.StopOutput, error)
}

// QueueLister reads a guild's queue.
type QueueLister interface {
	List(input usecases.QueueListInput) (*usecases.QueueListOutput, error)
}

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	voiceChannel VoiceJoiner
	playback     PlaybackController
	queue        QueueLister
	trackLoader  TrackLoader
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	voiceChannel VoiceJoiner,
	playback PlaybackController,
	queue QueueLister,
	trackLoader TrackLoader,
) *CommandHandlers {
	return &CommandHandlers{
		voiceChannel: voiceChannel,
		playback:     playback,
		queue:        queue,
		trackLoader:  trackLoader,
	}
}

// commandContext holds the IDs every music command needs.
type commandContext struct {
	guildID   snowflake.ID
	channelID snowflake.ID
	userID    snowflake.ID
	userName  string
}

func parseCommandContext(m *discordgo.MessageCreate) (commandContext, error) {
	guildID, err := snowflake.Parse(m.GuildID)
	if err != nil {
		return commandContext{}, fmt.Errorf("invalid guild ID: %w", err)
	}

	channelID, err := snowflake.Parse(m.ChannelID)
	if err != nil {
		return commandContext{}, fmt.Errorf("invalid channel ID: %w", err)
	}

	if m.Author == nil {
		return commandContext{}, errors.New("message has no author")
	}
	userID, err := snowflake.Parse(m.Author.ID)
	if err != nil {
		return commandContext{}, fmt.Errorf("invalid user ID: %w", err)
	}

	return commandContext{
		guildID:   guildID,
		channelID: channelID,
		userID:    userID,
		userName:  displayName(m),
	}, nil
}

// displayName prefers the member's nickname, then the global display name.
func displayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}

// HandleJoin handles the join command.
func (h *CommandHandlers) HandleJoin(
	s *discordgo.Session,
	m *discordgo.MessageCreate,
	_ string,
	r bot.Responder,
) error {
	ctx := context.Background()

	cc, err := parseCommandContext(m)
	if err != nil {
		slog.Warn("failed to parse join command", "error", err)
		return r.Reply(msgInvalidIdentity)
	}

	output, err := h.voiceChannel.Join(ctx, usecases.JoinInput{
		GuildID:               cc.guildID,
		UserID:                cc.userID,
		NotificationChannelID: cc.channelID,
	})
	if errors.Is(err, usecases.ErrUserNotInVoice) {
		return r.Reply(msgJoinVoiceFirst)
	}
	if err != nil {
		return err
	}

	return r.Reply(fmt.Sprintf("Connected to %s.", channelLabel(s, output.VoiceChannelID)))
}

// HandlePlay handles the play command.
func (h *CommandHandlers) HandlePlay(
	_ *discordgo.Session,
	m *discordgo.MessageCreate,
	args string,
	r bot.Responder,
) error {
	ctx := context.Background()

	cc, err := parseCommandContext(m)
	if err != nil {
		slog.Warn("failed to parse play command", "error", err)
		return r.Reply(msgInvalidIdentity)
	}

	query := strings.TrimSpace(args)
	if query == "" {
		return r.Reply(msgMissingQuery)
	}

	_, err = h.voiceChannel.Join(ctx, usecases.JoinInput{
		GuildID:               cc.guildID,
		UserID:                cc.userID,
		NotificationChannelID: cc.channelID,
	})
	if errors.Is(err, usecases.ErrUserNotInVoice) {
		return r.Reply(msgJoinVoiceFirst)
	}
	if err != nil {
		return err
	}

	loaded, err := h.trackLoader.LoadTrack(ctx, usecases.LoadTrackInput{
		Query:         query,
		RequesterID:   cc.userID,
		RequesterName: cc.userName,
	})
	if err != nil {
		slog.Warn("failed to load track",
			"guild", cc.guildID,
			"query", query,
			"error", err,
		)
		return r.Reply(msgLoadFailed)
	}

	_, err = h.playback.Enqueue(ctx, usecases.EnqueueInput{
		GuildID:               cc.guildID,
		Track:                 loaded.Track,
		NotificationChannelID: cc.channelID,
	})
	if errors.Is(err, usecases.ErrNotConnected) {
		return r.Reply(msgNotConnected)
	}
	if err != nil {
		return err
	}

	return r.Reply(fmt.Sprintf("Queued: **%s**", loaded.Track.Title))
}

// HandleSkip handles the skip command.
func (h *CommandHandlers) HandleSkip(
	_ *discordgo.Session,
	m *discordgo.MessageCreate,
	_ string,
	r bot.Responder,
) error {
	ctx := context.Background()

	cc, err := parseCommandContext(m)
	if err != nil {
		slog.Warn("failed to parse skip command", "error", err)
		return r.Reply(msgInvalidIdentity)
	}

	_, err = h.playback.Skip(ctx, usecases.SkipInput{
		GuildID:               cc.guildID,
		NotificationChannelID: cc.channelID,
	})
	switch {
	case errors.Is(err, usecases.ErrNotConnected):
		return r.Reply(msgNotConnected)
	case errors.Is(err, usecases.ErrNotPlaying):
		return r.Reply(msgNothingPlaying)
	case err != nil:
		return err
	}

	return r.Reply(msgSkipped)
}

// HandleQueue handles the queue command. An optional argument selects the page.
func (h *CommandHandlers) HandleQueue(
	_ *discordgo.Session,
	m *discordgo.MessageCreate,
	args string,
	r bot.Responder,
) error {
	cc, err := parseCommandContext(m)
	if err != nil {
		slog.Warn("failed to parse queue command", "error", err)
		return r.Reply(msgInvalidIdentity)
	}

	page := 1
	if args = strings.TrimSpace(args); args != "" {
		page, err = strconv.Atoi(args)
		if err != nil || page < 1 {
			return r.Reply(msgInvalidPage)
		}
	}

	output, err := h.queue.List(usecases.QueueListInput{
		GuildID: cc.guildID,
		Page:    page,
	})
	if errors.Is(err, usecases.ErrQueueEmpty) {
		return r.Reply(msgQueueEmpty)
	}
	if err != nil {
		return err
	}

	return r.Reply(formatQueue(output))
}

// HandleStop handles the stop command.
func (h *CommandHandlers) HandleStop(
	_ *discordgo.Session,
	m *discordgo.MessageCreate,
	_ string,
	r bot.Responder,
) error {
	ctx := context.Background()

	cc, err := parseCommandContext(m)
	if err != nil {
		slog.Warn("failed to parse stop command", "error", err)
		return r.Reply(msgInvalidIdentity)
	}

	output, err := h.playback.Stop(ctx, usecases.StopInput{GuildID: cc.guildID})
	if errors.Is(err, usecases.ErrNotConnected) {
		return r.Reply(msgNotConnected)
	}
	if err != nil {
		return err
	}

	slog.Info("stopped playback", "guild", cc.guildID, "cleared", output.ClearedCount)

	return r.Reply(msgStopped)
}

// formatQueue renders the current track and one page of the queue.
func formatQueue(output *usecases.QueueListOutput) string {
	var lines []string

	if output.CurrentTrack != nil {
		lines = append(lines, fmt.Sprintf("**Now:** %s", output.CurrentTrack.Title))
	}

	for i, track := range output.Tracks {
		lines = append(lines, fmt.Sprintf("%d. %s (by %s)",
			output.PageStart+i+1,
			track.Title,
			track.RequestedBy,
		))
	}

	if output.TotalPages > 1 {
		lines = append(lines, fmt.Sprintf("Page %d/%d (%d queued)",
			output.CurrentPage,
			output.TotalPages,
			output.TotalTracks,
		))
	}

	return strings.Join(lines, "\n")
}

// channelLabel returns the channel's bold name from the state cache, or a mention.
func channelLabel(s *discordgo.Session, channelID snowflake.ID) string {
	if s != nil && s.State != nil {
		if ch, err := s.State.Channel(channelID.String()); err == nil && ch.Name != "" {
			return fmt.Sprintf("**%s**", ch.Name)
		}
	}
	return fmt.Sprintf("<#%d>", channelID)
}
