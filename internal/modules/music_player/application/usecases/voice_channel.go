package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tunebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tunebot/internal/modules/music_player/domain"
)

// JoinInput contains the input for the Join use case.
type JoinInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// JoinOutput contains the result of the Join use case.
type JoinOutput struct {
	VoiceChannelID snowflake.ID
	Moved          bool // true if an existing session changed channel
}

// BotVoiceStateChangeInput contains the input for handling bot voice state changes.
type BotVoiceStateChangeInput struct {
	GuildID      snowflake.ID
	NewChannelID *snowflake.ID // nil means disconnected
}

// VoiceChannelService makes sure the bot is in the requesting user's voice channel.
type VoiceChannelService struct {
	repo            domain.GuildStateRepository
	voiceConnection ports.VoiceConnection
	voiceState      ports.VoiceStateProvider
}

// NewVoiceChannelService creates a new VoiceChannelService.
func NewVoiceChannelService(
	repo domain.GuildStateRepository,
	voiceConnection ports.VoiceConnection,
	voiceState ports.VoiceStateProvider,
) *VoiceChannelService {
	return &VoiceChannelService{
		repo:            repo,
		voiceConnection: voiceConnection,
		voiceState:      voiceState,
	}
}

// Join connects to the user's voice channel, moves there if the bot is
// elsewhere in the guild, or does nothing if it is already there.
func (v *VoiceChannelService) Join(ctx context.Context, input JoinInput) (*JoinOutput, error) {
	voiceChannelID, err := v.voiceState.GetUserVoiceChannel(input.GuildID, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up voice state: %w", err)
	}
	if voiceChannelID == 0 {
		return nil, ErrUserNotInVoice
	}

	state := v.repo.GetOrCreate(input.GuildID)
	if input.NotificationChannelID != 0 {
		state.SetNotificationChannel(input.NotificationChannelID)
	}

	existing := v.voiceConnection.Session(input.GuildID)
	if existing != nil && existing.ChannelID() == voiceChannelID {
		return &JoinOutput{VoiceChannelID: voiceChannelID}, nil
	}

	if _, err := v.voiceConnection.Connect(ctx, input.GuildID, voiceChannelID); err != nil {
		return nil, fmt.Errorf("failed to connect to voice channel: %w", err)
	}

	return &JoinOutput{
		VoiceChannelID: voiceChannelID,
		Moved:          existing != nil,
	}, nil
}

// HandleBotVoiceStateChange handles external voice state changes (bot moved or disconnected).
// A disconnect clears the guild's queue the same way stop does.
func (v *VoiceChannelService) HandleBotVoiceStateChange(input BotVoiceStateChangeInput) {
	if input.NewChannelID != nil {
		return
	}

	// A reconnect may already be under way.
	if v.voiceConnection.Session(input.GuildID) != nil {
		return
	}

	state := v.repo.Get(input.GuildID)
	if state == nil {
		return
	}

	if dropped := state.Clear(); dropped > 0 {
		slog.Info("bot left voice, cleared queue", "guild", input.GuildID, "dropped", dropped)
	}
}
