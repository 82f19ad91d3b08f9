package music_player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tunebot/internal/bot"
	"github.com/sglre6355/tunebot/internal/modules/music_player/application"
	"github.com/sglre6355/tunebot/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/tunebot/internal/modules/music_player/infrastructure"
	"github.com/sglre6355/tunebot/internal/modules/music_player/presentation"
	"github.com/sglre6355/tunebot/internal/modules/music_player/presentation/discord"
)

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*MusicPlayerModule)(nil)

// MusicPlayerModule provides music playback commands.
type MusicPlayerModule struct {
	config          *Config
	commandHandlers *discord.CommandHandlers
	eventHandlers   *discord.EventHandlers
	lavalinkAdapter *infrastructure.LavalinkAdapter

	// Event-driven components
	eventBus            *infrastructure.ChannelEventBus
	playbackHandler     *application.PlaybackEventHandler
	notificationHandler *application.NotificationEventHandler
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the text commands for this module.
func (m *MusicPlayerModule) Commands() []bot.Command {
	return presentation.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.CommandHandler {
	return map[string]bot.CommandHandler{
		"join":  m.commandHandlers.HandleJoin,
		"play":  m.commandHandlers.HandlePlay,
		"skip":  m.commandHandlers.HandleSkip,
		"queue": m.commandHandlers.HandleQueue,
		"stop":  m.commandHandlers.HandleStop,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		m.handleVoiceServerUpdate,
		m.handleVoiceStateUpdate,
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init wires the module. The session must be open.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil || deps.Session.State == nil || deps.Session.State.User == nil {
		return errors.New("music_player requires an open Discord session")
	}

	botID, err := snowflake.Parse(deps.Session.State.User.ID)
	if err != nil {
		return fmt.Errorf("failed to parse bot ID: %w", err)
	}

	ctx := context.Background()

	if m.config.YTDLInstall {
		if err := infrastructure.InstallYTDLP(ctx); err != nil {
			return err
		}
	}

	// Create event bus carrying completions back into the state machine
	m.eventBus = infrastructure.NewChannelEventBus(m.config.EventBufferSize)

	lavalinkAdapter, err := infrastructure.NewLavalinkAdapter(ctx, deps.Session, m.config.lavalinkConfig())
	if err != nil {
		m.eventBus.Close()
		return err
	}
	m.lavalinkAdapter = lavalinkAdapter

	// Create infrastructure
	repo := infrastructure.NewMemoryRepository()
	voiceState := infrastructure.NewVoiceStateProvider(deps.Session)
	notifier := infrastructure.NewNotifier(deps.Session)
	extractor := infrastructure.NewYTDLPExtractor(m.config.ytdlpConfig())

	// Create services
	trackLoader := usecases.NewTrackLoaderService(extractor, m.config.extractLimiter())
	voiceChannel := usecases.NewVoiceChannelService(repo, lavalinkAdapter, voiceState)
	playback := usecases.NewPlaybackService(repo, lavalinkAdapter, m.eventBus)
	queue := usecases.NewQueueService(repo, m.config.QueuePageSize)

	// Create application event handlers
	m.playbackHandler = application.NewPlaybackEventHandler(playback, m.eventBus)
	m.notificationHandler = application.NewNotificationEventHandler(repo, m.eventBus, notifier)

	// Register event handlers
	if err := m.playbackHandler.Start(); err != nil {
		return err
	}
	if err := m.notificationHandler.Start(); err != nil {
		return err
	}

	// Create presentation handlers
	m.commandHandlers = discord.NewCommandHandlers(voiceChannel, playback, queue, trackLoader)
	m.eventHandlers = discord.NewEventHandlers(botID, voiceChannel)

	slog.Info("music_player module initialized with Lavalink")

	return nil
}

// Shutdown cleans up module resources.
func (m *MusicPlayerModule) Shutdown() error {
	// Stop delivering events before the audio backend goes away
	if m.eventBus != nil {
		m.eventBus.Close()
	}

	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Close()
	}

	return nil
}

// Event handlers.

func (m *MusicPlayerModule) handleVoiceServerUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceServerUpdate,
) {
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.OnVoiceServerUpdate(event)
	}
}

// handleVoiceStateUpdate lets the adapter update its sessions before the
// use case checks whether the guild still has one.
func (m *MusicPlayerModule) handleVoiceStateUpdate(
	s *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.OnVoiceStateUpdate(event)
	}
	if m.eventHandlers != nil {
		m.eventHandlers.HandleVoiceStateUpdate(s, event)
	}
}
