package bot

import (
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"unicode"

	"github.com/bwmarrin/discordgo"
)

const (
	guildOnlyMessage    = "This command can only be used in a server."
	commandErrorMessage = "An error occurred while processing your command."
)

// Bot manages the Discord bot lifecycle and module coordination.
type Bot struct {
	config   *Config
	session  *discordgo.Session
	modules  []Module
	commands map[string]Command
	handlers map[string]CommandHandler
}

// NewBot creates a new Bot instance with the given configuration.
func NewBot(cfg *Config) *Bot {
	return &Bot{
		config:   cfg,
		modules:  make([]Module, 0),
		commands: make(map[string]Command),
		handlers: make(map[string]CommandHandler),
	}
}

// LoadModules loads modules from the global registry.
func (b *Bot) LoadModules() {
	b.modules = Modules()
}

// Start loads module configuration, connects to Discord and initializes modules.
func (b *Bot) Start() error {
	// Fail on bad configuration before connecting
	if err := b.loadModuleConfigs(); err != nil {
		return err
	}

	// Create Discord session
	session, err := discordgo.New("Bot " + b.config.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
	b.session = session

	// Open connection; modules need the bot's own user
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	// Initialize modules
	if err := b.initModules(); err != nil {
		return fmt.Errorf("failed to initialize modules: %w", err)
	}

	if err := validateCommands(b.modules); err != nil {
		return err
	}

	// Build handler map
	b.buildHandlerMap()

	// Register message handler
	b.session.AddHandler(b.handleMessage)

	// Register module event handlers
	b.registerEventHandlers()

	slog.Info("started bot",
		"user_id", b.session.State.User.ID,
		"username", b.session.State.User.Username,
		"prefix", b.config.CommandPrefix,
	)

	return nil
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() error {
	// Shutdown modules
	for _, mod := range b.modules {
		if err := mod.Shutdown(); err != nil {
			slog.Warn("failed to shutdown module", "module", mod.Name(), "error", err)
		}
	}

	// Close Discord session
	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// loadModuleConfigs calls LoadConfig on every ConfigurableModule.
func (b *Bot) loadModuleConfigs() error {
	for _, mod := range b.modules {
		configurable, ok := mod.(ConfigurableModule)
		if !ok {
			continue
		}
		if err := configurable.LoadConfig(); err != nil {
			return fmt.Errorf("failed to load %s module config: %w", mod.Name(), err)
		}
	}
	return nil
}

// initModules initializes all loaded modules.
func (b *Bot) initModules() error {
	deps := ModuleDependencies{
		Session:  b.session,
		Prefix:   b.config.CommandPrefix,
		Commands: b.collectCommands(),
	}

	for _, mod := range b.modules {
		if err := mod.Init(deps); err != nil {
			return fmt.Errorf("failed to initialize %s module: %w", mod.Name(), err)
		}
		slog.Debug("initialized module", "module", mod.Name())
	}

	moduleNames := make([]string, len(b.modules))
	for i, mod := range b.modules {
		moduleNames[i] = mod.Name()
	}
	slog.Info("initialized modules", "modules", moduleNames)

	return nil
}

// buildHandlerMap builds the command name to handler mapping.
func (b *Bot) buildHandlerMap() {
	for _, mod := range b.modules {
		for _, cmd := range mod.Commands() {
			b.commands[cmd.Name] = cmd
		}
		maps.Copy(b.handlers, mod.CommandHandlers())
	}
}

// registerEventHandlers registers all module event handlers with the session.
func (b *Bot) registerEventHandlers() {
	for _, mod := range b.modules {
		for _, handler := range mod.EventHandlers() {
			b.session.AddHandler(handler)
		}
	}
}

// collectCommands gathers all commands from loaded modules.
func (b *Bot) collectCommands() []Command {
	var commands []Command
	for _, mod := range b.modules {
		commands = append(commands, mod.Commands()...)
	}
	return commands
}

// handleMessage routes prefixed messages to the matching command handler.
func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	b.dispatch(s, m, NewDiscordResponder(s, m.ChannelID))
}

func (b *Bot) dispatch(s *discordgo.Session, m *discordgo.MessageCreate, r Responder) {
	name, args, ok := parseCommand(m.Content, b.config.CommandPrefix)
	if !ok {
		return
	}

	handler, ok := b.handlers[name]
	if !ok {
		slog.Debug("found no handler for command", "command", name)
		return
	}

	if b.commands[name].GuildOnly && m.GuildID == "" {
		b.reply(r, name, guildOnlyMessage)
		return
	}

	if err := handler(s, m, args, r); err != nil {
		slog.Error("failed to handle command",
			"command", name,
			"guild", m.GuildID,
			"error", err,
		)
		b.reply(r, name, commandErrorMessage)
	}
}

func (b *Bot) reply(r Responder, command, content string) {
	if err := r.Reply(content); err != nil {
		slog.Error("failed to send reply", "command", command, "error", err)
	}
}

// parseCommand splits "<prefix><name> <args>" into a lowercased name and the trimmed args.
func parseCommand(content, prefix string) (name, args string, ok bool) {
	content = strings.TrimSpace(content)
	rest, found := strings.CutPrefix(content, prefix)
	if !found {
		return "", "", false
	}

	end := strings.IndexFunc(rest, unicode.IsSpace)
	if end < 0 {
		end = len(rest)
	}

	name = strings.ToLower(rest[:end])
	if name == "" {
		return "", "", false
	}

	return name, strings.TrimSpace(rest[end:]), true
}
