package bot

import "github.com/bwmarrin/discordgo"

// CommandHandler handles a prefix text command. args is the trimmed text after the command name.
type CommandHandler func(s *discordgo.Session, m *discordgo.MessageCreate, args string, r Responder) error

// EventHandler is a generic handler for any Discord event.
// It should be a function matching one of discordgo's handler signatures,
// e.g., func(s *discordgo.Session, m *discordgo.VoiceStateUpdate)
type EventHandler any

// Command describes a text command for help output and routing.
type Command struct {
	Name        string
	Usage       string // arguments shown after the name, e.g. "<url or search>"
	Description string
	GuildOnly   bool
}

// ModuleDependencies provides dependencies that modules may need during initialization.
type ModuleDependencies struct {
	Session *discordgo.Session
	Prefix  string

	// Commands lists the commands of every loaded module.
	Commands []Command
}

// Module defines the interface that all bot modules must implement.
type Module interface {
	// Name returns the unique identifier for this module.
	Name() string

	// Commands returns the text commands that this module provides.
	// It must not depend on Init having run.
	Commands() []Command

	// CommandHandlers returns a map of command names to their handlers.
	CommandHandlers() map[string]CommandHandler

	// EventHandlers returns event handlers for this module.
	// Each handler should match a discordgo handler signature.
	EventHandlers() []EventHandler

	// Init initializes the module with the provided dependencies.
	// The Discord session is already open when Init is called.
	Init(deps ModuleDependencies) error

	// Shutdown gracefully shuts down the module.
	Shutdown() error
}

// ConfigurableModule is an optional interface for modules that need configuration.
// Modules implementing this interface will have LoadConfig called before Init.
type ConfigurableModule interface {
	// LoadConfig loads and validates module-specific configuration.
	// Called before Init() and before Discord connection is established.
	// Should return an error if required configuration is missing or invalid.
	LoadConfig() error
}
