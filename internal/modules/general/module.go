package general

import (
	"time"

	"github.com/sglre6355/tunebot/internal/bot"
	"github.com/sglre6355/tunebot/internal/modules/general/application"
	"github.com/sglre6355/tunebot/internal/modules/general/domain"
	"github.com/sglre6355/tunebot/internal/modules/general/presentation"
)

func init() {
	bot.Register(&GeneralModule{})
}

// GeneralModule provides the ping and help commands.
type GeneralModule struct {
	pingHandler *presentation.PingHandler
	helpHandler *presentation.HelpHandler
}

// Name returns the module name.
func (m *GeneralModule) Name() string {
	return "general"
}

// Commands returns the text commands for this module.
func (m *GeneralModule) Commands() []bot.Command {
	return []bot.Command{
		{Name: "ping", Description: "Check that the bot is alive"},
		{Name: "help", Description: "List available commands"},
	}
}

// CommandHandlers returns the command handlers for this module.
func (m *GeneralModule) CommandHandlers() map[string]bot.CommandHandler {
	return map[string]bot.CommandHandler{
		"ping": m.pingHandler.Handle,
		"help": m.helpHandler.Handle,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *GeneralModule) EventHandlers() []bot.EventHandler {
	return nil
}

// Init initializes the module.
func (m *GeneralModule) Init(deps bot.ModuleDependencies) error {
	var latency func() time.Duration
	if deps.Session != nil {
		latency = deps.Session.HeartbeatLatency
	}

	commands := make([]domain.CommandInfo, len(deps.Commands))
	for i, cmd := range deps.Commands {
		commands[i] = domain.CommandInfo{
			Name:        cmd.Name,
			Usage:       cmd.Usage,
			Description: cmd.Description,
		}
	}

	m.pingHandler = presentation.NewPingHandler(application.NewPingInteractor(latency))
	m.helpHandler = presentation.NewHelpHandler(application.NewHelpInteractor(deps.Prefix, commands))
	return nil
}

// Shutdown cleans up module resources.
func (m *GeneralModule) Shutdown() error {
	return nil
}
