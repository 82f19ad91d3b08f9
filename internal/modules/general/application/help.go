package application

import "github.com/sglre6355/tunebot/internal/modules/general/domain"

// HelpInteractor renders the list of available commands.
type HelpInteractor struct {
	prefix   string
	commands []domain.CommandInfo
}

// NewHelpInteractor creates a new HelpInteractor.
func NewHelpInteractor(prefix string, commands []domain.CommandInfo) *HelpInteractor {
	return &HelpInteractor{
		prefix:   prefix,
		commands: commands,
	}
}

// Execute returns the help text.
func (h *HelpInteractor) Execute() string {
	return domain.FormatHelp(h.prefix, h.commands)
}
