package presentation

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/tunebot/internal/bot"
	"github.com/sglre6355/tunebot/internal/modules/general/application"
)

// PingHandler handles the ping command.
type PingHandler struct {
	interactor *application.PingInteractor
}

// NewPingHandler creates a new PingHandler.
func NewPingHandler(interactor *application.PingInteractor) *PingHandler {
	return &PingHandler{
		interactor: interactor,
	}
}

// Handle processes the ping command and sends the response.
func (h *PingHandler) Handle(
	_ *discordgo.Session,
	_ *discordgo.MessageCreate,
	_ string,
	r bot.Responder,
) error {
	return r.Reply(h.interactor.Execute().Message)
}

// HelpHandler handles the help command.
type HelpHandler struct {
	interactor *application.HelpInteractor
}

// NewHelpHandler creates a new HelpHandler.
func NewHelpHandler(interactor *application.HelpInteractor) *HelpHandler {
	return &HelpHandler{
		interactor: interactor,
	}
}

// Handle lists every registered command.
func (h *HelpHandler) Handle(
	_ *discordgo.Session,
	_ *discordgo.MessageCreate,
	_ string,
	r bot.Responder,
) error {
	return r.Reply(h.interactor.Execute())
}
