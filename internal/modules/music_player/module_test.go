package music_player

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/tunebot/internal/bot"
)

func TestMusicPlayerModule_CommandsHaveHandlers(t *testing.T) {
	m := &MusicPlayerModule{}

	handlers := m.CommandHandlers()
	commands := m.Commands()

	if len(handlers) != len(commands) {
		t.Errorf("expected %d handlers, got %d", len(commands), len(handlers))
	}
	for _, cmd := range commands {
		if _, ok := handlers[cmd.Name]; !ok {
			t.Errorf("missing handler for command %q", cmd.Name)
		}
		if !cmd.GuildOnly {
			t.Errorf("expected command %q to be guild-only", cmd.Name)
		}
	}
}

func TestMusicPlayerModule_InitRequiresOpenSession(t *testing.T) {
	tests := []struct {
		name    string
		session *discordgo.Session
	}{
		{name: "no session", session: nil},
		{name: "session not open", session: &discordgo.Session{State: discordgo.NewState()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &MusicPlayerModule{config: &Config{EventBufferSize: 1, QueuePageSize: 1}}

			if err := m.Init(bot.ModuleDependencies{Session: tt.session}); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestMusicPlayerModule_ShutdownBeforeInit(t *testing.T) {
	m := &MusicPlayerModule{}

	if err := m.Shutdown(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
