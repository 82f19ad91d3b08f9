package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

// stubModule is a test double for Module
type stubModule struct {
	name          string
	commands      []Command
	handlers      map[string]CommandHandler
	eventHandlers []EventHandler
	initErr       error
	shutErr       error
	configErr     error
	gotDeps       *ModuleDependencies
}

func (m *stubModule) Name() string                               { return m.name }
func (m *stubModule) Commands() []Command                        { return m.commands }
func (m *stubModule) CommandHandlers() map[string]CommandHandler { return m.handlers }
func (m *stubModule) EventHandlers() []EventHandler              { return m.eventHandlers }
func (m *stubModule) Shutdown() error                            { return m.shutErr }

func (m *stubModule) Init(deps ModuleDependencies) error {
	m.gotDeps = &deps
	return m.initErr
}

// configurableStubModule also implements ConfigurableModule.
type configurableStubModule struct {
	stubModule
	configLoaded bool
}

func (m *configurableStubModule) LoadConfig() error {
	m.configLoaded = true
	return m.configErr
}

func TestRegistry_RegisterKeepsOrder(t *testing.T) {
	reg := NewRegistry()

	reg.Register(&stubModule{name: "general"})
	reg.Register(&stubModule{name: "music_player"})

	modules := reg.Modules()
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}
	if modules[0].Name() != "general" || modules[1].Name() != "music_player" {
		t.Errorf("unexpected order: %s, %s", modules[0].Name(), modules[1].Name())
	}
}

func TestRegistry_RegisterPanics(t *testing.T) {
	tests := []struct {
		name     string
		register func(reg *Registry)
	}{
		{
			name:     "nil module",
			register: func(reg *Registry) { reg.Register(nil) },
		},
		{
			name: "duplicate name",
			register: func(reg *Registry) {
				reg.Register(&stubModule{name: "dup"})
				reg.Register(&stubModule{name: "dup"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected Register to panic")
				}
			}()
			tt.register(NewRegistry())
		})
	}
}

func TestRegistry_ModulesReturnsSnapshot(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubModule{name: "module-1"})

	modules := reg.Modules()
	reg.Register(&stubModule{name: "module-2"})

	if len(modules) != 1 {
		t.Errorf("expected snapshot to have 1 module, got %d", len(modules))
	}
}

func TestGlobalRegistry(t *testing.T) {
	ResetGlobalRegistry()
	defer ResetGlobalRegistry()

	Register(&stubModule{name: "global-test"})

	modules := Modules()
	if len(modules) != 1 {
		t.Fatalf("expected 1 module, got %d", len(modules))
	}
	if modules[0].Name() != "global-test" {
		t.Errorf("expected module name %q, got %q", "global-test", modules[0].Name())
	}
}

func TestValidateCommands(t *testing.T) {
	handler := func(*discordgo.Session, *discordgo.MessageCreate, string, Responder) error {
		return nil
	}

	tests := []struct {
		name    string
		modules []Module
		wantErr bool
	}{
		{
			name: "valid",
			modules: []Module{
				&stubModule{
					name:     "general",
					commands: []Command{{Name: "ping"}},
					handlers: map[string]CommandHandler{"ping": handler},
				},
				&stubModule{
					name:     "music_player",
					commands: []Command{{Name: "play"}},
					handlers: map[string]CommandHandler{"play": handler},
				},
			},
		},
		{
			name: "missing handler",
			modules: []Module{
				&stubModule{name: "general", commands: []Command{{Name: "ping"}}},
			},
			wantErr: true,
		},
		{
			name: "duplicate command",
			modules: []Module{
				&stubModule{
					name:     "a",
					commands: []Command{{Name: "play"}},
					handlers: map[string]CommandHandler{"play": handler},
				},
				&stubModule{
					name:     "b",
					commands: []Command{{Name: "play"}},
					handlers: map[string]CommandHandler{"play": handler},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCommands(tt.modules)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateCommands() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
