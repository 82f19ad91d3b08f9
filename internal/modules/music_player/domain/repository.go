package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// GuildStateRepository stores one GuildState per guild for the lifetime of the process.
type GuildStateRepository interface {
	// GetOrCreate returns the state for the guild, creating it if absent.
	// Concurrent callers for the same guild always receive the same instance.
	GetOrCreate(guildID snowflake.ID) *GuildState

	// Get returns the state for the guild, or nil if none has been created yet.
	Get(guildID snowflake.ID) *GuildState
}
