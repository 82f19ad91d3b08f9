package infrastructure

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tunebot/internal/modules/music_player/domain"
)

// MemoryRepository is an in-memory implementation of GuildStateRepository.
// States are created on first use and kept for the lifetime of the process.
type MemoryRepository struct {
	mu     sync.RWMutex
	states map[snowflake.ID]*domain.GuildState
}

// NewMemoryRepository creates a new MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		states: make(map[snowflake.ID]*domain.GuildState),
	}
}

// GetOrCreate returns the GuildState for the given guild, creating it if absent.
func (r *MemoryRepository) GetOrCreate(guildID snowflake.ID) *domain.GuildState {
	r.mu.RLock()
	state, ok := r.states[guildID]
	r.mu.RUnlock()
	if ok {
		return state
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have created it while we waited for the write lock.
	if state, ok := r.states[guildID]; ok {
		return state
	}

	state = domain.NewGuildState(guildID)
	r.states[guildID] = state
	return state
}

// Get returns the GuildState for the given guild, or nil if none exists.
func (r *MemoryRepository) Get(guildID snowflake.ID) *domain.GuildState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.states[guildID]
}

// Count returns the number of guild states (for testing/monitoring).
func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.states)
}

// Ensure MemoryRepository implements GuildStateRepository.
var _ domain.GuildStateRepository = (*MemoryRepository)(nil)
