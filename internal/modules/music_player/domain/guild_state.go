package domain

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// FinishResult describes what happened when a playback was reported finished.
type FinishResult int

const (
	// FinishStale means the report did not match the active playback and was ignored.
	FinishStale FinishResult = iota
	// FinishAdvanced means the next queued track became current.
	FinishAdvanced
	// FinishExhausted means the queue was empty and nothing is current anymore.
	FinishExhausted
)

// String returns the string representation of the result.
func (r FinishResult) String() string {
	switch r {
	case FinishAdvanced:
		return "advanced"
	case FinishExhausted:
		return "exhausted"
	default:
		return "stale"
	}
}

// GuildState holds the playback queue of a single guild.
// Every method is safe for concurrent use; the queue and current track are
// only ever changed while holding the state's lock.
type GuildState struct {
	mu sync.Mutex

	guildID snowflake.ID
	queue   []Track
	current *Track

	// playbackID identifies the active playback. It changes on every advance
	// and every clear, so completions reported for older playbacks are ignored.
	playbackID uint64

	// starting is set by Enqueue when it has decided to start playback and is
	// cleared by Advance. It keeps two racing enqueues from both starting.
	starting bool

	notificationChannelID snowflake.ID
}

// NewGuildState creates an idle GuildState for the guild.
func NewGuildState(guildID snowflake.ID) *GuildState {
	return &GuildState{
		guildID: guildID,
		queue:   make([]Track, 0),
	}
}

// GuildID returns the guild this state belongs to.
func (s *GuildState) GuildID() snowflake.ID {
	return s.guildID
}

// Enqueue appends the track and decides whether the caller must start playback.
// shouldStart is true only when nothing is current, no start is already
// pending and the voice session is not playing. position is the 1-indexed
// place of the track in the waiting queue.
func (s *GuildState) Enqueue(track Track, sessionActive bool) (position int, shouldStart bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue = append(s.queue, track)
	position = len(s.queue)

	if s.current == nil && !s.starting && !sessionActive {
		s.starting = true
		shouldStart = true
	}

	return position, shouldStart
}

// Advance pops the head of the queue into current and returns it with its playback ID.
// If the queue is empty, current is cleared and ok is false.
func (s *GuildState) Advance() (track Track, playbackID uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.starting = false
	return s.advanceLocked()
}

// Finish reports that the playback identified by playbackID has ended and
// promotes the next track. Reports for any other playback are stale and leave
// the state untouched.
func (s *GuildState) Finish(playbackID uint64) (next Track, nextID uint64, result FinishResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || playbackID != s.playbackID {
		return Track{}, 0, FinishStale
	}

	next, nextID, ok := s.advanceLocked()
	if !ok {
		return Track{}, 0, FinishExhausted
	}
	return next, nextID, FinishAdvanced
}

func (s *GuildState) advanceLocked() (Track, uint64, bool) {
	if len(s.queue) == 0 {
		s.current = nil
		return Track{}, 0, false
	}

	track := s.queue[0]
	s.queue[0] = Track{}
	s.queue = s.queue[1:]
	s.current = &track
	s.playbackID++

	return track, s.playbackID, true
}

// Clear empties the queue and the current track in one step and invalidates
// the active playback. It returns how many tracks were dropped.
func (s *GuildState) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := len(s.queue)
	if s.current != nil {
		dropped++
	}

	s.queue = make([]Track, 0)
	s.current = nil
	s.starting = false
	s.playbackID++

	return dropped
}

// Snapshot returns a copy of the current track and the waiting queue.
func (s *GuildState) Snapshot() (current *Track, queue []Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		c := *s.current
		current = &c
	}
	queue = make([]Track, len(s.queue))
	copy(queue, s.queue)

	return current, queue
}

// Current returns a copy of the current track, or nil.
func (s *GuildState) Current() *Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	c := *s.current
	return &c
}

// Len returns the number of waiting tracks, not counting the current one.
func (s *GuildState) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// SetNotificationChannel sets the text channel for playback announcements.
func (s *GuildState) SetNotificationChannel(channelID snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notificationChannelID = channelID
}

// NotificationChannelID returns the text channel for playback announcements.
func (s *GuildState) NotificationChannelID() snowflake.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notificationChannelID
}
