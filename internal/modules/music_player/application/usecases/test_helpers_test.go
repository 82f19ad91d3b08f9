package usecases

import (
	"context"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tunebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tunebot/internal/modules/music_player/domain"
)

func mockTrack(id string) domain.Track {
	return domain.Track{
		Title:       "Track " + id,
		StreamURL:   "https://cdn.example.com/" + id,
		WebpageURL:  "https://example.com/" + id,
		RequestedBy: "user",
		RequesterID: snowflake.ID(123),
	}
}

type mockRepository struct {
	mu     sync.Mutex
	states map[snowflake.ID]*domain.GuildState
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		states: make(map[snowflake.ID]*domain.GuildState),
	}
}

func (m *mockRepository) GetOrCreate(guildID snowflake.ID) *domain.GuildState {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[guildID]
	if !ok {
		state = domain.NewGuildState(guildID)
		m.states[guildID] = state
	}
	return state
}

func (m *mockRepository) Get(guildID snowflake.ID) *domain.GuildState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[guildID]
}

// mockVoiceSession behaves like a backend that plays one stream at a time.
// Stop fires the pending completion synchronously.
type mockVoiceSession struct {
	mu            sync.Mutex
	channelID     snowflake.ID
	playing       bool
	playErrs      map[string]error // streamURL -> error
	stopErr       error
	disconnectErr error
	played        []string
	onComplete    ports.CompletionFunc
	disconnected  bool
}

func newMockVoiceSession(channelID snowflake.ID) *mockVoiceSession {
	return &mockVoiceSession{
		channelID: channelID,
		playErrs:  make(map[string]error),
	}
}

func (m *mockVoiceSession) ChannelID() snowflake.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channelID
}

func (m *mockVoiceSession) Play(
	_ context.Context,
	streamURL string,
	onComplete ports.CompletionFunc,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.playErrs[streamURL]; err != nil {
		return err
	}
	m.played = append(m.played, streamURL)
	m.playing = true
	m.onComplete = onComplete
	return nil
}

// finish simulates the current track ending on its own.
func (m *mockVoiceSession) finish(reason domain.TrackEndReason, err error) {
	m.mu.Lock()
	onComplete := m.onComplete
	m.onComplete = nil
	m.playing = false
	m.mu.Unlock()

	if onComplete != nil {
		onComplete(reason, err)
	}
}

func (m *mockVoiceSession) Stop(_ context.Context) error {
	if m.stopErr != nil {
		return m.stopErr
	}
	m.finish(domain.TrackEndStopped, nil)
	return nil
}

func (m *mockVoiceSession) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *mockVoiceSession) Disconnect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnected = true
	return m.disconnectErr
}

func (m *mockVoiceSession) playedURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.played))
	copy(out, m.played)
	return out
}

type mockVoiceConnection struct {
	mu         sync.Mutex
	sessions   map[snowflake.ID]*mockVoiceSession
	connectErr error
	connects   int
}

func newMockVoiceConnection() *mockVoiceConnection {
	return &mockVoiceConnection{
		sessions: make(map[snowflake.ID]*mockVoiceSession),
	}
}

// connect registers a session for the guild as if Connect had succeeded.
func (m *mockVoiceConnection) connect(guildID, channelID snowflake.ID) *mockVoiceSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := newMockVoiceSession(channelID)
	m.sessions[guildID] = session
	return session
}

func (m *mockVoiceConnection) Connect(
	_ context.Context,
	guildID, channelID snowflake.ID,
) (ports.VoiceSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connectErr != nil {
		return nil, m.connectErr
	}
	m.connects++

	if session, ok := m.sessions[guildID]; ok {
		session.mu.Lock()
		session.channelID = channelID
		session.mu.Unlock()
		return session, nil
	}

	session := newMockVoiceSession(channelID)
	m.sessions[guildID] = session
	return session, nil
}

func (m *mockVoiceConnection) Session(guildID snowflake.ID) ports.VoiceSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[guildID]
	if !ok {
		return nil
	}
	return session
}

type mockVoiceStateProvider struct {
	channels map[snowflake.ID]snowflake.ID // userID -> channelID
	err      error
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(
	_, userID snowflake.ID,
) (snowflake.ID, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.channels[userID], nil
}

type mockEventPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (m *mockEventPublisher) Publish(event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

// takeTrackEnded removes and returns all published TrackEndedEvents.
func (m *mockEventPublisher) takeTrackEnded() []domain.TrackEndedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ended []domain.TrackEndedEvent
	rest := m.events[:0]
	for _, e := range m.events {
		if te, ok := e.(domain.TrackEndedEvent); ok {
			ended = append(ended, te)
			continue
		}
		rest = append(rest, e)
	}
	m.events = rest
	return ended
}

func (m *mockEventPublisher) count(match func(domain.Event) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, e := range m.events {
		if match(e) {
			n++
		}
	}
	return n
}

func isQueueExhausted(e domain.Event) bool {
	_, ok := e.(domain.QueueExhaustedEvent)
	return ok
}

func isPlaybackStarted(e domain.Event) bool {
	_, ok := e.(domain.PlaybackStartedEvent)
	return ok
}

func isPlaybackFailed(e domain.Event) bool {
	_, ok := e.(domain.PlaybackFailedEvent)
	return ok
}

// pump delivers pending completions to the service the way the guild's event loop would.
func pump(service *PlaybackService, publisher *mockEventPublisher) {
	for {
		ended := publisher.takeTrackEnded()
		if len(ended) == 0 {
			return
		}
		for _, e := range ended {
			service.HandleTrackEnded(context.Background(), e)
		}
	}
}

type mockExtractor struct {
	result *ports.ExtractionResult
	err    error
	block  chan struct{} // if set, Extract waits for it or ctx
	calls  int
}

func (m *mockExtractor) Extract(ctx context.Context, _ string) (*ports.ExtractionResult, error) {
	m.calls++
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func strPtr(s string) *string {
	return &s
}
