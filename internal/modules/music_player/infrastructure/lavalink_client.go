package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tunebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tunebot/internal/modules/music_player/domain"
)

const (
	// voiceConnectionTimeout is the maximum time to wait for voice connection to be established.
	voiceConnectionTimeout = 10 * time.Second

	// stuckStopTimeout bounds the request that stops a stuck track.
	stuckStopTimeout = 5 * time.Second
)

var (
	// ErrNoNode is returned when no Lavalink node is available.
	ErrNoNode = errors.New("no available Lavalink node")

	// ErrNoPlayableTrack is returned when Lavalink resolves a stream URL to nothing playable.
	ErrNoPlayableTrack = errors.New("no playable track")

	// ErrTrackStuck is reported to the completion when Lavalink gives up on a stalled track.
	ErrTrackStuck = errors.New("track stuck")
)

// pendingVoiceConnection tracks a join that is waiting for Discord to confirm it.
type pendingVoiceConnection struct {
	mu          sync.Mutex
	gotState    bool
	gotServer   bool
	ready       chan struct{}
	readyClosed bool
}

func newPendingVoiceConnection() *pendingVoiceConnection {
	return &pendingVoiceConnection{ready: make(chan struct{})}
}

// markState records the VoiceStateUpdate half of the handshake.
func (p *pendingVoiceConnection) markState() { p.mark(true) }

// markServer records the VoiceServerUpdate half of the handshake.
func (p *pendingVoiceConnection) markServer() { p.mark(false) }

func (p *pendingVoiceConnection) mark(state bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if state {
		p.gotState = true
	} else {
		p.gotServer = true
	}

	if p.gotState && p.gotServer && !p.readyClosed {
		p.readyClosed = true
		close(p.ready)
	}
}

// voiceHandshake is the Discord voice data Lavalink needs, collected from
// VoiceStateUpdate and VoiceServerUpdate in whichever order they arrive.
type voiceHandshake struct {
	channelID *snowflake.ID
	sessionID string
	token     string
	endpoint  string
}

// voiceEventBuffer holds one guild's partial handshake until both halves are present,
// so Lavalink never receives a partial voice state.
type voiceEventBuffer struct {
	mu        sync.Mutex
	data      voiceHandshake
	hasState  bool
	hasServer bool
}

// putState stores the voice state half. It returns the complete handshake
// and true once both halves are present, resetting the buffer.
func (b *voiceEventBuffer) putState(channelID *snowflake.ID, sessionID string) (voiceHandshake, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data.channelID = channelID
	b.data.sessionID = sessionID
	b.hasState = true

	return b.takeLocked()
}

// putServer stores the voice server half. See putState.
func (b *voiceEventBuffer) putServer(token, endpoint string) (voiceHandshake, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data.token = token
	b.data.endpoint = endpoint
	b.hasServer = true

	return b.takeLocked()
}

func (b *voiceEventBuffer) takeLocked() (voiceHandshake, bool) {
	if !b.hasState || !b.hasServer {
		return voiceHandshake{}, false
	}

	data := b.data
	b.data = voiceHandshake{}
	b.hasState = false
	b.hasServer = false
	return data, true
}

// lavalinkSession is one guild's voice session backed by a Lavalink player.
type lavalinkSession struct {
	adapter *LavalinkAdapter
	guildID snowflake.ID

	mu         sync.Mutex
	channelID  snowflake.ID
	playing    bool
	onComplete ports.CompletionFunc
	lastErr    error
}

func (s *lavalinkSession) ChannelID() snowflake.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelID
}

func (s *lavalinkSession) setChannel(channelID snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelID = channelID
}

func (s *lavalinkSession) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Play resolves streamURL on the best node and starts it on the guild's player.
func (s *lavalinkSession) Play(
	ctx context.Context,
	streamURL string,
	onComplete ports.CompletionFunc,
) error {
	node := s.adapter.link.BestNode()
	if node == nil {
		return ErrNoNode
	}

	result, err := node.LoadTracks(ctx, streamURL)
	if err != nil {
		return fmt.Errorf("failed to load track: %w", err)
	}

	track, err := firstTrack(result)
	if err != nil {
		return err
	}

	s.arm(onComplete)

	player := s.adapter.link.Player(s.guildID)

	// Use WithEncodedTrack to avoid userData:null issue
	if err := player.Update(ctx, lavalink.WithEncodedTrack(track.Encoded)); err != nil {
		s.disarm()
		return fmt.Errorf("failed to play track: %w", err)
	}

	return nil
}

// Stop halts the current track. Lavalink answers with a stopped TrackEndEvent,
// which fires the pending completion.
func (s *lavalinkSession) Stop(ctx context.Context) error {
	if !s.IsPlaying() {
		return nil
	}

	player := s.adapter.link.Player(s.guildID)
	if err := player.Update(ctx, lavalink.WithNullTrack()); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	return nil
}

func (s *lavalinkSession) Disconnect(ctx context.Context) error {
	return s.adapter.leave(ctx, s.guildID)
}

// arm installs the completion for a new playback.
func (s *lavalinkSession) arm(onComplete ports.CompletionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playing = true
	s.onComplete = onComplete
	s.lastErr = nil
}

// disarm drops the pending completion without firing it.
func (s *lavalinkSession) disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playing = false
	s.onComplete = nil
	s.lastErr = nil
}

// recordError remembers err so the next completion reports it.
func (s *lavalinkSession) recordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playing && s.lastErr == nil {
		s.lastErr = err
	}
}

// complete fires the pending completion at most once.
func (s *lavalinkSession) complete(reason domain.TrackEndReason) {
	s.mu.Lock()
	if !s.playing {
		s.mu.Unlock()
		return
	}
	onComplete := s.onComplete
	err := s.lastErr
	s.playing = false
	s.onComplete = nil
	s.lastErr = nil
	s.mu.Unlock()

	if reason == domain.TrackEndLoadFailed && err == nil {
		err = errors.New("track failed to load")
	}

	if onComplete != nil {
		onComplete(reason, err)
	}
}

// LavalinkAdapter wraps DisGoLink to implement ports.VoiceConnection.
type LavalinkAdapter struct {
	link    disgolink.Client
	session *discordgo.Session
	botID   snowflake.ID

	pendingMu sync.Mutex
	pending   map[snowflake.ID]*pendingVoiceConnection

	// voiceBuffers holds buffered voice events per guild to handle out-of-order events
	voiceBufferMu sync.Mutex
	voiceBuffers  map[snowflake.ID]*voiceEventBuffer

	sessionsMu sync.Mutex
	sessions   map[snowflake.ID]*lavalinkSession
	joinLocks  map[snowflake.ID]*sync.Mutex
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
	Secure   bool
}

// NewLavalinkAdapter creates a new LavalinkAdapter and connects to the Lavalink node.
// The Discord session must already be open so the bot's user ID is known.
func NewLavalinkAdapter(
	ctx context.Context,
	session *discordgo.Session,
	config LavalinkConfig,
) (*LavalinkAdapter, error) {
	if session.State == nil || session.State.User == nil {
		return nil, errors.New("discord session is not open")
	}

	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	adapter := &LavalinkAdapter{
		session:      session,
		botID:        botID,
		pending:      make(map[snowflake.ID]*pendingVoiceConnection),
		voiceBuffers: make(map[snowflake.ID]*voiceEventBuffer),
		sessions:     make(map[snowflake.ID]*lavalinkSession),
		joinLocks:    make(map[snowflake.ID]*sync.Mutex),
	}

	// Create DisGoLink client
	link := disgolink.New(botID,
		disgolink.WithListenerFunc(adapter.onTrackStart),
		disgolink.WithListenerFunc(adapter.onTrackEnd),
		disgolink.WithListenerFunc(adapter.onTrackException),
		disgolink.WithListenerFunc(adapter.onTrackStuck),
	)
	adapter.link = link

	// Add Lavalink node
	node, err := link.AddNode(ctx, disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return adapter, nil
}

// Close disconnects from all Lavalink nodes.
func (c *LavalinkAdapter) Close() {
	c.link.Close()
}

// Connect joins the voice channel, or moves the guild's session there.
// Joins of the same guild are serialized.
func (c *LavalinkAdapter) Connect(
	ctx context.Context,
	guildID, channelID snowflake.ID,
) (ports.VoiceSession, error) {
	lock := c.joinLock(guildID)
	lock.Lock()
	defer lock.Unlock()

	if existing := c.lookup(guildID); existing != nil && existing.ChannelID() == channelID {
		return existing, nil
	}

	if err := c.joinChannel(ctx, guildID, channelID); err != nil {
		return nil, err
	}

	c.sessionsMu.Lock()
	defer c.sessionsMu.Unlock()

	s, ok := c.sessions[guildID]
	if !ok {
		s = &lavalinkSession{adapter: c, guildID: guildID}
		c.sessions[guildID] = s
	}
	s.setChannel(channelID)

	slog.Info("joined voice channel", "guild", guildID, "channel", channelID)

	return s, nil
}

// Session returns the guild's active session, or nil if not connected.
func (c *LavalinkAdapter) Session(guildID snowflake.ID) ports.VoiceSession {
	s := c.lookup(guildID)
	if s == nil {
		return nil
	}
	return s
}

func (c *LavalinkAdapter) lookup(guildID snowflake.ID) *lavalinkSession {
	c.sessionsMu.Lock()
	defer c.sessionsMu.Unlock()
	return c.sessions[guildID]
}

func (c *LavalinkAdapter) joinLock(guildID snowflake.ID) *sync.Mutex {
	c.sessionsMu.Lock()
	defer c.sessionsMu.Unlock()

	lock, ok := c.joinLocks[guildID]
	if !ok {
		lock = &sync.Mutex{}
		c.joinLocks[guildID] = lock
	}
	return lock
}

// forget drops the guild's session. A playback still in flight completes as cleanup.
func (c *LavalinkAdapter) forget(guildID snowflake.ID) {
	c.sessionsMu.Lock()
	s, ok := c.sessions[guildID]
	delete(c.sessions, guildID)
	c.sessionsMu.Unlock()

	if ok {
		s.complete(domain.TrackEndCleanup)
	}
}

// joinChannel asks Discord to connect and waits for both
// VoiceStateUpdate and VoiceServerUpdate before returning.
func (c *LavalinkAdapter) joinChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	pending := newPendingVoiceConnection()

	c.pendingMu.Lock()
	c.pending[guildID] = pending
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, guildID)
		c.pendingMu.Unlock()
	}()

	err := c.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, true)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	select {
	case <-pending.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for voice connection: %w", ctx.Err())
	case <-time.After(voiceConnectionTimeout):
		return errors.New("timeout waiting for voice connection")
	}
}

// leave destroys the player, leaves the voice channel and forgets the session.
func (c *LavalinkAdapter) leave(ctx context.Context, guildID snowflake.ID) error {
	if player := c.link.ExistingPlayer(guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", guildID, "error", err)
		}
	}

	c.forget(guildID)

	err := c.session.ChannelVoiceJoinManual(guildID.String(), "", false, false)
	if err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}

	slog.Info("left voice channel", "guild", guildID)
	return nil
}

func (c *LavalinkAdapter) pendingFor(guildID snowflake.ID) *pendingVoiceConnection {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	return c.pending[guildID]
}

// OnVoiceServerUpdate handles Discord voice server updates.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	if data, ok := c.voiceBuffer(guildID).putServer(event.Token, event.Endpoint); ok {
		c.forwardVoiceHandshake(guildID, data)
	}

	if pending := c.pendingFor(guildID); pending != nil {
		pending.markServer()
	}
}

// OnVoiceStateUpdate handles Discord voice state updates of the bot itself.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.VoiceState == nil || event.UserID != c.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	// An empty channel ID means the bot left or was disconnected
	if event.ChannelID == "" {
		c.link.OnVoiceStateUpdate(context.Background(), guildID, nil, event.SessionID)
		c.clearVoiceBuffer(guildID)

		if c.pendingFor(guildID) == nil {
			c.forget(guildID)
		}
		return
	}

	channelID, err := snowflake.Parse(event.ChannelID)
	if err != nil {
		slog.Error("failed to parse channel ID in voice state update", "error", err)
		return
	}

	if data, ok := c.voiceBuffer(guildID).putState(&channelID, event.SessionID); ok {
		c.forwardVoiceHandshake(guildID, data)
	}

	if pending := c.pendingFor(guildID); pending != nil {
		pending.markState()
	} else if s := c.lookup(guildID); s != nil {
		// Moved by someone else
		s.setChannel(channelID)
	}
}

func (c *LavalinkAdapter) voiceBuffer(guildID snowflake.ID) *voiceEventBuffer {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()

	buffer, ok := c.voiceBuffers[guildID]
	if !ok {
		buffer = &voiceEventBuffer{}
		c.voiceBuffers[guildID] = buffer
	}
	return buffer
}

func (c *LavalinkAdapter) clearVoiceBuffer(guildID snowflake.ID) {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()
	delete(c.voiceBuffers, guildID)
}

// forwardVoiceHandshake sends a complete handshake to Lavalink, state first.
func (c *LavalinkAdapter) forwardVoiceHandshake(guildID snowflake.ID, data voiceHandshake) {
	slog.Debug("forwarding voice handshake to Lavalink",
		"guild", guildID,
		"channel", data.channelID,
		"hasSessionID", data.sessionID != "",
	)

	c.link.OnVoiceStateUpdate(context.Background(), guildID, data.channelID, data.sessionID)
	c.link.OnVoiceServerUpdate(context.Background(), guildID, data.token, data.endpoint)
}

func (c *LavalinkAdapter) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started", "guild", player.GuildID(), "track", event.Track.Info.Title)
}

func (c *LavalinkAdapter) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	slog.Debug("track ended", "guild", player.GuildID(), "reason", event.Reason)

	// The replacing playback owns the completion
	if event.Reason == lavalink.TrackEndReasonReplaced {
		return
	}

	if s := c.lookup(player.GuildID()); s != nil {
		s.complete(convertEndReason(event.Reason))
	}
}

func (c *LavalinkAdapter) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	slog.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)

	if s := c.lookup(player.GuildID()); s != nil {
		s.recordError(errors.New(event.Exception.Message))
	}
}

// onTrackStuck force-stops a stalled track so the queue can move on.
func (c *LavalinkAdapter) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)

	s := c.lookup(player.GuildID())
	if s == nil {
		return
	}
	s.recordError(ErrTrackStuck)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), stuckStopTimeout)
		defer cancel()

		if err := s.Stop(ctx); err != nil {
			slog.Error("failed to stop stuck track", "guild", player.GuildID(), "error", err)
		}
	}()
}

// firstTrack picks the track to play from a load result.
func firstTrack(result *lavalink.LoadResult) (lavalink.Track, error) {
	if result == nil {
		return lavalink.Track{}, ErrNoPlayableTrack
	}

	switch data := result.Data.(type) {
	case lavalink.Track:
		return data, nil
	case lavalink.Search:
		if len(data) > 0 {
			return data[0], nil
		}
	case lavalink.Playlist:
		if len(data.Tracks) > 0 {
			return data.Tracks[0], nil
		}
	case lavalink.Exception:
		return lavalink.Track{}, fmt.Errorf("%w: %s", ErrNoPlayableTrack, data.Message)
	}

	return lavalink.Track{}, ErrNoPlayableTrack
}

func convertEndReason(reason lavalink.TrackEndReason) domain.TrackEndReason {
	switch reason {
	case lavalink.TrackEndReasonFinished:
		return domain.TrackEndFinished
	case lavalink.TrackEndReasonLoadFailed:
		return domain.TrackEndLoadFailed
	case lavalink.TrackEndReasonStopped:
		return domain.TrackEndStopped
	case lavalink.TrackEndReasonCleanup:
		return domain.TrackEndCleanup
	default:
		return domain.TrackEndStopped
	}
}

// Ensure LavalinkAdapter implements port interfaces.
var (
	_ ports.VoiceConnection = (*LavalinkAdapter)(nil)
	_ ports.VoiceSession    = (*lavalinkSession)(nil)
)
