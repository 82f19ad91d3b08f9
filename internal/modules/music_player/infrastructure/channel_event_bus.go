package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tunebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tunebot/internal/modules/music_player/domain"
)

// DefaultEventBufferSize is the default buffer size of each guild's mailbox.
const DefaultEventBufferSize = 100

var (
	// ErrBusClosed is returned when publishing to or subscribing on a closed bus.
	ErrBusClosed = errors.New("event bus is closed")

	// ErrEventBufferFull is returned when a guild's mailbox cannot take more events.
	ErrEventBufferFull = errors.New("event buffer full")
)

// Compile-time checks that ChannelEventBus implements ports interfaces.
var (
	_ ports.EventPublisher  = (*ChannelEventBus)(nil)
	_ ports.EventSubscriber = (*ChannelEventBus)(nil)
)

// ChannelEventBus provides a channel-based event bus for async event handling.
// Each guild gets its own mailbox and dispatcher goroutine, so events of one
// guild are handled one at a time in publish order while guilds never wait
// on each other.
type ChannelEventBus struct {
	bufferSize int

	handlers  map[reflect.Type][]func(context.Context, domain.Event)
	mailboxes map[snowflake.ID]chan domain.Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewChannelEventBus creates a new ChannelEventBus with the given per-guild buffer size.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ChannelEventBus{
		bufferSize: bufferSize,
		handlers:   make(map[reflect.Type][]func(context.Context, domain.Event)),
		mailboxes:  make(map[snowflake.ID]chan domain.Event),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Publish queues the event on its guild's mailbox.
// Non-blocking: if the mailbox is full, the event is dropped and ErrEventBufferFull returned.
func (b *ChannelEventBus) Publish(event domain.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	eventType := fmt.Sprintf("%T", event)

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", eventType)
		return ErrBusClosed
	}

	guildID := event.EventGuildID()
	mailbox, ok := b.mailboxes[guildID]
	if !ok {
		mailbox = make(chan domain.Event, b.bufferSize)
		b.mailboxes[guildID] = mailbox
		b.wg.Add(1)
		go b.dispatch(guildID, mailbox)
	}

	select {
	case mailbox <- event:
		slog.Debug("published event", "type", eventType, "guild", guildID)
		return nil
	default:
		slog.Warn("event buffer full, dropping event", "type", eventType, "guild", guildID)
		return ErrEventBufferFull
	}
}

// Subscribe registers a handler for events of the given type.
func (b *ChannelEventBus) Subscribe(
	eventType reflect.Type,
	handler func(context.Context, domain.Event),
) error {
	if eventType == nil || handler == nil {
		return errors.New("event type and handler must not be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// dispatch runs a guild's handlers until the bus is closed.
func (b *ChannelEventBus) dispatch(guildID snowflake.ID, mailbox <-chan domain.Event) {
	defer b.wg.Done()

	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-mailbox:
			if !ok {
				return
			}

			b.mu.RLock()
			handlers := b.handlers[reflect.TypeOf(event)]
			b.mu.RUnlock()

			if len(handlers) == 0 {
				slog.Debug("no handler for event", "type", fmt.Sprintf("%T", event), "guild", guildID)
			}
			for _, handler := range handlers {
				handler(b.ctx, event)
			}
		}
	}
}

// Close stops all dispatchers and waits for in-flight handlers to return.
// After calling Close, Publish returns ErrBusClosed.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true

	// Cancel context to stop dispatchers
	b.cancel()

	for _, mailbox := range b.mailboxes {
		close(mailbox)
	}
	b.mu.Unlock()

	// Wait for dispatchers to finish
	b.wg.Wait()

	slog.Debug("channel event bus closed")
}
