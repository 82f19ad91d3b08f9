package infrastructure

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tunebot/internal/modules/music_player/domain"
)

func waitFor(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for events")
	}
}

func TestChannelEventBus_DeliversByType(t *testing.T) {
	bus := NewChannelEventBus(10)
	defer bus.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ended []domain.TrackEndedEvent
	exhausted := 0

	err := bus.Subscribe(reflect.TypeFor[domain.TrackEndedEvent](), func(_ context.Context, e domain.Event) {
		mu.Lock()
		ended = append(ended, e.(domain.TrackEndedEvent))
		mu.Unlock()
		wg.Done()
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = bus.Subscribe(reflect.TypeFor[domain.QueueExhaustedEvent](), func(_ context.Context, _ domain.Event) {
		mu.Lock()
		exhausted++
		mu.Unlock()
		wg.Done()
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wg.Add(2)
	if err := bus.Publish(domain.TrackEndedEvent{GuildID: 1, PlaybackID: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bus.Publish(domain.QueueExhaustedEvent{GuildID: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitFor(t, &wg)

	mu.Lock()
	defer mu.Unlock()
	if len(ended) != 1 || ended[0].PlaybackID != 5 {
		t.Errorf("expected one TrackEndedEvent with playback ID 5, got %v", ended)
	}
	if exhausted != 1 {
		t.Errorf("expected 1 QueueExhaustedEvent, got %d", exhausted)
	}
}

func TestChannelEventBus_PreservesOrderPerGuild(t *testing.T) {
	bus := NewChannelEventBus(200)
	defer bus.Close()

	const n = 100
	var wg sync.WaitGroup
	var mu sync.Mutex
	got := make(map[snowflake.ID][]uint64)

	err := bus.Subscribe(reflect.TypeFor[domain.TrackEndedEvent](), func(_ context.Context, e domain.Event) {
		event := e.(domain.TrackEndedEvent)
		mu.Lock()
		got[event.GuildID] = append(got[event.GuildID], event.PlaybackID)
		mu.Unlock()
		wg.Done()
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wg.Add(2 * n)
	for i := range n {
		for _, guildID := range []snowflake.ID{1, 2} {
			if err := bus.Publish(domain.TrackEndedEvent{GuildID: guildID, PlaybackID: uint64(i)}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
	}
	waitFor(t, &wg)

	mu.Lock()
	defer mu.Unlock()
	for _, guildID := range []snowflake.ID{1, 2} {
		ids := got[guildID]
		if len(ids) != n {
			t.Fatalf("guild %d: expected %d events, got %d", guildID, n, len(ids))
		}
		for i, id := range ids {
			if id != uint64(i) {
				t.Fatalf("guild %d: expected event %d at position %d, got %d", guildID, i, i, id)
			}
		}
	}
}

func TestChannelEventBus_GuildsAreIndependent(t *testing.T) {
	bus := NewChannelEventBus(10)

	release := make(chan struct{})
	otherDone := make(chan struct{})

	err := bus.Subscribe(reflect.TypeFor[domain.TrackEndedEvent](), func(_ context.Context, e domain.Event) {
		switch e.EventGuildID() {
		case 1:
			<-release
		case 2:
			close(otherDone)
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_ = bus.Publish(domain.TrackEndedEvent{GuildID: 1})
	_ = bus.Publish(domain.TrackEndedEvent{GuildID: 2})

	select {
	case <-otherDone:
	case <-time.After(2 * time.Second):
		t.Error("guild 2 was blocked by guild 1's handler")
	}

	close(release)
	bus.Close()
}

func TestChannelEventBus_BufferFull(t *testing.T) {
	bus := NewChannelEventBus(1)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	err := bus.Subscribe(reflect.TypeFor[domain.TrackEndedEvent](), func(_ context.Context, _ domain.Event) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// First event is taken by the dispatcher and blocks it.
	if err := bus.Publish(domain.TrackEndedEvent{GuildID: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-started

	// Second fills the buffer, third overflows.
	if err := bus.Publish(domain.TrackEndedEvent{GuildID: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bus.Publish(domain.TrackEndedEvent{GuildID: 1}); !errors.Is(err, ErrEventBufferFull) {
		t.Errorf("expected ErrEventBufferFull, got %v", err)
	}

	close(release)
	bus.Close()
}

func TestChannelEventBus_Closed(t *testing.T) {
	bus := NewChannelEventBus(10)
	bus.Close()

	if err := bus.Publish(domain.QueueExhaustedEvent{GuildID: 1}); !errors.Is(err, ErrBusClosed) {
		t.Errorf("expected ErrBusClosed, got %v", err)
	}

	err := bus.Subscribe(reflect.TypeFor[domain.QueueExhaustedEvent](), func(context.Context, domain.Event) {})
	if !errors.Is(err, ErrBusClosed) {
		t.Errorf("expected ErrBusClosed, got %v", err)
	}

	// Closing twice is a no-op.
	bus.Close()
}

func TestChannelEventBus_HandlerCanPublish(t *testing.T) {
	bus := NewChannelEventBus(10)
	defer bus.Close()

	done := make(chan struct{})
	err := bus.Subscribe(reflect.TypeFor[domain.TrackEndedEvent](), func(_ context.Context, e domain.Event) {
		_ = bus.Publish(domain.QueueExhaustedEvent{GuildID: e.EventGuildID()})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = bus.Subscribe(reflect.TypeFor[domain.QueueExhaustedEvent](), func(context.Context, domain.Event) {
		close(done)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_ = bus.Publish(domain.TrackEndedEvent{GuildID: 3})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event published from a handler was not delivered")
	}
}
