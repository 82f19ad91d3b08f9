package infrastructure

import (
	"errors"
	"testing"

	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tunebot/internal/modules/music_player/domain"
)

func TestFirstTrack(t *testing.T) {
	track := func(encoded string) lavalink.Track {
		return lavalink.Track{Encoded: encoded}
	}

	tests := []struct {
		name        string
		result      *lavalink.LoadResult
		wantEncoded string
		wantErr     error
	}{
		{
			name:    "nil result",
			result:  nil,
			wantErr: ErrNoPlayableTrack,
		},
		{
			name:        "single track",
			result:      &lavalink.LoadResult{Data: track("a")},
			wantEncoded: "a",
		},
		{
			name:        "search picks first",
			result:      &lavalink.LoadResult{Data: lavalink.Search{track("s1"), track("s2")}},
			wantEncoded: "s1",
		},
		{
			name:    "empty search",
			result:  &lavalink.LoadResult{Data: lavalink.Search{}},
			wantErr: ErrNoPlayableTrack,
		},
		{
			name: "playlist picks first",
			result: &lavalink.LoadResult{Data: lavalink.Playlist{
				Tracks: []lavalink.Track{track("p1"), track("p2")},
			}},
			wantEncoded: "p1",
		},
		{
			name:    "empty",
			result:  &lavalink.LoadResult{Data: lavalink.Empty{}},
			wantErr: ErrNoPlayableTrack,
		},
		{
			name:    "exception",
			result:  &lavalink.LoadResult{Data: lavalink.Exception{Message: "unavailable"}},
			wantErr: ErrNoPlayableTrack,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := firstTrack(tt.result)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Encoded != tt.wantEncoded {
				t.Errorf("expected encoded %q, got %q", tt.wantEncoded, got.Encoded)
			}
		})
	}
}

func TestConvertEndReason(t *testing.T) {
	tests := []struct {
		input lavalink.TrackEndReason
		want  domain.TrackEndReason
	}{
		{lavalink.TrackEndReasonFinished, domain.TrackEndFinished},
		{lavalink.TrackEndReasonLoadFailed, domain.TrackEndLoadFailed},
		{lavalink.TrackEndReasonStopped, domain.TrackEndStopped},
		{lavalink.TrackEndReasonCleanup, domain.TrackEndCleanup},
		{lavalink.TrackEndReason("unknown"), domain.TrackEndStopped},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			if got := convertEndReason(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestVoiceEventBuffer(t *testing.T) {
	channelID := snowflake.ID(42)

	t.Run("state then server", func(t *testing.T) {
		var b voiceEventBuffer

		if _, ok := b.putState(&channelID, "session"); ok {
			t.Fatal("handshake should not be complete after state only")
		}
		data, ok := b.putServer("token", "endpoint")
		if !ok {
			t.Fatal("handshake should be complete")
		}
		if data.channelID == nil || *data.channelID != channelID {
			t.Errorf("expected channel %d, got %v", channelID, data.channelID)
		}
		if data.sessionID != "session" || data.token != "token" || data.endpoint != "endpoint" {
			t.Errorf("unexpected handshake data: %+v", data)
		}
	})

	t.Run("server then state", func(t *testing.T) {
		var b voiceEventBuffer

		if _, ok := b.putServer("token", "endpoint"); ok {
			t.Fatal("handshake should not be complete after server only")
		}
		if _, ok := b.putState(&channelID, "session"); !ok {
			t.Fatal("handshake should be complete")
		}
	})

	t.Run("resets after completion", func(t *testing.T) {
		var b voiceEventBuffer

		b.putState(&channelID, "session")
		b.putServer("token", "endpoint")

		if _, ok := b.putServer("token2", "endpoint2"); ok {
			t.Error("buffer should have been reset after a complete handshake")
		}
	})
}

func TestPendingVoiceConnection(t *testing.T) {
	p := newPendingVoiceConnection()

	p.markServer()
	select {
	case <-p.ready:
		t.Fatal("ready should not be closed after one event")
	default:
	}

	p.markState()
	select {
	case <-p.ready:
	default:
		t.Fatal("ready should be closed after both events")
	}

	// Repeated events must not close the channel twice.
	p.markState()
	p.markServer()
}

func TestLavalinkSession_Complete(t *testing.T) {
	t.Run("fires once", func(t *testing.T) {
		s := &lavalinkSession{}
		calls := 0
		var gotReason domain.TrackEndReason

		s.arm(func(reason domain.TrackEndReason, _ error) {
			calls++
			gotReason = reason
		})
		if !s.IsPlaying() {
			t.Fatal("session should be playing after arm")
		}

		s.complete(domain.TrackEndFinished)
		s.complete(domain.TrackEndStopped)

		if calls != 1 {
			t.Errorf("expected 1 completion, got %d", calls)
		}
		if gotReason != domain.TrackEndFinished {
			t.Errorf("expected reason %q, got %q", domain.TrackEndFinished, gotReason)
		}
		if s.IsPlaying() {
			t.Error("session should not be playing after completion")
		}
	})

	t.Run("reports recorded error", func(t *testing.T) {
		s := &lavalinkSession{}
		var gotErr error

		s.arm(func(_ domain.TrackEndReason, err error) { gotErr = err })
		s.recordError(ErrTrackStuck)
		s.complete(domain.TrackEndStopped)

		if !errors.Is(gotErr, ErrTrackStuck) {
			t.Errorf("expected ErrTrackStuck, got %v", gotErr)
		}
	})

	t.Run("load failure without exception still reports error", func(t *testing.T) {
		s := &lavalinkSession{}
		var gotErr error

		s.arm(func(_ domain.TrackEndReason, err error) { gotErr = err })
		s.complete(domain.TrackEndLoadFailed)

		if gotErr == nil {
			t.Error("expected an error for a load failure")
		}
	})

	t.Run("disarmed session does not fire", func(t *testing.T) {
		s := &lavalinkSession{}
		called := false

		s.arm(func(domain.TrackEndReason, error) { called = true })
		s.disarm()
		s.complete(domain.TrackEndFinished)

		if called {
			t.Error("completion should not fire after disarm")
		}
	})

	t.Run("error from previous playback is not carried over", func(t *testing.T) {
		s := &lavalinkSession{}
		var gotErr error

		s.arm(func(domain.TrackEndReason, error) {})
		s.recordError(ErrTrackStuck)
		s.complete(domain.TrackEndStopped)

		s.arm(func(_ domain.TrackEndReason, err error) { gotErr = err })
		s.complete(domain.TrackEndFinished)

		if gotErr != nil {
			t.Errorf("expected no error, got %v", gotErr)
		}
	})
}
