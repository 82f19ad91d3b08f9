package usecases

import "errors"

// Errors returned by the music player use cases.
var (
	// ErrNotConnected is returned when an operation requires the bot to be in a voice channel.
	ErrNotConnected = errors.New("not connected to a voice channel")

	// ErrUserNotInVoice is returned when the user is not in a voice channel.
	ErrUserNotInVoice = errors.New("you must be in a voice channel")

	// ErrNotPlaying is returned when no track is currently playing.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrNoResults is returned when extraction yields no usable entry.
	ErrNoResults = errors.New("no results found")

	// ErrQueueEmpty is returned when the queue is empty and nothing is current.
	ErrQueueEmpty = errors.New("the queue is empty")

	// ErrLoadFailed is returned when the extractor fails or its result has no stream URL.
	ErrLoadFailed = errors.New("failed to load track")

	// ErrPlaybackFailed is returned when the voice session refuses to start a track.
	ErrPlaybackFailed = errors.New("failed to start playback")

	// ErrEmptyQuery is returned when a play request has no query.
	ErrEmptyQuery = errors.New("query must not be empty")
)
