package domain

import (
	"errors"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// ErrMissingStreamURL is returned when a track is built without a playable stream URL.
var ErrMissingStreamURL = errors.New("track has no stream URL")

// Track represents a playable audio item. It is never mutated after creation.
type Track struct {
	Title       string
	StreamURL   string // direct media URL handed to the voice session
	WebpageURL  string // human-facing page URL
	RequestedBy string // display name of the requester
	RequesterID snowflake.ID
	EnqueuedAt  time.Time
}

// NewTrack creates a new Track. A stream URL is required.
func NewTrack(
	title string,
	streamURL string,
	webpageURL string,
	requestedBy string,
	requesterID snowflake.ID,
) (Track, error) {
	if streamURL == "" {
		return Track{}, ErrMissingStreamURL
	}

	return Track{
		Title:       title,
		StreamURL:   streamURL,
		WebpageURL:  webpageURL,
		RequestedBy: requestedBy,
		RequesterID: requesterID,
		EnqueuedAt:  time.Now().UTC(),
	}, nil
}
