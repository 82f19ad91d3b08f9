package domain

import (
	"fmt"
	"time"
)

// PingResult represents the result of a ping operation.
type PingResult struct {
	Message string
	Latency time.Duration
}

// NewPingResult creates a PingResult for the given gateway latency.
// A zero latency means no heartbeat has been acknowledged yet.
func NewPingResult(latency time.Duration) *PingResult {
	message := "Pong!"
	if latency > 0 {
		message = fmt.Sprintf("Pong! (%dms)", latency.Milliseconds())
	}

	return &PingResult{
		Message: message,
		Latency: latency,
	}
}
