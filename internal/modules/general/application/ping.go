package application

import (
	"time"

	"github.com/sglre6355/tunebot/internal/modules/general/domain"
)

// PingInteractor handles the ping use case.
type PingInteractor struct {
	latency func() time.Duration
}

// NewPingInteractor creates a new PingInteractor. latency reports the gateway
// heartbeat latency and may be nil.
func NewPingInteractor(latency func() time.Duration) *PingInteractor {
	return &PingInteractor{latency: latency}
}

// Execute performs the ping operation and returns the result.
func (p *PingInteractor) Execute() *domain.PingResult {
	var latency time.Duration
	if p.latency != nil {
		latency = p.latency()
	}
	return domain.NewPingResult(latency)
}
