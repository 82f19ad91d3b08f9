package music_player

import (
	"errors"

	"github.com/sglre6355/tunebot/internal/modules/music_player/infrastructure"
	"golang.org/x/time/rate"
)

// Config holds the music player module configuration.
type Config struct {
	LavalinkAddress  string `env:"LAVALINK_ADDRESS,notEmpty"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD,notEmpty"`
	LavalinkSecure   bool   `env:"LAVALINK_SECURE"            envDefault:"false"`

	YTDLFormat             string `env:"YTDL_FORMAT"              envDefault:"bestaudio/best"`
	YTDLNoCheckCertificate bool   `env:"YTDL_NOCHECK_CERTIFICATE" envDefault:"true"`
	YTDLDefaultSearch      string `env:"YTDL_DEFAULT_SEARCH"      envDefault:"ytsearch"`
	YTDLSourceAddress      string `env:"YTDL_SOURCE_ADDRESS"      envDefault:"0.0.0.0"`
	YTDLInstall            bool   `env:"YTDL_INSTALL"             envDefault:"false"`

	ExtractRate  float64 `env:"EXTRACT_RATE"  envDefault:"2"`
	ExtractBurst int     `env:"EXTRACT_BURST" envDefault:"4"`

	EventBufferSize int `env:"EVENT_BUFFER_SIZE" envDefault:"100"`
	QueuePageSize   int `env:"QUEUE_PAGE_SIZE"   envDefault:"10"`
}

// validate rejects values env tags cannot express.
func (c *Config) validate() error {
	if c.ExtractRate < 0 {
		return errors.New("EXTRACT_RATE must not be negative")
	}
	if c.ExtractRate > 0 && c.ExtractBurst < 1 {
		return errors.New("EXTRACT_BURST must be at least 1")
	}
	if c.EventBufferSize < 1 {
		return errors.New("EVENT_BUFFER_SIZE must be at least 1")
	}
	if c.QueuePageSize < 1 {
		return errors.New("QUEUE_PAGE_SIZE must be at least 1")
	}
	return nil
}

// lavalinkConfig returns the Lavalink connection settings.
func (c *Config) lavalinkConfig() infrastructure.LavalinkConfig {
	return infrastructure.LavalinkConfig{
		Address:  c.LavalinkAddress,
		Password: c.LavalinkPassword,
		Secure:   c.LavalinkSecure,
	}
}

// ytdlpConfig returns the yt-dlp extraction options.
func (c *Config) ytdlpConfig() infrastructure.YTDLPConfig {
	return infrastructure.YTDLPConfig{
		Format:             c.YTDLFormat,
		NoCheckCertificate: c.YTDLNoCheckCertificate,
		DefaultSearch:      c.YTDLDefaultSearch,
		SourceAddress:      c.YTDLSourceAddress,
	}
}

// extractLimiter returns the extraction rate limiter. A zero rate disables throttling.
func (c *Config) extractLimiter() *rate.Limiter {
	if c.ExtractRate == 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(c.ExtractRate), c.ExtractBurst)
}
