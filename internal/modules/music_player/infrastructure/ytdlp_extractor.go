package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"github.com/sglre6355/tunebot/internal/modules/music_player/application/ports"
)

// YTDLPConfig contains yt-dlp extraction options.
type YTDLPConfig struct {
	Format             string
	NoCheckCertificate bool
	DefaultSearch      string
	SourceAddress      string
}

// YTDLPExtractor resolves URLs and search queries with yt-dlp.
type YTDLPExtractor struct {
	config YTDLPConfig
}

// NewYTDLPExtractor creates a new YTDLPExtractor.
func NewYTDLPExtractor(config YTDLPConfig) *YTDLPExtractor {
	return &YTDLPExtractor{config: config}
}

// InstallYTDLP makes sure a yt-dlp binary is available, downloading one if needed.
func InstallYTDLP(ctx context.Context) error {
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}

	slog.Info("yt-dlp ready", "path", resolved.Executable, "version", resolved.Version)
	return nil
}

// Extract runs yt-dlp without downloading and returns the single-JSON metadata.
func (e *YTDLPExtractor) Extract(ctx context.Context, query string) (*ports.ExtractionResult, error) {
	cmd := ytdlp.New().
		Format(e.config.Format).
		NoPlaylist().
		DumpSingleJSON().
		Quiet().
		NoWarnings().
		IgnoreConfig()

	if e.config.DefaultSearch != "" {
		cmd.DefaultSearch(e.config.DefaultSearch)
	}
	if e.config.SourceAddress != "" {
		cmd.SourceAddress(e.config.SourceAddress)
	}
	if e.config.NoCheckCertificate {
		cmd.NoCheckCertificates()
	}

	res, err := cmd.Run(ctx, query)
	if err != nil {
		if res != nil && res.Stderr != "" {
			return nil, fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(res.Stderr))
		}
		return nil, fmt.Errorf("yt-dlp failed: %w", err)
	}

	return parseExtraction(res.Stdout)
}

// ytdlpInfo is the subset of yt-dlp's info dict that playback needs.
type ytdlpInfo struct {
	URL        *string      `json:"url"`
	Title      *string      `json:"title"`
	WebpageURL *string      `json:"webpage_url"`
	Entries    []*ytdlpInfo `json:"entries"`
}

func (i *ytdlpInfo) toResult() *ports.ExtractionResult {
	if i == nil {
		return nil
	}

	result := &ports.ExtractionResult{
		URL:        i.URL,
		Title:      i.Title,
		WebpageURL: i.WebpageURL,
	}
	if i.Entries != nil {
		result.Entries = make([]*ports.ExtractionResult, len(i.Entries))
		for idx, entry := range i.Entries {
			result.Entries[idx] = entry.toResult()
		}
	}
	return result
}

// parseExtraction decodes yt-dlp's --dump-single-json output.
func parseExtraction(stdout string) (*ports.ExtractionResult, error) {
	stdout = strings.TrimSpace(stdout)
	if stdout == "" {
		return nil, errors.New("yt-dlp returned no output")
	}

	var info ytdlpInfo
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		return nil, fmt.Errorf("failed to decode yt-dlp output: %w", err)
	}

	return info.toResult(), nil
}

// Ensure YTDLPExtractor implements ports.Extractor.
var _ ports.Extractor = (*YTDLPExtractor)(nil)
