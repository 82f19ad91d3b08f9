package usecases

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tunebot/internal/modules/music_player/domain"
)

const DefaultPageSize = 10

// QueueListInput contains the input for the QueueList use case.
type QueueListInput struct {
	GuildID  snowflake.ID
	Page     int // 1-indexed page number
	PageSize int // Items per page (optional, defaults to DefaultPageSize)
}

// QueueListOutput contains the result of the QueueList use case.
type QueueListOutput struct {
	CurrentTrack *domain.Track
	Tracks       []domain.Track
	PageStart    int // 0-indexed position of Tracks[0] in the waiting queue
	TotalTracks  int
	CurrentPage  int
	TotalPages   int
}

// QueueService handles read-only queue operations.
type QueueService struct {
	repo     domain.GuildStateRepository
	pageSize int
}

// NewQueueService creates a new QueueService.
// A non-positive pageSize falls back to DefaultPageSize.
func NewQueueService(repo domain.GuildStateRepository, pageSize int) *QueueService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &QueueService{
		repo:     repo,
		pageSize: pageSize,
	}
}

// List returns the current track and one page of the waiting queue.
// The result is a consistent snapshot taken under the guild's lock.
func (q *QueueService) List(input QueueListInput) (*QueueListOutput, error) {
	state := q.repo.Get(input.GuildID)
	if state == nil {
		return nil, ErrQueueEmpty
	}

	currentTrack, queuedTracks := state.Snapshot()
	if currentTrack == nil && len(queuedTracks) == 0 {
		return nil, ErrQueueEmpty
	}

	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = q.pageSize
	}

	page := input.Page
	if page <= 0 {
		page = 1
	}

	// Pagination applies to queued tracks only
	totalTracks := len(queuedTracks)
	totalPages := (totalTracks + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	// Clamp page to valid range
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, totalTracks)

	var pageTracks []domain.Track
	if start < totalTracks {
		pageTracks = queuedTracks[start:end]
	}

	return &QueueListOutput{
		CurrentTrack: currentTrack,
		Tracks:       pageTracks,
		PageStart:    start,
		TotalTracks:  totalTracks,
		CurrentPage:  page,
		TotalPages:   totalPages,
	}, nil
}
