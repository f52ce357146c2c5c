package services

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"campusevents/internal/domain"
)

type engagementService struct {
	eventRepo      domain.EventRepository
	cache          domain.FeedCache
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewEngagementService creates an EngagementService. cache may be nil.
func NewEngagementService(eventRepo domain.EventRepository, cache domain.FeedCache, logger *slog.Logger, timeout time.Duration) domain.EngagementService {
	return &engagementService{
		eventRepo:      eventRepo,
		cache:          cache,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *engagementService) ToggleLike(ctx context.Context, eventID, userID string) (*domain.LikeResult, error) {
	eventID, userID = strings.TrimSpace(eventID), strings.TrimSpace(userID)
	if eventID == "" || userID == "" {
		return nil, invalid("event id and user id are required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	res, err := s.eventRepo.ToggleLike(ctx, eventID, userID)
	if err != nil {
		return nil, storeErr("toggle like", err)
	}
	invalidateFeed(ctx, s.cache, s.logger)
	return res, nil
}

func (s *engagementService) AddComment(ctx context.Context, eventID, userID, text string) (*domain.Comment, error) {
	eventID, userID = strings.TrimSpace(eventID), strings.TrimSpace(userID)
	if eventID == "" || userID == "" {
		return nil, invalid("event id and user id are required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("comment text is required")
	}
	if utf8.RuneCountInString(text) > domain.MaxCommentLength {
		return nil, invalid("comment text is too long")
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	comment := domain.Comment{AuthorID: userID, Text: text, Timestamp: s.now().UTC()}
	if err := s.eventRepo.AppendComment(ctx, eventID, comment); err != nil {
		return nil, storeErr("append comment", err)
	}
	invalidateFeed(ctx, s.cache, s.logger)
	return &comment, nil
}

// invalidateFeed drops cached feed pages. Failures only cost staleness until the TTL expires.
func invalidateFeed(ctx context.Context, cache domain.FeedCache, logger *slog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		logger.WarnContext(ctx, "feed cache invalidation failed", "err", err)
	}
}
