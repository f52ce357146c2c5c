package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"campusevents/internal/domain"
)

type feedService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	cache          domain.FeedCache
	logger         *slog.Logger
	pageSize       int
	contextTimeout time.Duration
	now            func() time.Time
}

// NewFeedService creates a FeedService serving pages of pageSize events. cache may be nil.
func NewFeedService(
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	cache domain.FeedCache,
	logger *slog.Logger,
	pageSize int,
	timeout time.Duration,
) domain.FeedService {
	if pageSize < 1 {
		pageSize = 10
	}
	return &feedService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		cache:          cache,
		logger:         logger,
		pageSize:       pageSize,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *feedService) ListEvents(ctx context.Context, page int) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p := domain.NewPaginationParams(page, s.pageSize)
	if s.cache != nil {
		events, ok, err := s.cache.Get(ctx, p)
		if err != nil {
			s.logger.WarnContext(ctx, "feed cache read failed", "page", p.Page, "err", err)
		} else if ok {
			return events, nil
		}
	}

	events, err := s.eventRepo.List(ctx, p)
	if err != nil {
		return nil, storeErr("list events", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, p, events); err != nil {
			s.logger.WarnContext(ctx, "feed cache write failed", "page", p.Page, "err", err)
		}
	}
	return events, nil
}

func (s *feedService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalid("event id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get event", err)
	}
	return event, nil
}

func (s *feedService) ListMine(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByCreator(ctx, organizerID)
	if err != nil {
		return nil, storeErr("list events by creator", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *feedService) CreateEvent(ctx context.Context, organizerID string, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event.Title = strings.TrimSpace(event.Title)
	if event.Title == "" {
		return invalid("title is required")
	}
	if err := s.requireOrganizer(ctx, organizerID); err != nil {
		return err
	}

	now := s.now().UTC()
	event.CreatedBy = organizerID
	event.Likes = []string{}
	event.Comments = []domain.Comment{}
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return storeErr("create event", err)
	}
	invalidateFeed(ctx, s.cache, s.logger)
	return nil
}

func (s *feedService) UpdateEvent(ctx context.Context, id, callerID string, patch domain.EventPatch) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			return nil, invalid("title cannot be empty")
		}
		patch.Title = &t
	}
	if err := s.requireOwner(ctx, id, callerID); err != nil {
		return nil, err
	}
	updated, err := s.eventRepo.Update(ctx, id, patch, s.now().UTC())
	if err != nil {
		return nil, storeErr("update event", err)
	}
	invalidateFeed(ctx, s.cache, s.logger)
	return updated, nil
}

func (s *feedService) DeleteEvent(ctx context.Context, id, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requireOwner(ctx, id, callerID); err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return storeErr("delete event", err)
	}
	invalidateFeed(ctx, s.cache, s.logger)
	return nil
}

func (s *feedService) requireOrganizer(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return storeErr("get user", err)
	}
	if user.Type != domain.UserTypeOrganizer {
		return domain.ErrForbidden
	}
	return nil
}

func (s *feedService) requireOwner(ctx context.Context, eventID, callerID string) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return storeErr("get event", err)
	}
	if event.CreatedBy != callerID {
		return domain.ErrForbidden
	}
	return nil
}
