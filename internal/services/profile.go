package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"campusevents/internal/domain"
)

var (
	emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	photoExtensions = map[string]struct{}{
		".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {},
	}
)

type profileService struct {
	userRepo         domain.UserRepository
	blobs            domain.BlobStore
	emailService     domain.EmailService
	policy           domain.ProfilePolicy
	suggestionsLimit int
	logger           *slog.Logger
	contextTimeout   time.Duration
	now              func() time.Time
}

// NewProfileService creates a ProfileService. emailService may be nil, in which case
// connection notifications are skipped.
func NewProfileService(
	userRepo domain.UserRepository,
	blobs domain.BlobStore,
	emailService domain.EmailService,
	policy domain.ProfilePolicy,
	suggestionsLimit int,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ProfileService {
	if suggestionsLimit < 1 {
		suggestionsLimit = 20
	}
	return &profileService{
		userRepo:         userRepo,
		blobs:            blobs,
		emailService:     emailService,
		policy:           policy,
		suggestionsLimit: suggestionsLimit,
		logger:           logger,
		contextTimeout:   timeout,
		now:              time.Now,
	}
}

func (s *profileService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return domain.ProfileOf(user), nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.Profile, error) {
	update.FirstName = strings.TrimSpace(update.FirstName)
	update.LastName = strings.TrimSpace(update.LastName)
	update.Email = strings.TrimSpace(strings.ToLower(update.Email))
	if update.FirstName == "" || update.LastName == "" {
		return nil, invalid("first name and last name are required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	current, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr("get user", err)
	}
	switch {
	case update.Email == "" || strings.EqualFold(update.Email, current.Email):
		update.Email = current.Email
	case !s.policy.EmailEditable:
		return nil, invalid("email cannot be changed")
	case !emailRegexp.MatchString(update.Email):
		return nil, invalid("invalid email format")
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, update, s.now().UTC())
	if err != nil {
		return nil, storeErr("update user", err)
	}
	return domain.ProfileOf(user), nil
}

func (s *profileService) UpdatePhoto(ctx context.Context, userID, filename string, r io.Reader) (*domain.Profile, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := photoExtensions[ext]; !ok {
		return nil, invalid("photo must be a png, jpg, gif or webp image")
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name := uuid.NewString() + ext
	if err := s.blobs.Save(ctx, name, r); err != nil {
		return nil, storeErr("save photo", err)
	}

	user, previous, err := s.userRepo.SwapPhoto(ctx, userID, name, s.now().UTC())
	if err != nil {
		s.deleteBlob(ctx, name)
		return nil, storeErr("swap photo", err)
	}
	if previous != "" && previous != name {
		s.deleteBlob(ctx, previous)
	}
	return domain.ProfileOf(user), nil
}

func (s *profileService) deleteBlob(ctx context.Context, name string) {
	if err := s.blobs.Delete(ctx, name); err != nil {
		s.logger.WarnContext(ctx, "photo delete failed", "photo", name, "err", err)
	}
}

func (s *profileService) OpenPhoto(ctx context.Context, name string) (io.ReadCloser, error) {
	rc, err := s.blobs.Open(ctx, name)
	if err != nil {
		return nil, storeErr("open photo", err)
	}
	return rc, nil
}

func (s *profileService) ListSuggestions(ctx context.Context, userID string) ([]*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	users, err := s.userRepo.ListOthers(ctx, userID, s.suggestionsLimit)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	out := make([]*domain.Profile, 0, len(users))
	for _, u := range users {
		if u.ID == userID {
			continue
		}
		out = append(out, domain.ProfileOf(u))
	}
	return out, nil
}

func (s *profileService) AddConnection(ctx context.Context, userID, targetID string) error {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return invalid("target user id is required")
	}
	if targetID == userID {
		return invalid("cannot connect to yourself")
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return storeErr("get target user", err)
	}
	added, err := s.userRepo.AddConnection(ctx, userID, targetID)
	if err != nil {
		return storeErr("add connection", err)
	}
	if added {
		s.notifyConnection(ctx, userID, target)
	}
	return nil
}

func (s *profileService) notifyConnection(ctx context.Context, userID string, target *domain.User) {
	if s.emailService == nil || target.Email == "" {
		return
	}
	from, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "connection notice skipped", "user_id", userID, "err", err)
		return
	}
	data := &domain.ConnectionEmailData{
		Email:         target.Email,
		FirstName:     target.FirstName,
		FromFirstName: from.FirstName,
		FromLastName:  from.LastName,
	}
	if err := s.emailService.SendConnectionNotice(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "connection notice failed", "target_id", target.ID, "err", err)
	}
}
