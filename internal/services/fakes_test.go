package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sort"
	"sync"
	"time"

	"campusevents/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeEventRepo is an in-memory domain.EventRepository ordered like the real stores.
type fakeEventRepo struct {
	mu     sync.Mutex
	events map[string]*domain.Event
	nextID int
	err    error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]*domain.Event)}
}

func (f *fakeEventRepo) seed(e *domain.Event) *domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.ID == "" {
		f.nextID++
		e.ID = fmt.Sprintf("ev-%03d", f.nextID)
	}
	f.events[e.ID] = e
	return e
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	f.seed(e)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e.Clone(), nil
}

func (f *fakeEventRepo) sorted() []*domain.Event {
	out := make([]*domain.Event, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (f *fakeEventRepo) List(ctx context.Context, p domain.PaginationParams) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	all := f.sorted()
	start := p.Offset()
	if start >= len(all) {
		return []*domain.Event{}, nil
	}
	end := start + p.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (f *fakeEventRepo) ListByCreator(ctx context.Context, creatorID string) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, e := range f.sorted() {
		if e.CreatedBy == creatorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, id string, patch domain.EventPatch, updatedAt time.Time) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.Thumbnail != nil {
		e.Thumbnail = *patch.Thumbnail
	}
	if patch.Date != nil {
		e.Date = patch.Date
	}
	e.UpdatedAt = updatedAt
	return e.Clone(), nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEventRepo) ToggleLike(ctx context.Context, eventID, userID string) (*domain.LikeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.events[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if e.LikedBy(userID) {
		kept := e.Likes[:0]
		for _, id := range e.Likes {
			if id != userID {
				kept = append(kept, id)
			}
		}
		e.Likes = kept
		return &domain.LikeResult{Likes: len(e.Likes), Liked: false}, nil
	}
	e.Likes = append(e.Likes, userID)
	return &domain.LikeResult{Likes: len(e.Likes), Liked: true}, nil
}

func (f *fakeEventRepo) AppendComment(ctx context.Context, eventID string, c domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	e, ok := f.events[eventID]
	if !ok {
		return domain.ErrNotFound
	}
	e.Comments = append(e.Comments, c)
	return nil
}

// fakeCache is an in-memory domain.FeedCache.
type fakeCache struct {
	pages         map[domain.PaginationParams][]*domain.Event
	invalidations int
	getErr        error
}

func newFakeCache() *fakeCache {
	return &fakeCache{pages: make(map[domain.PaginationParams][]*domain.Event)}
}

func (c *fakeCache) Get(ctx context.Context, p domain.PaginationParams) ([]*domain.Event, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	ev, ok := c.pages[p]
	return ev, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, p domain.PaginationParams, events []*domain.Event) error {
	c.pages[p] = events
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context) error {
	c.invalidations++
	c.pages = make(map[domain.PaginationParams][]*domain.Event)
	return nil
}

// fakeUserRepo implements domain.UserRepository for tests.
type fakeUserRepo struct {
	byID      map[string]*domain.User
	getErr    error
	updateErr error
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{byID: make(map[string]*domain.User)}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate, updatedAt time.Time) (*domain.User, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.FirstName, u.LastName, u.Email = update.FirstName, update.LastName, update.Email
	u.UpdatedAt = updatedAt
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) SwapPhoto(ctx context.Context, id, photo string, updatedAt time.Time) (*domain.User, string, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	prev := u.Photo
	u.Photo = photo
	u.UpdatedAt = updatedAt
	cp := *u
	return &cp, prev, nil
}

func (f *fakeUserRepo) ListOthers(ctx context.Context, excludeID string, limit int) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range f.byID {
		if u.ID != excludeID {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeUserRepo) AddConnection(ctx context.Context, userID, targetID string) (bool, error) {
	u, ok := f.byID[userID]
	if !ok {
		return false, domain.ErrNotFound
	}
	for _, c := range u.Connections {
		if c == targetID {
			return false, nil
		}
	}
	u.Connections = append(u.Connections, targetID)
	return true, nil
}

// fakeBlobStore is an in-memory domain.BlobStore.
type fakeBlobStore struct {
	blobs   map[string][]byte
	deleted []string
	saveErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (b *fakeBlobStore) Save(ctx context.Context, name string, r io.Reader) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.blobs[name] = data
	return nil
}

func (b *fakeBlobStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	data, ok := b.blobs[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *fakeBlobStore) Delete(ctx context.Context, name string) error {
	b.deleted = append(b.deleted, name)
	if _, ok := b.blobs[name]; !ok {
		return fmt.Errorf("delete %s: %w", name, fs.ErrNotExist)
	}
	delete(b.blobs, name)
	return nil
}

// fakeEmailService records connection notices.
type fakeEmailService struct {
	sent []*domain.ConnectionEmailData
	err  error
}

func (f *fakeEmailService) SendConnectionNotice(ctx context.Context, data *domain.ConnectionEmailData) error {
	f.sent = append(f.sent, data)
	return f.err
}

var errBoom = errors.New("boom")
