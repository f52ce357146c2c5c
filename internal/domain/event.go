package domain

import (
	"context"
	"time"
)

// MaxCommentLength bounds the size of a single comment, in runes.
const MaxCommentLength = 1000

// Event is a published item owned by an organizer. Likes is a set of user IDs;
// Comments is append-only and kept in insertion order.
// swagger:model Event
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Thumbnail   string     `json:"thumbnail"`
	CreatedBy   string     `json:"created_by"`
	Date        *time.Time `json:"date,omitempty"`
	Likes       []string   `json:"likes"`
	Comments    []Comment  `json:"comments"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewEvent returns a new Event with empty engagement. ID is typically set by the repository on create.
func NewEvent(title, description, thumbnail, createdBy string, date *time.Time, createdAt time.Time) *Event {
	return &Event{
		Title:       title,
		Description: description,
		Thumbnail:   thumbnail,
		CreatedBy:   createdBy,
		Date:        date,
		Likes:       []string{},
		Comments:    []Comment{},
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

// LikedBy reports whether userID is in the like set.
func (e *Event) LikedBy(userID string) bool {
	for _, id := range e.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the event so callers can snapshot state.
func (e *Event) Clone() *Event {
	cp := *e
	cp.Likes = append([]string(nil), e.Likes...)
	cp.Comments = append([]Comment(nil), e.Comments...)
	if e.Date != nil {
		d := *e.Date
		cp.Date = &d
	}
	return &cp
}

// Comment is a single immutable remark on an event.
// swagger:model Comment
type Comment struct {
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// LikeResult is the store's state after a like toggle.
// swagger:model LikeResult
type LikeResult struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}

// EventPatch carries the organizer-editable fields; nil means unchanged.
type EventPatch struct {
	Title       *string
	Description *string
	Thumbnail   *string
	Date        *time.Time
}

// EventRepository defines the interface for event storage.
// ToggleLike and AppendComment must be single atomic document updates.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, p PaginationParams) ([]*Event, error)
	ListByCreator(ctx context.Context, creatorID string) ([]*Event, error)
	Update(ctx context.Context, id string, patch EventPatch, updatedAt time.Time) (*Event, error)
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, eventID, userID string) (*LikeResult, error)
	AppendComment(ctx context.Context, eventID string, comment Comment) error
}

// FeedCache caches feed pages. Invalidate drops every cached page.
type FeedCache interface {
	Get(ctx context.Context, p PaginationParams) ([]*Event, bool, error)
	Set(ctx context.Context, p PaginationParams, events []*Event) error
	Invalidate(ctx context.Context) error
}

// EngagementService owns like toggles and comment appends on a single event.
type EngagementService interface {
	ToggleLike(ctx context.Context, eventID, userID string) (*LikeResult, error)
	AddComment(ctx context.Context, eventID, userID, text string) (*Comment, error)
}

// FeedService serves the paginated feed and organizer event management.
type FeedService interface {
	ListEvents(ctx context.Context, page int) ([]*Event, error)
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListMine(ctx context.Context, organizerID string) ([]*Event, error)
	CreateEvent(ctx context.Context, organizerID string, event *Event) error
	UpdateEvent(ctx context.Context, id, callerID string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, id, callerID string) error
}
