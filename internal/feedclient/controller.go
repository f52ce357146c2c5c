// Package feedclient is the consumer side of the event feed: it pages through
// the feed as the user scrolls and applies likes and comments optimistically.
package feedclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"campusevents/internal/domain"

	"github.com/google/uuid"
)

// ErrClosed is returned once the controller has been closed. Results of
// requests that were in flight at Close are discarded.
var ErrClosed = errors.New("feedclient: controller closed")

// ErrUnknownEvent is returned for mutations on events not in the local feed.
var ErrUnknownEvent = errors.New("feedclient: event not loaded")

// State is the paging state of a Controller.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateAppended
	StateNoMoreData
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateAppended:
		return "appended"
	case StateNoMoreData:
		return "no_more_data"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Transition describes what one visibility trigger did. State is Appended,
// NoMoreData or Failed when a fetch ran; Loading or NoMoreData when the
// trigger was ignored.
type Transition struct {
	State State
	Page  int
	Added int
}

// Item is one feed entry as this user sees it.
type Item struct {
	Event     *domain.Event
	LikeCount int
	Liked     bool
}

func (it Item) clone() Item {
	it.Event = it.Event.Clone()
	return it
}

// Option configures a Controller.
type Option func(*Controller)

// WithRetryPolicy replaces DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Controller) { c.retry = p }
}

// WithLogger sets the logger for fetch and mutation failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// Controller owns one user's feed: loaded items, the page cursor and the
// mutation log. Only one page fetch runs at a time.
type Controller struct {
	api    FeedAPI
	userID string
	retry  RetryPolicy
	logger *slog.Logger
	now    func() time.Time

	life   context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     State
	page      int
	hasMore   bool
	closed    bool
	items     []Item
	index     map[string]int
	mutations []Mutation
	pending   int
	logLimit  int

	// likeSeq numbers like toggles per event; likeAcked is the newest one the
	// server has answered.
	likeSeq   map[string]uint64
	likeAcked map[string]uint64
}

// New creates a controller positioned before page 1. Call Close when the feed
// goes away.
func New(api FeedAPI, userID string, opts ...Option) *Controller {
	life, cancel := context.WithCancel(context.Background())
	c := &Controller{
		api:     api,
		userID:  userID,
		retry:   DefaultRetryPolicy,
		logger:  slog.Default(),
		now:     time.Now,
		life:    life,
		cancel:  cancel,
		state:   StateIdle,
		page:    1,
		hasMore: true,
		index:   make(map[string]int),

		logLimit:  DefaultMutationLogLimit,
		likeSeq:   make(map[string]uint64),
		likeAcked: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close cancels in-flight requests. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

// State returns the current paging state: Idle, Loading or NoMoreData.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HasMore reports whether another page may exist.
func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// Page returns the next page that will be requested.
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// Items returns a copy of the loaded feed in display order.
func (c *Controller) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, len(c.items))
	for i, it := range c.items {
		out[i] = it.clone()
	}
	return out
}

// scoped returns a context cancelled by either ctx or Close.
func (c *Controller) scoped(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// OnVisible is called when the last rendered item scrolls into view. It
// fetches the next page unless a fetch is already running or the feed is
// exhausted. A failed fetch leaves the page cursor where it was, so the next
// trigger asks for the same page again.
func (c *Controller) OnVisible(ctx context.Context) (Transition, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Transition{}, ErrClosed
	}
	if !c.hasMore {
		c.mu.Unlock()
		return Transition{State: StateNoMoreData, Page: c.page}, nil
	}
	if c.state == StateLoading {
		c.mu.Unlock()
		return Transition{State: StateLoading, Page: c.page}, nil
	}
	c.state = StateLoading
	page := c.page
	c.mu.Unlock()

	fetchCtx, done := c.scoped(ctx)
	events, err := c.fetch(fetchCtx, page)
	done()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.state = StateIdle
		return Transition{}, ErrClosed
	}
	if err != nil {
		c.state = StateIdle
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			c.logger.Warn("feed page fetch failed", "page", page, "attempts", fetchErr.Attempts, "err", fetchErr.Err)
			return Transition{State: StateFailed, Page: page}, err
		}
		return Transition{State: StateIdle, Page: page}, err
	}
	if len(events) == 0 {
		c.hasMore = false
		c.state = StateNoMoreData
		return Transition{State: StateNoMoreData, Page: page}, nil
	}

	added := 0
	for _, e := range events {
		if e == nil || e.ID == "" {
			continue
		}
		if _, seen := c.index[e.ID]; seen {
			continue
		}
		c.index[e.ID] = len(c.items)
		c.items = append(c.items, Item{
			Event:     e.Clone(),
			LikeCount: len(e.Likes),
			Liked:     e.LikedBy(c.userID),
		})
		added++
	}
	c.page = page + 1
	c.state = StateIdle
	return Transition{State: StateAppended, Page: page, Added: added}, nil
}

// fetch runs the retry loop for one page. Cancellation is returned as the
// context error, never as a FetchError.
func (c *Controller) fetch(ctx context.Context, page int) ([]*domain.Event, error) {
	limit := c.retry.attempts()
	for attempt := 1; ; attempt++ {
		events, err := c.api.ListEvents(ctx, page)
		if err == nil {
			return events, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) || attempt >= limit {
			return nil, &FetchError{Page: page, Attempts: attempt, Err: err}
		}
		d := c.retry.delay(attempt)
		c.logger.Debug("retrying feed page", "page", page, "attempt", attempt, "delay", d, "err", err)
		if err := wait(ctx, d); err != nil {
			return nil, err
		}
	}
}

// ToggleLike flips the caller's like locally, then asks the server. On
// success the item takes the server's count and state unless a later toggle
// was already answered. On failure this toggle's flip is undone, unless a
// later toggle was already answered, and the error is returned.
func (c *Controller) ToggleLike(ctx context.Context, eventID string) (*domain.LikeResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	i, ok := c.index[eventID]
	if !ok {
		c.mu.Unlock()
		return nil, ErrUnknownEvent
	}
	flipLike(&c.items[i], c.userID)
	c.likeSeq[eventID]++
	seq := c.likeSeq[eventID]
	m := c.record(KindLike, eventID)
	c.mu.Unlock()

	callCtx, done := c.scoped(ctx)
	result, err := c.api.ToggleLike(callCtx, eventID, c.userID)
	done()

	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok = c.index[eventID]
	superseded := c.likeAcked[eventID] > seq
	if err != nil {
		// A newer answer already carries the server's state; otherwise undo
		// only this toggle's flip, keeping later pending toggles applied.
		if ok && !superseded {
			flipLike(&c.items[i], c.userID)
		}
		c.settle(m, MutationFailed, err)
		c.logger.Warn("like rolled back", "event_id", eventID, "err", err)
		return nil, err
	}
	if ok && !superseded {
		c.likeAcked[eventID] = seq
		setLike(&c.items[i], c.userID, result)
	}
	c.settle(m, MutationConfirmed, nil)
	return result, nil
}

// flipLike toggles the user's like on it locally.
func flipLike(it *Item, userID string) {
	if it.Liked {
		it.Event.Likes = removeID(it.Event.Likes, userID)
		it.LikeCount--
	} else {
		it.Event.Likes = append(it.Event.Likes, userID)
		it.LikeCount++
	}
	it.Liked = !it.Liked
}

// setLike applies the server's like state to it.
func setLike(it *Item, userID string, res *domain.LikeResult) {
	it.Liked = res.Liked
	it.LikeCount = res.Likes
	it.Event.Likes = removeID(it.Event.Likes, userID)
	if res.Liked {
		it.Event.Likes = append(it.Event.Likes, userID)
	}
}

// AddComment appends the comment locally, then asks the server. On success
// the local copy is replaced by the stored comment; on failure it is removed
// and the error is returned.
func (c *Controller) AddComment(ctx context.Context, eventID, text string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is required", domain.ErrInvalidInput)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	i, ok := c.index[eventID]
	if !ok {
		c.mu.Unlock()
		return nil, ErrUnknownEvent
	}
	pending := domain.Comment{AuthorID: c.userID, Text: text, Timestamp: c.now()}
	c.items[i].Event.Comments = append(c.items[i].Event.Comments, pending)
	m := c.record(KindComment, eventID)
	c.mu.Unlock()

	callCtx, done := c.scoped(ctx)
	stored, err := c.api.AddComment(callCtx, eventID, c.userID, text)
	done()

	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok = c.index[eventID]; ok {
		comments := c.items[i].Event.Comments
		for j := len(comments) - 1; j >= 0; j-- {
			if comments[j] != pending {
				continue
			}
			if err != nil {
				c.items[i].Event.Comments = append(comments[:j:j], comments[j+1:]...)
			} else {
				comments[j] = *stored
			}
			break
		}
	}
	if err != nil {
		c.settle(m, MutationFailed, err)
		c.logger.Warn("comment rolled back", "event_id", eventID, "err", err)
		return nil, err
	}
	c.settle(m, MutationConfirmed, nil)
	return stored, nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// record appends a pending mutation and returns its id. c.mu must be held.
func (c *Controller) record(kind MutationKind, eventID string) string {
	id := uuid.NewString()
	c.mutations = append(c.mutations, Mutation{
		ID:      id,
		Kind:    kind,
		EventID: eventID,
		Status:  MutationPending,
	})
	c.pending++
	return id
}

// settle finalizes mutation id and trims settled entries beyond the log
// limit, oldest first. c.mu must be held.
func (c *Controller) settle(id string, status MutationStatus, err error) {
	for j := len(c.mutations) - 1; j >= 0; j-- {
		if c.mutations[j].ID == id {
			c.mutations[j].Status = status
			c.mutations[j].Err = err
			c.pending--
			break
		}
	}
	excess := len(c.mutations) - c.logLimit
	if excess <= 0 {
		return
	}
	kept := c.mutations[:0]
	for _, m := range c.mutations {
		if excess > 0 && m.Status != MutationPending {
			excess--
			continue
		}
		kept = append(kept, m)
	}
	clear(c.mutations[len(kept):])
	c.mutations = kept
}
