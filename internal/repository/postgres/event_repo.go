package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"campusevents/internal/domain"
)

const eventColumns = `id, title, description, thumbnail, created_by, date, likes, comments, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var dateNull sql.NullTime
	var likes pq.StringArray
	var comments []byte
	if err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Thumbnail, &e.CreatedBy, &dateNull,
		&likes, &comments, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if dateNull.Valid {
		e.Date = &dateNull.Time
	}
	e.Likes = []string(likes)
	if e.Likes == nil {
		e.Likes = []string{}
	}
	e.Comments = []domain.Comment{}
	if len(comments) > 0 {
		if err := json.Unmarshal(comments, &e.Comments); err != nil {
			return nil, fmt.Errorf("decode comments of event %s: %w", e.ID, err)
		}
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	comments, err := json.Marshal(commentsOrEmpty(e.Comments))
	if err != nil {
		return err
	}
	query := `
		INSERT INTO events (id, title, description, thumbnail, created_by, date, likes, comments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.DB.ExecContext(ctx, query,
		e.ID, e.Title, e.Description, e.Thumbnail, e.CreatedBy, nullTime(e.Date),
		pq.Array(likesOrEmpty(e.Likes)), string(comments), e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context, p domain.PaginationParams) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	return r.queryEvents(ctx, query, p.PageSize, p.Offset())
}

func (r *eventRepository) ListByCreator(ctx context.Context, creatorID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE created_by = $1 ORDER BY created_at DESC, id DESC`
	return r.queryEvents(ctx, query, creatorID)
}

func (r *eventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, id string, patch domain.EventPatch, updatedAt time.Time) (*domain.Event, error) {
	query := `
		UPDATE events SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			thumbnail = COALESCE($4, thumbnail),
			date = COALESCE($5, date),
			updated_at = $6
		WHERE id = $1
		RETURNING ` + eventColumns
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query,
		id, nullString(patch.Title), nullString(patch.Description), nullString(patch.Thumbnail), nullTime(patch.Date), updatedAt,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// ToggleLike flips membership of userID in a single statement and reports the stored result.
func (r *eventRepository) ToggleLike(ctx context.Context, eventID, userID string) (*domain.LikeResult, error) {
	query := `
		UPDATE events SET likes = CASE
			WHEN $2::text = ANY(likes) THEN array_remove(likes, $2::text)
			ELSE array_append(likes, $2::text)
		END
		WHERE id = $1
		RETURNING likes
	`
	var likes pq.StringArray
	if err := r.DB.QueryRowContext(ctx, query, eventID, userID).Scan(&likes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &domain.LikeResult{Likes: len(likes), Liked: slices.Contains(likes, userID)}, nil
}

func (r *eventRepository) AppendComment(ctx context.Context, eventID string, c domain.Comment) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return err
	}
	query := `UPDATE events SET comments = comments || jsonb_build_array($2::jsonb) WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, eventID, string(doc))
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func likesOrEmpty(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}

func commentsOrEmpty(c []domain.Comment) []domain.Comment {
	if c == nil {
		return []domain.Comment{}
	}
	return c
}
