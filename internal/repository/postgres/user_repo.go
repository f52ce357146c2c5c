package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"campusevents/internal/domain"
)

const userColumns = `id, first_name, last_name, email, photo, type, connections, created_at, updated_at`

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

func scanUser(row rowScanner, extra ...any) (*domain.User, error) {
	u := &domain.User{}
	var connections pq.StringArray
	dest := append([]any{
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Photo, &u.Type, &connections, &u.CreatedAt, &u.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.Connections = []string(connections)
	if u.Connections == nil {
		u.Connections = []string{}
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var perr *pq.Error
	return errors.As(err, &perr) && perr.Code == "23505"
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.DB.QueryRowContext(ctx, query, id))
}

func (r *userRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate, updatedAt time.Time) (*domain.User, error) {
	query := `
		UPDATE users SET first_name = $2, last_name = $3, email = $4, updated_at = $5
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, id, update.FirstName, update.LastName, update.Email, updatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, err
	}
	return u, nil
}

// SwapPhoto locks the row so the returned previous photo is the one actually replaced.
func (r *userRepository) SwapPhoto(ctx context.Context, id, photo string, updatedAt time.Time) (*domain.User, string, error) {
	query := `
		UPDATE users u SET photo = $2, updated_at = $3
		FROM (SELECT id, photo FROM users WHERE id = $1 FOR UPDATE) prev
		WHERE u.id = prev.id
		RETURNING u.id, u.first_name, u.last_name, u.email, u.photo, u.type, u.connections, u.created_at, u.updated_at, prev.photo
	`
	var previous string
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, id, photo, updatedAt), &previous)
	if err != nil {
		return nil, "", err
	}
	return u, previous, nil
}

func (r *userRepository) ListOthers(ctx context.Context, excludeID string, limit int) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id <> $1 ORDER BY first_name, last_name, id LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, excludeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) AddConnection(ctx context.Context, userID, targetID string) (bool, error) {
	query := `
		UPDATE users SET connections = array_append(connections, $2::text)
		WHERE id = $1 AND NOT ($2::text = ANY(connections))
	`
	res, err := r.DB.ExecContext(ctx, query, userID, targetID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, domain.ErrNotFound
	}
	return false, nil
}
