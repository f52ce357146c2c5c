package services

import (
	"errors"
	"fmt"

	"campusevents/internal/domain"
)

// storeErr passes through not-found and duplicate errors and marks everything else as a storage failure.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrNotFound
	case errors.Is(err, domain.ErrDuplicateEmail):
		return domain.ErrDuplicateEmail
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
}
