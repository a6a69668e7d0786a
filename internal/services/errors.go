package services

import (
	"errors"

	apperrors "github.com/vytor/lingoprogress/internal/errors"
	"github.com/vytor/lingoprogress/internal/repository"
	"github.com/vytor/lingoprogress/internal/retry"
)

func isVersionConflict(err error) bool {
	return errors.Is(err, repository.ErrVersionConflict)
}

// toAppError turns the result of a retried operation into an AppError.
// Business rejections raised inside the operation pass through unchanged.
func toAppError(resource string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, retry.ErrExhausted) {
		return apperrors.NewConcurrentModificationError(resource, err)
	}
	return apperrors.NewInternalError(err)
}
