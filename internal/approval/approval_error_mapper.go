package approval

import (
	"database/sql"
	"errors"

	approvalerrors "people-desk/internal/approval/errors"
	"people-desk/internal/shared/apperror"

	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, sql.ErrNoRows) {
		return approvalerrors.ErrRequestNotFound
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Persistence(err)
}
