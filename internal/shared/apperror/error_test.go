package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"people-desk/internal/shared/apperror"

	"github.com/stretchr/testify/assert"
)

func TestWithDetails(t *testing.T) {
	err := apperror.RequiredField("Reason")

	assert.True(t, errors.Is(err, err))
	assert.Nil(t, apperror.ErrInvalidInput.Details)

	httpErr := apperror.ToHTTP(err)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, map[string]string{"field": "Reason", "rule": "required"}, httpErr.Details)
}

func TestIs(t *testing.T) {
	detailed := apperror.ErrForbidden.WithDetails("role")
	assert.ErrorIs(t, detailed, apperror.ErrForbidden)
	assert.NotErrorIs(t, detailed, apperror.ErrUnauthorized)

	wrapped := apperror.Persistence(errors.New("conn reset"))
	assert.True(t, apperror.Is(wrapped, apperror.CodePersistence))
	assert.Equal(t, http.StatusServiceUnavailable, apperror.ToHTTP(wrapped).Status)
	assert.Nil(t, apperror.Wrap(nil, apperror.CodePersistence, "x", 500))
}

func TestToHTTP_UnknownError(t *testing.T) {
	httpErr := apperror.ToHTTP(errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Equal(t, apperror.CodeInternalError, httpErr.Code)
}

func TestPrecondition(t *testing.T) {
	sentinel := apperror.Precondition("ALREADY_DECIDED", "already decided")

	httpErr := apperror.ToHTTP(sentinel)
	assert.Equal(t, http.StatusConflict, httpErr.Status)
	assert.Equal(t, "ALREADY_DECIDED", httpErr.Code)
	assert.Equal(t, map[string]string{"kind": apperror.CodePreconditionFailed}, httpErr.Details)

	assert.True(t, apperror.IsPrecondition(sentinel))
	assert.True(t, apperror.IsPrecondition(fmt.Errorf("decide: %w", sentinel)))
	assert.False(t, apperror.IsPrecondition(apperror.ErrForbidden))
	assert.False(t, apperror.IsPrecondition(apperror.RequiredField("Reason")))
	assert.False(t, apperror.IsPrecondition(errors.New("boom")))
}
