package resources

import apperrors "github.com/jrsteele09/ats-client/internal/errors"

var (
	InvalidInputErr = apperrors.ErrInvalidInput
	NotFoundErr     = apperrors.ErrNotFound
)
