package auth

import (
	"fmt"

	apperrors "github.com/jrsteele09/ats-client/internal/errors"
)

var (
	MissingCredentialsErr = fmt.Errorf("%w: username and password are required", apperrors.ErrInvalidInput)
	IncompleteProfileErr  = fmt.Errorf("%w: server did not supply a usable profile", apperrors.ErrMalformedResponse)
	NotAuthenticatedErr   = apperrors.ErrNotAuthenticated
	ForbiddenRoleErr      = apperrors.ErrForbiddenRole
)
