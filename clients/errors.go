package clients

import (
	"fmt"

	apperrors "github.com/jrsteele09/ha-memory-server/internal/errors"
)

var (
	ErrNotFound      = fmt.Errorf("client %w", apperrors.ErrNotFound)
	ErrInvalidClient = apperrors.ErrInvalidClient
	ErrMissingName   = fmt.Errorf("client_name is required: %w", apperrors.ErrValidation)
)
