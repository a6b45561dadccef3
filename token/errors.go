package token

import (
	"fmt"

	apperrors "github.com/jrsteele09/ha-memory-server/internal/errors"
)

// Decode failures. ErrFormat and ErrSignature match apperrors.ErrInvalidToken,
// ErrExpired matches apperrors.ErrTokenExpired.
var (
	ErrFormat    = fmt.Errorf("malformed token: %w", apperrors.ErrInvalidToken)
	ErrSignature = fmt.Errorf("token signature mismatch: %w", apperrors.ErrInvalidToken)
	ErrExpired   = fmt.Errorf("token has expired: %w", apperrors.ErrTokenExpired)
)
