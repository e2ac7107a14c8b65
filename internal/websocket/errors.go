// internal/websocket/errors.go
package websocket

import (
	"fmt"

	xerrors "vaultbank-service/internal/pkg/errors"
)

var (
	ErrInvalidToken = fmt.Errorf("invalid token: %w", xerrors.ErrUnauthorized)
	ErrNotAgent     = fmt.Errorf("support agent role required: %w", xerrors.ErrForbidden)
)
