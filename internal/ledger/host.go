package ledger

import (
	"context"
	"errors"

	"github.com/florancealade/zephyryx-storage-keep/internal/middleware"
	"github.com/florancealade/zephyryx-storage-keep/models"
)

// ErrNoIdentity is returned when a request context carries no caller.
var ErrNoIdentity = errors.New("no caller identity in context")

// RequestHost resolves the caller from the authenticated request context and
// the height from Clock.
type RequestHost struct {
	Clock Clock
}

// NewRequestHost creates a host over clock.
func NewRequestHost(clock Clock) *RequestHost {
	return &RequestHost{Clock: clock}
}

// CurrentIdentity returns the principal placed by the auth middleware.
func (h *RequestHost) CurrentIdentity(ctx context.Context) (models.Principal, error) {
	p, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return "", ErrNoIdentity
	}
	return p, nil
}

// CurrentHeight returns the clock height.
func (h *RequestHost) CurrentHeight(context.Context) (uint64, error) {
	return h.Clock.Height(), nil
}
