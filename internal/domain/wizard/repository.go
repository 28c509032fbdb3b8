package wizard

import (
	"context"

	"github.com/google/uuid"
)

// SessionStore keeps in-progress wizards. Get returns a NotFoundError for
// unknown or expired sessions.
type SessionStore interface {
	Get(ctx context.Context, id uuid.UUID) (*Wizard, error)
	Save(ctx context.Context, w *Wizard) error
	// Lock blocks until the session is held exclusively or ctx is done.
	Lock(ctx context.Context, id uuid.UUID) (unlock func(), err error)
}
