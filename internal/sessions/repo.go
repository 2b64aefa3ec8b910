package sessions

import "context"

// Repo defines persistence operations for planning sessions.
type Repo interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	// LastDraft returns the most recently created DRAFT session of a user.
	LastDraft(ctx context.Context, userID string) (Session, error)
	// Update replaces the stored session, including its activity and occupation lists.
	Update(ctx context.Context, s Session) error
}
