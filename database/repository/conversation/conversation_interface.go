package conversationRepo

import (
	"context"
	"errors"

	"github.com/HummdG/taza-ticket-clean/models"
)

// ErrVersionConflict is returned when a conditional write loses the race
// against a concurrent turn for the same user.
var ErrVersionConflict = errors.New("conversation version conflict")

// ConversationRepository defines methods for conversation data access.
type ConversationRepository interface {
	// Get retrieves the current conversation record for a user, or nil if
	// the user has never messaged before. Reads observe the latest
	// completed write (read-after-write, not eventual).
	Get(ctx context.Context, userID string) (*models.Conversation, error)
	// Save writes the record as the new current version and appends an
	// immutable versioned snapshot. The write is conditional on the
	// record's version counter; a stale counter yields ErrVersionConflict.
	Save(ctx context.Context, conv *models.Conversation) error
	// History retrieves up to limit versioned snapshots, newest first.
	History(ctx context.Context, userID string, limit int) ([]models.Conversation, error)
	// Purge removes all stored state for a user. Administrative use only.
	Purge(ctx context.Context, userID string) error
}
