package repository

import (
	"context"
	"errors"
	"time"

	"brainrot-market-backend/internal/features/giveaway/models"
)

var (
	// ErrNotFound is returned when no giveaway matches the identifier.
	ErrNotFound = errors.New("giveaway not found")
	// ErrDuplicateMessage is returned when the announcement message is
	// already bound to another giveaway.
	ErrDuplicateMessage = errors.New("giveaway message already registered")
)

// GiveawayRepository is the persistence contract for giveaways. It holds
// no business logic; the atomicity of AddParticipant and MarkEnded is the
// only behavior the service leans on.
type GiveawayRepository interface {
	Create(ctx context.Context, giveaway *models.Giveaway) error
	GetByID(ctx context.Context, id string) (*models.Giveaway, error)
	GetByMessageID(ctx context.Context, messageID string) (*models.Giveaway, error)
	GetAllForServer(ctx context.Context, serverID string, activeOnly bool) ([]*models.Giveaway, error)

	// AddParticipant appends userID unless already present. Returns
	// whether the list changed. Must be atomic per row.
	AddParticipant(ctx context.Context, id, userID string) (bool, error)

	// MarkEnded flips ended from false to true. Returns false when the
	// giveaway was already ended, so racing enders resolve to a single
	// winner-selection pass.
	MarkEnded(ctx context.Context, id string) (bool, error)

	// SetWinners overwrites the winners list of an ended giveaway.
	SetWinners(ctx context.Context, id string, winners []string, rigged bool) error

	// GetExpiredUnended lists giveaways whose end time has passed but
	// which were never ended, for startup reconciliation and the sweep.
	GetExpiredUnended(ctx context.Context, now time.Time) ([]*models.Giveaway, error)

	// GetUnended lists every unended giveaway, expired or not.
	GetUnended(ctx context.Context) ([]*models.Giveaway, error)

	Delete(ctx context.Context, id string) error
}
