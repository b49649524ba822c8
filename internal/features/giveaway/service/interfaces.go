package service

import (
	"context"
	"time"

	"brainrot-market-backend/internal/features/giveaway/models"
)

// GiveawayService enforces every state-transition rule for giveaways.
// The repository below it is a dumb persistence surface.
type GiveawayService interface {
	Create(ctx context.Context, input *models.GiveawayCreate) (*models.Giveaway, error)
	GetByID(ctx context.Context, id string) (*models.Giveaway, error)
	GetByMessageID(ctx context.Context, messageID string) (*models.Giveaway, error)
	GetAllForServer(ctx context.Context, serverID string, activeOnly bool) ([]*models.Giveaway, error)

	// AddParticipant reports whether the user was newly added; re-adding
	// an existing participant is a no-op success.
	AddParticipant(ctx context.Context, id, userID string) (bool, error)

	End(ctx context.Context, id string) (*models.GiveawayResult, error)
	EndWithWinner(ctx context.Context, id, forcedUserID string) (*models.GiveawayResult, error)
	Reroll(ctx context.Context, id string) (*models.GiveawayResult, error)

	Delete(ctx context.Context, id string) error

	// SetScheduler wires the end scheduler after both sides exist.
	SetScheduler(scheduler EndScheduler)
}

// EndScheduler arranges a single end callback no earlier than endsAt.
type EndScheduler interface {
	ScheduleEnd(id string, endsAt time.Time)
}
