package repository

import (
	"context"
	"errors"

	"brainrot-market-backend/internal/features/brainrot/models"
)

// ErrNotFound is returned when no brainrot matches the identifier.
var ErrNotFound = errors.New("brainrot not found")

// BrainrotRepository is the persistence contract for the item catalog.
type BrainrotRepository interface {
	Create(ctx context.Context, brainrot *models.Brainrot) error
	GetByID(ctx context.Context, id string) (*models.Brainrot, error)

	// GetByMergeKey resolves the structural identity used for merging.
	GetByMergeKey(ctx context.Context, serverID, mergeKey string) (*models.Brainrot, error)

	ListForServer(ctx context.Context, serverID string, filter models.ListFilter) ([]*models.Brainrot, error)
	Update(ctx context.Context, brainrot *models.Brainrot) error
	Delete(ctx context.Context, id string) error
}
