package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"brainrot-market-backend/internal/features/giveaway/models"
	"brainrot-market-backend/internal/features/giveaway/repository"
)

// memoryRepository keeps giveaways in process memory. It backs unit tests
// and satisfies the same atomicity contract as the Postgres implementation
// by serializing every operation behind one mutex.
type memoryRepository struct {
	mu          sync.Mutex
	giveaways   map[string]*models.Giveaway
	byMessageID map[string]string
}

func NewMemoryRepository() repository.GiveawayRepository {
	return &memoryRepository{
		giveaways:   make(map[string]*models.Giveaway),
		byMessageID: make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, giveaway *models.Giveaway) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byMessageID[giveaway.MessageID]; exists {
		return repository.ErrDuplicateMessage
	}

	stored := cloneGiveaway(giveaway)
	r.giveaways[stored.ID] = stored
	r.byMessageID[stored.MessageID] = stored.ID
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.giveaways[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneGiveaway(g), nil
}

func (r *memoryRepository) GetByMessageID(_ context.Context, messageID string) (*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byMessageID[messageID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneGiveaway(r.giveaways[id]), nil
}

func (r *memoryRepository) GetAllForServer(_ context.Context, serverID string, activeOnly bool) ([]*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*models.Giveaway, 0)
	for _, g := range r.giveaways {
		if g.ServerID != serverID {
			continue
		}
		if activeOnly && g.Ended {
			continue
		}
		result = append(result, cloneGiveaway(g))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *memoryRepository) AddParticipant(_ context.Context, id, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.giveaways[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if g.Ended || g.HasParticipant(userID) {
		return false, nil
	}

	g.Participants = append(g.Participants, userID)
	g.UpdatedAt = time.Now()
	return true, nil
}

func (r *memoryRepository) MarkEnded(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.giveaways[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if g.Ended {
		return false, nil
	}

	g.Ended = true
	g.UpdatedAt = time.Now()
	return true, nil
}

func (r *memoryRepository) SetWinners(_ context.Context, id string, winners []string, rigged bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.giveaways[id]
	if !ok {
		return repository.ErrNotFound
	}

	g.Winners = append([]string(nil), winners...)
	g.Rigged = rigged
	g.UpdatedAt = time.Now()
	return nil
}

func (r *memoryRepository) GetExpiredUnended(_ context.Context, now time.Time) ([]*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*models.Giveaway, 0)
	for _, g := range r.giveaways {
		if !g.Ended && g.HasExpired(now) {
			result = append(result, cloneGiveaway(g))
		}
	}
	return result, nil
}

func (r *memoryRepository) GetUnended(_ context.Context) ([]*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*models.Giveaway, 0)
	for _, g := range r.giveaways {
		if !g.Ended {
			result = append(result, cloneGiveaway(g))
		}
	}
	return result, nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.giveaways[id]
	if !ok {
		return repository.ErrNotFound
	}

	delete(r.byMessageID, g.MessageID)
	delete(r.giveaways, id)
	return nil
}

func cloneGiveaway(g *models.Giveaway) *models.Giveaway {
	clone := *g
	clone.Participants = append([]string(nil), g.Participants...)
	clone.Winners = append([]string(nil), g.Winners...)
	return &clone
}
