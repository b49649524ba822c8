package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"brainrot-market-backend/internal/features/brainrot/models"
	"brainrot-market-backend/internal/features/brainrot/repository"
)

// memoryRepository keeps the catalog in process memory for unit tests.
type memoryRepository struct {
	mu        sync.Mutex
	brainrots map[string]*models.Brainrot
}

func NewMemoryRepository() repository.BrainrotRepository {
	return &memoryRepository{brainrots: make(map[string]*models.Brainrot)}
}

func (r *memoryRepository) Create(_ context.Context, brainrot *models.Brainrot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.brainrots[brainrot.ID] = cloneBrainrot(brainrot)
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*models.Brainrot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.brainrots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneBrainrot(b), nil
}

func (r *memoryRepository) GetByMergeKey(_ context.Context, serverID, mergeKey string) (*models.Brainrot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.brainrots {
		if b.ServerID == serverID && b.MergeKey() == mergeKey {
			return cloneBrainrot(b), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryRepository) ListForServer(_ context.Context, serverID string, filter models.ListFilter) ([]*models.Brainrot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*models.Brainrot, 0)
	for _, b := range r.brainrots {
		if b.ServerID != serverID {
			continue
		}
		if filter.Rarity != "" && b.Rarity != filter.Rarity {
			continue
		}
		if filter.Mutation != "" && b.Mutation != filter.Mutation {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(b.Name), strings.ToLower(filter.Name)) {
			continue
		}
		result = append(result, cloneBrainrot(b))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].PriceUSD.Equal(result[j].PriceUSD) {
			return result[i].PriceUSD.GreaterThan(result[j].PriceUSD)
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (r *memoryRepository) Update(_ context.Context, brainrot *models.Brainrot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.brainrots[brainrot.ID]; !ok {
		return repository.ErrNotFound
	}
	r.brainrots[brainrot.ID] = cloneBrainrot(brainrot)
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.brainrots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.brainrots, id)
	return nil
}

func cloneBrainrot(b *models.Brainrot) *models.Brainrot {
	clone := *b
	clone.Traits = append([]string(nil), b.Traits...)
	return &clone
}
