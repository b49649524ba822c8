package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	apperrors "brainrot-market-backend/internal/common/errors"
	"brainrot-market-backend/internal/features/brainrot/models"
	"brainrot-market-backend/internal/features/brainrot/repository"
	"brainrot-market-backend/internal/utils/parse"
)

// BrainrotService owns the catalog rules: validation, duplicate merging
// and price updates.
type BrainrotService interface {
	// CreateOrMerge registers an item, or merges into the existing record
	// when an item with the same structural identity already exists.
	// Returns the record and whether it was merged rather than created.
	CreateOrMerge(ctx context.Context, input *models.BrainrotCreate) (*models.Brainrot, bool, error)

	GetByID(ctx context.Context, id string) (*models.Brainrot, error)
	ListForServer(ctx context.Context, serverID string, filter models.ListFilter) ([]*models.Brainrot, error)
	Update(ctx context.Context, id string, input *models.BrainrotUpdate) (*models.Brainrot, error)
	Delete(ctx context.Context, id string) error
}

type brainrotService struct {
	repo   repository.BrainrotRepository
	logger zerolog.Logger
}

func NewBrainrotService(repo repository.BrainrotRepository, logger zerolog.Logger) BrainrotService {
	return &brainrotService{repo: repo, logger: logger}
}

func (s *brainrotService) CreateOrMerge(ctx context.Context, input *models.BrainrotCreate) (*models.Brainrot, bool, error) {
	if !input.Rarity.Valid() {
		return nil, false, apperrors.New(apperrors.ErrCodeInvalidRarity, "unknown rarity").
			WithDetail("rarity", input.Rarity)
	}
	if input.Mutation == "" {
		input.Mutation = models.MutationNone
	}
	if !input.Mutation.Valid() {
		return nil, false, apperrors.New(apperrors.ErrCodeInvalidMutation, "unknown mutation").
			WithDetail("mutation", input.Mutation)
	}
	if input.Demand == 0 {
		input.Demand = 5
	}
	if input.Demand < 1 || input.Demand > 10 {
		return nil, false, apperrors.NewValidationError("demand", "must be between 1 and 10")
	}

	price, err := parsePrice(input.PriceUSD)
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	candidate := &models.Brainrot{
		ID:        uuid.New().String(),
		ServerID:  input.ServerID,
		Name:      strings.TrimSpace(input.Name),
		Rarity:    input.Rarity,
		Mutation:  input.Mutation,
		Traits:    normalizeTraits(input.Traits),
		PriceUSD:  price,
		Demand:    input.Demand,
		CreatedBy: input.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	existing, err := s.repo.GetByMergeKey(ctx, input.ServerID, candidate.MergeKey())
	if err == nil {
		// Same structural item: keep the record, adopt the newer price
		// and demand reading.
		existing.PriceUSD = price
		existing.Demand = input.Demand
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, false, apperrors.NewDatabaseError("merge brainrot", err)
		}

		s.logger.Info().
			Str("brainrot_id", existing.ID).
			Str("name", existing.Name).
			Msg("Brainrot merged into existing record")
		return existing, true, nil
	}
	if err != repository.ErrNotFound {
		return nil, false, apperrors.NewDatabaseError("lookup brainrot by key", err)
	}

	if err := s.repo.Create(ctx, candidate); err != nil {
		return nil, false, apperrors.NewDatabaseError("create brainrot", err)
	}

	s.logger.Info().
		Str("brainrot_id", candidate.ID).
		Str("server_id", candidate.ServerID).
		Str("name", candidate.Name).
		Str("rarity", string(candidate.Rarity)).
		Msg("Brainrot created")

	return candidate, false, nil
}

func (s *brainrotService) GetByID(ctx context.Context, id string) (*models.Brainrot, error) {
	brainrot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewBrainrotNotFoundError(id)
		}
		return nil, apperrors.NewDatabaseError("get brainrot", err)
	}
	return brainrot, nil
}

func (s *brainrotService) ListForServer(ctx context.Context, serverID string, filter models.ListFilter) ([]*models.Brainrot, error) {
	if filter.Rarity != "" && !filter.Rarity.Valid() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRarity, "unknown rarity").
			WithDetail("rarity", filter.Rarity)
	}
	if filter.Mutation != "" && !filter.Mutation.Valid() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidMutation, "unknown mutation").
			WithDetail("mutation", filter.Mutation)
	}

	brainrots, err := s.repo.ListForServer(ctx, serverID, filter)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list brainrots", err)
	}
	return brainrots, nil
}

func (s *brainrotService) Update(ctx context.Context, id string, input *models.BrainrotUpdate) (*models.Brainrot, error) {
	brainrot, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.PriceUSD != nil {
		price, err := parsePrice(*input.PriceUSD)
		if err != nil {
			return nil, err
		}
		brainrot.PriceUSD = price
	}
	if input.Demand != nil {
		if *input.Demand < 1 || *input.Demand > 10 {
			return nil, apperrors.NewValidationError("demand", "must be between 1 and 10")
		}
		brainrot.Demand = *input.Demand
	}
	if input.Traits != nil {
		brainrot.Traits = normalizeTraits(input.Traits)
	}
	brainrot.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, brainrot); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewBrainrotNotFoundError(id)
		}
		return nil, apperrors.NewDatabaseError("update brainrot", err)
	}

	return brainrot, nil
}

func (s *brainrotService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NewBrainrotNotFoundError(id)
		}
		return apperrors.NewDatabaseError("delete brainrot", err)
	}

	s.logger.Info().Str("brainrot_id", id).Msg("Brainrot deleted")
	return nil
}

// parsePrice accepts both exact decimals ("1499.99") and chat shorthand
// ("1.5M"). Empty means zero, unpriced.
func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}

	if price, err := decimal.NewFromString(raw); err == nil {
		if price.IsNegative() {
			return decimal.Zero, apperrors.NewValidationError("price_usd", "must not be negative")
		}
		return price, nil
	}

	amount, err := parse.Amount(raw)
	if err != nil {
		return decimal.Zero, apperrors.NewValidationError("price_usd", err.Error())
	}
	return decimal.NewFromInt(amount), nil
}

func normalizeTraits(traits []string) []string {
	result := make([]string, 0, len(traits))
	seen := make(map[string]struct{})
	for _, t := range traits {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, t)
	}
	return result
}
