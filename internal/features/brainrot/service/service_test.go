package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "brainrot-market-backend/internal/common/errors"
	"brainrot-market-backend/internal/features/brainrot/models"
	"brainrot-market-backend/internal/features/brainrot/repository/memory"
)

func newTestService() BrainrotService {
	return NewBrainrotService(memory.NewMemoryRepository(), zerolog.Nop())
}

func TestCreateOrMergeCreates(t *testing.T) {
	svc := newTestService()

	brainrot, merged, err := svc.CreateOrMerge(context.Background(), &models.BrainrotCreate{
		ServerID: "server-1",
		Name:     "Tralalero Tralala",
		Rarity:   models.RarityLegendary,
		Traits:   []string{"Shark", "Sneakers"},
		PriceUSD: "1.5m",
	})
	require.NoError(t, err)

	assert.False(t, merged)
	assert.Equal(t, "Tralalero Tralala", brainrot.Name)
	assert.Equal(t, models.MutationNone, brainrot.Mutation)
	assert.Equal(t, 5, brainrot.Demand)
	assert.True(t, brainrot.PriceUSD.Equal(decimal.NewFromInt(1_500_000)))
}

func TestCreateOrMergeMergesStructuralDuplicates(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, merged, err := svc.CreateOrMerge(ctx, &models.BrainrotCreate{
		ServerID: "server-1",
		Name:     "Tralalero Tralala",
		Rarity:   models.RarityLegendary,
		Traits:   []string{"Shark", "Sneakers"},
		PriceUSD: "1000000",
		Demand:   4,
	})
	require.NoError(t, err)
	require.False(t, merged)

	// Same item spelled differently: case and trait order must not matter.
	second, merged, err := svc.CreateOrMerge(ctx, &models.BrainrotCreate{
		ServerID: "server-1",
		Name:     "tralalero tralala",
		Rarity:   models.RarityLegendary,
		Traits:   []string{"sneakers", "shark"},
		PriceUSD: "1.2m",
		Demand:   8,
	})
	require.NoError(t, err)

	assert.True(t, merged)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.PriceUSD.Equal(decimal.NewFromInt(1_200_000)))
	assert.Equal(t, 8, second.Demand)

	listings, err := svc.ListForServer(ctx, "server-1", models.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, listings, 1)
}

func TestCreateOrMergeDistinguishesMutations(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, merged, err := svc.CreateOrMerge(ctx, &models.BrainrotCreate{
		ServerID: "server-1", Name: "Bombardiro Crocodilo",
		Rarity: models.RarityMythic, PriceUSD: "500k",
	})
	require.NoError(t, err)
	require.False(t, merged)

	_, merged, err = svc.CreateOrMerge(ctx, &models.BrainrotCreate{
		ServerID: "server-1", Name: "Bombardiro Crocodilo",
		Rarity: models.RarityMythic, Mutation: models.MutationGold, PriceUSD: "2m",
	})
	require.NoError(t, err)

	assert.False(t, merged)

	listings, err := svc.ListForServer(ctx, "server-1", models.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, listings, 2)
}

func TestCreateOrMergeScopesToServer(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, _, err := svc.CreateOrMerge(ctx, &models.BrainrotCreate{
		ServerID: "server-1", Name: "Lirili Larila", Rarity: models.RarityRare, PriceUSD: "10k",
	})
	require.NoError(t, err)

	_, merged, err := svc.CreateOrMerge(ctx, &models.BrainrotCreate{
		ServerID: "server-2", Name: "Lirili Larila", Rarity: models.RarityRare, PriceUSD: "10k",
	})
	require.NoError(t, err)
	assert.False(t, merged)
}

func TestCreateOrMergeValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, _, err := svc.CreateOrMerge(ctx, &models.BrainrotCreate{
		ServerID: "server-1", Name: "x", Rarity: "ultra", PriceUSD: "1",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRarity))

	_, _, err = svc.CreateOrMerge(ctx, &models.BrainrotCreate{
		ServerID: "server-1", Name: "x", Rarity: models.RarityCommon, Mutation: "plasma", PriceUSD: "1",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidMutation))

	_, _, err = svc.CreateOrMerge(ctx, &models.BrainrotCreate{
		ServerID: "server-1", Name: "x", Rarity: models.RarityCommon, PriceUSD: "1", Demand: 11,
	})
	require.Error(t, err)

	_, _, err = svc.CreateOrMerge(ctx, &models.BrainrotCreate{
		ServerID: "server-1", Name: "x", Rarity: models.RarityCommon, PriceUSD: "-5",
	})
	require.Error(t, err)
}

func TestCreateOrMergeNormalizesTraits(t *testing.T) {
	svc := newTestService()

	brainrot, _, err := svc.CreateOrMerge(context.Background(), &models.BrainrotCreate{
		ServerID: "server-1", Name: "x", Rarity: models.RarityCommon, PriceUSD: "1",
		Traits: []string{" Shark ", "shark", "", "Sneakers"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Shark", "Sneakers"}, brainrot.Traits)
}

func TestUpdateAndDelete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	brainrot, _, err := svc.CreateOrMerge(ctx, &models.BrainrotCreate{
		ServerID: "server-1", Name: "Cappuccino Assassino", Rarity: models.RarityEpic, PriceUSD: "250k",
	})
	require.NoError(t, err)

	price := "300k"
	demand := 9
	updated, err := svc.Update(ctx, brainrot.ID, &models.BrainrotUpdate{
		PriceUSD: &price,
		Demand:   &demand,
	})
	require.NoError(t, err)
	assert.True(t, updated.PriceUSD.Equal(decimal.NewFromInt(300_000)))
	assert.Equal(t, 9, updated.Demand)

	require.NoError(t, svc.Delete(ctx, brainrot.ID))

	_, err = svc.GetByID(ctx, brainrot.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeBrainrotNotFound))

	err = svc.Delete(ctx, brainrot.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeBrainrotNotFound))
}

func TestListForServerFilters(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	seed := []models.BrainrotCreate{
		{ServerID: "server-1", Name: "Common One", Rarity: models.RarityCommon, PriceUSD: "100"},
		{ServerID: "server-1", Name: "Epic One", Rarity: models.RarityEpic, PriceUSD: "10k"},
		{ServerID: "server-1", Name: "Epic Two", Rarity: models.RarityEpic, Mutation: models.MutationGold, PriceUSD: "50k"},
	}
	for n := range seed {
		_, _, err := svc.CreateOrMerge(ctx, &seed[n])
		require.NoError(t, err)
	}

	epics, err := svc.ListForServer(ctx, "server-1", models.ListFilter{Rarity: models.RarityEpic})
	require.NoError(t, err)
	assert.Len(t, epics, 2)

	golds, err := svc.ListForServer(ctx, "server-1", models.ListFilter{Mutation: models.MutationGold})
	require.NoError(t, err)
	require.Len(t, golds, 1)
	assert.Equal(t, "Epic Two", golds[0].Name)

	named, err := svc.ListForServer(ctx, "server-1", models.ListFilter{Name: "epic"})
	require.NoError(t, err)
	assert.Len(t, named, 2)

	_, err = svc.ListForServer(ctx, "server-1", models.ListFilter{Rarity: "ultra"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRarity))
}

func TestMergeKeyIgnoresOrderAndCase(t *testing.T) {
	a := &models.Brainrot{
		Name: "Tung Tung Sahur", Rarity: models.RarityMythic,
		Mutation: models.MutationNone, Traits: []string{"Bat", "Wooden"},
	}
	b := &models.Brainrot{
		Name: "tung tung SAHUR", Rarity: models.RarityMythic,
		Mutation: models.MutationNone, Traits: []string{"wooden", "bat"},
	}
	c := &models.Brainrot{
		Name: "Tung Tung Sahur", Rarity: models.RarityMythic,
		Mutation: models.MutationGalaxy, Traits: []string{"Bat", "Wooden"},
	}

	assert.Equal(t, a.MergeKey(), b.MergeKey())
	assert.NotEqual(t, a.MergeKey(), c.MergeKey())
}
