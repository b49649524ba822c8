package service

import (
	"context"
	mrand "math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "brainrot-market-backend/internal/common/errors"
	"brainrot-market-backend/internal/features/giveaway/models"
	"brainrot-market-backend/internal/features/giveaway/repository/memory"
)

type scheduleCall struct {
	id     string
	endsAt time.Time
}

type fakeScheduler struct {
	calls []scheduleCall
}

func (f *fakeScheduler) ScheduleEnd(id string, endsAt time.Time) {
	f.calls = append(f.calls, scheduleCall{id: id, endsAt: endsAt})
}

func newTestService(t *testing.T) (GiveawayService, *fakeScheduler, clockwork.FakeClock) {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := NewGiveawayService(memory.NewMemoryRepository(), clock, mrand.New(mrand.NewSource(7)), zerolog.Nop())

	scheduler := &fakeScheduler{}
	svc.SetScheduler(scheduler)

	return svc, scheduler, clock
}

func createTestGiveaway(t *testing.T, svc GiveawayService, winners int) *models.Giveaway {
	t.Helper()

	g, err := svc.Create(context.Background(), &models.GiveawayCreate{
		ServerID:     "server-1",
		ChannelID:    "channel-1",
		MessageID:    "message-" + uuid.NewString(),
		Prize:        "golden capuchino",
		WinnersCount: winners,
		Duration:     time.Hour,
	})
	require.NoError(t, err)
	return g
}

func TestCreateSchedulesEnd(t *testing.T) {
	svc, scheduler, clock := newTestService(t)

	g := createTestGiveaway(t, svc, 2)

	assert.Equal(t, clock.Now().Add(time.Hour), g.EndsAt)
	assert.False(t, g.Ended)
	assert.Empty(t, g.Participants)

	require.Len(t, scheduler.calls, 1)
	assert.Equal(t, g.ID, scheduler.calls[0].id)
	assert.Equal(t, g.EndsAt, scheduler.calls[0].endsAt)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), &models.GiveawayCreate{
		ServerID: "server-1", ChannelID: "channel-1", MessageID: "m1",
		Prize: "prize", WinnersCount: 0, Duration: time.Hour,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidWinners))

	_, err = svc.Create(context.Background(), &models.GiveawayCreate{
		ServerID: "server-1", ChannelID: "channel-1", MessageID: "m2",
		Prize: "prize", WinnersCount: 1, Duration: -time.Minute,
	})
	assert.Error(t, err)
}

func TestCreateRejectsDuplicateMessage(t *testing.T) {
	svc, _, _ := newTestService(t)

	input := &models.GiveawayCreate{
		ServerID: "server-1", ChannelID: "channel-1", MessageID: "same-message",
		Prize: "prize", WinnersCount: 1, Duration: time.Hour,
	}
	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), input)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.True(t, appErr.IsConflict())
}

func TestAddParticipantIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	g := createTestGiveaway(t, svc, 1)

	added, err := svc.AddParticipant(ctx, g.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = svc.AddParticipant(ctx, g.ID, "user-1")
	require.NoError(t, err)
	assert.False(t, added)

	got, err := svc.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, got.Participants)
}

func TestAddParticipantRejectsClosedGiveaway(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	g := createTestGiveaway(t, svc, 1)

	// Past the end time but not yet flipped: entries must be refused
	// even before the timer fires.
	clock.Advance(2 * time.Hour)
	_, err := svc.AddParticipant(ctx, g.ID, "late-user")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeGiveawayClosed))

	got, err := svc.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Participants)
}

func TestEndDrawsWinnersFromParticipants(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	g := createTestGiveaway(t, svc, 2)
	participants := []string{"u1", "u2", "u3", "u4", "u5"}
	for _, u := range participants {
		_, err := svc.AddParticipant(ctx, g.ID, u)
		require.NoError(t, err)
	}

	result, err := svc.End(ctx, g.ID)
	require.NoError(t, err)

	assert.Len(t, result.Winners, 2)
	assert.False(t, result.Rigged)
	assert.Subset(t, participants, result.Winners)
	assert.NotEqual(t, result.Winners[0], result.Winners[1])

	got, err := svc.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, got.Ended)
	assert.Equal(t, result.Winners, got.Winners)
}

func TestEndWithFewerParticipantsThanWinners(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	g := createTestGiveaway(t, svc, 5)
	_, err := svc.AddParticipant(ctx, g.ID, "only-one")
	require.NoError(t, err)

	result, err := svc.End(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"only-one"}, result.Winners)
}

func TestEndWithNoParticipants(t *testing.T) {
	svc, _, _ := newTestService(t)

	g := createTestGiveaway(t, svc, 3)

	result, err := svc.End(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Empty(t, result.Winners)
}

func TestEndIsExactlyOnce(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	g := createTestGiveaway(t, svc, 1)
	_, err := svc.AddParticipant(ctx, g.ID, "u1")
	require.NoError(t, err)

	first, err := svc.End(ctx, g.ID)
	require.NoError(t, err)

	_, err = svc.End(ctx, g.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeGiveawayEnded))

	// Losing the race must not disturb the recorded outcome.
	got, err := svc.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Winners, got.Winners)
}

func TestEndWithWinnerForcesOutcome(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	g := createTestGiveaway(t, svc, 3)
	for _, u := range []string{"u1", "u2", "u3"} {
		_, err := svc.AddParticipant(ctx, g.ID, u)
		require.NoError(t, err)
	}

	result, err := svc.EndWithWinner(ctx, g.ID, "the-chosen-one")
	require.NoError(t, err)

	assert.Equal(t, []string{"the-chosen-one"}, result.Winners)
	assert.True(t, result.Rigged)

	got, err := svc.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, got.Rigged)
}

func TestEndWithWinnerRequiresWinner(t *testing.T) {
	svc, _, _ := newTestService(t)

	g := createTestGiveaway(t, svc, 1)

	_, err := svc.EndWithWinner(context.Background(), g.ID, "")
	require.Error(t, err)

	got, err := svc.GetByID(context.Background(), g.ID)
	require.NoError(t, err)
	assert.False(t, got.Ended)
}

func TestRerollRequiresEndedGiveaway(t *testing.T) {
	svc, _, _ := newTestService(t)

	g := createTestGiveaway(t, svc, 1)

	_, err := svc.Reroll(context.Background(), g.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeGiveawayNotEnded))
}

func TestRerollDrawsGenuinelyButKeepsRiggedFlag(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	g := createTestGiveaway(t, svc, 1)
	participants := []string{"u1", "u2", "u3"}
	for _, u := range participants {
		_, err := svc.AddParticipant(ctx, g.ID, u)
		require.NoError(t, err)
	}

	_, err := svc.EndWithWinner(ctx, g.ID, "outsider")
	require.NoError(t, err)

	result, err := svc.Reroll(ctx, g.ID)
	require.NoError(t, err)

	// The new draw comes from the real participants, but the record of
	// how the giveaway was first ended stays.
	assert.Len(t, result.Winners, 1)
	assert.Contains(t, participants, result.Winners[0])
	assert.True(t, result.Rigged)

	got, err := svc.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, got.Rigged)
}

func TestRerollAfterGenuineEndStaysUnrigged(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	g := createTestGiveaway(t, svc, 1)
	_, err := svc.AddParticipant(ctx, g.ID, "u1")
	require.NoError(t, err)

	_, err = svc.End(ctx, g.ID)
	require.NoError(t, err)

	result, err := svc.Reroll(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, result.Rigged)

	got, err := svc.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, got.Rigged)
}

func TestGetByIDUnknown(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetByID(context.Background(), "nope")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeGiveawayNotFound))
}

func TestGetAllForServerFiltersActive(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first := createTestGiveaway(t, svc, 1)
	second := createTestGiveaway(t, svc, 1)

	_, err := svc.End(ctx, first.ID)
	require.NoError(t, err)

	active, err := svc.GetAllForServer(ctx, "server-1", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	all, err := svc.GetAllForServer(ctx, "server-1", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSelectWinners(t *testing.T) {
	participants := []string{"a", "b", "c", "d", "e"}

	winners := SelectWinners(mrand.New(mrand.NewSource(3)), participants, 3)
	assert.Len(t, winners, 3)
	assert.Subset(t, participants, winners)

	// Same seed, same draw.
	again := SelectWinners(mrand.New(mrand.NewSource(3)), participants, 3)
	assert.Equal(t, winners, again)

	// The input is left untouched.
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, participants)

	assert.Empty(t, SelectWinners(mrand.New(mrand.NewSource(3)), nil, 2))
	assert.Empty(t, SelectWinners(mrand.New(mrand.NewSource(3)), participants, 0))
	assert.Len(t, SelectWinners(mrand.New(mrand.NewSource(3)), participants, 10), 5)
}
