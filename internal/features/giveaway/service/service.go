package service

import (
	"context"
	"fmt"
	mrand "math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	apperrors "brainrot-market-backend/internal/common/errors"
	"brainrot-market-backend/internal/features/giveaway/models"
	"brainrot-market-backend/internal/features/giveaway/repository"
)

type giveawayService struct {
	repo      repository.GiveawayRepository
	clock     clockwork.Clock
	logger    zerolog.Logger
	scheduler EndScheduler

	// rng feeds winner selection; guarded because timer callbacks and
	// commands may end different giveaways at once.
	rngMu sync.Mutex
	rng   *mrand.Rand
}

func NewGiveawayService(
	repo repository.GiveawayRepository,
	clock clockwork.Clock,
	rng *mrand.Rand,
	logger zerolog.Logger,
) GiveawayService {
	return &giveawayService{
		repo:   repo,
		clock:  clock,
		rng:    rng,
		logger: logger,
	}
}

// SetScheduler wires the end scheduler. Called once during startup, after
// the scheduler is constructed around this service.
func (s *giveawayService) SetScheduler(scheduler EndScheduler) {
	s.scheduler = scheduler
}

func (s *giveawayService) Create(ctx context.Context, input *models.GiveawayCreate) (*models.Giveaway, error) {
	if input.WinnersCount < 1 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidWinners, "winners count must be at least 1").
			WithDetail("winners_count", input.WinnersCount)
	}
	if input.Duration <= 0 {
		return nil, apperrors.NewValidationError("duration", "must resolve to an end time in the future")
	}

	now := s.clock.Now()
	giveaway := &models.Giveaway{
		ID:           uuid.New().String(),
		ServerID:     input.ServerID,
		ChannelID:    input.ChannelID,
		MessageID:    input.MessageID,
		Prize:        input.Prize,
		WinnersCount: input.WinnersCount,
		EndsAt:       now.Add(input.Duration),
		Ended:        false,
		Rigged:       false,
		Participants: []string{},
		Winners:      []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, giveaway); err != nil {
		if err == repository.ErrDuplicateMessage {
			return nil, apperrors.NewConflictError("giveaway", "announcement message already used").
				WithDetail("message_id", input.MessageID)
		}
		return nil, apperrors.NewDatabaseError("create giveaway", err)
	}

	if s.scheduler != nil {
		s.scheduler.ScheduleEnd(giveaway.ID, giveaway.EndsAt)
	}

	s.logger.Info().
		Str("giveaway_id", giveaway.ID).
		Str("server_id", giveaway.ServerID).
		Str("prize", giveaway.Prize).
		Int("winners_count", giveaway.WinnersCount).
		Time("ends_at", giveaway.EndsAt).
		Msg("Giveaway created")

	return giveaway, nil
}

func (s *giveawayService) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	giveaway, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewGiveawayNotFoundError(id)
		}
		return nil, apperrors.NewDatabaseError("get giveaway", err)
	}
	return giveaway, nil
}

func (s *giveawayService) GetByMessageID(ctx context.Context, messageID string) (*models.Giveaway, error) {
	giveaway, err := s.repo.GetByMessageID(ctx, messageID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewGiveawayNotFoundError(messageID)
		}
		return nil, apperrors.NewDatabaseError("get giveaway by message", err)
	}
	return giveaway, nil
}

func (s *giveawayService) GetAllForServer(ctx context.Context, serverID string, activeOnly bool) ([]*models.Giveaway, error) {
	giveaways, err := s.repo.GetAllForServer(ctx, serverID, activeOnly)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list giveaways", err)
	}
	return giveaways, nil
}

func (s *giveawayService) AddParticipant(ctx context.Context, id, userID string) (bool, error) {
	giveaway, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	if !giveaway.AcceptsParticipants(s.clock.Now()) {
		return false, apperrors.New(apperrors.ErrCodeGiveawayClosed, "giveaway is closed to new participants").
			WithDetail("giveaway_id", id)
	}

	if giveaway.HasParticipant(userID) {
		return false, nil
	}

	added, err := s.repo.AddParticipant(ctx, id, userID)
	if err != nil {
		return false, apperrors.NewDatabaseError("add participant", err)
	}

	if added {
		s.logger.Debug().
			Str("giveaway_id", id).
			Str("user_id", userID).
			Msg("Participant joined")
	}

	return added, nil
}

func (s *giveawayService) End(ctx context.Context, id string) (*models.GiveawayResult, error) {
	giveaway, err := s.claimEnd(ctx, id)
	if err != nil {
		return nil, err
	}

	winners := s.drawWinners(giveaway.Participants, giveaway.WinnersCount)
	if err := s.repo.SetWinners(ctx, id, winners, false); err != nil {
		return nil, apperrors.NewDatabaseError("set winners", err)
	}

	s.logger.Info().
		Str("giveaway_id", id).
		Int("participants", len(giveaway.Participants)).
		Int("winners", len(winners)).
		Msg("Giveaway ended")

	return resultFor(giveaway, winners, false), nil
}

func (s *giveawayService) EndWithWinner(ctx context.Context, id, forcedUserID string) (*models.GiveawayResult, error) {
	if forcedUserID == "" {
		return nil, apperrors.NewValidationError("winner", "forced winner must not be empty")
	}

	giveaway, err := s.claimEnd(ctx, id)
	if err != nil {
		return nil, err
	}

	winners := []string{forcedUserID}
	if err := s.repo.SetWinners(ctx, id, winners, true); err != nil {
		return nil, apperrors.NewDatabaseError("set winners", err)
	}

	s.logger.Info().
		Str("giveaway_id", id).
		Str("forced_winner", forcedUserID).
		Msg("Giveaway ended with forced winner")

	return resultFor(giveaway, winners, true), nil
}

func (s *giveawayService) Reroll(ctx context.Context, id string) (*models.GiveawayResult, error) {
	giveaway, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !giveaway.Ended {
		return nil, apperrors.New(apperrors.ErrCodeGiveawayNotEnded, "giveaway has not ended yet").
			WithDetail("giveaway_id", id)
	}

	// Reroll draws genuinely, but the rigged flag records how the giveaway
	// was first ended and stays as it was.
	winners := s.drawWinners(giveaway.Participants, giveaway.WinnersCount)
	if err := s.repo.SetWinners(ctx, id, winners, giveaway.Rigged); err != nil {
		return nil, apperrors.NewDatabaseError("set winners", err)
	}

	s.logger.Info().
		Str("giveaway_id", id).
		Int("winners", len(winners)).
		Bool("rigged", giveaway.Rigged).
		Msg("Giveaway winners rerolled")

	return resultFor(giveaway, winners, giveaway.Rigged), nil
}

func (s *giveawayService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NewGiveawayNotFoundError(id)
		}
		return apperrors.NewDatabaseError("delete giveaway", err)
	}

	s.logger.Info().Str("giveaway_id", id).Msg("Giveaway deleted")
	return nil
}

// claimEnd loads the giveaway and atomically flips it to ended. Exactly one
// caller wins the flip; the rest get an already-ended conflict.
func (s *giveawayService) claimEnd(ctx context.Context, id string) (*models.Giveaway, error) {
	giveaway, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if giveaway.Ended {
		return nil, alreadyEndedError(id)
	}

	won, err := s.repo.MarkEnded(ctx, id)
	if err != nil {
		return nil, apperrors.NewDatabaseError("mark giveaway ended", err)
	}
	if !won {
		return nil, alreadyEndedError(id)
	}

	// Re-read so the participant snapshot includes joins that landed
	// between the first read and the flip.
	return s.GetByID(ctx, id)
}

func (s *giveawayService) drawWinners(participants []string, count int) []string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return SelectWinners(s.rng, participants, count)
}

func resultFor(giveaway *models.Giveaway, winners []string, rigged bool) *models.GiveawayResult {
	return &models.GiveawayResult{
		ID:           giveaway.ID,
		ServerID:     giveaway.ServerID,
		ChannelID:    giveaway.ChannelID,
		MessageID:    giveaway.MessageID,
		Prize:        giveaway.Prize,
		Winners:      winners,
		Participants: giveaway.Participants,
		Rigged:       rigged,
	}
}

func alreadyEndedError(id string) error {
	return apperrors.New(apperrors.ErrCodeGiveawayEnded, fmt.Sprintf("giveaway already ended: %s", id)).
		WithDetail("giveaway_id", id)
}
