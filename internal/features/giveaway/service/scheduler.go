package service

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	apperrors "brainrot-market-backend/internal/common/errors"
	"brainrot-market-backend/internal/features/giveaway/models"
	"brainrot-market-backend/internal/features/giveaway/repository"
)

// EndNotifier announces a timer-driven ending to the outside world,
// typically by posting in the giveaway's channel.
type EndNotifier interface {
	GiveawayEnded(ctx context.Context, result *models.GiveawayResult)
}

const (
	// sweepInterval paces the backstop scan for giveaways whose timer
	// was lost or never armed.
	sweepInterval = time.Minute
	endTimeout    = 30 * time.Second
)

// Scheduler arms one end timer per giveaway and reconciles persisted end
// times with in-memory timers after a restart. A timer surviving past a
// manual end resolves benignly: ending an ended giveaway is a conflict the
// scheduler swallows.
type Scheduler struct {
	service GiveawayService
	repo    repository.GiveawayRepository
	clock   clockwork.Clock
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// armed tracks giveaway IDs with a pending timer so reconcile and
	// create never double-arm.
	armed sync.Map

	notifierMu sync.RWMutex
	notifier   EndNotifier
}

// SetNotifier registers the announcement sink for timer-driven endings.
func (s *Scheduler) SetNotifier(notifier EndNotifier) {
	s.notifierMu.Lock()
	s.notifier = notifier
	s.notifierMu.Unlock()
}

func NewScheduler(
	service GiveawayService,
	repo repository.GiveawayRepository,
	clock clockwork.Clock,
	logger zerolog.Logger,
) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		service: service,
		repo:    repo,
		clock:   clock,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// ScheduleEnd registers a one-shot callback that ends the giveaway once
// endsAt is reached. Fire-and-forget; duplicates are ignored.
func (s *Scheduler) ScheduleEnd(id string, endsAt time.Time) {
	if _, loaded := s.armed.LoadOrStore(id, struct{}{}); loaded {
		return
	}

	delay := endsAt.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.armed.Delete(id)

		select {
		case <-s.clock.After(delay):
			s.endGiveaway(id)
		case <-s.ctx.Done():
		}
	}()

	s.logger.Debug().
		Str("giveaway_id", id).
		Time("ends_at", endsAt).
		Msg("End timer armed")
}

// Reconcile closes the restart gap: giveaways already past their end time
// are ended immediately, the rest get their timers re-armed. Must run once
// at startup before new commands are accepted.
func (s *Scheduler) Reconcile(ctx context.Context) error {
	unended, err := s.repo.GetUnended(ctx)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	expired, pending := 0, 0
	for _, giveaway := range unended {
		if giveaway.HasExpired(now) {
			expired++
			s.endGiveaway(giveaway.ID)
			continue
		}
		pending++
		s.ScheduleEnd(giveaway.ID, giveaway.EndsAt)
	}

	s.logger.Info().
		Int("expired", expired).
		Int("rearmed", pending).
		Msg("Giveaway schedule reconciled")

	return nil
}

// Start runs the periodic sweep until Stop is called.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := s.clock.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				s.sweep()
			case <-s.ctx.Done():
				return
			}
		}
	}()

	s.logger.Info().Dur("interval", sweepInterval).Msg("Giveaway sweep started")
}

// Stop cancels pending timers and waits for in-flight work.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.logger.Info().Msg("Giveaway scheduler stopped")
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(s.ctx, endTimeout)
	defer cancel()

	expired, err := s.repo.GetExpiredUnended(ctx, s.clock.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to scan for expired giveaways")
		return
	}

	for _, giveaway := range expired {
		s.endGiveaway(giveaway.ID)
	}
}

func (s *Scheduler) endGiveaway(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), endTimeout)
	defer cancel()

	result, err := s.service.End(ctx, id)
	if err != nil {
		// A manual end racing the timer is expected, not a failure.
		if apperrors.IsCode(err, apperrors.ErrCodeGiveawayEnded) {
			s.logger.Debug().
				Str("giveaway_id", id).
				Msg("Giveaway already ended, timer outcome ignored")
			return
		}
		s.logger.Error().
			Err(err).
			Str("giveaway_id", id).
			Msg("Failed to end giveaway from timer")
		return
	}

	s.logger.Info().
		Str("giveaway_id", id).
		Int("winners", len(result.Winners)).
		Msg("Giveaway ended by timer")

	s.notifierMu.RLock()
	notifier := s.notifier
	s.notifierMu.RUnlock()
	if notifier != nil {
		notifier.GiveawayEnded(ctx, result)
	}
}
