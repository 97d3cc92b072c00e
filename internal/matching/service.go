package matching

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/apperrors"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/metrics"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/models"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/questions"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/repositories"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/signaling"
)

// candidateScanLimit bounds how many FIFO candidates a single
// StartMatching call will try to claim before parking the request.
const candidateScanLimit = 10

// Service is the matching engine: queueing, the double-opt-in
// handshake, and the merge of a confirmed pair into one live session.
// All queue state lives in rows; conditional updates inside a single
// transaction are the concurrency primitive, so the engine survives
// restarts and scales across instances.
type Service struct {
	db       *gorm.DB
	requests *repositories.RequestRepository
	matches  *repositories.MatchRepository
	sessions *repositories.SessionRepository
	catalog  questions.Catalog
	notifier *signaling.Notifier
	logger   *zap.Logger
	matchTTL time.Duration
}

func NewService(db *gorm.DB, catalog questions.Catalog, notifier *signaling.Notifier, logger *zap.Logger, matchTTL time.Duration) *Service {
	if matchTTL <= 0 {
		matchTTL = models.MatchTTL
	}
	return &Service{
		db:       db,
		requests: &repositories.RequestRepository{DB: db},
		matches:  &repositories.MatchRepository{DB: db},
		sessions: &repositories.SessionRepository{DB: db},
		catalog:  catalog,
		notifier: notifier,
		logger:   logger,
		matchTTL: matchTTL,
	}
}

// StartResult is the outcome of a StartMatching call. SessionComplete
// is a pure idempotency signal: a prior call already merged a session
// for this scheduled request.
type StartResult struct {
	MatchRequest    *models.MatchRequest `json:"matchRequest,omitempty"`
	Matched         bool                 `json:"matched"`
	SessionComplete bool                 `json:"sessionComplete"`
	Session         *models.LiveSession  `json:"session,omitempty"`
}

// StartMatching pairs the scheduled request with a compatible pending
// counterpart, or parks it in the queue. Safe to call repeatedly: an
// already-active match request is returned as-is.
func (s *Service) StartMatching(ctx context.Context, callerID, scheduledRequestID string) (*StartResult, error) {
	result := &StartResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requests := s.requests.WithTx(tx)
		matches := s.matches.WithTx(tx)
		sessions := s.sessions.WithTx(tx)

		scheduled, err := requests.GetByID(scheduledRequestID)
		if err != nil {
			return err
		}
		if scheduled.UserID != callerID {
			return apperrors.ErrForbidden
		}

		// A merge may already have satisfied this request; hand the
		// client its session instead of re-queueing (retry recovery).
		if scheduled.LiveSessionID != nil {
			session, err := sessions.GetByID(*scheduled.LiveSessionID)
			if err != nil {
				return err
			}
			if session.Status != models.SessionInProgress {
				return apperrors.ErrAlreadyPaired
			}
			result.SessionComplete = true
			result.Session = session
			return nil
		}

		// Re-entry after cancellation is allowed.
		if scheduled.Status == models.RequestCancelled {
			if err := requests.Reactivate(scheduled.ID); err != nil {
				return err
			}
			scheduled.Status = models.RequestScheduled
		}
		if scheduled.Status != models.RequestScheduled {
			return apperrors.ErrAlreadyPaired
		}

		now := time.Now()

		// Idempotent re-entry: an active request is returned, not duplicated.
		existing, err := matches.GetActiveByScheduledRequest(scheduled.ID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if existing != nil {
			if expired, err := s.expireIfStale(matches, existing, now); err != nil {
				return err
			} else if !expired {
				switch existing.Status {
				case models.MatchPending:
					result.MatchRequest = existing
					return nil
				case models.MatchMatched:
					result.MatchRequest = existing
					result.Matched = true
					return nil
				case models.MatchConfirmed:
					return apperrors.ErrAlreadyPaired
				}
			}
		}

		ownID := uuid.New().String()
		own := &models.MatchRequest{
			ID:                 ownID,
			ScheduledRequestID: scheduled.ID,
			UserID:             callerID,
			InterviewType:      scheduled.InterviewType,
			PracticeMode:       scheduled.PracticeMode,
			Level:              scheduled.Level,
			Status:             models.MatchPending,
			CreatedAt:          now,
			ExpiresAt:          now.Add(s.matchTTL),
		}

		candidates, err := matches.FindCandidates(scheduled.InterviewType, scheduled.PracticeMode, scheduled.Level, callerID, now, candidateScanLimit)
		if err != nil {
			return err
		}
		for i := range candidates {
			claimed, err := matches.ClaimCandidate(candidates[i].ID, ownID)
			if err != nil {
				return err
			}
			if !claimed {
				continue // someone else got there first, try the next one
			}
			own.Status = models.MatchMatched
			own.CounterpartID = &candidates[i].ID
			if err := matches.Create(own); err != nil {
				return err
			}
			result.MatchRequest = own
			result.Matched = true
			return nil
		}

		if err := matches.Create(own); err != nil {
			return err
		}
		result.MatchRequest = own
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.MatchRequest != nil {
		metrics.MatchRequestsTotal.Inc()
		if result.Matched {
			metrics.MatchesMadeTotal.Inc()
		}
	}
	return result, nil
}

// Status states reported to the poller.
const (
	StateNoRequest = "no_request"
	StateInSession = "in_session"
)

// StatusResult is the poller's view of a scheduled request.
type StatusResult struct {
	State        string               `json:"state"`
	MatchRequest *models.MatchRequest `json:"matchRequest,omitempty"`
	Session      *models.LiveSession  `json:"session,omitempty"`
}

// GetStatus reports the current match request without pairing side
// effects. The one mutation it may perform is the lazy expiry sweep of
// the caller's own stale row.
func (s *Service) GetStatus(ctx context.Context, callerID, scheduledRequestID string) (*StatusResult, error) {
	result := &StatusResult{State: StateNoRequest}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requests := s.requests.WithTx(tx)
		matches := s.matches.WithTx(tx)
		sessions := s.sessions.WithTx(tx)

		scheduled, err := requests.GetByID(scheduledRequestID)
		if err != nil {
			return err
		}
		if scheduled.UserID != callerID {
			return apperrors.ErrForbidden
		}

		if scheduled.LiveSessionID != nil {
			session, err := sessions.GetByID(*scheduled.LiveSessionID)
			if err != nil {
				return err
			}
			result.State = StateInSession
			result.Session = session
		}

		active, err := matches.GetActiveByScheduledRequest(scheduled.ID)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := s.expireIfStale(matches, active, time.Now()); err != nil {
			return err
		}
		if result.State == StateNoRequest {
			result.State = active.Status
		}
		result.MatchRequest = active
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel withdraws a scheduled request that has not merged yet.
// Cancelling an already-cancelled request is a no-op, not an error;
// cancelling after the merge is rejected so a partner is never
// orphaned mid-interview.
func (s *Service) Cancel(ctx context.Context, callerID, scheduledRequestID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requests := s.requests.WithTx(tx)
		matches := s.matches.WithTx(tx)

		scheduled, err := requests.GetByID(scheduledRequestID)
		if err != nil {
			return err
		}
		if scheduled.UserID != callerID {
			return apperrors.ErrForbidden
		}
		if scheduled.LiveSessionID != nil {
			return apperrors.ErrAlreadyMerged
		}
		if scheduled.Status == models.RequestCancelled {
			return nil
		}
		if scheduled.Status != models.RequestScheduled {
			return apperrors.ErrInvalidState
		}

		if err := matches.CancelActive(scheduled.ID); err != nil {
			return err
		}
		return requests.Cancel(scheduled.ID)
	})
}

// expireIfStale applies lazy expiry to a non-terminal match request.
// Returns true when the row was (or already is) expired.
func (s *Service) expireIfStale(matches *repositories.MatchRepository, request *models.MatchRequest, now time.Time) (bool, error) {
	if request.Status == models.MatchExpired {
		return true, nil
	}
	if request.Status == models.MatchConfirmed || !request.Expired(now) {
		return false, nil
	}
	marked, err := matches.MarkExpired(request.ID)
	if err != nil {
		return false, err
	}
	if marked {
		request.Status = models.MatchExpired
		metrics.ExpiredRequestsTotal.Inc()
		s.logger.Info("match request expired",
			zap.String("matchRequestId", request.ID),
			zap.String("userId", request.UserID))
	}
	return true, nil
}
