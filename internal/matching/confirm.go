package matching

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/apperrors"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/models"
)

// ConfirmResult is the outcome of a Confirm call. Session and
// Completed are set only once both sides have confirmed.
type ConfirmResult struct {
	MatchRequest *models.MatchRequest `json:"matchRequest"`
	Session      *models.LiveSession  `json:"session,omitempty"`
	Completed    bool                 `json:"completed"`
}

// Confirm records the caller's half of the double opt-in. When the
// counterpart already confirmed, the pair is merged into a live
// session. Retries after the merge return the existing session, never
// a second one.
//
// State corrections discovered along the way (lazy expiry, the release
// of a request whose partner vanished) must outlive the error that
// reports them, so the transaction commits them first and the error is
// returned after it.
func (s *Service) Confirm(ctx context.Context, callerID, matchRequestID string) (*ConfirmResult, error) {
	result := &ConfirmResult{}
	var ownExpired, partnerGone bool
	var mergeOwn, mergeCounterpart *models.MatchRequest

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		matches := s.matches.WithTx(tx)

		own, err := matches.GetByID(matchRequestID)
		if err != nil {
			return err
		}
		if own.UserID != callerID {
			return apperrors.ErrForbidden
		}

		now := time.Now()
		if expired, err := s.expireIfStale(matches, own, now); err != nil {
			return err
		} else if expired {
			ownExpired = true
			return nil
		}

		switch own.Status {
		case models.MatchConfirmed:
			// A racing confirm already merged the pair; return its session.
			session, err := s.sessionForRequest(tx, own.ScheduledRequestID)
			if err != nil {
				return err
			}
			result.MatchRequest = own
			result.Session = session
			result.Completed = true
			return nil
		case models.MatchMatched:
			// proceed
		default:
			return apperrors.ErrInvalidState
		}

		// Serialize with the counterpart's racing confirm, then re-read
		// both rows so the merge decision is made on committed state.
		if err := matches.LockPair(own.ID, *own.CounterpartID); err != nil {
			return err
		}
		own, err = matches.GetByID(own.ID)
		if err != nil {
			return err
		}
		if own.Status == models.MatchConfirmed {
			session, err := s.sessionForRequest(tx, own.ScheduledRequestID)
			if err != nil {
				return err
			}
			result.MatchRequest = own
			result.Session = session
			result.Completed = true
			return nil
		}
		if own.Status != models.MatchMatched {
			return apperrors.ErrInvalidState
		}

		counterpart, err := matches.GetByID(*own.CounterpartID)
		if err != nil {
			return err
		}
		if _, err := s.expireIfStale(matches, counterpart, now); err != nil {
			return err
		}
		if counterpart.Status != models.MatchMatched && counterpart.Status != models.MatchConfirmed {
			// Partner cancelled or expired between match and confirm.
			// Corrective action: release the caller back into the queue
			// so it re-matches instead of forcing a restart.
			if err := matches.ResetToPending(own.ID); err != nil {
				return err
			}
			s.logger.Info("counterpart unavailable, match request re-queued",
				zap.String("matchRequestId", own.ID),
				zap.String("counterpartId", counterpart.ID))
			partnerGone = true
			return nil
		}

		if _, err := matches.SetConfirmed(own.ID); err != nil {
			return err
		}
		own.Confirmed = true
		result.MatchRequest = own

		if !counterpart.Confirmed {
			// Still waiting on the other side.
			return nil
		}
		mergeOwn, mergeCounterpart = own, counterpart
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ownExpired {
		return nil, apperrors.ErrInvalidState
	}
	if partnerGone {
		return nil, apperrors.ErrPartnerUnavailable
	}
	if mergeOwn == nil {
		return result, nil
	}

	// Both sides confirmed: merge in a second transaction, after the
	// confirmations are committed. Question picks may call out to the
	// question service and must not happen with a transaction open; if
	// the merge fails here, a retry of Confirm recovers it (both rows
	// stay matched+confirmed, which re-enters this path).
	session, event, err := s.merge(ctx, mergeOwn, mergeCounterpart)
	if err != nil {
		return nil, err
	}
	mergeOwn.Status = models.MatchConfirmed
	result.MatchRequest = mergeOwn
	result.Session = session
	result.Completed = true
	if event != nil {
		s.notifier.SessionCreated(ctx, *event)
	}
	return result, nil
}

// sessionForRequest resolves a live session through the scheduled
// request's back-reference.
func (s *Service) sessionForRequest(tx *gorm.DB, scheduledRequestID string) (*models.LiveSession, error) {
	scheduled, err := s.requests.WithTx(tx).GetByID(scheduledRequestID)
	if err != nil {
		return nil, err
	}
	if scheduled.LiveSessionID == nil {
		return nil, apperrors.ErrInvalidState
	}
	return s.sessions.WithTx(tx).GetByID(*scheduled.LiveSessionID)
}
