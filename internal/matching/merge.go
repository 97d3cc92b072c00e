package matching

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/apperrors"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/metrics"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/models"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/questions"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/signaling"
)

// pickPrimary deterministically designates one of the two scheduled
// requests as the session's basis: lower creation timestamp wins, ties
// broken by identifier ordering. Both confirm paths compute the same
// answer independently, so no coordination round-trip is needed.
func pickPrimary(a, b *models.ScheduledRequest) (primary, secondary *models.ScheduledRequest) {
	if a.CreatedAt.Before(b.CreatedAt) {
		return a, b
	}
	if b.CreatedAt.Before(a.CreatedAt) {
		return b, a
	}
	if a.ID < b.ID {
		return a, b
	}
	return b, a
}

// merge folds a confirmed pair into exactly one live session. Question
// assignment runs before the write transaction opens: the catalog may
// be a network call and must not hold row locks while it runs. The
// conditional claim of the primary scheduled request then decides the
// winner when both confirm paths race; the loser returns the session
// the winner created, found through the back-reference.
func (s *Service) merge(ctx context.Context, own, counterpart *models.MatchRequest) (*models.LiveSession, *signaling.SessionCreatedEvent, error) {
	a, err := s.requests.GetByID(own.ScheduledRequestID)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.requests.GetByID(counterpart.ScheduledRequestID)
	if err != nil {
		return nil, nil, err
	}
	primary, secondary := pickPrimary(a, b)

	// Retry after a completed merge: the back-reference already points
	// at the session, no picks needed.
	if primary.LiveSessionID != nil {
		session, err := s.sessions.GetByID(*primary.LiveSessionID)
		return session, nil, err
	}

	first, err := s.assignQuestion(ctx, primary, nil)
	if err != nil {
		return nil, nil, err
	}
	var secondID *int
	// Peer mode swaps roles halfway, so a second question slot is
	// reserved up front.
	if primary.PracticeMode == models.ModePeer {
		second, err := s.assignQuestion(ctx, secondary, []int{first})
		if err != nil {
			return nil, nil, err
		}
		secondID = &second
	}

	now := time.Now()
	// The primary request's owner interviews first.
	interviewerID := primary.UserID
	intervieweeID := secondary.UserID

	session := &models.LiveSession{
		ID:                   uuid.New().String(),
		InterviewType:        primary.InterviewType,
		PracticeMode:         primary.PracticeMode,
		Level:                primary.Level,
		Status:               models.SessionInProgress,
		FirstQuestionID:      first,
		SecondQuestionID:     secondID,
		ActiveQuestionID:     first,
		AttemptedQuestionIDs: []int{first},
		StartedAt:            now,
	}
	participants := []models.Participant{
		{LiveSessionID: session.ID, UserID: interviewerID, Role: models.RoleInterviewer, Connected: true, JoinedAt: now},
		{LiveSessionID: session.ID, UserID: intervieweeID, Role: models.RoleInterviewee, Connected: true, JoinedAt: now},
	}

	var won bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requests := s.requests.WithTx(tx)

		claimed, err := requests.ClaimForMerge(primary.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}
		won = true

		if err := s.sessions.WithTx(tx).Create(session, participants); err != nil {
			return err
		}
		if err := requests.AttachSession(primary.ID, session.ID); err != nil {
			return err
		}
		if err := requests.CompleteWithSession(secondary.ID, session.ID); err != nil {
			return err
		}
		return s.matches.WithTx(tx).ConfirmPair([]string{own.ID, counterpart.ID})
	})
	if err != nil {
		return nil, nil, err
	}

	if !won {
		// The other side's confirm merged first. Its transaction
		// committed the back-reference together with the claim, so the
		// session is there to read.
		fresh, err := s.requests.GetByID(primary.ID)
		if err != nil {
			return nil, nil, err
		}
		if fresh.LiveSessionID == nil {
			return nil, nil, apperrors.ErrInvalidState
		}
		existing, err := s.sessions.GetByID(*fresh.LiveSessionID)
		return existing, nil, err
	}

	metrics.SessionsStartedTotal.Inc()
	metrics.ActiveSessions.Inc()
	s.logger.Info("live session created",
		zap.String("sessionId", session.ID),
		zap.String("interviewerId", interviewerID),
		zap.String("intervieweeId", intervieweeID),
		zap.String("interviewType", session.InterviewType),
		zap.String("level", session.Level))

	event := &signaling.SessionCreatedEvent{
		SessionID:     session.ID,
		InterviewerID: interviewerID,
		IntervieweeID: intervieweeID,
		InterviewType: session.InterviewType,
		Level:         session.Level,
		QuestionID:    first,
	}
	return session, event, nil
}

// assignQuestion resolves the question for one half of the session,
// preferring the request's pre-assigned question on the
// data-structures track ("ask a specific question" flow).
func (s *Service) assignQuestion(ctx context.Context, scheduled *models.ScheduledRequest, exclude []int) (int, error) {
	if scheduled.PreassignedQuestionID != nil &&
		scheduled.InterviewType == models.TypeDataStructures &&
		!contains(exclude, *scheduled.PreassignedQuestionID) {
		return *scheduled.PreassignedQuestionID, nil
	}

	ref, err := s.catalog.PickQuestion(ctx, exclude,
		scheduled.InterviewType, questions.DifficultyForLevel(scheduled.Level))
	if err != nil {
		return 0, err
	}
	return ref.ID, nil
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
