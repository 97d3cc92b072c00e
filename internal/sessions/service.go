package sessions

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/apperrors"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/metrics"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/models"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/questions"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/repositories"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/signaling"
)

// Service governs a merged session from start through completion or
// cancellation: role switching, question reassignment, termination.
type Service struct {
	db       *gorm.DB
	requests *repositories.RequestRepository
	sessions *repositories.SessionRepository
	catalog  questions.Catalog
	notifier *signaling.Notifier
	logger   *zap.Logger
}

func NewService(db *gorm.DB, catalog questions.Catalog, notifier *signaling.Notifier, logger *zap.Logger) *Service {
	return &Service{
		db:       db,
		requests: &repositories.RequestRepository{DB: db},
		sessions: &repositories.SessionRepository{DB: db},
		catalog:  catalog,
		notifier: notifier,
		logger:   logger,
	}
}

// View is a session together with its two participants.
type View struct {
	Session      *models.LiveSession  `json:"session"`
	Participants []models.Participant `json:"participants"`
}

func (v *View) participant(userID string) *models.Participant {
	for i := range v.Participants {
		if v.Participants[i].UserID == userID {
			return &v.Participants[i]
		}
	}
	return nil
}

// GetSession returns the session for one of its participants.
func (s *Service) GetSession(ctx context.Context, callerID, sessionID string) (*View, error) {
	view, err := s.load(s.db.WithContext(ctx), sessionID)
	if err != nil {
		return nil, err
	}
	if view.participant(callerID) == nil {
		return nil, apperrors.ErrForbidden
	}
	return view, nil
}

// SwitchRoles swaps interviewer and interviewee and toggles the active
// question between the two reserved slots. Tracks without a second
// question slot do not support switching.
func (s *Service) SwitchRoles(ctx context.Context, callerID, sessionID string) (*View, error) {
	var view *View
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		view, err = s.load(tx, sessionID)
		if err != nil {
			return err
		}
		if view.participant(callerID) == nil {
			return apperrors.ErrForbidden
		}
		session := view.Session
		if session.Status != models.SessionInProgress {
			return apperrors.ErrInvalidState
		}
		if session.SecondQuestionID == nil {
			return apperrors.ErrNoSecondQuestion
		}
		if len(view.Participants) != 2 {
			return apperrors.ErrInvalidState
		}

		sessions := s.sessions.WithTx(tx)
		if err := sessions.SwapRoles(&view.Participants[0], &view.Participants[1]); err != nil {
			return err
		}

		if session.ActiveQuestionID == *session.SecondQuestionID {
			session.ActiveQuestionID = session.FirstQuestionID
		} else {
			session.ActiveQuestionID = *session.SecondQuestionID
		}
		if !session.Attempted(session.ActiveQuestionID) {
			session.AttemptedQuestionIDs = append(session.AttemptedQuestionIDs, session.ActiveQuestionID)
		}
		return sessions.UpdateQuestions(session)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("session roles switched", zap.String("sessionId", sessionID))
	return view, nil
}

// ChangeQuestion replaces the active question with a fresh one from
// the catalog, excluding everything already attempted in this session.
// Interviewer only. The pick runs before the write transaction opens:
// the catalog may be a network call and must not hold a transaction
// while it runs, so the pick is re-validated against current state
// inside the transaction.
func (s *Service) ChangeQuestion(ctx context.Context, callerID, sessionID string) (*View, error) {
	current, err := s.load(s.db.WithContext(ctx), sessionID)
	if err != nil {
		return nil, err
	}
	caller := current.participant(callerID)
	if caller == nil || caller.Role != models.RoleInterviewer {
		return nil, apperrors.ErrForbidden
	}
	if current.Session.Status != models.SessionInProgress {
		return nil, apperrors.ErrInvalidState
	}

	// Exclude the reserved second slot too, or the pick could hand
	// back the question already waiting for the role switch.
	exclude := current.Session.AttemptedQuestionIDs
	if current.Session.SecondQuestionID != nil && !current.Session.Attempted(*current.Session.SecondQuestionID) {
		exclude = append(exclude, *current.Session.SecondQuestionID)
	}
	ref, err := s.catalog.PickQuestion(ctx, exclude,
		current.Session.InterviewType, questions.DifficultyForLevel(current.Session.Level))
	if err != nil {
		return nil, err
	}

	var view *View
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		view, err = s.load(tx, sessionID)
		if err != nil {
			return err
		}
		caller := view.participant(callerID)
		if caller == nil || caller.Role != models.RoleInterviewer {
			return apperrors.ErrForbidden
		}
		session := view.Session
		if session.Status != models.SessionInProgress {
			return apperrors.ErrInvalidState
		}
		// A concurrent change or switch may have consumed the pick
		// while the catalog call ran.
		if session.Attempted(ref.ID) {
			return questions.ErrNoQuestion
		}
		if session.SecondQuestionID != nil && ref.ID == *session.SecondQuestionID &&
			session.ActiveQuestionID != *session.SecondQuestionID {
			return questions.ErrNoQuestion
		}

		if session.SecondQuestionID != nil && session.ActiveQuestionID == *session.SecondQuestionID {
			second := ref.ID
			session.SecondQuestionID = &second
		} else {
			session.FirstQuestionID = ref.ID
		}
		session.ActiveQuestionID = ref.ID
		session.AttemptedQuestionIDs = append(session.AttemptedQuestionIDs, ref.ID)
		return s.sessions.WithTx(tx).UpdateQuestions(session)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("session question changed",
		zap.String("sessionId", sessionID),
		zap.Int("questionId", view.Session.ActiveQuestionID))
	return view, nil
}

// End completes the session. Either participant may end it; ending an
// already-ended session is a no-op.
func (s *Service) End(ctx context.Context, callerID, sessionID string) (*View, error) {
	return s.terminate(ctx, callerID, sessionID, models.SessionCompleted)
}

// Cancel abandons a session that never properly started, e.g. when the
// partner failed to connect. Same idempotency contract as End.
func (s *Service) Cancel(ctx context.Context, callerID, sessionID string) (*View, error) {
	return s.terminate(ctx, callerID, sessionID, models.SessionCancelled)
}

func (s *Service) terminate(ctx context.Context, callerID, sessionID, status string) (*View, error) {
	var view *View
	var terminated bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		view, err = s.load(tx, sessionID)
		if err != nil {
			return err
		}
		if view.participant(callerID) == nil {
			return apperrors.ErrForbidden
		}
		session := view.Session
		if session.Status != models.SessionInProgress {
			return nil // repeat termination is a no-op
		}

		now := time.Now()
		sessions := s.sessions.WithTx(tx)
		terminated, err = sessions.Terminate(session.ID, status, now)
		if err != nil {
			return err
		}
		if !terminated {
			return nil
		}
		session.Status = status
		session.EndedAt = &now

		if err := sessions.DisconnectAll(session.ID, now); err != nil {
			return err
		}
		for i := range view.Participants {
			view.Participants[i].Connected = false
			view.Participants[i].LeftAt = &now
		}
		return s.requests.WithTx(tx).CompleteForSession(session.ID)
	})
	if err != nil {
		return nil, err
	}

	if terminated {
		metrics.SessionsEndedTotal.WithLabelValues(status).Inc()
		metrics.ActiveSessions.Dec()
		s.logger.Info("live session ended",
			zap.String("sessionId", sessionID),
			zap.String("status", status))

		event := signaling.SessionEndedEvent{SessionID: sessionID, Status: status}
		if len(view.Participants) == 2 {
			event.User1 = view.Participants[0].UserID
			event.User2 = view.Participants[1].UserID
		}
		s.notifier.SessionEnded(ctx, event)
	}
	return view, nil
}

func (s *Service) load(db *gorm.DB, sessionID string) (*View, error) {
	sessions := s.sessions.WithTx(db)
	session, err := sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	participants, err := sessions.GetParticipants(sessionID)
	if err != nil {
		return nil, err
	}
	return &View{Session: session, Participants: participants}, nil
}
