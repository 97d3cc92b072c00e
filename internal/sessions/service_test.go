package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/apperrors"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/models"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/questions"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/signaling"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/testhelpers"
)

func newTestService(t *testing.T, catalog questions.Catalog) (*Service, *gorm.DB) {
	t.Helper()
	db := testhelpers.SetupTestDB(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	if catalog == nil {
		catalog = questions.NewStaticCatalog([]questions.Ref{
			{ID: 1, Title: "Two Sum", Category: models.TypeDataStructures, Difficulty: "easy"},
			{ID: 2, Title: "Valid Parentheses", Category: models.TypeDataStructures, Difficulty: "easy"},
			{ID: 3, Title: "Reverse Linked List", Category: models.TypeDataStructures, Difficulty: "easy"},
		})
	}
	notifier := signaling.NewNotifier(rdb, zap.NewNop())
	return NewService(db, catalog, notifier, zap.NewNop()), db
}

type sessionOpt func(*models.LiveSession)

// seedSession creates an in-progress peer session for users "alice"
// (interviewer) and "bob" (interviewee), first question 1, second
// question 2, plus alice's scheduled request carrying the back-reference.
func seedSession(t *testing.T, db *gorm.DB, opts ...sessionOpt) *models.LiveSession {
	t.Helper()
	second := 2
	session := &models.LiveSession{
		ID:                   uuid.New().String(),
		InterviewType:        models.TypeDataStructures,
		PracticeMode:         models.ModePeer,
		Level:                models.LevelBeginner,
		Status:               models.SessionInProgress,
		FirstQuestionID:      1,
		SecondQuestionID:     &second,
		ActiveQuestionID:     1,
		AttemptedQuestionIDs: []int{1, 2},
		StartedAt:            time.Now(),
	}
	for _, opt := range opts {
		opt(session)
	}
	require.NoError(t, db.Create(session).Error)

	participants := []models.Participant{
		{LiveSessionID: session.ID, UserID: "alice", Role: models.RoleInterviewer, Connected: true, JoinedAt: session.StartedAt},
		{LiveSessionID: session.ID, UserID: "bob", Role: models.RoleInterviewee, Connected: true, JoinedAt: session.StartedAt},
	}
	require.NoError(t, db.Create(&participants).Error)

	scheduled := &models.ScheduledRequest{
		ID:            uuid.New().String(),
		UserID:        "alice",
		InterviewType: session.InterviewType,
		PracticeMode:  session.PracticeMode,
		Level:         session.Level,
		StartAt:       session.StartedAt,
		Status:        models.RequestInProgress,
		LiveSessionID: &session.ID,
	}
	require.NoError(t, db.Create(scheduled).Error)
	return session
}

func TestGetSession(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()
	session := seedSession(t, db)

	view, err := svc.GetSession(ctx, "alice", session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, view.Session.ID)
	assert.Len(t, view.Participants, 2)

	t.Run("unknown session", func(t *testing.T) {
		_, err := svc.GetSession(ctx, "alice", "nope")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("non-participant", func(t *testing.T) {
		_, err := svc.GetSession(ctx, "mallory", session.ID)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestSwitchRoles(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()
	session := seedSession(t, db)

	view, err := svc.SwitchRoles(ctx, "bob", session.ID)
	require.NoError(t, err)

	byUser := map[string]models.Participant{}
	for _, p := range view.Participants {
		byUser[p.UserID] = p
	}
	assert.Equal(t, models.RoleInterviewee, byUser["alice"].Role)
	assert.Equal(t, models.RoleInterviewer, byUser["bob"].Role)
	assert.Equal(t, 2, view.Session.ActiveQuestionID, "active question toggles to the second slot")

	t.Run("exactly one interviewer persisted", func(t *testing.T) {
		var rows []models.Participant
		require.NoError(t, db.Where("live_session_id = ?", session.ID).Find(&rows).Error)
		roles := map[string]int{}
		for _, p := range rows {
			roles[p.Role]++
		}
		assert.Equal(t, 1, roles[models.RoleInterviewer])
		assert.Equal(t, 1, roles[models.RoleInterviewee])
	})

	t.Run("switching back restores the first question", func(t *testing.T) {
		view, err := svc.SwitchRoles(ctx, "alice", session.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, view.Session.ActiveQuestionID)

		var reloaded models.Participant
		require.NoError(t, db.First(&reloaded, "live_session_id = ? AND user_id = ?", session.ID, "alice").Error)
		assert.Equal(t, models.RoleInterviewer, reloaded.Role)
	})

	t.Run("non-participant", func(t *testing.T) {
		_, err := svc.SwitchRoles(ctx, "mallory", session.ID)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestSwitchRoles_NoSecondQuestion(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()
	session := seedSession(t, db, func(s *models.LiveSession) {
		s.PracticeMode = models.ModeSingle
		s.SecondQuestionID = nil
		s.AttemptedQuestionIDs = []int{1}
	})

	_, err := svc.SwitchRoles(ctx, "alice", session.ID)
	assert.ErrorIs(t, err, apperrors.ErrNoSecondQuestion)
}

func TestChangeQuestion(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()
	session := seedSession(t, db)

	view, err := svc.ChangeQuestion(ctx, "alice", session.ID)
	require.NoError(t, err)

	// 1 and 2 are already attempted, so the only eligible pick is 3.
	assert.Equal(t, 3, view.Session.ActiveQuestionID)
	assert.Equal(t, 3, view.Session.FirstQuestionID)
	assert.ElementsMatch(t, []int{1, 2, 3}, view.Session.AttemptedQuestionIDs)

	t.Run("interviewee may not change the question", func(t *testing.T) {
		_, err := svc.ChangeQuestion(ctx, "bob", session.ID)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestChangeQuestion_ReplacesActiveSlot(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()
	session := seedSession(t, db, func(s *models.LiveSession) {
		s.ActiveQuestionID = 2 // second slot is active
	})

	view, err := svc.ChangeQuestion(ctx, "alice", session.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, view.Session.FirstQuestionID, "first slot untouched")
	require.NotNil(t, view.Session.SecondQuestionID)
	assert.Equal(t, 3, *view.Session.SecondQuestionID)
	assert.Equal(t, 3, view.Session.ActiveQuestionID)
}

func TestChangeQuestion_CatalogExhausted(t *testing.T) {
	catalog := questions.NewStaticCatalog([]questions.Ref{
		{ID: 1, Title: "Two Sum", Category: models.TypeDataStructures, Difficulty: "easy"},
		{ID: 2, Title: "Valid Parentheses", Category: models.TypeDataStructures, Difficulty: "easy"},
	})
	svc, db := newTestService(t, catalog)
	ctx := context.Background()
	session := seedSession(t, db)

	_, err := svc.ChangeQuestion(ctx, "alice", session.ID)
	assert.ErrorIs(t, err, questions.ErrNoQuestion)
}

func TestEnd(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()
	session := seedSession(t, db)

	view, err := svc.End(ctx, "bob", session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, view.Session.Status)
	require.NotNil(t, view.Session.EndedAt)

	t.Run("participants disconnected", func(t *testing.T) {
		var participants []models.Participant
		require.NoError(t, db.Where("live_session_id = ?", session.ID).Find(&participants).Error)
		for _, p := range participants {
			assert.False(t, p.Connected)
			assert.NotNil(t, p.LeftAt)
		}
	})

	t.Run("scheduled request completed", func(t *testing.T) {
		var scheduled models.ScheduledRequest
		require.NoError(t, db.First(&scheduled, "live_session_id = ?", session.ID).Error)
		assert.Equal(t, models.RequestCompleted, scheduled.Status)
	})

	t.Run("ending twice is a no-op", func(t *testing.T) {
		again, err := svc.End(ctx, "alice", session.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SessionCompleted, again.Session.Status)
	})

	t.Run("cancel after completion does not rewrite the status", func(t *testing.T) {
		view, err := svc.Cancel(ctx, "alice", session.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SessionCompleted, view.Session.Status)
	})

	t.Run("ended session rejects mutations", func(t *testing.T) {
		_, err := svc.SwitchRoles(ctx, "alice", session.ID)
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		_, err = svc.ChangeQuestion(ctx, "alice", session.ID)
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	})
}

func TestCancel(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()
	session := seedSession(t, db)

	view, err := svc.Cancel(ctx, "alice", session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCancelled, view.Session.Status)

	t.Run("non-participant may not cancel", func(t *testing.T) {
		other := seedSession(t, db)
		_, err := svc.Cancel(ctx, "mallory", other.ID)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}
