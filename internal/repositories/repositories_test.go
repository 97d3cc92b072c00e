package repositories

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/apperrors"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/models"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/testhelpers"
)

func seedMatchRequest(t *testing.T, db *gorm.DB, userID, status string) *models.MatchRequest {
	t.Helper()
	now := time.Now()
	request := &models.MatchRequest{
		ID:                 uuid.New().String(),
		ScheduledRequestID: uuid.New().String(),
		UserID:             userID,
		InterviewType:      models.TypeDataStructures,
		PracticeMode:       models.ModePeer,
		Level:              models.LevelBeginner,
		Status:             status,
		CreatedAt:          now,
		ExpiresAt:          now.Add(models.MatchTTL),
	}
	require.NoError(t, db.Create(request).Error)
	return request
}

func TestClaimCandidate(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &MatchRepository{DB: db}

	candidate := seedMatchRequest(t, db, "user-a", models.MatchPending)

	claimed, err := repo.ClaimCandidate(candidate.ID, "claimer-1")
	require.NoError(t, err)
	assert.True(t, claimed)

	t.Run("second claim loses", func(t *testing.T) {
		claimed, err := repo.ClaimCandidate(candidate.ID, "claimer-2")
		require.NoError(t, err)
		assert.False(t, claimed)

		var row models.MatchRequest
		require.NoError(t, db.First(&row, "id = ?", candidate.ID).Error)
		assert.Equal(t, "claimer-1", *row.CounterpartID)
	})
}

func TestSetConfirmedRequiresMatched(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &MatchRepository{DB: db}

	pending := seedMatchRequest(t, db, "user-a", models.MatchPending)
	ok, err := repo.SetConfirmed(pending.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	matched := seedMatchRequest(t, db, "user-b", models.MatchMatched)
	ok, err = repo.SetConfirmed(matched.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMarkExpired(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &MatchRepository{DB: db}

	for status, want := range map[string]bool{
		models.MatchPending:   true,
		models.MatchMatched:   true,
		models.MatchConfirmed: false,
		models.MatchCancelled: false,
	} {
		request := seedMatchRequest(t, db, "user-a", status)
		expired, err := repo.MarkExpired(request.ID)
		require.NoError(t, err)
		assert.Equal(t, want, expired, "status %s", status)
	}
}

func TestResetToPending(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &MatchRepository{DB: db}

	request := seedMatchRequest(t, db, "user-a", models.MatchMatched)
	counterpart := "peer-id"
	require.NoError(t, db.Model(request).Updates(map[string]any{
		"counterpart_id": counterpart,
		"confirmed":      true,
	}).Error)

	require.NoError(t, repo.ResetToPending(request.ID))

	var row models.MatchRequest
	require.NoError(t, db.First(&row, "id = ?", request.ID).Error)
	assert.Equal(t, models.MatchPending, row.Status)
	assert.Nil(t, row.CounterpartID)
	assert.False(t, row.Confirmed)
}

func TestGetActiveByScheduledRequest(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &MatchRepository{DB: db}

	scheduledID := uuid.New().String()
	retired := seedMatchRequest(t, db, "user-a", models.MatchExpired)
	retired.ScheduledRequestID = scheduledID
	require.NoError(t, db.Save(retired).Error)

	_, err := repo.GetActiveByScheduledRequest(scheduledID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	active := seedMatchRequest(t, db, "user-a", models.MatchPending)
	active.ScheduledRequestID = scheduledID
	require.NoError(t, db.Save(active).Error)

	found, err := repo.GetActiveByScheduledRequest(scheduledID)
	require.NoError(t, err)
	assert.Equal(t, active.ID, found.ID)
}

func TestClaimForMerge(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &RequestRepository{DB: db}

	scheduled := &models.ScheduledRequest{
		ID:            uuid.New().String(),
		UserID:        "user-a",
		InterviewType: models.TypeDataStructures,
		PracticeMode:  models.ModePeer,
		Level:         models.LevelBeginner,
		StartAt:       time.Now(),
		Status:        models.RequestScheduled,
	}
	require.NoError(t, db.Create(scheduled).Error)

	won, err := repo.ClaimForMerge(scheduled.ID)
	require.NoError(t, err)
	assert.True(t, won)

	t.Run("second merge attempt loses", func(t *testing.T) {
		won, err := repo.ClaimForMerge(scheduled.ID)
		require.NoError(t, err)
		assert.False(t, won)
	})
}

func TestSwapRoles(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &SessionRepository{DB: db}

	now := time.Now()
	a := &models.Participant{LiveSessionID: "s1", UserID: "alice", Role: models.RoleInterviewer, Connected: true, JoinedAt: now}
	b := &models.Participant{LiveSessionID: "s1", UserID: "bob", Role: models.RoleInterviewee, Connected: true, JoinedAt: now}
	require.NoError(t, db.Create(a).Error)
	require.NoError(t, db.Create(b).Error)

	require.NoError(t, repo.SwapRoles(a, b))

	assert.Equal(t, models.RoleInterviewee, a.Role)
	assert.Equal(t, models.RoleInterviewer, b.Role)

	var rows []models.Participant
	require.NoError(t, db.Where("live_session_id = ?", "s1").Order("id ASC").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, models.RoleInterviewee, rows[0].Role)
	assert.Equal(t, models.RoleInterviewer, rows[1].Role)
}

func TestTerminateIsConditional(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &SessionRepository{DB: db}

	session := &models.LiveSession{
		ID:                   uuid.New().String(),
		InterviewType:        models.TypeDataStructures,
		PracticeMode:         models.ModePeer,
		Level:                models.LevelBeginner,
		Status:               models.SessionInProgress,
		FirstQuestionID:      1,
		ActiveQuestionID:     1,
		AttemptedQuestionIDs: []int{1},
		StartedAt:            time.Now(),
	}
	require.NoError(t, db.Create(session).Error)

	ended, err := repo.Terminate(session.ID, models.SessionCompleted, time.Now())
	require.NoError(t, err)
	assert.True(t, ended)

	ended, err = repo.Terminate(session.ID, models.SessionCancelled, time.Now())
	require.NoError(t, err)
	assert.False(t, ended, "terminal status must not be rewritten")

	var row models.LiveSession
	require.NoError(t, db.First(&row, "id = ?", session.ID).Error)
	assert.Equal(t, models.SessionCompleted, row.Status)
}
