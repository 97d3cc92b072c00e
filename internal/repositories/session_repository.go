package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/apperrors"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/models"
)

// SessionRepository persists live sessions and their participants.
type SessionRepository struct {
	DB *gorm.DB
}

func (r *SessionRepository) WithTx(tx *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: tx}
}

func (r *SessionRepository) Create(session *models.LiveSession, participants []models.Participant) error {
	if err := r.DB.Create(session).Error; err != nil {
		return err
	}
	for i := range participants {
		if err := r.DB.Create(&participants[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *SessionRepository) GetByID(id string) (*models.LiveSession, error) {
	var session models.LiveSession
	err := r.DB.First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) GetParticipants(sessionID string) ([]models.Participant, error) {
	participants := []models.Participant{}
	err := r.DB.Where("live_session_id = ?", sessionID).Order("id ASC").Find(&participants).Error
	return participants, err
}

// SwapRoles exchanges the two participants' roles. Both roles are
// captured before the first write: gorm assigns the updated column back
// onto the model, so reading b.Role after updating a would re-read the
// value just written.
func (r *SessionRepository) SwapRoles(a, b *models.Participant) error {
	roleA, roleB := a.Role, b.Role
	if err := r.DB.Model(a).Update("role", roleB).Error; err != nil {
		return err
	}
	return r.DB.Model(b).Update("role", roleA).Error
}

// UpdateQuestions persists the session's question slots and attempt log.
func (r *SessionRepository) UpdateQuestions(session *models.LiveSession) error {
	return r.DB.Model(session).
		Select("first_question_id", "second_question_id", "active_question_id", "attempted_question_ids").
		Updates(session).Error
}

// Terminate conditionally moves the session from in_progress to the
// given terminal status. Ending twice is a no-op: the second caller
// sees zero rows affected.
func (r *SessionRepository) Terminate(id, status string, endedAt time.Time) (bool, error) {
	result := r.DB.Model(&models.LiveSession{}).
		Where("id = ? AND status = ?", id, models.SessionInProgress).
		Updates(map[string]any{
			"status":   status,
			"ended_at": endedAt,
		})
	return result.RowsAffected == 1, result.Error
}

// DisconnectAll flags both participants as gone once the session ends.
func (r *SessionRepository) DisconnectAll(sessionID string, leftAt time.Time) error {
	return r.DB.Model(&models.Participant{}).
		Where("live_session_id = ? AND left_at IS NULL", sessionID).
		Updates(map[string]any{
			"connected": false,
			"left_at":   leftAt,
		}).Error
}
