package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/apperrors"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/models"
)

// RequestRepository persists scheduled requests. Rows are only ever
// status-transitioned, never deleted.
type RequestRepository struct {
	DB *gorm.DB
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *RequestRepository) WithTx(tx *gorm.DB) *RequestRepository {
	return &RequestRepository{DB: tx}
}

func (r *RequestRepository) Create(request *models.ScheduledRequest) error {
	return r.DB.Create(request).Error
}

func (r *RequestRepository) GetByID(id string) (*models.ScheduledRequest, error) {
	var request models.ScheduledRequest
	err := r.DB.First(&request, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// ListByUser returns the user's scheduled requests, newest first.
func (r *RequestRepository) ListByUser(userID string) ([]models.ScheduledRequest, error) {
	requests := []models.ScheduledRequest{}
	err := r.DB.Where("user_id = ?", userID).Order("start_at DESC").Find(&requests).Error
	return requests, err
}

// Reactivate resets a cancelled request back to scheduled so its owner
// can re-enter the queue.
func (r *RequestRepository) Reactivate(id string) error {
	return r.DB.Model(&models.ScheduledRequest{}).
		Where("id = ? AND status = ?", id, models.RequestCancelled).
		Update("status", models.RequestScheduled).Error
}

// ClaimForMerge conditionally transitions the primary request from
// scheduled to in_progress. Exactly one of two racing merge attempts
// wins; the loser sees zero rows affected.
func (r *RequestRepository) ClaimForMerge(id string) (bool, error) {
	result := r.DB.Model(&models.ScheduledRequest{}).
		Where("id = ? AND status = ?", id, models.RequestScheduled).
		Update("status", models.RequestInProgress)
	return result.RowsAffected == 1, result.Error
}

// AttachSession records the live-session back-reference on the primary
// request.
func (r *RequestRepository) AttachSession(id, sessionID string) error {
	return r.DB.Model(&models.ScheduledRequest{}).
		Where("id = ?", id).
		Update("live_session_id", sessionID).Error
}

// CompleteWithSession retires the non-primary request with a
// back-reference, so its owner's poller discovers the same session.
func (r *RequestRepository) CompleteWithSession(id, sessionID string) error {
	return r.DB.Model(&models.ScheduledRequest{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":          models.RequestCompleted,
			"live_session_id": sessionID,
		}).Error
}

// CompleteForSession retires the in-progress primary request once its
// session terminates.
func (r *RequestRepository) CompleteForSession(sessionID string) error {
	return r.DB.Model(&models.ScheduledRequest{}).
		Where("live_session_id = ? AND status = ?", sessionID, models.RequestInProgress).
		Update("status", models.RequestCompleted).Error
}

func (r *RequestRepository) Cancel(id string) error {
	return r.DB.Model(&models.ScheduledRequest{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     models.RequestCancelled,
			"updated_at": time.Now(),
		}).Error
}
