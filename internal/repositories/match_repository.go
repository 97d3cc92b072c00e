package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/apperrors"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/models"
)

// MatchRepository persists match requests. All pairing mutations are
// conditional updates keyed on the current status, so two concurrent
// scans can never claim the same row ("double-booking").
type MatchRepository struct {
	DB *gorm.DB
}

func (r *MatchRepository) WithTx(tx *gorm.DB) *MatchRepository {
	return &MatchRepository{DB: tx}
}

func (r *MatchRepository) Create(request *models.MatchRequest) error {
	return r.DB.Create(request).Error
}

func (r *MatchRepository) GetByID(id string) (*models.MatchRequest, error) {
	var request models.MatchRequest
	err := r.DB.First(&request, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// GetActiveByScheduledRequest returns the request's single non-terminal
// match request, or ErrNotFound when none is active.
func (r *MatchRepository) GetActiveByScheduledRequest(scheduledRequestID string) (*models.MatchRequest, error) {
	var request models.MatchRequest
	err := r.DB.
		Where("scheduled_request_id = ? AND status IN ?", scheduledRequestID,
			[]string{models.MatchPending, models.MatchMatched, models.MatchConfirmed}).
		Order("created_at DESC").
		First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// FindCandidates returns pending, unexpired, compatible requests from
// other users, earliest first (FIFO bounds wait time fairly).
func (r *MatchRepository) FindCandidates(interviewType, practiceMode, level, excludeUserID string, now time.Time, limit int) ([]models.MatchRequest, error) {
	candidates := []models.MatchRequest{}
	err := r.DB.
		Where("status = ? AND user_id <> ? AND expires_at > ?", models.MatchPending, excludeUserID, now).
		Where("interview_type = ? AND practice_mode = ? AND level = ?", interviewType, practiceMode, level).
		Order("created_at ASC").
		Limit(limit).
		Find(&candidates).Error
	return candidates, err
}

// ClaimCandidate atomically transitions a pending candidate to matched
// with the mutual counterpart reference. Returns false when another
// caller claimed it first.
func (r *MatchRepository) ClaimCandidate(candidateID, counterpartID string) (bool, error) {
	result := r.DB.Model(&models.MatchRequest{}).
		Where("id = ? AND status = ? AND counterpart_id IS NULL", candidateID, models.MatchPending).
		Updates(map[string]any{
			"status":         models.MatchMatched,
			"counterpart_id": counterpartID,
		})
	return result.RowsAffected == 1, result.Error
}

// LockPair serializes racing mutations of a matched pair by updating
// both rows in ascending ID order. Two transactions confirming the two
// sides of one pair always collide on the first row's lock, so the
// loser re-reads committed state once the winner finishes. Portable
// alternative to SELECT ... FOR UPDATE, which SQLite lacks.
func (r *MatchRepository) LockPair(idA, idB string) error {
	first, second := idA, idB
	if second < first {
		first, second = second, first
	}
	for _, id := range []string{first, second} {
		err := r.DB.Model(&models.MatchRequest{}).
			Where("id = ?", id).
			Update("updated_at", time.Now()).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// SetConfirmed sets the caller's confirmation flag, conditional on the
// request still being matched.
func (r *MatchRepository) SetConfirmed(id string) (bool, error) {
	result := r.DB.Model(&models.MatchRequest{}).
		Where("id = ? AND status = ?", id, models.MatchMatched).
		Update("confirmed", true)
	return result.RowsAffected == 1, result.Error
}

// ResetToPending releases a matched request back into the queue after
// its counterpart became unavailable.
func (r *MatchRepository) ResetToPending(id string) error {
	return r.DB.Model(&models.MatchRequest{}).
		Where("id = ? AND status = ?", id, models.MatchMatched).
		Updates(map[string]any{
			"status":         models.MatchPending,
			"counterpart_id": nil,
			"confirmed":      false,
		}).Error
}

// MarkExpired lazily retires a request past its expiry timestamp.
func (r *MatchRepository) MarkExpired(id string) (bool, error) {
	result := r.DB.Model(&models.MatchRequest{}).
		Where("id = ? AND status IN ?", id, []string{models.MatchPending, models.MatchMatched}).
		Update("status", models.MatchExpired)
	return result.RowsAffected == 1, result.Error
}

// CancelActive retires the scheduled request's active match request, if
// any. Confirmed requests are left alone; by then the session exists.
func (r *MatchRepository) CancelActive(scheduledRequestID string) error {
	return r.DB.Model(&models.MatchRequest{}).
		Where("scheduled_request_id = ? AND status IN ?", scheduledRequestID,
			[]string{models.MatchPending, models.MatchMatched}).
		Update("status", models.MatchCancelled).Error
}

// ConfirmPair finalizes both sides of a merged pair.
func (r *MatchRepository) ConfirmPair(ids []string) error {
	return r.DB.Model(&models.MatchRequest{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":    models.MatchConfirmed,
			"confirmed": true,
		}).Error
}
