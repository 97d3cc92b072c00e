package handlers

import (
	"errors"
	"net/http"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/apperrors"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/questions"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/utils"
)

// writeError maps service errors onto HTTP statuses with
// machine-readable codes. State-machine violations come back as 409 so
// clients re-fetch status and adjust rather than treating them as fatal.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperrors.ErrForbidden):
		utils.JSONError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, apperrors.ErrInvalidState):
		utils.JSONError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, apperrors.ErrPartnerUnavailable):
		utils.JSONError(w, http.StatusConflict, "partner_unavailable", err.Error())
	case errors.Is(err, apperrors.ErrAlreadyMerged):
		utils.JSONError(w, http.StatusConflict, "already_merged", err.Error())
	case errors.Is(err, apperrors.ErrAlreadyPaired):
		utils.JSONError(w, http.StatusConflict, "already_paired", err.Error())
	case errors.Is(err, apperrors.ErrNoSecondQuestion):
		utils.JSONError(w, http.StatusUnprocessableEntity, "no_second_question", err.Error())
	case errors.Is(err, questions.ErrNoQuestion):
		utils.JSONError(w, http.StatusUnprocessableEntity, "no_eligible_question", err.Error())
	default:
		utils.JSONError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
	}
}
