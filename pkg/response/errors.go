package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fkhayef/billsplit/internal/apperrors"
)

// FromError maps a service error onto the HTTP error taxonomy. Invariant
// violations and unclassified errors are logged and reported without detail.
func FromError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		BadRequest(w, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, apperrors.ErrConflict):
		Conflict(w, err.Error())
	case errors.Is(err, apperrors.ErrInvariant):
		logger.Error("Ledger invariant violated", slog.String("error", err.Error()))
		Error(w, http.StatusInternalServerError, CodeInvariantViolation, "Ledger invariant violated")
	default:
		logger.Error("Request failed", slog.String("error", err.Error()))
		InternalError(w, "Internal server error")
	}
}
