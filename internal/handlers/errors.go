package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/models"
	"github.com/grvbrk/vidcatalog/internal/services"
	"github.com/grvbrk/vidcatalog/internal/utils"
)

// writeError maps domain errors to a status code. Anything unknown is logged
// and reported as a 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "Validation failed", "messages": verr.Problems})
	case errors.Is(err, models.ErrNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.Envelope{"error": "Not Found"})
	case errors.Is(err, models.ErrInvalidBackupName), errors.Is(err, models.ErrInvalidArgument):
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "Bad Request"})
	case errors.Is(err, models.ErrBackupUnsupported):
		utils.WriteJSON(w, http.StatusNotImplemented, utils.Envelope{"error": err.Error()})
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg(msg)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"error": "Internal Server Error"})
	}
}
