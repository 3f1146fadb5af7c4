package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/grvbrk/vidcatalog/internal/logger"
)

type Envelope map[string]interface{}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	js, err := json.MarshalIndent(data, "", " ")
	if err != nil {
		log := logger.Base()
		log.Error().Err(err).Msg("error marshaling JSON")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	js = append(js, '\n')
	WriteRawJSON(w, status, js)
}

// WriteRawJSON writes an already encoded JSON body.
func WriteRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(body); err != nil {
		log := logger.Base()
		log.Warn().Err(err).Msg("error writing JSON response")
	}
}

// ReadIDParam parses the positive integer chi URL parameter "id".
func ReadIDParam(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		return 0, errors.New("missing id parameter")
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id parameter %q", idStr)
	}
	return id, nil
}
