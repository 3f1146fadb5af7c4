package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/metadata"
	"github.com/grvbrk/vidcatalog/internal/services"
	"github.com/grvbrk/vidcatalog/internal/utils"
)

// MetadataHandler previews extraction for the admin form before a video is saved.
type MetadataHandler struct {
	Extractor services.MetadataExtractor
	Logger    zerolog.Logger
}

func NewMetadataHandler(extractor services.MetadataExtractor, logger zerolog.Logger) *MetadataHandler {
	return &MetadataHandler{
		Extractor: extractor,
		Logger:    logger,
	}
}

type extractRequest struct {
	URL string `json:"url"`
}

func (mh *MetadataHandler) HandlerExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "URL is required"})
		return
	}

	check := metadata.ValidateURL(req.URL)
	if !check.Valid {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "Invalid URL format", "details": check.Error})
		return
	}

	meta := mh.Extractor.Extract(r.Context(), strings.TrimSpace(req.URL))
	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"metadata": meta, "validation": check})
}

func (mh *MetadataHandler) HandlerPlatforms(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"platforms": metadata.SupportedPlatforms()})
}
