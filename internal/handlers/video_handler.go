package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/export"
	"github.com/grvbrk/vidcatalog/internal/services"
	"github.com/grvbrk/vidcatalog/internal/utils"
)

// VideoHandler serves the public, unauthenticated API.
type VideoHandler struct {
	Catalog *services.CatalogService
	Logger  zerolog.Logger
}

func NewVideoHandler(catalog *services.CatalogService, logger zerolog.Logger) *VideoHandler {
	return &VideoHandler{
		Catalog: catalog,
		Logger:  logger,
	}
}

// HandlerGetVideos returns the whole catalog in export shape, ascending id.
func (vh *VideoHandler) HandlerGetVideos(w http.ResponseWriter, r *http.Request) {
	data, err := vh.Catalog.PublicListing(r.Context())
	if err != nil {
		writeError(w, r, err, "error listing videos")
		return
	}
	utils.WriteRawJSON(w, http.StatusOK, data)
}

func (vh *VideoHandler) HandlerGetVideoByID(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ReadIDParam(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "Bad Request"})
		return
	}

	video, err := vh.Catalog.GetVideo(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "error getting video")
		return
	}
	utils.WriteJSON(w, http.StatusOK, export.ToRecord(*video))
}

// HandlerRecordView counts a view and answers with the updated record.
func (vh *VideoHandler) HandlerRecordView(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ReadIDParam(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "Bad Request"})
		return
	}

	video, err := vh.Catalog.RecordView(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "error recording view")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": video})
}

func (vh *VideoHandler) HandlerHealth(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"status": "ok"})
}
