package handlers

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/models"
	"github.com/grvbrk/vidcatalog/internal/services"
	"github.com/grvbrk/vidcatalog/internal/utils"
)

// AdminHandler covers single record create, read, update and delete.
type AdminHandler struct {
	Catalog *services.CatalogService
	Logger  zerolog.Logger
}

func NewAdminHandler(catalog *services.CatalogService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		Catalog: catalog,
		Logger:  logger,
	}
}

func isJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

// readVideoInput accepts a JSON body or a classic form post.
func readVideoInput(r *http.Request) (models.VideoInput, error) {
	var in models.VideoInput
	if isJSON(r) {
		err := json.NewDecoder(r.Body).Decode(&in)
		return in, err
	}

	if err := r.ParseForm(); err != nil {
		return in, err
	}
	in.Title = r.PostFormValue("title")
	in.URL = r.PostFormValue("url")
	in.Speaker = r.PostFormValue("speaker")
	in.Tags = models.ParseTags(r.PostFormValue("tags"))
	in.Description = r.PostFormValue("description")
	return in, nil
}

func (ah *AdminHandler) HandlerCreateVideo(w http.ResponseWriter, r *http.Request) {
	in, err := readVideoInput(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "Invalid request body"})
		return
	}

	video, err := ah.Catalog.CreateVideo(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "error creating video")
		return
	}

	resp := utils.Envelope{"data": video}
	if video.Metadata != nil && !video.Metadata.Failed() {
		resp["message"] = "Metadata extracted from " + video.Metadata.Platform + " platform"
	}
	utils.WriteJSON(w, http.StatusCreated, resp)
}

func (ah *AdminHandler) HandlerGetVideo(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ReadIDParam(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "Bad Request"})
		return
	}

	video, err := ah.Catalog.GetVideo(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "error getting video")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": video})
}

func (ah *AdminHandler) HandlerUpdateVideo(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ReadIDParam(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "Bad Request"})
		return
	}

	in, err := readVideoInput(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "Invalid request body"})
		return
	}

	video, err := ah.Catalog.UpdateVideo(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err, "error updating video")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": video})
}

func (ah *AdminHandler) HandlerDeleteVideo(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ReadIDParam(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "Bad Request"})
		return
	}

	video, err := ah.Catalog.DeleteVideo(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "error deleting video")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"message": "Video deleted", "data": video.Payload()})
}
