package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/export"
	"github.com/grvbrk/vidcatalog/internal/services"
	"github.com/grvbrk/vidcatalog/internal/utils"
)

type ExportHandler struct {
	Catalog *services.CatalogService
	Logger  zerolog.Logger
}

func NewExportHandler(catalog *services.CatalogService, logger zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		Catalog: catalog,
		Logger:  logger,
	}
}

func attachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (eh *ExportHandler) HandlerExportJSON(w http.ResponseWriter, r *http.Request) {
	data, err := eh.Catalog.ExportJSON(r.Context())
	if err != nil {
		writeError(w, r, err, "error exporting json")
		return
	}
	attachment(w, "application/json", export.Filename(eh.Catalog.Now(), "json"), data)
}

// HandlerExportCSV buffers the whole file so a failure can still produce a 500.
func (eh *ExportHandler) HandlerExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := eh.Catalog.ExportCSV(r.Context(), &buf); err != nil {
		writeError(w, r, err, "error exporting csv")
		return
	}
	attachment(w, "text/csv; charset=utf-8", export.Filename(eh.Catalog.Now(), "csv"), buf.Bytes())
}

// HandlerPublishArchive rewrites the public archive file on demand.
func (eh *ExportHandler) HandlerPublishArchive(w http.ResponseWriter, r *http.Request) {
	n, err := eh.Catalog.PublishArchive(r.Context())
	if err != nil {
		eh.Logger.Error().Err(err).Msg("publishing archive failed")
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"success": false, "error": err.Error()})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.Envelope{
		"success": true,
		"count":   n,
		"message": fmt.Sprintf("Exported %d videos to the public archive", n),
	})
}
