package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/services"
	"github.com/grvbrk/vidcatalog/internal/utils"
)

const (
	maxImportSize      = 10 << 20
	maxReportedErrors  = 5
	importFileField    = "file"
	bulkDeleteIDsField = "video_ids"
)

type BulkHandler struct {
	Catalog *services.CatalogService
	Logger  zerolog.Logger
}

func NewBulkHandler(catalog *services.CatalogService, logger zerolog.Logger) *BulkHandler {
	return &BulkHandler{
		Catalog: catalog,
		Logger:  logger,
	}
}

// importMessages renders the flash style summary shown after an import.
func importMessages(res services.ImportResult) []string {
	msgs := []string{}
	if res.Success > 0 {
		msgs = append(msgs, fmt.Sprintf("Successfully imported %d videos!", res.Success))
	}
	if res.Skipped > 0 {
		msgs = append(msgs, fmt.Sprintf("Skipped %d duplicate videos.", res.Skipped))
	}
	for i, e := range res.Errors {
		if i == maxReportedErrors {
			break
		}
		msgs = append(msgs, "Error: "+e)
	}
	return msgs
}

// HandlerBulkImport takes a multipart upload of a .json file holding an array of videos.
func (bh *BulkHandler) HandlerBulkImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "No file selected"})
		return
	}

	file, header, err := r.FormFile(importFileField)
	if err != nil || header.Filename == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "No file selected"})
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".json") {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "Please upload a JSON file"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "Could not read uploaded file"})
		return
	}

	res := bh.Catalog.ImportJSON(r.Context(), data)
	bh.Logger.Info().
		Str("file", header.Filename).
		Int("success", res.Success).
		Int("skipped", res.Skipped).
		Int("errors", len(res.Errors)).
		Msg("bulk import finished")

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{
		"success":  res.Success,
		"skipped":  res.Skipped,
		"errors":   res.Errors,
		"messages": importMessages(res),
	})
}

type bulkDeleteRequest struct {
	VideoIDs []int64 `json:"video_ids"`
}

func readBulkDeleteIDs(r *http.Request) ([]int64, error) {
	if isJSON(r) {
		var req bulkDeleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		return req.VideoIDs, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	var ids []int64
	for _, raw := range r.PostForm[bulkDeleteIDsField] {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid video id %q", raw)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (bh *BulkHandler) HandlerBulkDelete(w http.ResponseWriter, r *http.Request) {
	ids, err := readBulkDeleteIDs(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"success": false, "error": "Invalid request body"})
		return
	}
	if len(ids) == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"success": false, "error": "No videos selected"})
		return
	}

	deleted, err := bh.Catalog.BulkDelete(r.Context(), ids)
	if err != nil {
		bh.Logger.Error().Err(err).Int("requested", len(ids)).Msg("bulk delete failed")
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"success": false, "error": err.Error()})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"success": true, "deleted": deleted})
}
