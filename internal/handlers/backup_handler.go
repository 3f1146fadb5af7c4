package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/backup"
	"github.com/grvbrk/vidcatalog/internal/utils"
)

type BackupHandler struct {
	Backups *backup.Manager
	Logger  zerolog.Logger
}

func NewBackupHandler(backups *backup.Manager, logger zerolog.Logger) *BackupHandler {
	return &BackupHandler{
		Backups: backups,
		Logger:  logger,
	}
}

func (bh *BackupHandler) HandlerListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := bh.Backups.List()
	if err != nil {
		writeError(w, r, err, "error listing backups")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": backups})
}

func (bh *BackupHandler) HandlerCreateBackup(w http.ResponseWriter, r *http.Request) {
	b, err := bh.Backups.Create(r.Context())
	if err != nil {
		writeError(w, r, err, "error creating backup")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.Envelope{"data": b})
}

func (bh *BackupHandler) HandlerRestoreBackup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if err := bh.Backups.Restore(r.Context(), name); err != nil {
		writeError(w, r, err, "error restoring backup")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"success": true, "message": "Restored " + name})
}
