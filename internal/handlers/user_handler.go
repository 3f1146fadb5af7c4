package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/auth"
	"github.com/grvbrk/vidcatalog/internal/middlewares"
	"github.com/grvbrk/vidcatalog/internal/store"
	"github.com/grvbrk/vidcatalog/internal/utils"
)

const minPasswordLength = 8

type UserHandler struct {
	UserStore store.UserStore
	Logger    zerolog.Logger
}

func NewUserHandler(userStore store.UserStore, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		UserStore: userStore,
		Logger:    logger,
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HandlerChangePassword lets the signed in admin replace their own password.
func (uh *UserHandler) HandlerChangePassword(w http.ResponseWriter, r *http.Request) {
	admin, ok := middlewares.GetAdminFromContext(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"error": "Unauthorized"})
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "Invalid request body"})
		return
	}
	if !auth.CheckPassword(admin.PasswordHash, req.CurrentPassword) {
		utils.WriteJSON(w, http.StatusForbidden, utils.Envelope{"error": "Current password is incorrect"})
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "Password too short (min 8 characters)"})
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, r, err, "error hashing password")
		return
	}
	if err := uh.UserStore.UpdatePassword(r.Context(), admin.ID, hash); err != nil {
		writeError(w, r, err, "error updating password")
		return
	}

	uh.Logger.Info().Int64("admin_id", admin.ID).Msg("admin password changed")
	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"success": true})
}
