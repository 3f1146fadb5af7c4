package auth

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/models"
	"github.com/grvbrk/vidcatalog/internal/store"
	"github.com/grvbrk/vidcatalog/internal/utils"
)

// PasswordAuth serves the admin login endpoints on top of a cookie session.
type PasswordAuth struct {
	Logger    zerolog.Logger
	Store     sessions.Store
	UserStore store.UserStore
}

func NewPasswordAuth(logger zerolog.Logger, sessionStore sessions.Store, userStore store.UserStore) *PasswordAuth {
	return &PasswordAuth{
		Logger:    logger,
		Store:     sessionStore,
		UserStore: userStore,
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func readCredentials(r *http.Request) (credentials, error) {
	var c credentials
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			return c, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return c, err
		}
		c.Username = r.PostFormValue("username")
		c.Password = r.PostFormValue("password")
	}
	c.Username = strings.TrimSpace(c.Username)
	return c, nil
}

func (a *PasswordAuth) Login(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(r)
	if err != nil || creds.Username == "" || creds.Password == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "Username and password are required"})
		return
	}

	user, err := a.UserStore.GetUserByUsername(r.Context(), creds.Username)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		a.Logger.Error().Err(err).Msg("error looking up admin")
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"error": "Internal Server Error"})
		return
	}
	if user == nil || !CheckPassword(user.PasswordHash, creds.Password) {
		a.Logger.Warn().Str("username", creds.Username).Str("remote", r.RemoteAddr).Msg("failed login")
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"error": ErrInvalidCredentials.Error()})
		return
	}

	session, _ := a.Store.Get(r, SessionName)
	session.Values[sessionAdminID] = user.ID
	session.Values[sessionAdminName] = user.Username
	if err := session.Save(r, w); err != nil {
		a.Logger.Error().Err(err).Msg("error saving session")
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"error": "Internal Server Error"})
		return
	}

	a.Logger.Info().Str("username", user.Username).Msg("admin logged in")
	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": user})
}

func (a *PasswordAuth) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := a.Store.Get(r, SessionName)
	delete(session.Values, sessionAdminID)
	delete(session.Values, sessionAdminName)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		a.Logger.Error().Err(err).Msg("error clearing session")
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"message": "Logged out"})
}

// AuthAdmin reports the admin behind the current session.
func (a *PasswordAuth) AuthAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := AdminIDFromSession(a.Store, r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"error": "Not Authenticated"})
		return
	}

	user, err := a.UserStore.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"error": "Not Authenticated"})
			return
		}
		a.Logger.Error().Err(err).Msg("error loading admin")
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"error": "Internal Server Error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": user})
}
