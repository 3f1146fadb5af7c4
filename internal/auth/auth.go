package auth

import (
	"crypto/sha256"
	"errors"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"github.com/grvbrk/vidcatalog/internal/config"
)

const SessionName = "vidcatalog_admin_session"

const (
	sessionAdminID   = "admin_id"
	sessionAdminName = "admin_username"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// NewSessionStore builds the admin cookie store. Without SESSION_KEY the keys
// are random, so sessions do not survive a restart.
func NewSessionStore(cfg config.Config) *sessions.CookieStore {
	var authKey, encryptionKey []byte
	if cfg.SessionKey != "" {
		sum := sha256.Sum256([]byte(cfg.SessionKey))
		authKey = []byte(cfg.SessionKey)
		encryptionKey = sum[:]
	} else {
		authKey = securecookie.GenerateRandomKey(64)
		encryptionKey = securecookie.GenerateRandomKey(32)
	}

	store := sessions.NewCookieStore(authKey, encryptionKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
	}

	if cfg.IsProduction() {
		store.Options.Secure = true
		store.Options.SameSite = http.SameSiteNoneMode
	} else {
		store.Options.Secure = false
		store.Options.SameSite = http.SameSiteLaxMode
	}
	return store
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// AdminIDFromSession returns the logged in admin's id, if any.
func AdminIDFromSession(store sessions.Store, r *http.Request) (int64, bool) {
	session, err := store.Get(r, SessionName)
	if err != nil || session.IsNew {
		return 0, false
	}
	id, ok := session.Values[sessionAdminID].(int64)
	if !ok || id < 1 {
		return 0, false
	}
	return id, true
}
