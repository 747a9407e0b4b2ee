package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/patrickmn/go-cache"

	"github.com/username/momosms/backend/src/logger"
	"github.com/username/momosms/backend/src/models"
	"github.com/username/momosms/backend/src/security"
)

const authRealm = `Basic realm="MoMo SMS API"`

// AuthMiddleware gates requests behind HTTP Basic authentication against the
// users table. Username lookups are cached briefly to avoid a database hit on
// every request; the bcrypt comparison always runs.
type AuthMiddleware struct {
	db        *sql.DB
	userCache *cache.Cache
}

func NewAuthMiddleware(db *sql.DB, userCache *cache.Cache) *AuthMiddleware {
	return &AuthMiddleware{db: db, userCache: userCache}
}

func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			logger.L.Debug("AuthMiddleware: missing or malformed Authorization header", "path", r.URL.Path)
			m.sendUnauthorized(w)
			return
		}

		user, err := m.lookupUser(username)
		if err != nil {
			logger.L.Warn("AuthMiddleware: user lookup failed", "username", username, "error", err)
			m.sendUnauthorized(w)
			return
		}

		if err := security.CompareHashAndPassword(user.PasswordHash, password); err != nil {
			logger.L.Debug("AuthMiddleware: credential mismatch", "username", username)
			m.sendUnauthorized(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) lookupUser(username string) (*models.User, error) {
	if cached, found := m.userCache.Get(username); found {
		return cached.(*models.User), nil
	}

	var user models.User
	err := m.db.QueryRow(
		`SELECT id, username, password_hash FROM users WHERE username = ?`, username).
		Scan(&user.ID, &user.Username, &user.PasswordHash)
	if err != nil {
		return nil, err
	}

	m.userCache.Set(username, &user, cache.DefaultExpiration)
	return &user, nil
}

func (m *AuthMiddleware) sendUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", authRealm)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "Unauthorized",
		"message": "Valid credentials required",
	})
}
