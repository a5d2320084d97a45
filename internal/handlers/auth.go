package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/equiptrack/defect-registry/internal/middleware"
	"github.com/equiptrack/defect-registry/internal/models"
	"github.com/equiptrack/defect-registry/internal/services"
	"github.com/equiptrack/defect-registry/pkg/utils"
)

// UserStore is the credential-store surface the auth handlers need.
// Satisfied by services.UserStore; stubbed in tests.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	SetLastLogin(ctx context.Context, email string, t time.Time) error
	SetLastLogout(ctx context.Context, email string, t time.Time) (*models.User, error)
}

// RegisterRequest is the signup body.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the signin body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthHandler implements register/login/logout and the session probes.
type AuthHandler struct {
	users         UserStore
	sessions      services.SessionStore
	sessionTTL    time.Duration
	staticDir     string
	secureCookies bool
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users UserStore, sessions services.SessionStore, sessionTTL time.Duration, staticDir string, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		users:         users,
		sessions:      sessions,
		sessionTTL:    sessionTTL,
		staticDir:     staticDir,
		secureCookies: secureCookies,
	}
}

// Register handles POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Printf("❌ Registration error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Registration failed", "error": err.Error()})
		return
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashedPassword,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, services.ErrDuplicateEmail) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "User already exists"})
			return
		}
		log.Printf("❌ Registration error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Registration failed", "error": err.Error()})
		return
	}

	log.Printf("🟢 User Registered: %s (%s) at %s", user.Username, user.Email, time.Now())
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
			return
		}
		log.Printf("❌ Login error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Login failed", "error": err.Error()})
		return
	}

	// Same message as unknown email so the response doesn't reveal which was wrong
	if !utils.VerifyPassword(req.Password, user.Password) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
		return
	}

	now := time.Now()
	if err := h.users.SetLastLogin(r.Context(), user.Email, now); err != nil {
		log.Printf("❌ Login error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Login failed", "error": err.Error()})
		return
	}

	token, err := h.sessions.Create(r.Context(), services.Identity{Email: user.Email, Username: user.Username})
	if err != nil {
		log.Printf("❌ Login error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Login failed", "error": err.Error()})
		return
	}
	h.setSessionCookie(w, token)

	log.Printf("🟢 User Logged In: %s (%s) at %s", user.Username, user.Email, now)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "redirect": "after_login.html"})
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.SessionToken(r)
	ident, ok, err := h.sessions.Resolve(r.Context(), token)
	if err != nil {
		log.Printf("❌ Logout error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Logout failed", "error": err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "No active session"})
		return
	}

	now := time.Now()
	user, err := h.users.SetLastLogout(r.Context(), ident.Email, now)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			// Session outlived its user; nothing deletes users here, so this
			// only shows up if the collection was touched out of band.
			log.Printf("❌ Logout error: user %s vanished behind a live session", ident.Email)
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
			return
		}
		log.Printf("❌ Logout error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Logout failed", "error": err.Error()})
		return
	}

	if _, err := h.sessions.Destroy(r.Context(), token); err != nil {
		log.Printf("❌ Logout error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Logout failed", "error": err.Error()})
		return
	}
	h.clearSessionCookie(w)

	log.Printf("🔴 User Logged Out: %s (%s) at %s", user.Username, user.Email, now)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "redirect": "index.html"})
}

// CheckSession handles GET /check-session. Always 200; the body says whether
// the caller is logged in.
func (h *AuthHandler) CheckSession(w http.ResponseWriter, r *http.Request) {
	ident, ok, err := h.sessions.Resolve(r.Context(), middleware.SessionToken(r))
	if err != nil || !ok {
		writeJSON(w, http.StatusOK, map[string]any{"loggedIn": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"loggedIn": true, "username": ident.Username})
}

// AfterLogin serves the landing page to authenticated users and bounces
// everyone else back to the index.
func (h *AuthHandler) AfterLogin(w http.ResponseWriter, r *http.Request) {
	_, ok, err := h.sessions.Resolve(r.Context(), middleware.SessionToken(r))
	if err != nil || !ok {
		http.Redirect(w, r, "/index.html", http.StatusFound)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.staticDir, "after_login.html"))
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
