package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/deeply-app/deeply/internal/logger"
	"github.com/deeply-app/deeply/internal/model"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// sessionTTL is how long a login stays valid.
const sessionTTL = 30 * 24 * time.Hour

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin authenticates by email and password and sets the session cookie.
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return jsonError(c, http.StatusBadRequest, "email and password required")
	}

	ctx := c.Request().Context()

	person, err := s.db.GetPersonByEmail(ctx, email)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(person.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warn("Failed login", logger.F("email", email))
		return jsonError(c, http.StatusUnauthorized, "invalid credentials")
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	token := hex.EncodeToString(tokenBytes)

	sess := model.Session{
		ID:        uuid.New().String(),
		PersonID:  person.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(sessionTTL),
		CreatedAt: time.Now(),
	}
	if err := s.db.CreateSession(ctx, sess); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	// Opportunistic cleanup of dead sessions
	s.db.PurgeExpiredSessions(ctx, time.Now())

	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	logger.Info("Login", logger.F("person", person.ID))

	return c.JSON(http.StatusOK, person)
}

// handleLogout removes the session and clears the cookie.
func (s *Server) handleLogout(c echo.Context) error {
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		s.db.DeleteSession(c.Request().Context(), cookie.Value)
	}

	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// handleMe returns the authenticated person.
func (s *Server) handleMe(c echo.Context) error {
	return c.JSON(http.StatusOK, currentPerson(c))
}
