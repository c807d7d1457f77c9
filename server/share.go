package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/deeply-app/deeply/internal/db"
	"github.com/deeply-app/deeply/internal/logger"
	"github.com/deeply-app/deeply/internal/model"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type shareRequest struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (s *Server) handleListShares(c echo.Context) error {
	shares, err := s.db.ListShares(c.Request().Context())
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, shares)
}

// handleCreateShare records the share and mails a board summary to the
// recipient.
func (s *Server) handleCreateShare(c echo.Context) error {
	var req shareRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid email address")
	}

	ctx := c.Request().Context()
	sh := model.Share{
		ID:        uuid.New().String(),
		Email:     email,
		Message:   req.Message,
		CreatedAt: time.Now(),
	}
	if err := s.db.CreateShare(ctx, sh); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	if err := s.sendShareMail(c, sh); err != nil {
		logger.Error("Share mail failed", logger.F("share", sh.ID), logger.F("err", err))
		return c.JSON(http.StatusOK, map[string]any{
			"share": sh,
			"sent":  false,
			"error": "the share was recorded but the email could not be sent",
		})
	}

	return c.JSON(http.StatusCreated, map[string]any{"share": sh, "sent": true})
}

func (s *Server) handleResendShare(c echo.Context) error {
	sh, err := s.db.GetShare(c.Request().Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "share not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	if err := s.sendShareMail(c, sh); err != nil {
		return jsonError(c, http.StatusBadGateway, "email could not be sent")
	}
	return c.JSON(http.StatusOK, map[string]bool{"sent": true})
}

func (s *Server) handleDeleteShare(c echo.Context) error {
	err := s.db.DeleteShare(c.Request().Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "share not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// sendShareMail composes the board summary for the caller's visible
// projects and sends it.
func (s *Server) sendShareMail(c echo.Context, sh model.Share) error {
	if !s.mailer.Enabled() {
		return fmt.Errorf("smtp not configured")
	}

	ctx := c.Request().Context()
	caller := currentPerson(c)

	projects, err := s.db.ListProjectsFor(ctx, caller)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<p>%s shared their boards with you.</p>", caller.Name)
	if sh.Message != "" {
		fmt.Fprintf(&b, "<p>%s</p>", sh.Message)
	}
	b.WriteString("<ul>")
	for _, p := range projects {
		n, err := s.db.CountCards(ctx, p.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "<li><strong>%s</strong>: %d cards in %d phases</li>",
			p.Name, n, len(p.Phases))
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, `<p><a href="%s">Open Deeply</a></p>`, s.cfg.BaseURL)

	subject := fmt.Sprintf("%s shared a board with you", caller.Name)
	return s.mailer.Send(sh.Email, subject, b.String())
}
