package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/deeply-app/deeply/internal/db"
	"github.com/deeply-app/deeply/internal/model"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type kudoRequest struct {
	ReceiverID string `json:"receiver_id"`
	Category   string `json:"category"`
	Type       string `json:"type"`
	Message    string `json:"message"`
}

func (s *Server) handleListKudos(c echo.Context) error {
	kudos, err := s.db.ListKudos(c.Request().Context())
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, kudos)
}

func (s *Server) handleCreateKudo(c echo.Context) error {
	var req kudoRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if req.ReceiverID == "" || strings.TrimSpace(req.Message) == "" {
		return jsonError(c, http.StatusBadRequest, "receiver and message required")
	}

	caller := currentPerson(c)
	if req.ReceiverID == caller.ID {
		return jsonError(c, http.StatusBadRequest, "cannot send kudos to yourself")
	}

	ctx := c.Request().Context()

	if _, err := s.db.GetPerson(ctx, req.ReceiverID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "receiver not found")
		}
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	// Enforce the per-calendar-month send limit
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	sent, err := s.db.CountKudosSentSince(ctx, caller.ID, monthStart)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if sent >= model.MonthlyKudosLimit {
		return jsonError(c, http.StatusTooManyRequests,
			"monthly kudos limit of %d reached", model.MonthlyKudosLimit)
	}

	k := model.Kudo{
		ID:         uuid.New().String(),
		SenderID:   caller.ID,
		ReceiverID: req.ReceiverID,
		Category:   req.Category,
		Type:       req.Type,
		Message:    req.Message,
		CreatedAt:  now,
	}
	if err := s.db.CreateKudo(ctx, k); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, k)
}

type kudoCommentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id"`
}

func (s *Server) handleCreateKudoComment(c echo.Context) error {
	var req kudoCommentRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Content) == "" {
		return jsonError(c, http.StatusBadRequest, "comment content required")
	}

	comment := model.KudoComment{
		ID:        uuid.New().String(),
		KudoID:    c.Param("id"),
		PersonID:  currentPerson(c).ID,
		ParentID:  req.ParentID,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}
	if err := s.db.CreateKudoComment(c.Request().Context(), comment); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, comment)
}

type kudoReactionRequest struct {
	Type string `json:"reaction_type"`
}

// handleToggleKudoReaction adds, switches, or removes the caller's reaction.
// Repeating the current type removes it; a different type replaces it.
func (s *Server) handleToggleKudoReaction(c echo.Context) error {
	var req kudoReactionRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if req.Type == "" {
		return jsonError(c, http.StatusBadRequest, "reaction_type required")
	}

	ctx := c.Request().Context()
	kudoID := c.Param("id")
	caller := currentPerson(c)

	existing, err := s.db.GetKudoReaction(ctx, kudoID, caller.ID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		r := model.KudoReaction{
			ID:        uuid.New().String(),
			KudoID:    kudoID,
			PersonID:  caller.ID,
			Type:      req.Type,
			CreatedAt: time.Now(),
		}
		if err := s.db.CreateKudoReaction(ctx, r); err != nil {
			return jsonError(c, http.StatusInternalServerError, "internal error")
		}
		return c.JSON(http.StatusCreated, r)

	case err != nil:
		return jsonError(c, http.StatusInternalServerError, "internal error")

	case existing.Type == req.Type:
		if err := s.db.DeleteKudoReaction(ctx, existing.ID); err != nil {
			return jsonError(c, http.StatusInternalServerError, "internal error")
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "removed"})

	default:
		if err := s.db.UpdateKudoReaction(ctx, existing.ID, req.Type); err != nil {
			return jsonError(c, http.StatusInternalServerError, "internal error")
		}
		existing.Type = req.Type
		return c.JSON(http.StatusOK, existing)
	}
}
