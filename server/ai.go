package server

import (
	"net/http"
	"strings"

	"github.com/deeply-app/deeply/internal/logger"
	"github.com/deeply-app/deeply/internal/model"
	"github.com/labstack/echo/v4"
)

type chatRequest struct {
	Message string `json:"message"`
}

// handleAIChat forwards the message to the assistant backend.
func (s *Server) handleAIChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Message) == "" {
		return jsonError(c, http.StatusBadRequest, "empty message")
	}

	reply, err := s.ai.Chat(c.Request().Context(), req.Message)
	if err != nil {
		logger.Error("AI chat failed", logger.F("err", err))
		return jsonError(c, http.StatusBadGateway, "assistant unavailable")
	}

	return c.JSON(http.StatusOK, map[string]string{"response": reply})
}

type pendingFeed struct {
	Pending []model.Card `json:"pending"`
	Overdue []model.Card `json:"overdue"`
}

// handleAIPending returns the caller's unfinished assignments, split into
// pending and overdue. The chat page seeds its first prompt with this.
func (s *Server) handleAIPending(c echo.Context) error {
	cards, err := s.db.ListCardsAssignedTo(c.Request().Context(), currentPerson(c).ID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	feed := pendingFeed{Pending: []model.Card{}, Overdue: []model.Card{}}
	for _, card := range cards {
		if card.Percent >= 100 {
			continue
		}
		if card.IsOverdue() {
			feed.Overdue = append(feed.Overdue, card)
		} else {
			feed.Pending = append(feed.Pending, card)
		}
	}
	return c.JSON(http.StatusOK, feed)
}
