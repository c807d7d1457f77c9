package server

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/deeply-app/deeply/internal/model"
	"github.com/labstack/echo/v4"
)

type calendarFeed struct {
	Scheduled   []model.Card `json:"scheduled"`
	Unscheduled []model.Card `json:"unscheduled"`
}

// handleCalendar returns every card on the caller's visible boards, split
// by whether it carries a deadline.
func (s *Server) handleCalendar(c echo.Context) error {
	ctx := c.Request().Context()

	projects, err := s.db.ListProjectsFor(ctx, currentPerson(c))
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	feed := calendarFeed{Scheduled: []model.Card{}, Unscheduled: []model.Card{}}
	for _, p := range projects {
		cards, err := s.db.ListCards(ctx, p.ID)
		if err != nil {
			return jsonError(c, http.StatusInternalServerError, "internal error")
		}
		for _, card := range cards {
			if card.Deadline != nil {
				feed.Scheduled = append(feed.Scheduled, card)
			} else {
				feed.Unscheduled = append(feed.Unscheduled, card)
			}
		}
	}
	return c.JSON(http.StatusOK, feed)
}

type profileRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Phone       string `json:"phone"`
	Language    string `json:"language"`
	Timezone    string `json:"timezone"`
	Role        string `json:"role"`
	Department  string `json:"department"`
}

func (s *Server) handleGetProfile(c echo.Context) error {
	return c.JSON(http.StatusOK, currentPerson(c))
}

func (s *Server) handleUpdateProfile(c echo.Context) error {
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	p := currentPerson(c)
	if req.Name != "" {
		p.Name = req.Name
	}
	p.Description = req.Description
	p.Country = req.Country
	p.City = req.City
	p.Phone = req.Phone
	p.Language = req.Language
	p.Timezone = req.Timezone
	p.Role = req.Role
	p.Department = req.Department

	if err := s.db.UpdatePerson(c.Request().Context(), p); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, p)
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// handleChangePassword lets the caller replace their own password after
// proving they know the current one.
func (s *Server) handleChangePassword(c echo.Context) error {
	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if len(req.NewPassword) < 8 {
		return jsonError(c, http.StatusBadRequest, "password must be at least 8 characters")
	}

	p := currentPerson(c)
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return jsonError(c, http.StatusForbidden, "current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if err := s.db.SetPassword(c.Request().Context(), p.ID, string(hash)); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
