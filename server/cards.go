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

type cardRequest struct {
	ProjectID   string   `json:"project_id"`
	PhaseID     string   `json:"phase_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Estimate    string   `json:"tempo"`
	StartDate   string   `json:"start_date"`
	Deadline    string   `json:"deadline"`
	Percent     int      `json:"percentage"`
	Comments    string   `json:"comments"`
	TagIDs      []string `json:"tags"`
	AssigneeIDs []string `json:"users"`
}

func (r *cardRequest) toCard(id string, createdAt time.Time) (model.Card, error) {
	card := model.Card{
		ID:          id,
		ProjectID:   r.ProjectID,
		PhaseID:     r.PhaseID,
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Estimate:    r.Estimate,
		Percent:     clampPercent(r.Percent),
		Comments:    r.Comments,
		CreatedAt:   createdAt,
	}

	var err error
	if card.StartDate, err = parseAPIDate(r.StartDate); err != nil {
		return model.Card{}, err
	}
	if card.Deadline, err = parseAPIDate(r.Deadline); err != nil {
		return model.Card{}, err
	}

	for _, id := range r.TagIDs {
		card.Tags = append(card.Tags, model.Tag{ID: id})
	}
	for _, id := range r.AssigneeIDs {
		card.Assignees = append(card.Assignees, model.Person{ID: id})
	}
	return card, nil
}

func parseAPIDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func (s *Server) handleListCards(c echo.Context) error {
	projectID := c.Param("id")

	_, ok, err := s.requireProjectAccess(c, projectID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "no access to this project")
	}

	cards, err := s.db.ListCards(c.Request().Context(), projectID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if cards == nil {
		cards = []model.Card{}
	}
	return c.JSON(http.StatusOK, cards)
}

func (s *Server) handleCreateCard(c echo.Context) error {
	var req cardRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Title) == "" {
		return jsonError(c, http.StatusBadRequest, "card title required")
	}
	if req.ProjectID == "" || req.PhaseID == "" {
		return jsonError(c, http.StatusBadRequest, "project_id and phase_id required")
	}

	_, ok, err := s.requireProjectAccess(c, req.ProjectID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "no access to this project")
	}

	card, err := req.toCard(uuid.New().String(), time.Now())
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}

	ctx := c.Request().Context()
	if err := s.db.CreateCard(ctx, card); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	out, err := s.db.GetCard(ctx, card.ID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, out)
}

func (s *Server) handleGetCard(c echo.Context) error {
	card, err := s.db.GetCard(c.Request().Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "card not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	_, ok, err := s.requireProjectAccess(c, card.ProjectID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "no access to this project")
	}
	return c.JSON(http.StatusOK, card)
}

func (s *Server) handleUpdateCard(c echo.Context) error {
	id := c.Param("id")

	ctx := c.Request().Context()
	existing, err := s.db.GetCard(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "card not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	_, ok, err := s.requireProjectAccess(c, existing.ProjectID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "no access to this project")
	}

	var req cardRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Title) == "" {
		return jsonError(c, http.StatusBadRequest, "card title required")
	}

	// Cards never move between projects
	req.ProjectID = existing.ProjectID
	if req.PhaseID == "" {
		req.PhaseID = existing.PhaseID
	}

	card, err := req.toCard(id, existing.CreatedAt)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}

	if err := s.db.UpdateCard(ctx, card); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "card not found")
		}
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	out, err := s.db.GetCard(ctx, id)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleDeleteCard(c echo.Context) error {
	ctx := c.Request().Context()

	card, err := s.db.GetCard(ctx, c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "card not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	_, ok, err := s.requireProjectAccess(c, card.ProjectID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "no access to this project")
	}

	if err := s.db.DeleteCard(ctx, card.ID); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
