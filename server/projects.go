package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/deeply-app/deeply/internal/db"
	"github.com/deeply-app/deeply/internal/logger"
	"github.com/deeply-app/deeply/internal/model"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type projectRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Phases      []string `json:"phases"`
}

// handleListProjects returns the boards visible to the caller.
func (s *Server) handleListProjects(c echo.Context) error {
	projects, err := s.db.ListProjectsFor(c.Request().Context(), currentPerson(c))
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if projects == nil {
		projects = []model.Project{}
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var req projectRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Name) == "" {
		return jsonError(c, http.StatusBadRequest, "project name required")
	}
	if len(req.Phases) == 0 {
		req.Phases = []string{"Backlog", "Doing", "Done"}
	}

	ctx := c.Request().Context()
	caller := currentPerson(c)
	now := time.Now()

	p := model.Project{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CreatedAt:   now,
	}
	for i, name := range req.Phases {
		p.Phases = append(p.Phases, model.Phase{
			ID:        uuid.New().String(),
			ProjectID: p.ID,
			Name:      name,
			Ord:       i,
			CreatedAt: now,
		})
	}

	if err := s.db.CreateProject(ctx, p); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "unique") {
			return jsonError(c, http.StatusConflict, "project name already in use")
		}
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	// The creator always sees their own board
	if err := s.db.GrantProject(ctx, p.ID, caller.ID); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	logger.Info("Project created", logger.F("project", p.ID), logger.F("by", caller.ID))

	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleGetProject(c echo.Context) error {
	id := c.Param("id")

	_, ok, err := s.requireProjectAccess(c, id)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "no access to this project")
	}

	p, err := s.db.GetProject(c.Request().Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "project not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleUpdateProject(c echo.Context) error {
	id := c.Param("id")

	_, ok, err := s.requireProjectAccess(c, id)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "no access to this project")
	}

	var req projectRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Name) == "" {
		return jsonError(c, http.StatusBadRequest, "project name required")
	}

	ctx := c.Request().Context()
	err = s.db.UpdateProject(ctx, model.Project{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	})
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "project not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	p, err := s.db.GetProject(ctx, id)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeleteProject(c echo.Context) error {
	if _, ok := requireAdmin(c); !ok {
		return jsonError(c, http.StatusForbidden, "admin only")
	}

	err := s.db.DeleteProject(c.Request().Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "project not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

type phasesRequest struct {
	Phases []string `json:"phases"`
}

// handleReplacePhases swaps the column list. Refused while the board holds
// any card, so imports never race a disappearing phase.
func (s *Server) handleReplacePhases(c echo.Context) error {
	id := c.Param("id")

	_, ok, err := s.requireProjectAccess(c, id)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "no access to this project")
	}

	var req phasesRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if len(req.Phases) == 0 {
		return jsonError(c, http.StatusBadRequest, "at least one phase required")
	}

	now := time.Now()
	phases := make([]model.Phase, 0, len(req.Phases))
	for i, name := range req.Phases {
		phases = append(phases, model.Phase{
			ID:        uuid.New().String(),
			ProjectID: id,
			Name:      name,
			Ord:       i,
			CreatedAt: now,
		})
	}

	err = s.db.ReplacePhases(c.Request().Context(), id, phases)
	if errors.Is(err, db.ErrPhaseLocked) {
		return jsonError(c, http.StatusConflict, "project still has cards; move or delete them first")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, phases)
}

func (s *Server) handleGrantAccess(c echo.Context) error {
	if _, ok := requireAdmin(c); !ok {
		return jsonError(c, http.StatusForbidden, "admin only")
	}
	if err := s.db.GrantProject(c.Request().Context(), c.Param("id"), c.Param("person")); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleRevokeAccess(c echo.Context) error {
	if _, ok := requireAdmin(c); !ok {
		return jsonError(c, http.StatusForbidden, "admin only")
	}
	if err := s.db.RevokeProject(c.Request().Context(), c.Param("id"), c.Param("person")); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
