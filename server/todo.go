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

type todoListRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Ord         int    `json:"order"`
}

func (s *Server) handleListTodoLists(c echo.Context) error {
	lists, err := s.db.ListTodoLists(c.Request().Context(), currentPerson(c).ID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, lists)
}

func (s *Server) handleCreateTodoList(c echo.Context) error {
	var req todoListRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Name) == "" {
		return jsonError(c, http.StatusBadRequest, "list name required")
	}

	l := model.TodoList{
		ID:          uuid.New().String(),
		PersonID:    currentPerson(c).ID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Ord:         req.Ord,
		CreatedAt:   time.Now(),
	}
	if err := s.db.CreateTodoList(c.Request().Context(), l); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, l)
}

func (s *Server) handleUpdateTodoList(c echo.Context) error {
	ctx := c.Request().Context()
	caller := currentPerson(c)

	existing, err := s.db.GetTodoList(ctx, c.Param("id"), caller.ID)
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "list not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	var req todoListRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Name) != "" {
		existing.Name = strings.TrimSpace(req.Name)
	}
	existing.Description = req.Description
	existing.Ord = req.Ord

	if err := s.db.UpdateTodoList(ctx, existing); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, existing)
}

func (s *Server) handleDeleteTodoList(c echo.Context) error {
	err := s.db.DeleteTodoList(c.Request().Context(), c.Param("id"), currentPerson(c).ID)
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "list not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

type todoTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Completed   bool   `json:"completed"`
	Ord         int    `json:"order"`
	ListID      string `json:"list_id"` // move the task to another owned list
}

func (s *Server) handleCreateTodoTask(c echo.Context) error {
	ctx := c.Request().Context()
	caller := currentPerson(c)

	list, err := s.db.GetTodoList(ctx, c.Param("id"), caller.ID)
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "list not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	var req todoTaskRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Title) == "" {
		return jsonError(c, http.StatusBadRequest, "task title required")
	}

	t := model.TodoTask{
		ID:          uuid.New().String(),
		ListID:      list.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Priority:    req.Priority,
		Completed:   req.Completed,
		Ord:         req.Ord,
		CreatedAt:   time.Now(),
	}
	if err := s.db.CreateTodoTask(ctx, t); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, t)
}

// taskForOwner loads a task and verifies the caller owns its list.
func (s *Server) taskForOwner(c echo.Context) (model.TodoTask, error) {
	ctx := c.Request().Context()

	t, err := s.db.GetTodoTask(ctx, c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		return model.TodoTask{}, jsonError(c, http.StatusNotFound, "task not found")
	}
	if err != nil {
		return model.TodoTask{}, jsonError(c, http.StatusInternalServerError, "internal error")
	}

	if _, err := s.db.GetTodoList(ctx, t.ListID, currentPerson(c).ID); err != nil {
		return model.TodoTask{}, jsonError(c, http.StatusNotFound, "task not found")
	}
	return t, nil
}

func (s *Server) handleUpdateTodoTask(c echo.Context) error {
	t, err := s.taskForOwner(c)
	if err != nil {
		return err
	}

	var req todoTaskRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Title) != "" {
		t.Title = strings.TrimSpace(req.Title)
	}
	t.Description = req.Description
	t.Priority = req.Priority
	t.Completed = req.Completed
	t.Ord = req.Ord

	if req.ListID != "" && req.ListID != t.ListID {
		if _, err := s.db.GetTodoList(c.Request().Context(), req.ListID, currentPerson(c).ID); err != nil {
			return jsonError(c, http.StatusNotFound, "list not found")
		}
		t.ListID = req.ListID
	}

	if err := s.db.UpdateTodoTask(c.Request().Context(), t); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleDeleteTodoTask(c echo.Context) error {
	t, err := s.taskForOwner(c)
	if err != nil {
		return err
	}
	if err := s.db.DeleteTodoTask(c.Request().Context(), t.ID); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
