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

type tagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleListTags(c echo.Context) error {
	tags, err := s.db.ListTags(c.Request().Context())
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, tags)
}

func (s *Server) handleCreateTag(c echo.Context) error {
	var req tagRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Name) == "" {
		return jsonError(c, http.StatusBadRequest, "tag name required")
	}
	if req.Color == "" {
		req.Color = model.DefaultTagColor
	}

	tag := model.Tag{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Color:     req.Color,
		CreatedAt: time.Now(),
	}
	if err := s.db.CreateTag(c.Request().Context(), tag); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return jsonError(c, http.StatusConflict, "tag name already in use")
		}
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, tag)
}

func (s *Server) handleUpdateTag(c echo.Context) error {
	var req tagRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Name) == "" {
		return jsonError(c, http.StatusBadRequest, "tag name required")
	}

	ctx := c.Request().Context()
	tag := model.Tag{
		ID:    c.Param("id"),
		Name:  strings.TrimSpace(req.Name),
		Color: req.Color,
	}
	err := s.db.UpdateTag(ctx, tag)
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "tag not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	out, err := s.db.GetTag(ctx, tag.ID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleDeleteTag(c echo.Context) error {
	err := s.db.DeleteTag(c.Request().Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "tag not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
