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
	"golang.org/x/crypto/bcrypt"
)

type personRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Description string `json:"description"`
	Password    string `json:"password"`
	Admin       bool   `json:"admin"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Phone       string `json:"phone"`
	Language    string `json:"language"`
	Timezone    string `json:"timezone"`
	Role        string `json:"role"`
	Department  string `json:"department"`
}

func (s *Server) handleListPersons(c echo.Context) error {
	persons, err := s.db.ListPersons(c.Request().Context())
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, persons)
}

func (s *Server) handleGetPerson(c echo.Context) error {
	p, err := s.db.GetPerson(c.Request().Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "person not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleCreatePerson(c echo.Context) error {
	if _, ok := requireAdmin(c); !ok {
		return jsonError(c, http.StatusForbidden, "admin only")
	}

	var req personRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || email == "" || req.Password == "" {
		return jsonError(c, http.StatusBadRequest, "name, email, and password required")
	}
	if len(req.Password) < 8 {
		return jsonError(c, http.StatusBadRequest, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	p := model.Person{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        email,
		Description:  req.Description,
		PasswordHash: string(hash),
		Admin:        req.Admin,
		Country:      req.Country,
		City:         req.City,
		Phone:        req.Phone,
		Language:     req.Language,
		Timezone:     req.Timezone,
		Role:         req.Role,
		Department:   req.Department,
		CreatedAt:    time.Now(),
	}
	if err := s.db.CreatePerson(c.Request().Context(), p); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return jsonError(c, http.StatusConflict, "email already registered")
		}
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	logger.Info("Person created", logger.F("person", p.ID))

	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleUpdatePerson(c echo.Context) error {
	id := c.Param("id")

	caller := currentPerson(c)
	if !caller.Admin && caller.ID != id {
		return jsonError(c, http.StatusForbidden, "not allowed")
	}

	ctx := c.Request().Context()
	existing, err := s.db.GetPerson(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "person not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	var req personRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.Country = req.Country
	existing.City = req.City
	existing.Phone = req.Phone
	existing.Language = req.Language
	existing.Timezone = req.Timezone
	existing.Role = req.Role
	existing.Department = req.Department
	if caller.Admin {
		existing.Admin = req.Admin
	}

	// Resets through this route are an admin tool; self-service changes
	// go through the profile password endpoint and verify the current one.
	var passwordHash string
	if req.Password != "" {
		if !caller.Admin {
			return jsonError(c, http.StatusForbidden, "use the profile password endpoint")
		}
		if len(req.Password) < 8 {
			return jsonError(c, http.StatusBadRequest, "password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return jsonError(c, http.StatusInternalServerError, "internal error")
		}
		passwordHash = string(hash)
	}

	if err := s.db.UpdatePerson(ctx, existing); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if passwordHash != "" {
		if err := s.db.SetPassword(ctx, id, passwordHash); err != nil {
			return jsonError(c, http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusOK, existing)
}

func (s *Server) handleDeletePerson(c echo.Context) error {
	caller, ok := requireAdmin(c)
	if !ok {
		return jsonError(c, http.StatusForbidden, "admin only")
	}
	id := c.Param("id")
	if id == caller.ID {
		return jsonError(c, http.StatusBadRequest, "cannot delete yourself")
	}

	err := s.db.DeletePerson(c.Request().Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "person not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
