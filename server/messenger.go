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

type channelRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Private     bool     `json:"is_private"`
	MemberIDs   []string `json:"members"`
}

func (s *Server) handleListChannels(c echo.Context) error {
	channels, err := s.db.ListChannelsFor(c.Request().Context(), currentPerson(c).ID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, channels)
}

func (s *Server) handleCreateChannel(c echo.Context) error {
	var req channelRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return jsonError(c, http.StatusBadRequest, "channel name required")
	}

	ctx := c.Request().Context()
	caller := currentPerson(c)

	if _, err := s.db.GetChannelByName(ctx, name); err == nil {
		return jsonError(c, http.StatusConflict, "channel name already in use")
	}

	ch := model.Channel{
		ID:          uuid.New().String(),
		Name:        name,
		Description: req.Description,
		Private:     req.Private,
		CreatedBy:   caller.ID,
		CreatedAt:   time.Now(),
	}
	if err := s.db.CreateChannel(ctx, ch); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	// The creator is always a member
	members := append([]string{caller.ID}, req.MemberIDs...)
	if err := s.db.SetChannelMembers(ctx, ch.ID, dedupe(members)); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	out, err := s.db.GetChannel(ctx, ch.ID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, out)
}

func (s *Server) handleGetChannel(c echo.Context) error {
	ch, ok, err := s.channelForMember(c)
	if err != nil {
		return err
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "not a channel member")
	}
	return c.JSON(http.StatusOK, ch)
}

func (s *Server) handleUpdateChannel(c echo.Context) error {
	ch, ok, err := s.channelForMember(c)
	if err != nil {
		return err
	}
	caller := currentPerson(c)
	if !ok || (ch.CreatedBy != caller.ID && !caller.Admin) {
		return jsonError(c, http.StatusForbidden, "only the channel owner can edit it")
	}

	var req channelRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Name) != "" {
		ch.Name = strings.TrimSpace(req.Name)
	}
	ch.Description = req.Description
	ch.Private = req.Private

	ctx := c.Request().Context()
	if err := s.db.UpdateChannel(ctx, ch); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if req.MemberIDs != nil {
		members := append([]string{ch.CreatedBy}, req.MemberIDs...)
		if err := s.db.SetChannelMembers(ctx, ch.ID, dedupe(members)); err != nil {
			return jsonError(c, http.StatusInternalServerError, "internal error")
		}
	}

	out, err := s.db.GetChannel(ctx, ch.ID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleDeleteChannel(c echo.Context) error {
	ch, ok, err := s.channelForMember(c)
	if err != nil {
		return err
	}
	caller := currentPerson(c)
	if !ok || (ch.CreatedBy != caller.ID && !caller.Admin) {
		return jsonError(c, http.StatusForbidden, "only the channel owner can delete it")
	}

	if err := s.db.DeleteChannel(c.Request().Context(), ch.ID); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleListMessages(c echo.Context) error {
	_, ok, err := s.channelForMember(c)
	if err != nil {
		return err
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "not a channel member")
	}

	messages, err := s.db.ListMessages(c.Request().Context(), c.Param("id"))
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, messages)
}

type messageRequest struct {
	Content string `json:"content"`
}

func (s *Server) handlePostMessage(c echo.Context) error {
	ch, ok, err := s.channelForMember(c)
	if err != nil {
		return err
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "not a channel member")
	}

	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Content) == "" {
		return jsonError(c, http.StatusBadRequest, "message content required")
	}

	m := model.Message{
		ID:        uuid.New().String(),
		ChannelID: ch.ID,
		PersonID:  currentPerson(c).ID,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}
	if err := s.db.CreateMessage(c.Request().Context(), m); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, m)
}

// channelForMember loads the channel and reports whether the caller may
// see it. Public channels are visible to everyone.
func (s *Server) channelForMember(c echo.Context) (model.Channel, bool, error) {
	ctx := c.Request().Context()
	caller := currentPerson(c)

	ch, err := s.db.GetChannel(ctx, c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		return model.Channel{}, false, jsonError(c, http.StatusNotFound, "channel not found")
	}
	if err != nil {
		return model.Channel{}, false, jsonError(c, http.StatusInternalServerError, "internal error")
	}

	if !ch.Private || caller.Admin {
		return ch, true, nil
	}

	member, err := s.db.IsChannelMember(ctx, ch.ID, caller.ID)
	if err != nil {
		return model.Channel{}, false, jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return ch, member, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
