package server

import (
	"net/http"

	"github.com/deeply-app/deeply/internal/model"
	"github.com/labstack/echo/v4"
)

// SessionCookie is the name of the login cookie.
const SessionCookie = "deeply_session"

// sessionMiddleware resolves the session cookie to a Person and stores
// it in the request context.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			return jsonError(c, http.StatusUnauthorized, "login required")
		}

		ctx := c.Request().Context()

		sess, err := s.db.GetSession(ctx, cookie.Value)
		if err != nil {
			return jsonError(c, http.StatusUnauthorized, "invalid session")
		}
		if sess.IsExpired() {
			s.db.DeleteSession(ctx, sess.Token)
			return jsonError(c, http.StatusUnauthorized, "session expired")
		}

		person, err := s.db.GetPerson(ctx, sess.PersonID)
		if err != nil {
			return jsonError(c, http.StatusUnauthorized, "invalid session")
		}

		c.Set("person", person)
		return next(c)
	}
}

// currentPerson returns the authenticated person set by sessionMiddleware.
func currentPerson(c echo.Context) model.Person {
	p, _ := c.Get("person").(model.Person)
	return p
}

// requireAdmin returns the caller and whether they are an admin.
func requireAdmin(c echo.Context) (model.Person, bool) {
	p := currentPerson(c)
	return p, p.Admin
}

// requireProjectAccess checks board visibility for the caller.
func (s *Server) requireProjectAccess(c echo.Context, projectID string) (model.Person, bool, error) {
	p := currentPerson(c)
	ok, err := s.db.HasProjectAccess(c.Request().Context(), projectID, p)
	return p, ok, err
}
