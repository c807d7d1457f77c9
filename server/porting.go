package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deeply-app/deeply/internal/db"
	"github.com/deeply-app/deeply/internal/porting"
	"github.com/labstack/echo/v4"
)

// handleExport streams the project's cards as an xlsx workbook.
func (s *Server) handleExport(c echo.Context) error {
	projectID := c.Param("id")

	_, ok, err := s.requireProjectAccess(c, projectID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "no access to this project")
	}

	ctx := c.Request().Context()
	if _, err := s.db.GetProject(ctx, projectID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "project not found")
		}
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	wb, err := porting.Export(ctx, s.db.Queries, projectID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "export failed")
	}
	defer wb.Close()

	filename := fmt.Sprintf("project_%s_%s.xlsx", projectID, time.Now().Format("20060102_150405"))

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Response().Header().Set(echo.HeaderContentType,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)

	return wb.Write(c.Response())
}

// handleImport applies an uploaded workbook to the project and records
// the diagnostics report for a one-shot download.
func (s *Server) handleImport(c echo.Context) error {
	projectID := c.Param("id")

	_, ok, err := s.requireProjectAccess(c, projectID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "no access to this project")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "no file uploaded")
	}

	f, err := fh.Open()
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "could not read upload")
	}
	defer f.Close()

	// Fatal rejections reuse the Result shape so clients always see
	// success plus an error string.
	importFailed := func(status int, msg string) error {
		return c.JSON(status, porting.Result{Success: false, Error: msg})
	}

	importer := &porting.Importer{DB: s.db}
	result, diags, err := importer.Import(c.Request().Context(), projectID, fh.Filename, f)
	if err != nil {
		switch {
		case errors.Is(err, porting.ErrBadExtension):
			return importFailed(http.StatusBadRequest, "only .xlsx files are supported")
		case errors.Is(err, porting.ErrUnreadable):
			return importFailed(http.StatusBadRequest, "workbook could not be read")
		case errors.Is(err, db.ErrNotFound):
			return importFailed(http.StatusNotFound, "project not found")
		default:
			return importFailed(http.StatusInternalServerError, "import failed")
		}
	}

	if len(diags) > 0 {
		if err := s.reports.Put(s.sessionToken(c), diags); err != nil {
			return jsonError(c, http.StatusInternalServerError, "could not record diagnostics")
		}
	}

	return c.JSON(http.StatusOK, result)
}

// handleImportErrors serves the caller's pending diagnostics report
// exactly once.
func (s *Server) handleImportErrors(c echo.Context) error {
	report, ok := s.reports.Take(s.sessionToken(c))
	if !ok {
		return jsonError(c, http.StatusNotFound, "no pending import report")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="import_errors.txt"`)
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(report))
}

func (s *Server) sessionToken(c echo.Context) string {
	cookie, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
