package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/deeply-app/deeply/internal/db"
	"github.com/deeply-app/deeply/internal/logger"
	"github.com/deeply-app/deeply/internal/model"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// docDir is where a document's version files live on disk.
func (s *Server) docDir(projectID, documentID string) string {
	return filepath.Join(s.cfg.UploadsDir, "projects", projectID, "doc_"+documentID)
}

// rootFolder returns the project's root document folder, creating it on
// first use.
func (s *Server) rootFolder(c echo.Context, projectID string) (model.DocFolder, error) {
	ctx := c.Request().Context()

	root, err := s.db.GetRootFolder(ctx, projectID)
	if err == nil {
		return root, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return model.DocFolder{}, err
	}

	root = model.DocFolder{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      "Documents",
		CreatedBy: currentPerson(c).ID,
		CreatedAt: time.Now(),
	}
	if err := s.db.CreateDocFolder(ctx, root); err != nil {
		return model.DocFolder{}, err
	}
	return root, nil
}

type folderListing struct {
	Folder     model.DocFolder   `json:"folder"`
	Subfolders []model.DocFolder `json:"subfolders"`
	Documents  []model.Document  `json:"documents"`
}

// handleListFolder lists one level of the project's document tree. The
// folder query parameter selects a subfolder; without it the root is shown.
func (s *Server) handleListFolder(c echo.Context) error {
	projectID := c.Param("id")

	_, ok, err := s.requireProjectAccess(c, projectID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "no access to this project")
	}

	ctx := c.Request().Context()

	var folder model.DocFolder
	if folderID := c.QueryParam("folder"); folderID != "" {
		folder, err = s.db.GetDocFolder(ctx, folderID)
		if errors.Is(err, db.ErrNotFound) || (err == nil && folder.ProjectID != projectID) {
			return jsonError(c, http.StatusNotFound, "folder not found")
		}
		if err != nil {
			return jsonError(c, http.StatusInternalServerError, "internal error")
		}
	} else {
		folder, err = s.rootFolder(c, projectID)
		if err != nil {
			return jsonError(c, http.StatusInternalServerError, "internal error")
		}
	}

	listing := folderListing{Folder: folder}
	if listing.Subfolders, err = s.db.ListSubfolders(ctx, folder.ID); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if listing.Documents, err = s.db.ListDocuments(ctx, folder.ID); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, listing)
}

type folderRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    string `json:"parent_id"`
}

func (s *Server) handleCreateFolder(c echo.Context) error {
	projectID := c.Param("id")

	_, ok, err := s.requireProjectAccess(c, projectID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "no access to this project")
	}

	var req folderRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Name) == "" {
		return jsonError(c, http.StatusBadRequest, "folder name required")
	}

	parent := req.ParentID
	if parent == "" {
		root, err := s.rootFolder(c, projectID)
		if err != nil {
			return jsonError(c, http.StatusInternalServerError, "internal error")
		}
		parent = root.ID
	}

	f := model.DocFolder{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		ParentID:    &parent,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CreatedBy:   currentPerson(c).ID,
		CreatedAt:   time.Now(),
	}
	if err := s.db.CreateDocFolder(c.Request().Context(), f); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, f)
}

func (s *Server) handleDeleteFolder(c echo.Context) error {
	ctx := c.Request().Context()

	folder, err := s.db.GetDocFolder(ctx, c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "folder not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	_, ok, err := s.requireProjectAccess(c, folder.ProjectID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "no access to this project")
	}

	if folder.ParentID == nil {
		return jsonError(c, http.StatusBadRequest, "the root folder cannot be deleted")
	}

	hasSub, err := s.db.HasSubfolders(ctx, folder.ID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	docs, err := s.db.ListDocuments(ctx, folder.ID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if hasSub || len(docs) > 0 {
		return jsonError(c, http.StatusConflict, "folder is not empty")
	}

	if err := s.db.DeleteDocFolder(ctx, folder.ID); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// handleUploadDocument creates a document with its first version from a
// multipart upload.
func (s *Server) handleUploadDocument(c echo.Context) error {
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

	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		name = fh.Filename
	}

	folderID := c.FormValue("folder_id")
	if folderID == "" {
		root, err := s.rootFolder(c, projectID)
		if err != nil {
			return jsonError(c, http.StatusInternalServerError, "internal error")
		}
		folderID = root.ID
	}

	ctx := c.Request().Context()
	caller := currentPerson(c)
	now := time.Now()

	doc := model.Document{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		FolderID:    folderID,
		Name:        name,
		Description: c.FormValue("description"),
		CreatedBy:   caller.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.CreateDocument(ctx, doc); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	if err := s.storeVersion(c, doc, 1, fh, c.FormValue("change_description")); err != nil {
		return err
	}

	out, err := s.db.GetDocument(ctx, doc.ID, true)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	logger.Info("Document uploaded",
		logger.F("project", projectID), logger.F("document", doc.ID))

	return c.JSON(http.StatusCreated, out)
}

func (s *Server) handleGetDocument(c echo.Context) error {
	doc, err := s.db.GetDocument(c.Request().Context(), c.Param("id"), true)
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "document not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	_, ok, err := s.requireProjectAccess(c, doc.ProjectID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "no access to this project")
	}
	return c.JSON(http.StatusOK, doc)
}

// handleUploadVersion appends a new version to an existing document.
func (s *Server) handleUploadVersion(c echo.Context) error {
	ctx := c.Request().Context()

	doc, err := s.db.GetDocument(ctx, c.Param("id"), false)
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "document not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	_, ok, err := s.requireProjectAccess(c, doc.ProjectID)
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

	version, err := s.db.NextVersionNumber(ctx, doc.ID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	if err := s.storeVersion(c, doc, version, fh, c.FormValue("change_description")); err != nil {
		return err
	}
	if err := s.db.TouchDocument(ctx, doc.ID, time.Now()); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	out, err := s.db.GetDocument(ctx, doc.ID, true)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, out)
}

func (s *Server) handleDownloadVersion(c echo.Context) error {
	ctx := c.Request().Context()

	doc, err := s.db.GetDocument(ctx, c.Param("id"), false)
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "document not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	_, ok, err := s.requireProjectAccess(c, doc.ProjectID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "no access to this project")
	}

	v, err := s.db.GetDocumentVersion(ctx, doc.ID, c.Param("version"))
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "version not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	return c.Attachment(v.FilePath, v.FileName)
}

func (s *Server) handleDeleteDocument(c echo.Context) error {
	ctx := c.Request().Context()

	doc, err := s.db.GetDocument(ctx, c.Param("id"), false)
	if errors.Is(err, db.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "document not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	_, ok, err := s.requireProjectAccess(c, doc.ProjectID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return jsonError(c, http.StatusForbidden, "no access to this project")
	}

	if err := s.db.DeleteDocument(ctx, doc.ID); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	// Version files go with the row
	os.RemoveAll(s.docDir(doc.ProjectID, doc.ID))

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// storeVersion writes the uploaded file to disk and records the version.
func (s *Server) storeVersion(c echo.Context, doc model.Document, version int, fh *multipart.FileHeader, note string) error {
	dir := s.docDir(doc.ProjectID, doc.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return jsonError(c, http.StatusInternalServerError, "could not store file")
	}

	safeName := filepath.Base(fh.Filename)
	path := filepath.Join(dir, fmt.Sprintf("%d_%s", version, safeName))

	src, err := fh.Open()
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "could not read upload")
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "could not store file")
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(path)
		return jsonError(c, http.StatusInternalServerError, "could not store file")
	}

	v := model.DocumentVersion{
		ID:         uuid.New().String(),
		DocumentID: doc.ID,
		Version:    version,
		FilePath:   path,
		FileName:   safeName,
		FileSize:   size,
		FileType:   strings.TrimPrefix(filepath.Ext(safeName), "."),
		ChangeNote: note,
		UploadedBy: currentPerson(c).ID,
		CreatedAt:  time.Now(),
	}
	if err := s.db.CreateDocumentVersion(c.Request().Context(), v); err != nil {
		os.Remove(path)
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return nil
}
