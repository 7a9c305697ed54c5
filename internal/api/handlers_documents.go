// handlers_documents.go - Offline design document handlers
package api

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/varbridge/backend/internal/document"
	"github.com/varbridge/backend/internal/models"
	"github.com/varbridge/backend/internal/storage"
	"github.com/varbridge/backend/internal/variables"
)

// DocumentHandlerImpl implements the DocumentHandler interface
type DocumentHandlerImpl struct {
	store       storage.Store
	allowDelete bool
}

// NewDocumentHandler creates a new document handler instance
func NewDocumentHandler(store storage.Store, allowDelete bool) DocumentHandler {
	return &DocumentHandlerImpl{
		store:       store,
		allowDelete: allowDelete,
	}
}

// HandleUploadDocument accepts a document as multipart "file" or as base64
// JSON, checks that it parses and stores it
func (h *DocumentHandlerImpl) HandleUploadDocument(c echo.Context) error {
	name, data, err := readUpload(c)
	if err != nil {
		return err
	}

	if _, err := document.Parse(bytes.NewReader(data)); err != nil {
		return NewBadRequestError("invalid document", err)
	}

	info, err := h.store.SaveBytes(name, data)
	if err != nil {
		return NewInternalError("failed to save document", err)
	}

	return c.JSON(http.StatusCreated, info)
}

func readUpload(c echo.Context) (string, []byte, error) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		file, err := c.FormFile("file")
		if err != nil {
			return "", nil, NewBadRequestError("no file provided", err)
		}

		src, err := file.Open()
		if err != nil {
			return "", nil, NewInternalError("failed to open uploaded file", err)
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			return "", nil, NewInternalError("failed to read uploaded file", err)
		}
		return file.Filename, data, nil
	}

	var req uploadDocumentRequest
	if err := c.Bind(&req); err != nil {
		return "", nil, NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return "", nil, err
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return "", nil, NewBadRequestError("invalid base64 data", err)
	}
	return req.Name, decoded, nil
}

// HandleListDocuments returns the most recently uploaded documents
func (h *DocumentHandlerImpl) HandleListDocuments(c echo.Context) error {
	docs, err := h.store.List(50)
	if err != nil {
		return NewInternalError("failed to list documents", err)
	}
	return c.JSON(http.StatusOK, docs)
}

// HandleGetDocument returns document metadata
func (h *DocumentHandlerImpl) HandleGetDocument(c echo.Context) error {
	id := c.Param("id")
	info, err := h.store.Get(id)
	if err != nil {
		return storeError(err, id)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDeleteDocument removes a document
func (h *DocumentHandlerImpl) HandleDeleteDocument(c echo.Context) error {
	if !h.allowDelete {
		return NewForbiddenError("document deletion is disabled")
	}

	id := c.Param("id")
	if err := h.store.Delete(id); err != nil {
		return storeError(err, id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleRenameDocument changes the display name of a document
func (h *DocumentHandlerImpl) HandleRenameDocument(c echo.Context) error {
	id := c.Param("id")

	var req renameDocumentRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	info, err := h.store.Rename(id, req.Name)
	if err != nil {
		return storeError(err, id)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDocumentVariables returns the variable views of a stored document
func (h *DocumentHandlerImpl) HandleDocumentVariables(c echo.Context) error {
	id := c.Param("id")
	doc, err := loadDocument(h.store, id)
	if err != nil {
		return err
	}

	index := variables.NewIndex(doc.Variables, doc.Collections)
	views := variables.BuildViews(doc.Variables, index)
	return c.JSON(http.StatusOK, variablesResponse{
		Variables: variables.Filter(views, c.QueryParam("q")),
	})
}

type nodesResponse struct {
	Nodes     []models.Node `json:"nodes"`
	Selection []string      `json:"selection"`
}

// HandleDocumentNodes lists a stored document's canvas nodes and its saved
// selection, for picking nodes to select in a plugin session.
func (h *DocumentHandlerImpl) HandleDocumentNodes(c echo.Context) error {
	doc, err := loadDocument(h.store, c.Param("id"))
	if err != nil {
		return err
	}

	resp := nodesResponse{Nodes: doc.Nodes, Selection: doc.Selection}
	if resp.Nodes == nil {
		resp.Nodes = []models.Node{}
	}
	if resp.Selection == nil {
		resp.Selection = []string{}
	}
	return c.JSON(http.StatusOK, resp)
}

// loadDocument opens and parses a stored document.
func loadDocument(store storage.Store, id string) (*models.Document, error) {
	rc, err := store.Open(id)
	if err != nil {
		return nil, storeError(err, id)
	}
	defer rc.Close()

	doc, err := document.Parse(rc)
	if err != nil {
		return nil, NewInternalError("failed to parse stored document", err)
	}
	return doc, nil
}

func storeError(err error, id string) *APIError {
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError("document", id)
	}
	return NewInternalError("document storage failed", err)
}

// Request types

type uploadDocumentRequest struct {
	Name string `json:"name"`
	Data string `json:"data"` // Base64-encoded content
}

func (r *uploadDocumentRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	if r.Data == "" {
		return NewValidationError("data")
	}
	return nil
}

type renameDocumentRequest struct {
	Name string `json:"name"`
}

func (r *renameDocumentRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return NewValidationError("name")
	}
	return nil
}
