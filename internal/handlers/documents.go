package handlers

import (
	"errors"
	"fmt"

	"github.com/collabserve/collabserve/internal/services"
	"github.com/collabserve/collabserve/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DocumentHandler handles document and version routes
type DocumentHandler struct {
	DB *gorm.DB
}

type documentBody struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Create handles POST /api/documents
// @Summary Create a document
// @Description Create a new document owned by the authenticated user
// @Tags Documents
// @Accept json
// @Produce json
// @Param body body documentBody true "Title and content"
// @Success 201 {object} models.Document
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /documents [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, "Authorization required", fiber.StatusForbidden, "documents.authorization")
	}

	var body documentBody
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "documents.validation.input")
	}

	doc, err := services.CreateDocument(h.DB, userID, body.Title, body.Content)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "documents.validation.input")
		}
		return utils.ErrorResponse(c, "Error creating document", fiber.StatusInternalServerError, "createDocument")
	}

	return c.Status(fiber.StatusCreated).JSON(doc)
}

// List handles GET /api/documents
// @Summary List documents
// @Description List every document owned by the authenticated user
// @Tags Documents
// @Produce json
// @Success 200 {array} models.Document
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, "Authorization required", fiber.StatusForbidden, "documents.authorization")
	}

	docs, err := services.ListDocuments(h.DB, userID)
	if err != nil {
		return utils.ErrorResponse(c, "Error retrieving documents", fiber.StatusInternalServerError, "getDocuments")
	}

	return c.Status(fiber.StatusOK).JSON(docs)
}

// GetByID handles GET /api/documents/:id
// @Summary Get a document
// @Description Get one owned document by id
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} models.Document
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /documents/{id} [get]
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, "Authorization required", fiber.StatusForbidden, "documents.authorization")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.NotFoundResponse(c, "Document not found")
	}

	doc, err := services.GetDocument(h.DB, userID, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFoundResponse(c, "Document not found")
		}
		return utils.ErrorResponse(c, "Error retrieving document", fiber.StatusInternalServerError, "getDocumentById")
	}

	return c.Status(fiber.StatusOK).JSON(doc)
}

// Update handles PUT /api/documents/:id
// @Summary Update a document
// @Description Snapshot the current state as a version, then apply a partial update. Empty fields keep their prior value.
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path int true "Document ID"
// @Param body body documentBody true "New title and/or content"
// @Success 200 {object} models.Document
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /documents/{id} [put]
func (h *DocumentHandler) Update(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, "Authorization required", fiber.StatusForbidden, "documents.authorization")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.NotFoundResponse(c, "Document not found")
	}

	var body documentBody
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "documents.validation.input")
	}

	doc, err := services.UpdateDocument(h.DB, userID, id, body.Title, body.Content)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFoundResponse(c, "Document not found")
		}
		return utils.ErrorResponse(c, "Error updating document", fiber.StatusInternalServerError, "updateDocument")
	}

	return c.Status(fiber.StatusOK).JSON(doc)
}

// Delete handles DELETE /api/documents/:id
// @Summary Delete a document
// @Description Delete one owned document. Version history is retained.
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, "Authorization required", fiber.StatusForbidden, "documents.authorization")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.NotFoundResponse(c, "Document not found")
	}

	if err := services.DeleteDocument(h.DB, userID, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFoundResponse(c, "Document not found")
		}
		return utils.ErrorResponse(c, "Error deleting document", fiber.StatusInternalServerError, "deleteDocument")
	}

	return utils.MessageResponse(c, "Document deleted successfully")
}

// ListVersions handles GET /api/documents/:documentId/versions
// @Summary List document versions
// @Description List every snapshot of an owned document, oldest first
// @Tags Versions
// @Produce json
// @Param documentId path int true "Document ID"
// @Success 200 {array} models.DocumentVersion
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /documents/{documentId}/versions [get]
func (h *DocumentHandler) ListVersions(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, "Authorization required", fiber.StatusForbidden, "documents.authorization")
	}

	id, err := parseIDParam(c, "documentId")
	if err != nil {
		return utils.NotFoundResponse(c, "Document not found")
	}

	versions, err := services.ListVersions(h.DB, userID, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFoundResponse(c, "Document not found")
		}
		return utils.ErrorResponse(c, "Error retrieving versions", fiber.StatusInternalServerError, "getDocumentVersions")
	}

	return c.Status(fiber.StatusOK).JSON(versions)
}

// RestoreVersion handles POST /api/documents/:documentId/versions/:versionId/restore
// @Summary Restore a version
// @Description Overwrite the document's title and content with a captured version. History is unchanged.
// @Tags Versions
// @Produce json
// @Param documentId path int true "Document ID"
// @Param versionId path int true "Version ID"
// @Success 200 {object} models.Document
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /documents/{documentId}/versions/{versionId}/restore [post]
func (h *DocumentHandler) RestoreVersion(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, "Authorization required", fiber.StatusForbidden, "documents.authorization")
	}

	docID, err := parseIDParam(c, "documentId")
	if err != nil {
		return utils.NotFoundResponse(c, "Document not found")
	}
	verID, err := parseIDParam(c, "versionId")
	if err != nil {
		return utils.NotFoundResponse(c, fmt.Sprintf("Version not found for document %d", docID))
	}

	doc, err := services.RestoreDocument(h.DB, userID, docID, verID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFoundResponse(c, "Document or version not found")
		}
		return utils.ErrorResponse(c, "Error restoring version", fiber.StatusInternalServerError, "restoreDocumentVersion")
	}

	return c.Status(fiber.StatusOK).JSON(doc)
}
