package handler

import (
	"io"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docintake/internal/http/middleware"
	"docintake/internal/model"
	"docintake/internal/service"
)

// ListDocuments returns the caller's documents, newest first.
// @Summary List documents
// @Tags Documents
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size, max 100 (omit for every document)"
// @Param offset query int false "Offset"
// @Success 200 {array} model.Document
// @Header 200 {integer} X-Total-Count "Total documents owned by the caller"
// @Failure 401 {object} errorPayload
// @Router /api/documents [get]
func ListDocuments(svc service.DocumentService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), middleware.UserID(c), limit, offset)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		items := res.Items
		if items == nil {
			items = []model.Document{}
		}
		c.Set("X-Total-Count", strconv.Itoa(res.Total))
		return c.JSON(items)
	}
}

// UploadDocument stores, extracts and analyses an uploaded file.
// @Summary Upload a document
// @Tags Documents
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF, JPEG, PNG, TIFF, DOC or DOCX"
// @Param title formData string false "Display title"
// @Success 201 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/documents [post]
func UploadDocument(svc service.DocumentService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot read uploaded file")
		}

		// Clients often send octet-stream; fall back to content sniffing.
		ct := fh.Header.Get("Content-Type")
		if ct == "" || ct == "application/octet-stream" {
			ct = mimetype.Detect(data).String()
		}

		doc, err := svc.Submit(c.UserContext(), service.SubmitInput{
			UserID:   middleware.UserID(c),
			Data:     data,
			MimeType: ct,
			Filename: fh.Filename,
			Title:    c.FormValue("title"),
		})
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns one document owned by the caller.
// @Summary Get a document
// @Tags Documents
// @Security BearerAuth
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} model.Document
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/documents/{id} [get]
func GetDocument(svc service.DocumentService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes the stored file and the record.
// @Summary Delete a document
// @Tags Documents
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Success 204
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/documents/{id} [delete]
func DeleteDocument(svc service.DocumentService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), middleware.UserID(c), id); err != nil {
			return writeServiceError(c, log, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// AskDocument answers a follow-up question about a document.
// @Summary Ask about a document
// @Tags Documents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Document ID"
// @Param body body askRequest true "Question"
// @Success 200 {object} service.Answer
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/documents/{id}/ask [post]
func AskDocument(svc service.DocumentService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req askRequest
		msg, ok := bindJSON(c, &req)
		question := strings.TrimSpace(req.Question)
		if question == "" {
			return writeError(c, fiber.StatusBadRequest, "QUESTION_REQUIRED", "question is required")
		}
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", msg)
		}
		ans, err := svc.Ask(c.UserContext(), middleware.UserID(c), id, question)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(ans)
	}
}

// DownloadDocument returns a time-limited URL for the original file.
// @Summary Download link for a document
// @Tags Documents
// @Security BearerAuth
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} service.DownloadLink
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/documents/{id}/download [get]
func DownloadDocument(svc service.DocumentService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		link, err := svc.DownloadURL(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(link)
	}
}

// CreateReminderFromActionItem turns one of a document's action items into a reminder.
// @Summary Create a reminder from an action item
// @Tags Reminders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Document ID"
// @Param body body actionItemRequest true "Action item"
// @Success 201 {object} model.Reminder
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/documents/{id}/reminders [post]
func CreateReminderFromActionItem(svc service.ReminderService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req actionItemRequest
		if msg, ok := bindJSON(c, &req); !ok {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", msg)
		}
		r, err := svc.CreateFromActionItem(c.UserContext(), middleware.UserID(c), id, model.ActionItem{
			Task:     req.Task,
			DueDate:  req.DueDate,
			Priority: model.Priority(req.Priority),
		})
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}
