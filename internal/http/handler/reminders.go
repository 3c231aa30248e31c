package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docintake/internal/http/middleware"
	"docintake/internal/model"
	"docintake/internal/service"
)

// CreateReminder creates a reminder for the caller.
// @Summary Create a reminder
// @Tags Reminders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body createReminderRequest true "Reminder"
// @Success 201 {object} model.Reminder
// @Failure 400 {object} errorPayload
// @Router /api/reminders [post]
func CreateReminder(svc service.ReminderService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createReminderRequest
		if msg, ok := bindJSON(c, &req); !ok {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", msg)
		}
		due, ok := parseDate(req.DueDate)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "dueDate must be YYYY-MM-DD or RFC 3339")
		}

		r, err := svc.Create(c.UserContext(), middleware.UserID(c), service.CreateReminderInput{
			DocumentID:  req.DocumentID,
			Title:       req.Title,
			Description: req.Description,
			DueDate:     due,
			Priority:    model.Priority(req.Priority),
		})
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

// ListReminders returns the caller's reminders ordered by due date.
// @Summary List reminders
// @Tags Reminders
// @Security BearerAuth
// @Produce json
// @Success 200 {array} model.Reminder
// @Failure 401 {object} errorPayload
// @Router /api/reminders [get]
func ListReminders(svc service.ReminderService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.List(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(items)
	}
}

// UpdateReminder changes completion, priority or due date.
// @Summary Update a reminder
// @Tags Reminders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Reminder ID"
// @Param body body updateReminderRequest true "Fields to change"
// @Success 200 {object} model.Reminder
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/reminders/{id} [patch]
func UpdateReminder(svc service.ReminderService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req updateReminderRequest
		if msg, ok := bindJSON(c, &req); !ok {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", msg)
		}

		u := model.ReminderUpdate{Completed: req.Completed}
		if req.Priority != nil {
			p := model.Priority(*req.Priority)
			u.Priority = &p
		}
		if req.DueDate != nil {
			due, ok := parseDate(*req.DueDate)
			if !ok {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "dueDate must be YYYY-MM-DD or RFC 3339")
			}
			u.DueDate = &due
		}

		r, err := svc.Update(c.UserContext(), middleware.UserID(c), id, u)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(r)
	}
}

// DeleteReminder removes a reminder owned by the caller.
// @Summary Delete a reminder
// @Tags Reminders
// @Security BearerAuth
// @Param id path int true "Reminder ID"
// @Success 204
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/reminders/{id} [delete]
func DeleteReminder(svc service.ReminderService, log *zap.Logger) fiber.Handler {
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
