package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-overview-api/internal/dto"
	"github.com/noah-isme/gema-overview-api/internal/middleware"
	"github.com/noah-isme/gema-overview-api/internal/service"
	"github.com/noah-isme/gema-overview-api/internal/storage"
	"github.com/noah-isme/gema-overview-api/internal/utils"
)

const packageFormField = "package"

// H5PHandler exposes attempt recording and package deployment for H5P activities.
type H5PHandler struct {
	service service.H5PService
	logger  zerolog.Logger
}

// NewH5PHandler constructs a handler instance.
func NewH5PHandler(service service.H5PService, logger zerolog.Logger) *H5PHandler {
	return &H5PHandler{
		service: service,
		logger:  logger.With().Str("component", "h5p_handler").Logger(),
	}
}

// Register binds the H5P routes.
func (h *H5PHandler) Register(router fiber.Router) {
	router.Post("/:activityId/attempts", middleware.WithUser(h.recordAttempt))
	router.Put("/:activityId/package", middleware.WithUser(h.deployPackage))
}

func (h *H5PHandler) recordAttempt(c *fiber.Ctx, userID uint) error {
	activityID, err := parseUintParam(c, "activityId")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var payload dto.RecordAttemptRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", nil)
	}

	response, err := h.service.RecordAttempt(withRequestContext(c), activityID, userID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attempt recorded", response)
}

func (h *H5PHandler) deployPackage(c *fiber.Ctx, userID uint) error {
	activityID, err := parseUintParam(c, "activityId")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	header, err := c.FormFile(packageFormField)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "package file required", nil)
	}
	if header.Size > storage.MaxPackageBytes {
		return utils.Fail(c, fiber.StatusRequestEntityTooLarge, storage.ErrPackageTooLarge.Error(), nil)
	}

	file, err := header.Open()
	if err != nil {
		return respondError(c, h.logger, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxPackageBytes+1))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if int64(len(data)) > storage.MaxPackageBytes {
		return utils.Fail(c, fiber.StatusRequestEntityTooLarge, storage.ErrPackageTooLarge.Error(), nil)
	}

	response, err := h.service.DeployPackage(withRequestContext(c), activityID, userID, data)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "package deployed", response)
}
