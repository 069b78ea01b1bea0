package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-overview-api/internal/middleware"
	"github.com/noah-isme/gema-overview-api/internal/service"
	"github.com/noah-isme/gema-overview-api/internal/storage"
	"github.com/noah-isme/gema-overview-api/internal/utils"
)

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	if value == "" {
		return 0, fmt.Errorf("%s required", key)
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(parsed), nil
}

func withRequestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return details
}

func statusForError(err error) int {
	switch {
	case isValidationError(err),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrInvalidParent),
		errors.Is(err, service.ErrInvalidPackage):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrForumNotFound),
		errors.Is(err, service.ErrDiscussionNotFound),
		errors.Is(err, service.ErrActivityNotFound),
		errors.Is(err, service.ErrCourseModuleNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrNotEnrolled),
		errors.Is(err, service.ErrPostingNotAllowed),
		errors.Is(err, service.ErrPackageForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrTrackingLocked),
		errors.Is(err, service.ErrSubscriptionLocked),
		errors.Is(err, service.ErrDigestLocked),
		errors.Is(err, service.ErrTrackingDisabled):
		return fiber.StatusConflict
	case errors.Is(err, storage.ErrPackageTooLarge):
		return fiber.StatusRequestEntityTooLarge
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError maps service errors onto the JSON envelope; server errors are logged and masked.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	status := statusForError(err)
	if status >= fiber.StatusInternalServerError {
		requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return utils.Fail(c, status, "internal server error", nil)
	}
	if details := validationDetails(err); details != nil {
		return utils.Fail(c, status, "validation failed", details)
	}
	return utils.Fail(c, status, err.Error(), nil)
}
