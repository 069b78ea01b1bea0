package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-overview-api/internal/middleware"
	"github.com/noah-isme/gema-overview-api/internal/overview"
	"github.com/noah-isme/gema-overview-api/internal/service"
	"github.com/noah-isme/gema-overview-api/internal/utils"
)

// OverviewHandler serves the activity overview items.
type OverviewHandler struct {
	service service.OverviewService
	logger  zerolog.Logger
}

// NewOverviewHandler constructs a handler instance.
func NewOverviewHandler(service service.OverviewService, logger zerolog.Logger) *OverviewHandler {
	return &OverviewHandler{
		service: service,
		logger:  logger.With().Str("component", "overview_handler").Logger(),
	}
}

// Register binds the overview routes.
func (h *OverviewHandler) Register(router fiber.Router) {
	router.Get("/activities/:cmId/overview", middleware.WithUser(h.activity))
	router.Get("/courses/:courseId/overview/:moduleType", middleware.WithUser(h.course))
}

func (h *OverviewHandler) activity(c *fiber.Ctx, userID uint) error {
	cmID, err := parseUintParam(c, "cmId")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	response, err := h.service.ActivityOverview(withRequestContext(c), cmID, userID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, response, "activity overview", nil)
}

func (h *OverviewHandler) course(c *fiber.Ctx, userID uint) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}
	moduleType := strings.ToLower(strings.TrimSpace(c.Params("moduleType")))

	response, err := h.service.CourseOverview(withRequestContext(c), courseID, moduleType, userID)
	if errors.Is(err, overview.ErrUnsupportedModule) {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, response, "course overview", fiber.Map{"count": len(response.Activities)})
}
