package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-overview-api/internal/service"
	"github.com/noah-isme/gema-overview-api/internal/utils"
)

// AdminCacheHandler lets site administrators drop cached unread counts.
type AdminCacheHandler struct {
	tracker service.ReadTracker
	logger  zerolog.Logger
}

// NewAdminCacheHandler constructs a handler instance.
func NewAdminCacheHandler(tracker service.ReadTracker, logger zerolog.Logger) *AdminCacheHandler {
	return &AdminCacheHandler{
		tracker: tracker,
		logger:  logger.With().Str("component", "admin_cache_handler").Logger(),
	}
}

// Register binds the admin cache routes. Callers must guard the router with a site role check.
func (h *AdminCacheHandler) Register(router fiber.Router) {
	router.Delete("/forums/:forumId/unread-cache", h.flushForum)
}

func (h *AdminCacheHandler) flushForum(c *fiber.Ctx) error {
	forumID, err := parseUintParam(c, "forumId")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	if err := h.tracker.InvalidateForum(withRequestContext(c), forumID); err != nil {
		return respondError(c, h.logger, err)
	}

	requestLogger(h.logger, c).Info().Uint("forum_id", forumID).Msg("unread cache flushed")
	return utils.SendSuccess(c, "unread cache flushed", fiber.Map{"forum_id": forumID})
}
