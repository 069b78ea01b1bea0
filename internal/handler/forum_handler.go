package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-overview-api/internal/dto"
	"github.com/noah-isme/gema-overview-api/internal/middleware"
	"github.com/noah-isme/gema-overview-api/internal/models"
	"github.com/noah-isme/gema-overview-api/internal/service"
	"github.com/noah-isme/gema-overview-api/internal/utils"
)

// ForumHandler exposes the forum writes that change overview items.
type ForumHandler struct {
	service   service.ForumService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewForumHandler constructs a handler instance.
func NewForumHandler(service service.ForumService, validator *validator.Validate, logger zerolog.Logger) *ForumHandler {
	return &ForumHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "forum_handler").Logger(),
	}
}

// Register binds the forum routes.
func (h *ForumHandler) Register(router fiber.Router) {
	router.Post("/discussions/:discussionId/posts", middleware.WithUser(h.createReply))
	router.Post("/:forumId/discussions", middleware.WithUser(h.createDiscussion))
	router.Post("/:forumId/read", middleware.WithUser(h.markRead))
	router.Put("/:forumId/tracking", middleware.WithUser(h.setTracking))
	router.Put("/:forumId/subscription", middleware.WithUser(h.setSubscription))
	router.Put("/:forumId/digest", middleware.WithUser(h.setDigest))
}

func (h *ForumHandler) createDiscussion(c *fiber.Ctx, userID uint) error {
	forumID, err := parseUintParam(c, "forumId")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var payload dto.CreateDiscussionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", nil)
	}

	response, err := h.service.CreateDiscussion(withRequestContext(c), forumID, userID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "discussion created", response)
}

func (h *ForumHandler) createReply(c *fiber.Ctx, userID uint) error {
	discussionID, err := parseUintParam(c, "discussionId")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var payload dto.CreateReplyRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", nil)
	}

	response, err := h.service.CreateReply(withRequestContext(c), discussionID, userID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "post created", response)
}

func (h *ForumHandler) markRead(c *fiber.Ctx, userID uint) error {
	forumID, err := parseUintParam(c, "forumId")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	response, err := h.service.MarkForumRead(withRequestContext(c), forumID, userID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "forum marked as read", response)
}

func (h *ForumHandler) setTracking(c *fiber.Ctx, userID uint) error {
	return h.toggle(c, userID, h.service.SetTracking, "tracking updated")
}

func (h *ForumHandler) setSubscription(c *fiber.Ctx, userID uint) error {
	return h.toggle(c, userID, h.service.SetSubscription, "subscription updated")
}

type toggleFunc func(ctx context.Context, forumID, userID uint, enabled bool) (dto.ToggleResponse, error)

func (h *ForumHandler) toggle(c *fiber.Ctx, userID uint, apply toggleFunc, message string) error {
	forumID, err := parseUintParam(c, "forumId")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var payload dto.ToggleRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", nil)
	}
	if err := h.validator.Struct(payload); err != nil {
		return respondError(c, h.logger, err)
	}

	response, err := apply(withRequestContext(c), forumID, userID, *payload.Enabled)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, message, response)
}

func (h *ForumHandler) setDigest(c *fiber.Ctx, userID uint) error {
	forumID, err := parseUintParam(c, "forumId")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var payload dto.DigestRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", nil)
	}
	if err := h.validator.Struct(payload); err != nil {
		return respondError(c, h.logger, err)
	}

	response, err := h.service.SetDigest(withRequestContext(c), forumID, userID, models.MailDigest(*payload.MailDigest))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "digest updated", response)
}
