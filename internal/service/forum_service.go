package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-overview-api/internal/dto"
	"github.com/noah-isme/gema-overview-api/internal/models"
	"github.com/noah-isme/gema-overview-api/internal/overview"
	"github.com/noah-isme/gema-overview-api/internal/repository"
)

var (
	// ErrForumNotFound indicates the requested forum does not exist.
	ErrForumNotFound = errors.New("forum not found")
	// ErrDiscussionNotFound indicates the requested discussion does not exist.
	ErrDiscussionNotFound = errors.New("discussion not found")
	// ErrTrackingLocked indicates the tracking toggle is disabled for the user.
	ErrTrackingLocked = errors.New("read tracking cannot be changed for this forum")
	// ErrSubscriptionLocked indicates the subscription toggle is disabled for the user.
	ErrSubscriptionLocked = errors.New("subscription cannot be changed for this forum")
	// ErrDigestLocked indicates the user may not choose a digest type for the forum.
	ErrDigestLocked = errors.New("digest type cannot be changed for this forum")
	// ErrPostingNotAllowed indicates the forum type does not let the user start a discussion.
	ErrPostingNotAllowed = errors.New("posting a new discussion is not allowed in this forum")
	// ErrEmptyMessage indicates a post with no content left after sanitization.
	ErrEmptyMessage = errors.New("message empty after sanitization")
	// ErrInvalidParent indicates a reply to a post outside the discussion.
	ErrInvalidParent = errors.New("parent post does not belong to the discussion")
)

// ForumService covers the forum writes that feed the overview: posting, reading and preferences.
type ForumService interface {
	CreateDiscussion(ctx context.Context, forumID, userID uint, payload dto.CreateDiscussionRequest) (dto.PostResponse, error)
	CreateReply(ctx context.Context, discussionID, userID uint, payload dto.CreateReplyRequest) (dto.PostResponse, error)
	MarkForumRead(ctx context.Context, forumID, userID uint) (dto.MarkReadResponse, error)
	SetTracking(ctx context.Context, forumID, userID uint, tracked bool) (dto.ToggleResponse, error)
	SetSubscription(ctx context.Context, forumID, userID uint, subscribed bool) (dto.ToggleResponse, error)
	SetDigest(ctx context.Context, forumID, userID uint, digest models.MailDigest) (dto.DigestResponse, error)
}

type forumService struct {
	forums    repository.ForumRepository
	courses   repository.CourseRepository
	tracker   ReadTracker
	settings  overview.ForumSettings
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewForumService builds the forum service.
func NewForumService(forums repository.ForumRepository, courses repository.CourseRepository, tracker ReadTracker, settings overview.ForumSettings, validate *validator.Validate, logger zerolog.Logger) ForumService {
	return &forumService{
		forums:    forums,
		courses:   courses,
		tracker:   tracker,
		settings:  settings,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "forum_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-overview-api/internal/service/forum"),
		now:       time.Now,
	}
}

func (s *forumService) CreateDiscussion(ctx context.Context, forumID, userID uint, payload dto.CreateDiscussionRequest) (dto.PostResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PostResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "forum.create_discussion", trace.WithAttributes(
		attribute.Int64("forum.id", int64(forumID)),
		attribute.Int64("user.id", int64(userID)),
	))
	defer span.End()

	forum, viewer, err := s.forumAndViewer(spanCtx, forumID, userID)
	if err != nil {
		return dto.PostResponse{}, err
	}
	if err := s.canStartDiscussion(spanCtx, forum, viewer); err != nil {
		return dto.PostResponse{}, err
	}

	message, err := s.sanitize(payload.Message)
	if err != nil {
		return dto.PostResponse{}, err
	}

	now := s.now()
	subject := strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(payload.Subject))
	discussion := models.ForumDiscussion{
		ForumID:  forum.ID,
		CourseID: forum.CourseID,
		Name:     subject,
		UserID:   userID,
	}
	post := models.ForumPost{
		UserID:    userID,
		Subject:   subject,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.forums.CreateDiscussion(spanCtx, &discussion, &post); err != nil {
		span.RecordError(err)
		return dto.PostResponse{}, err
	}

	if err := s.afterPost(spanCtx, post); err != nil {
		span.RecordError(err)
		return dto.PostResponse{}, err
	}

	s.logger.Info().Uint("forum_id", forum.ID).Uint("discussion_id", discussion.ID).Msg("discussion created")
	return dto.NewPostResponse(post), nil
}

func (s *forumService) CreateReply(ctx context.Context, discussionID, userID uint, payload dto.CreateReplyRequest) (dto.PostResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PostResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "forum.create_reply", trace.WithAttributes(
		attribute.Int64("discussion.id", int64(discussionID)),
		attribute.Int64("user.id", int64(userID)),
	))
	defer span.End()

	discussion, err := s.forums.GetDiscussion(spanCtx, discussionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.PostResponse{}, ErrDiscussionNotFound
	}
	if err != nil {
		return dto.PostResponse{}, err
	}

	if _, _, err := s.forumAndViewer(spanCtx, discussion.ForumID, userID); err != nil {
		return dto.PostResponse{}, err
	}

	message, err := s.sanitize(payload.Message)
	if err != nil {
		return dto.PostResponse{}, err
	}

	subject := strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(payload.Subject))
	if subject == "" {
		subject = "Re: " + discussion.Name
	}
	parentID := payload.ParentID
	if parentID == 0 {
		parentID = discussion.FirstPost
	} else {
		parent, err := s.forums.GetPost(spanCtx, parentID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return dto.PostResponse{}, ErrInvalidParent
		case err != nil:
			return dto.PostResponse{}, err
		case parent.DiscussionID != discussion.ID:
			return dto.PostResponse{}, ErrInvalidParent
		}
	}

	now := s.now()
	post := models.ForumPost{
		DiscussionID: discussion.ID,
		ForumID:      discussion.ForumID,
		ParentID:     parentID,
		UserID:       userID,
		Subject:      subject,
		Message:      message,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.forums.CreatePost(spanCtx, &post); err != nil {
		span.RecordError(err)
		return dto.PostResponse{}, err
	}

	if err := s.afterPost(spanCtx, post); err != nil {
		span.RecordError(err)
		return dto.PostResponse{}, err
	}

	return dto.NewPostResponse(post), nil
}

func (s *forumService) MarkForumRead(ctx context.Context, forumID, userID uint) (dto.MarkReadResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "forum.mark_read", trace.WithAttributes(
		attribute.Int64("forum.id", int64(forumID)),
		attribute.Int64("user.id", int64(userID)),
	))
	defer span.End()

	if _, _, err := s.forumAndViewer(spanCtx, forumID, userID); err != nil {
		return dto.MarkReadResponse{}, err
	}

	marked, err := s.tracker.MarkForumRead(spanCtx, forumID, userID)
	if err != nil {
		span.RecordError(err)
		return dto.MarkReadResponse{}, err
	}

	return dto.MarkReadResponse{ForumID: forumID, Marked: marked}, nil
}

func (s *forumService) SetTracking(ctx context.Context, forumID, userID uint, tracked bool) (dto.ToggleResponse, error) {
	forum, viewer, err := s.forumAndViewer(ctx, forumID, userID)
	if err != nil {
		return dto.ToggleResponse{}, err
	}

	untracked, err := s.forums.IsUntracked(ctx, forum.ID, userID)
	if err != nil {
		return dto.ToggleResponse{}, err
	}
	current, disabled := overview.TrackingState(forum.TrackingType, s.settings.AllowForcedReadTracking, viewer.TrackForums, untracked)
	if disabled {
		return dto.ToggleResponse{}, ErrTrackingLocked
	}

	if current != tracked {
		if err := s.forums.SetUntracked(ctx, forum.ID, userID, !tracked); err != nil {
			return dto.ToggleResponse{}, err
		}
		if err := s.tracker.Invalidate(ctx, forum.ID, userID); err != nil {
			return dto.ToggleResponse{}, err
		}
	}

	return dto.ToggleResponse{ForumID: forum.ID, Enabled: tracked}, nil
}

func (s *forumService) SetSubscription(ctx context.Context, forumID, userID uint, subscribed bool) (dto.ToggleResponse, error) {
	forum, viewer, err := s.forumAndViewer(ctx, forumID, userID)
	if err != nil {
		return dto.ToggleResponse{}, err
	}

	preference, err := s.forums.GetSubscription(ctx, forum.ID, userID)
	if err != nil {
		return dto.ToggleResponse{}, err
	}
	if _, disabled := overview.SubscriptionState(forum.ForceSubscribe, viewer.Role, preference); disabled {
		return dto.ToggleResponse{}, ErrSubscriptionLocked
	}

	if err := s.forums.SetSubscription(ctx, forum.ID, userID, subscribed); err != nil {
		return dto.ToggleResponse{}, err
	}

	return dto.ToggleResponse{ForumID: forum.ID, Enabled: subscribed}, nil
}

func (s *forumService) SetDigest(ctx context.Context, forumID, userID uint, digest models.MailDigest) (dto.DigestResponse, error) {
	if !digest.Valid() {
		return dto.DigestResponse{}, errors.New("unknown mail digest option")
	}

	forum, viewer, err := s.forumAndViewer(ctx, forumID, userID)
	if err != nil {
		return dto.DigestResponse{}, err
	}
	if !overview.CanChooseDigest(forum.ForceSubscribe, viewer.Role) {
		return dto.DigestResponse{}, ErrDigestLocked
	}

	if err := s.forums.SetDigest(ctx, forum.ID, userID, digest); err != nil {
		return dto.DigestResponse{}, err
	}

	return dto.DigestResponse{ForumID: forum.ID, MailDigest: int(digest)}, nil
}

func (s *forumService) forumAndViewer(ctx context.Context, forumID, userID uint) (models.Forum, overview.Viewer, error) {
	forum, err := s.forums.GetForum(ctx, forumID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Forum{}, overview.Viewer{}, ErrForumNotFound
	}
	if err != nil {
		return models.Forum{}, overview.Viewer{}, err
	}

	viewer, err := loadViewer(ctx, s.courses, forum.CourseID, userID)
	if err != nil {
		return models.Forum{}, overview.Viewer{}, err
	}
	return forum, viewer, nil
}

// canStartDiscussion applies the per-type posting rules: announcements and single discussion
// forums are teacher only, each-user forums take one discussion per user.
func (s *forumService) canStartDiscussion(ctx context.Context, forum models.Forum, viewer overview.Viewer) error {
	switch forum.Type {
	case models.ForumTypeNews, models.ForumTypeSingle:
		if viewer.Role != overview.RoleTeacher {
			return ErrPostingNotAllowed
		}
		if forum.Type == models.ForumTypeSingle {
			count, err := s.forums.CountDiscussions(ctx, forum.ID)
			if err != nil {
				return err
			}
			if count > 0 {
				return ErrPostingNotAllowed
			}
		}
	case models.ForumTypeEachUser:
		count, err := s.forums.CountUserDiscussions(ctx, forum.ID, viewer.UserID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrPostingNotAllowed
		}
	}
	return nil
}

func (s *forumService) sanitize(message string) (string, error) {
	clean := strings.TrimSpace(s.sanitizer.Sanitize(message))
	if clean == "" {
		return "", ErrEmptyMessage
	}
	return clean, nil
}

// afterPost marks the author's own post as read and drops every cached count of the forum.
func (s *forumService) afterPost(ctx context.Context, post models.ForumPost) error {
	if err := s.tracker.MarkRead(ctx, post.UserID, []models.ForumPost{post}); err != nil {
		return err
	}
	return s.tracker.InvalidateForum(ctx, post.ForumID)
}
