package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-overview-api/internal/models"
)

// ForumRepository persists forums, their posts and per-user forum preferences.
type ForumRepository interface {
	GetForum(ctx context.Context, id uint) (models.Forum, error)
	GetDiscussion(ctx context.Context, id uint) (models.ForumDiscussion, error)
	GetPost(ctx context.Context, id uint) (models.ForumPost, error)
	CountPosts(ctx context.Context, forumID uint) (int64, error)
	CountDiscussions(ctx context.Context, forumID uint) (int64, error)
	CountUserDiscussions(ctx context.Context, forumID, userID uint) (int64, error)
	CountUnread(ctx context.Context, forumID, userID uint, since time.Time) (int64, error)
	CreateDiscussion(ctx context.Context, discussion *models.ForumDiscussion, post *models.ForumPost) error
	CreatePost(ctx context.Context, post *models.ForumPost) error
	MarkPostsRead(ctx context.Context, userID uint, posts []models.ForumPost, at time.Time) error
	MarkForumRead(ctx context.Context, forumID, userID uint, since, at time.Time) (int64, error)
	IsUntracked(ctx context.Context, forumID, userID uint) (bool, error)
	SetUntracked(ctx context.Context, forumID, userID uint, untracked bool) error
	GetSubscription(ctx context.Context, forumID, userID uint) (*bool, error)
	SetSubscription(ctx context.Context, forumID, userID uint, subscribed bool) error
	GetDigest(ctx context.Context, forumID, userID uint) (models.MailDigest, error)
	SetDigest(ctx context.Context, forumID, userID uint, digest models.MailDigest) error
}

type forumRepository struct {
	db *gorm.DB
}

// NewForumRepository constructs a GORM-backed repository.
func NewForumRepository(db *gorm.DB) ForumRepository {
	return &forumRepository{db: db}
}

func (r *forumRepository) GetForum(ctx context.Context, id uint) (models.Forum, error) {
	var forum models.Forum
	if err := r.db.WithContext(ctx).First(&forum, id).Error; err != nil {
		return models.Forum{}, err
	}
	return forum, nil
}

func (r *forumRepository) GetDiscussion(ctx context.Context, id uint) (models.ForumDiscussion, error) {
	var discussion models.ForumDiscussion
	if err := r.db.WithContext(ctx).First(&discussion, id).Error; err != nil {
		return models.ForumDiscussion{}, err
	}
	return discussion, nil
}

func (r *forumRepository) GetPost(ctx context.Context, id uint) (models.ForumPost, error) {
	var post models.ForumPost
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return models.ForumPost{}, err
	}
	return post, nil
}

func (r *forumRepository) CountPosts(ctx context.Context, forumID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ForumPost{}).
		Where("forum_id = ?", forumID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *forumRepository) CountDiscussions(ctx context.Context, forumID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ForumDiscussion{}).
		Where("forum_id = ?", forumID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *forumRepository) CountUserDiscussions(ctx context.Context, forumID, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ForumDiscussion{}).
		Where("forum_id = ? AND user_id = ?", forumID, userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *forumRepository) CountUnread(ctx context.Context, forumID, userID uint, since time.Time) (int64, error) {
	var count int64
	if err := r.unreadPosts(ctx, forumID, userID, since).
		Where("forum_posts.user_id <> ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *forumRepository) unreadPosts(ctx context.Context, forumID, userID uint, since time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.ForumPost{}).
		Where("forum_posts.forum_id = ? AND forum_posts.updated_at > ?", forumID, since).
		Where("NOT EXISTS (SELECT 1 FROM forum_reads WHERE forum_reads.post_id = forum_posts.id AND forum_reads.user_id = ?)", userID)
}

func (r *forumRepository) CreateDiscussion(ctx context.Context, discussion *models.ForumDiscussion, post *models.ForumPost) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(discussion).Error; err != nil {
			return err
		}

		post.DiscussionID = discussion.ID
		post.ForumID = discussion.ForumID
		if err := tx.Create(post).Error; err != nil {
			return err
		}

		discussion.FirstPost = post.ID
		return tx.Model(discussion).UpdateColumn("first_post", post.ID).Error
	})
}

func (r *forumRepository) CreatePost(ctx context.Context, post *models.ForumPost) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}

		return tx.Model(&models.ForumDiscussion{}).
			Where("id = ?", post.DiscussionID).
			UpdateColumn("updated_at", post.CreatedAt).
			Error
	})
}

func (r *forumRepository) MarkPostsRead(ctx context.Context, userID uint, posts []models.ForumPost, at time.Time) error {
	if len(posts) == 0 {
		return nil
	}

	reads := make([]models.ForumRead, 0, len(posts))
	for _, post := range posts {
		reads = append(reads, models.ForumRead{
			UserID:       userID,
			PostID:       post.ID,
			ForumID:      post.ForumID,
			DiscussionID: post.DiscussionID,
			FirstRead:    at,
			LastRead:     at,
		})
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_read"}),
	}).Create(&reads).Error
}

func (r *forumRepository) MarkForumRead(ctx context.Context, forumID, userID uint, since, at time.Time) (int64, error) {
	var posts []models.ForumPost
	if err := r.unreadPosts(ctx, forumID, userID, since).Find(&posts).Error; err != nil {
		return 0, err
	}
	if err := r.MarkPostsRead(ctx, userID, posts, at); err != nil {
		return 0, err
	}
	return int64(len(posts)), nil
}

func (r *forumRepository) IsUntracked(ctx context.Context, forumID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ForumTrackPref{}).
		Where("forum_id = ? AND user_id = ?", forumID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *forumRepository) SetUntracked(ctx context.Context, forumID, userID uint, untracked bool) error {
	if !untracked {
		return r.db.WithContext(ctx).
			Where("forum_id = ? AND user_id = ?", forumID, userID).
			Delete(&models.ForumTrackPref{}).Error
	}

	pref := models.ForumTrackPref{ForumID: forumID, UserID: userID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&pref).Error
}

func (r *forumRepository) GetSubscription(ctx context.Context, forumID, userID uint) (*bool, error) {
	var subscription models.ForumSubscription
	err := r.db.WithContext(ctx).
		Where("forum_id = ? AND user_id = ?", forumID, userID).
		First(&subscription).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	subscribed := subscription.Subscribed
	return &subscribed, nil
}

func (r *forumRepository) SetSubscription(ctx context.Context, forumID, userID uint, subscribed bool) error {
	subscription := models.ForumSubscription{
		ForumID:    forumID,
		UserID:     userID,
		Subscribed: subscribed,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "forum_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"subscribed", "updated_at"}),
	}).Create(&subscription).Error
}

func (r *forumRepository) GetDigest(ctx context.Context, forumID, userID uint) (models.MailDigest, error) {
	var digest models.ForumDigest
	err := r.db.WithContext(ctx).
		Where("forum_id = ? AND user_id = ?", forumID, userID).
		First(&digest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.MailDigestDefault, nil
	}
	if err != nil {
		return models.MailDigestDefault, err
	}
	return digest.MailDigest, nil
}

func (r *forumRepository) SetDigest(ctx context.Context, forumID, userID uint, digest models.MailDigest) error {
	if digest == models.MailDigestDefault {
		return r.db.WithContext(ctx).
			Where("forum_id = ? AND user_id = ?", forumID, userID).
			Delete(&models.ForumDigest{}).Error
	}

	record := models.ForumDigest{ForumID: forumID, UserID: userID, MailDigest: digest}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "forum_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mail_digest"}),
	}).Create(&record).Error
}
