package overview

import (
	"context"
	"fmt"

	"github.com/noah-isme/gema-overview-api/internal/lang"
	"github.com/noah-isme/gema-overview-api/internal/models"
)

// Forum item keys.
const (
	KeyPosts       = "actions"
	KeyDueDate     = "duedate"
	KeyForumType   = "forumtype"
	KeyTracking    = "track"
	KeySubscribed  = "subscribed"
	KeyEmailDigest = "emaildigest"
	KeyDiscussions = "discussions"
)

// ForumStore is the read side of forum persistence used by the forum overview.
type ForumStore interface {
	GetForum(ctx context.Context, id uint) (models.Forum, error)
	CountPosts(ctx context.Context, forumID uint) (int64, error)
	CountDiscussions(ctx context.Context, forumID uint) (int64, error)
	IsUntracked(ctx context.Context, forumID, userID uint) (bool, error)
	GetSubscription(ctx context.Context, forumID, userID uint) (*bool, error)
	GetDigest(ctx context.Context, forumID, userID uint) (models.MailDigest, error)
}

// UnreadCounter reports how many posts of a forum the user has not read yet.
type UnreadCounter interface {
	UnreadPosts(ctx context.Context, forum models.Forum, userID uint) (int64, error)
}

// ForumSettings holds the site-wide forum configuration.
type ForumSettings struct {
	AllowForcedReadTracking bool
}

// ForumDeps wires a forum overview.
type ForumDeps struct {
	Store    ForumStore
	Unread   UnreadCounter
	Settings ForumSettings
}

// NewForumBuilder returns the factory builder for forum course modules.
func NewForumBuilder(deps ForumDeps) Builder {
	return func(ctx context.Context, cm models.CourseModule, viewer Viewer) (Provider, error) {
		forum, err := deps.Store.GetForum(ctx, cm.InstanceID)
		if err != nil {
			return nil, fmt.Errorf("load forum %d: %w", cm.InstanceID, err)
		}
		return NewForumOverview(cm, forum, viewer, deps), nil
	}
}

// ForumOverview computes the overview items of a forum.
type ForumOverview struct {
	cm     models.CourseModule
	forum  models.Forum
	viewer Viewer
	deps   ForumDeps
}

// NewForumOverview builds the overview of forum for viewer.
func NewForumOverview(cm models.CourseModule, forum models.Forum, viewer Viewer, deps ForumDeps) *ForumOverview {
	return &ForumOverview{cm: cm, forum: forum, viewer: viewer, deps: deps}
}

func (o *ForumOverview) ModuleType() string {
	return models.ModuleForum
}

// Actions reports the total number of posts, alerting on the viewer's unread posts.
func (o *ForumOverview) Actions(ctx context.Context) (*Item, error) {
	posts, err := o.deps.Store.CountPosts(ctx, o.forum.ID)
	if err != nil {
		return nil, err
	}

	tracked, _, err := o.trackingState(ctx)
	if err != nil {
		return nil, err
	}

	var unread int64
	if tracked && o.deps.Unread != nil {
		unread, err = o.deps.Unread.UnreadPosts(ctx, o.forum, o.viewer.UserID)
		if err != nil {
			return nil, err
		}
	}

	return &Item{
		Key:        KeyPosts,
		Name:       lang.Get(lang.Posts),
		Value:      posts,
		AlertCount: unread,
		AlertLabel: lang.Get(lang.UnreadPosts),
	}, nil
}

// DueDate is shown to students only. The value is nil when the forum has no due date.
func (o *ForumOverview) DueDate(ctx context.Context) (*Item, error) {
	if o.viewer.Role == RoleTeacher {
		return nil, nil
	}

	var value interface{}
	if o.forum.DueDate > 0 {
		value = o.forum.DueDate
	}

	return &Item{
		Key:   KeyDueDate,
		Name:  lang.Get(lang.DueDate),
		Value: value,
	}, nil
}

// ExtraItems returns forum type, discussions, subscription, digest and tracking items.
func (o *ForumOverview) ExtraItems(ctx context.Context) (*ItemSet, error) {
	set := NewItemSet()

	steps := []func(context.Context) (*Item, error){
		o.ForumType,
		o.Discussions,
		o.Subscription,
		o.EmailDigest,
		o.Tracking,
	}
	for _, step := range steps {
		item, err := step(ctx)
		if err != nil {
			return nil, err
		}
		set.Add(item)
	}

	return set, nil
}

var forumTypeLabels = map[string]string{
	models.ForumTypeGeneral:  lang.GeneralForum,
	models.ForumTypeSingle:   lang.SingleForum,
	models.ForumTypeEachUser: lang.EachUserForum,
	models.ForumTypeQandA:    lang.QandAForum,
	models.ForumTypeBlog:     lang.BlogForum,
	models.ForumTypeNews:     lang.NameNews,
}

// ForumType exposes the forum subtype to teachers.
func (o *ForumOverview) ForumType(context.Context) (*Item, error) {
	if o.viewer.Role != RoleTeacher {
		return nil, nil
	}

	content := o.forum.Type
	if key, ok := forumTypeLabels[o.forum.Type]; ok {
		content = lang.Get(key)
	}

	return &Item{
		Key:     KeyForumType,
		Name:    lang.Get(lang.ForumType),
		Value:   o.forum.Type,
		Content: content,
	}, nil
}

// Tracking renders the read tracking toggle.
func (o *ForumOverview) Tracking(ctx context.Context) (*Item, error) {
	tracked, disabled, err := o.trackingState(ctx)
	if err != nil {
		return nil, err
	}

	content, err := renderToggle(TrackToggleType, o.forum.ID, tracked, disabled, lang.Get(lang.TrackToggleLabel))
	if err != nil {
		return nil, err
	}

	return &Item{
		Key:     KeyTracking,
		Name:    lang.Get(lang.Tracking),
		Value:   tracked,
		Content: content,
	}, nil
}

// Subscription renders the subscription toggle.
func (o *ForumOverview) Subscription(ctx context.Context) (*Item, error) {
	subscribed, disabled, err := o.subscriptionState(ctx)
	if err != nil {
		return nil, err
	}

	content, err := renderToggle(SubscriptionToggleType, o.forum.ID, subscribed, disabled, lang.Get(lang.SubscribeToggleLabel))
	if err != nil {
		return nil, err
	}

	return &Item{
		Key:     KeySubscribed,
		Name:    lang.Get(lang.Subscribed),
		Value:   subscribed,
		Content: content,
	}, nil
}

var digestShortNames = map[models.MailDigest]string{
	models.MailDigestOff:      lang.EmailDigestOffShort,
	models.MailDigestComplete: lang.EmailDigestCompleteShort,
	models.MailDigestSubjects: lang.EmailDigestSubjectsShort,
}

// EmailDigest renders the per-forum digest selector, or a placeholder when the viewer
// cannot subscribe to the forum.
func (o *ForumOverview) EmailDigest(ctx context.Context) (*Item, error) {
	name := lang.Get(lang.DigestType)
	if !CanChooseDigest(o.forum.ForceSubscribe, o.viewer.Role) {
		return &Item{Key: KeyEmailDigest, Name: name, Value: "-", Content: "-"}, nil
	}

	digest, err := o.deps.Store.GetDigest(ctx, o.forum.ID, o.viewer.UserID)
	if err != nil {
		return nil, err
	}

	defaultLabel := lang.Get(lang.EmailDigestDefault, digestShortName(o.viewer.MailDigest))
	display := defaultLabel
	if digest != models.MailDigestDefault {
		display = digestShortName(digest)
	}

	options := []inplaceOption{
		{Value: int(models.MailDigestDefault), Label: defaultLabel},
		{Value: int(models.MailDigestOff), Label: lang.Get(lang.EmailDigestOffShort)},
		{Value: int(models.MailDigestComplete), Label: lang.Get(lang.EmailDigestCompleteShort)},
		{Value: int(models.MailDigestSubjects), Label: lang.Get(lang.EmailDigestSubjectsShort)},
	}
	content, err := renderInplaceSelect("digestoptions", o.forum.ID, int(digest), options, display)
	if err != nil {
		return nil, err
	}

	return &Item{
		Key:     KeyEmailDigest,
		Name:    name,
		Value:   int(digest),
		Content: content,
	}, nil
}

// Discussions reports the number of discussions in the forum.
func (o *ForumOverview) Discussions(ctx context.Context) (*Item, error) {
	count, err := o.deps.Store.CountDiscussions(ctx, o.forum.ID)
	if err != nil {
		return nil, err
	}

	return &Item{
		Key:   KeyDiscussions,
		Name:  lang.Get(lang.Discussions),
		Value: count,
	}, nil
}

func (o *ForumOverview) trackingState(ctx context.Context) (tracked, disabled bool, err error) {
	untracked := false
	if o.forum.TrackingType != models.TrackingOff {
		untracked, err = o.deps.Store.IsUntracked(ctx, o.forum.ID, o.viewer.UserID)
		if err != nil {
			return false, false, err
		}
	}

	tracked, disabled = TrackingState(o.forum.TrackingType, o.deps.Settings.AllowForcedReadTracking, o.viewer.TrackForums, untracked)
	return tracked, disabled, nil
}

func (o *ForumOverview) subscriptionState(ctx context.Context) (subscribed, disabled bool, err error) {
	preference, err := o.deps.Store.GetSubscription(ctx, o.forum.ID, o.viewer.UserID)
	if err != nil {
		return false, false, err
	}

	subscribed, disabled = SubscriptionState(o.forum.ForceSubscribe, o.viewer.Role, preference)
	return subscribed, disabled, nil
}

func digestShortName(digest models.MailDigest) string {
	if key, ok := digestShortNames[digest]; ok {
		return lang.Get(key)
	}
	return lang.Get(lang.EmailDigestOffShort)
}
