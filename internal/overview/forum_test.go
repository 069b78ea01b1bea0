package overview

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-overview-api/internal/models"
	"github.com/noah-isme/gema-overview-api/internal/repository"
	"github.com/noah-isme/gema-overview-api/internal/testutil"
)

const oldPostWindow = 14 * 24 * time.Hour

type repoUnread struct {
	repo repository.ForumRepository
}

func (u repoUnread) UnreadPosts(ctx context.Context, forum models.Forum, userID uint) (int64, error) {
	return u.repo.CountUnread(ctx, forum.ID, userID, time.Now().Add(-oldPostWindow))
}

type forumFixture struct {
	db      *gorm.DB
	gen     *testutil.Generator
	courses repository.CourseRepository
	factory *Factory
}

func newForumFixture(t *testing.T, allowForced bool) *forumFixture {
	t.Helper()
	db := testutil.NewDB(t)
	forums := repository.NewForumRepository(db)

	factory := NewFactory()
	factory.Register(models.ModuleForum, NewForumBuilder(ForumDeps{
		Store:    forums,
		Unread:   repoUnread{repo: forums},
		Settings: ForumSettings{AllowForcedReadTracking: allowForced},
	}))

	return &forumFixture{
		db:      db,
		gen:     testutil.NewGenerator(t, db),
		courses: repository.NewCourseRepository(db),
		factory: factory,
	}
}

func (f *forumFixture) overview(t *testing.T, cm models.CourseModule, user models.User) *ForumOverview {
	t.Helper()
	ctx := context.Background()

	stored, err := f.courses.GetUser(ctx, user.ID)
	require.NoError(t, err)
	enrolment, err := f.courses.GetEnrolment(ctx, cm.CourseID, user.ID)
	require.NoError(t, err)
	viewer, err := NewViewer(stored, enrolment)
	require.NoError(t, err)

	provider, err := f.factory.Create(ctx, cm, viewer)
	require.NoError(t, err)
	forum, ok := provider.(*ForumOverview)
	require.True(t, ok)
	return forum
}

func TestForumActionsCountsPostsAndUnread(t *testing.T) {
	f := newForumFixture(t, true)
	ctx := context.Background()

	course := f.gen.CreateCourse()
	student := f.gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
	teacher := f.gen.CreateAndEnrol(course, models.EnrolmentRoleEditingTeacher)
	forum, cm := f.gen.CreateForum(course)

	item, err := f.overview(t, cm, teacher).Actions(ctx)
	require.NoError(t, err)
	require.Equal(t, "Posts", item.GetName())
	require.Equal(t, int64(0), item.GetValue())
	require.Zero(t, item.GetAlertCount())
	require.Equal(t, "Unread posts", item.GetAlertLabel())

	f.gen.CreateDiscussion(forum, teacher)
	f.gen.CreateDiscussion(forum, student)
	f.gen.CreateDiscussion(forum, student)

	item, err = f.overview(t, cm, teacher).Actions(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), item.GetValue())
	require.Equal(t, int64(2), item.GetAlertCount())
	require.Equal(t, "Unread posts", item.GetAlertLabel())

	item, err = f.overview(t, cm, student).Actions(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), item.GetValue())
	require.Equal(t, int64(1), item.GetAlertCount())
}

func TestForumActionsSkipsUnreadWhenTrackingOff(t *testing.T) {
	f := newForumFixture(t, true)
	ctx := context.Background()

	course := f.gen.CreateCourse()
	student := f.gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
	teacher := f.gen.CreateAndEnrol(course, models.EnrolmentRoleEditingTeacher)
	forum, cm := f.gen.CreateForum(course, testutil.WithTrackingType(models.TrackingOff))
	f.gen.CreateDiscussion(forum, teacher)

	item, err := f.overview(t, cm, student).Actions(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), item.GetValue())
	require.Zero(t, item.GetAlertCount())
}

func TestForumDueDate(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	cases := map[string]*time.Time{
		"no_due":     nil,
		"past_due":   ptrTime(now.Add(-4 * 24 * time.Hour)),
		"future_due": ptrTime(now.Add(4 * 24 * time.Hour)),
	}

	for name, due := range cases {
		t.Run(name, func(t *testing.T) {
			f := newForumFixture(t, true)
			ctx := context.Background()

			course := f.gen.CreateCourse()
			teacher := f.gen.CreateAndEnrol(course, models.EnrolmentRoleTeacher)
			student := f.gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)

			var opts []testutil.ForumOption
			if due != nil {
				opts = append(opts, testutil.WithDueDate(*due))
			}
			_, cm := f.gen.CreateForum(course, opts...)

			item, err := f.overview(t, cm, teacher).DueDate(ctx)
			require.NoError(t, err)
			require.Nil(t, item)

			item, err = f.overview(t, cm, student).DueDate(ctx)
			require.NoError(t, err)
			require.Equal(t, "Due date", item.GetName())
			if due == nil {
				require.Nil(t, item.GetValue())
			} else {
				require.Equal(t, due.Unix(), item.GetValue())
			}
		})
	}
}

func TestForumTypeVisibleToTeachersOnly(t *testing.T) {
	cases := map[string]string{
		models.ForumTypeGeneral:  "Standard forum for general use",
		models.ForumTypeSingle:   "A single simple discussion",
		models.ForumTypeEachUser: "Each person posts one discussion",
		models.ForumTypeQandA:    "Q and A forum",
		models.ForumTypeBlog:     "Standard forum displayed in a blog-like format",
		models.ForumTypeNews:     "Announcements",
	}

	for forumType, expected := range cases {
		t.Run(forumType, func(t *testing.T) {
			f := newForumFixture(t, true)
			ctx := context.Background()

			course := f.gen.CreateCourse()
			student := f.gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
			teacher := f.gen.CreateAndEnrol(course, models.EnrolmentRoleEditingTeacher)
			_, cm := f.gen.CreateForum(course, testutil.WithForumType(forumType))

			item, err := f.overview(t, cm, student).ForumType(ctx)
			require.NoError(t, err)
			require.Nil(t, item)

			item, err = f.overview(t, cm, teacher).ForumType(ctx)
			require.NoError(t, err)
			require.Equal(t, "Forum type", item.GetName())
			require.Equal(t, forumType, item.GetValue())
			require.Equal(t, expected, item.GetContent())
		})
	}
}

func TestForumTrackingToggle(t *testing.T) {
	cases := []struct {
		mode        models.TrackingMode
		allowForced bool
		trackForums bool
		tracked     bool
		disabled    bool
	}{
		{models.TrackingOptional, true, true, true, false},
		{models.TrackingOff, true, true, false, true},
		{models.TrackingForced, true, true, true, true},
		{models.TrackingForced, false, true, true, false},
		{models.TrackingOptional, true, false, false, true},
		{models.TrackingOff, true, false, false, true},
		{models.TrackingForced, true, false, true, true},
		{models.TrackingForced, false, false, false, true},
	}

	for _, role := range []string{models.EnrolmentRoleStudent, models.EnrolmentRoleEditingTeacher} {
		for _, tc := range cases {
			name := fmt.Sprintf("%s/%s/allowforced=%t/trackforums=%t", role, tc.mode, tc.allowForced, tc.trackForums)
			t.Run(name, func(t *testing.T) {
				f := newForumFixture(t, tc.allowForced)

				course := f.gen.CreateCourse()
				user := f.gen.CreateAndEnrol(course, role, testutil.WithTrackForums(tc.trackForums))
				forum, cm := f.gen.CreateForum(course, testutil.WithTrackingType(tc.mode))

				item, err := f.overview(t, cm, user).Tracking(context.Background())
				require.NoError(t, err)
				require.Equal(t, "Tracking", item.GetName())
				require.Equal(t, tc.tracked, item.GetValue())

				content := item.GetContent()
				require.Contains(t, content, `data-type="forum-track-toggle"`)
				require.Contains(t, content, `data-action="toggle"`)
				require.Contains(t, content, fmt.Sprintf(`data-forumid="%d"`, forum.ID))
				require.Contains(t, content, fmt.Sprintf(`data-targetstate="%d"`, targetState(tc.tracked)))
				if tc.disabled {
					require.Contains(t, content, "disabled")
				} else {
					require.NotContains(t, content, "disabled")
				}
			})
		}
	}
}

func TestForumTrackingRespectsForumOptOut(t *testing.T) {
	f := newForumFixture(t, true)
	ctx := context.Background()
	forums := repository.NewForumRepository(f.db)

	course := f.gen.CreateCourse()
	teacher := f.gen.CreateAndEnrol(course, models.EnrolmentRoleEditingTeacher)
	student := f.gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
	forum, cm := f.gen.CreateForum(course)
	f.gen.CreateDiscussion(forum, teacher)

	require.NoError(t, forums.SetUntracked(ctx, forum.ID, student.ID, true))

	overview := f.overview(t, cm, student)
	item, err := overview.Tracking(ctx)
	require.NoError(t, err)
	require.Equal(t, false, item.GetValue())
	require.NotContains(t, item.GetContent(), "disabled")

	actions, err := overview.Actions(ctx)
	require.NoError(t, err)
	require.Zero(t, actions.GetAlertCount())
}

func TestForumSubscriptionToggle(t *testing.T) {
	cases := []struct {
		role       string
		mode       models.SubscriptionMode
		subscribed bool
		disabled   bool
	}{
		{models.EnrolmentRoleStudent, models.SubscriptionForced, true, true},
		{models.EnrolmentRoleStudent, models.SubscriptionDisallow, false, true},
		{models.EnrolmentRoleStudent, models.SubscriptionChoose, false, false},
		{models.EnrolmentRoleStudent, models.SubscriptionInitial, true, false},
		{models.EnrolmentRoleEditingTeacher, models.SubscriptionForced, true, true},
		{models.EnrolmentRoleEditingTeacher, models.SubscriptionDisallow, false, false},
		{models.EnrolmentRoleEditingTeacher, models.SubscriptionChoose, false, false},
		{models.EnrolmentRoleEditingTeacher, models.SubscriptionInitial, true, false},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s/%s", tc.role, tc.mode), func(t *testing.T) {
			f := newForumFixture(t, true)

			course := f.gen.CreateCourse()
			user := f.gen.CreateAndEnrol(course, tc.role)
			forum, cm := f.gen.CreateForum(course, testutil.WithForceSubscribe(tc.mode))

			item, err := f.overview(t, cm, user).Subscription(context.Background())
			require.NoError(t, err)
			require.Equal(t, "Subscribed", item.GetName())
			require.Equal(t, tc.subscribed, item.GetValue())

			content := item.GetContent()
			require.Contains(t, content, `data-type="forum-subscription-toggle"`)
			require.Contains(t, content, `data-action="toggle"`)
			require.Contains(t, content, fmt.Sprintf(`data-forumid="%d"`, forum.ID))
			require.Contains(t, content, fmt.Sprintf(`data-targetstate="%d"`, targetState(tc.subscribed)))
			if tc.disabled {
				require.Contains(t, content, "disabled")
			} else {
				require.NotContains(t, content, "disabled")
			}
		})
	}
}

func TestForumEmailDigest(t *testing.T) {
	shortNames := map[models.MailDigest]string{
		models.MailDigestOff:      "No digest",
		models.MailDigestComplete: "Complete",
		models.MailDigestSubjects: "Subjects",
	}
	cases := []struct {
		role     string
		mode     models.SubscriptionMode
		digest   models.MailDigest
		editable bool
	}{
		{models.EnrolmentRoleStudent, models.SubscriptionForced, models.MailDigestOff, true},
		{models.EnrolmentRoleStudent, models.SubscriptionDisallow, models.MailDigestOff, false},
		{models.EnrolmentRoleStudent, models.SubscriptionChoose, models.MailDigestOff, true},
		{models.EnrolmentRoleStudent, models.SubscriptionInitial, models.MailDigestOff, true},
		{models.EnrolmentRoleStudent, models.SubscriptionForced, models.MailDigestComplete, true},
		{models.EnrolmentRoleStudent, models.SubscriptionForced, models.MailDigestSubjects, true},
		{models.EnrolmentRoleEditingTeacher, models.SubscriptionForced, models.MailDigestOff, true},
		{models.EnrolmentRoleEditingTeacher, models.SubscriptionDisallow, models.MailDigestOff, true},
		{models.EnrolmentRoleEditingTeacher, models.SubscriptionChoose, models.MailDigestOff, true},
		{models.EnrolmentRoleEditingTeacher, models.SubscriptionInitial, models.MailDigestOff, true},
		{models.EnrolmentRoleEditingTeacher, models.SubscriptionForced, models.MailDigestComplete, true},
		{models.EnrolmentRoleEditingTeacher, models.SubscriptionForced, models.MailDigestSubjects, true},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s/%s/digest=%d", tc.role, tc.mode, tc.digest), func(t *testing.T) {
			f := newForumFixture(t, true)

			course := f.gen.CreateCourse()
			user := f.gen.CreateAndEnrol(course, tc.role, testutil.WithMailDigest(tc.digest))
			_, cm := f.gen.CreateForum(course, testutil.WithForceSubscribe(tc.mode))

			item, err := f.overview(t, cm, user).EmailDigest(context.Background())
			require.NoError(t, err)
			require.Equal(t, "Digest type", item.GetName())

			content := item.GetContent()
			if !tc.editable {
				require.NotContains(t, content, `data-inplaceeditable="1"`)
				require.Contains(t, content, "-")
				return
			}
			require.Contains(t, content, `data-inplaceeditable="1"`)
			require.Contains(t, content, fmt.Sprintf("Default (%s)", shortNames[tc.digest]))
		})
	}
}

func TestForumEmailDigestShowsForumPreference(t *testing.T) {
	f := newForumFixture(t, true)
	ctx := context.Background()
	forums := repository.NewForumRepository(f.db)

	course := f.gen.CreateCourse()
	student := f.gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
	forum, cm := f.gen.CreateForum(course)
	require.NoError(t, forums.SetDigest(ctx, forum.ID, student.ID, models.MailDigestSubjects))

	item, err := f.overview(t, cm, student).EmailDigest(ctx)
	require.NoError(t, err)
	require.Equal(t, int(models.MailDigestSubjects), item.GetValue())
	require.Contains(t, item.GetContent(), `data-value="2"`)
	require.Contains(t, item.GetContent(), ">Subjects</span>")
}

func TestForumDiscussions(t *testing.T) {
	f := newForumFixture(t, true)
	ctx := context.Background()

	course := f.gen.CreateCourse()
	student := f.gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
	teacher := f.gen.CreateAndEnrol(course, models.EnrolmentRoleEditingTeacher)
	forum, cm := f.gen.CreateForum(course)

	item, err := f.overview(t, cm, teacher).Discussions(ctx)
	require.NoError(t, err)
	require.Equal(t, "Discussions", item.GetName())
	require.Equal(t, int64(0), item.GetValue())

	f.gen.CreateDiscussion(forum, teacher)
	f.gen.CreateDiscussion(forum, student)
	f.gen.CreateDiscussion(forum, student)

	for _, user := range []models.User{teacher, student} {
		item, err = f.overview(t, cm, user).Discussions(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(3), item.GetValue())
	}
}

func TestForumExtraItemsOrderByRole(t *testing.T) {
	f := newForumFixture(t, true)
	ctx := context.Background()

	course := f.gen.CreateCourse()
	student := f.gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
	teacher := f.gen.CreateAndEnrol(course, models.EnrolmentRoleEditingTeacher)
	_, cm := f.gen.CreateForum(course)

	extra, err := f.overview(t, cm, teacher).ExtraItems(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{KeyForumType, KeyDiscussions, KeySubscribed, KeyEmailDigest, KeyTracking}, extra.Keys())

	extra, err = f.overview(t, cm, student).ExtraItems(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{KeyDiscussions, KeySubscribed, KeyEmailDigest, KeyTracking}, extra.Keys())

	all, err := Collect(ctx, f.overview(t, cm, student))
	require.NoError(t, err)
	require.Equal(t, []string{KeyDueDate, KeyDiscussions, KeySubscribed, KeyEmailDigest, KeyTracking, KeyPosts}, all.Keys())
}

func targetState(current bool) int {
	if current {
		return 0
	}
	return 1
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
