package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-overview-api/internal/dto"
	"github.com/noah-isme/gema-overview-api/internal/models"
	"github.com/noah-isme/gema-overview-api/internal/testutil"
)

func TestForumHandlerPostingFlow(t *testing.T) {
	f := newAPIFixture(t)
	course := f.gen.CreateCourse()
	teacher := f.gen.CreateAndEnrol(course, models.EnrolmentRoleEditingTeacher)
	student := f.gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
	forum, _ := f.gen.CreateForum(course)

	resp, env := f.do(t, http.MethodPost, fmt.Sprintf("/api/v2/forums/%d/discussions", forum.ID), teacher.ID,
		dto.CreateDiscussionRequest{Subject: "Welcome", Message: "Hello class"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var post dto.PostResponse
	decodeData(t, env, &post)
	require.Equal(t, forum.ID, post.ForumID)

	resp, env = f.do(t, http.MethodPost, fmt.Sprintf("/api/v2/forums/discussions/%d/posts", post.DiscussionID), student.ID,
		dto.CreateReplyRequest{Message: "Hi"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var reply dto.PostResponse
	decodeData(t, env, &reply)
	require.Equal(t, post.ID, reply.ParentID)

	resp, env = f.do(t, http.MethodPost, fmt.Sprintf("/api/v2/forums/%d/read", forum.ID), student.ID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var marked dto.MarkReadResponse
	decodeData(t, env, &marked)
	require.Equal(t, int64(1), marked.Marked)
}

func TestForumHandlerPostingErrors(t *testing.T) {
	f := newAPIFixture(t)
	course := f.gen.CreateCourse()
	student := f.gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
	news, _ := f.gen.CreateForum(course, testutil.WithForumType(models.ForumTypeNews))
	general, _ := f.gen.CreateForum(course)

	resp, env := f.do(t, http.MethodPost, fmt.Sprintf("/api/v2/forums/%d/discussions", general.ID), student.ID,
		dto.CreateDiscussionRequest{Message: "no subject"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "required", env.Details["Subject"])

	resp, _ = f.do(t, http.MethodPost, fmt.Sprintf("/api/v2/forums/%d/discussions", news.ID), student.ID,
		dto.CreateDiscussionRequest{Subject: "News", Message: "x"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/v2/forums/9999/discussions", student.ID,
		dto.CreateDiscussionRequest{Subject: "Lost", Message: "x"})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/v2/forums/discussions/9999/posts", student.ID,
		dto.CreateReplyRequest{Message: "x"})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	teacher := f.gen.CreateAndEnrol(course, models.EnrolmentRoleEditingTeacher)
	discussion, _ := f.gen.CreateDiscussion(general, teacher)
	_, other := f.gen.CreateDiscussion(general, teacher)
	resp, _ = f.do(t, http.MethodPost, fmt.Sprintf("/api/v2/forums/discussions/%d/posts", discussion.ID), student.ID,
		dto.CreateReplyRequest{ParentID: other.ID, Message: "x"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestForumHandlerPreferences(t *testing.T) {
	f := newAPIFixture(t)
	course := f.gen.CreateCourse()
	student := f.gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
	forum, _ := f.gen.CreateForum(course)
	forced, _ := f.gen.CreateForum(course, testutil.WithForceSubscribe(models.SubscriptionForced), testutil.WithTrackingType(models.TrackingOff))

	disabled := false
	resp, env := f.do(t, http.MethodPut, fmt.Sprintf("/api/v2/forums/%d/tracking", forum.ID), student.ID, dto.ToggleRequest{Enabled: &disabled})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var toggle dto.ToggleResponse
	decodeData(t, env, &toggle)
	require.False(t, toggle.Enabled)

	resp, _ = f.do(t, http.MethodPut, fmt.Sprintf("/api/v2/forums/%d/tracking", forced.ID), student.ID, dto.ToggleRequest{Enabled: &disabled})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, env = f.do(t, http.MethodPut, fmt.Sprintf("/api/v2/forums/%d/subscription", forum.ID), student.ID, map[string]any{})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "required", env.Details["Enabled"])

	resp, _ = f.do(t, http.MethodPut, fmt.Sprintf("/api/v2/forums/%d/subscription", forced.ID), student.ID, dto.ToggleRequest{Enabled: &disabled})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	digest := int(models.MailDigestSubjects)
	resp, env = f.do(t, http.MethodPut, fmt.Sprintf("/api/v2/forums/%d/digest", forum.ID), student.ID, dto.DigestRequest{MailDigest: &digest})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var digestResponse dto.DigestResponse
	decodeData(t, env, &digestResponse)
	require.Equal(t, digest, digestResponse.MailDigest)

	invalid := 5
	resp, env = f.do(t, http.MethodPut, fmt.Sprintf("/api/v2/forums/%d/digest", forum.ID), student.ID, dto.DigestRequest{MailDigest: &invalid})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "max", env.Details["MailDigest"])
}
