package handler_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-overview-api/internal/dto"
	"github.com/noah-isme/gema-overview-api/internal/models"
	"github.com/noah-isme/gema-overview-api/pkg/h5p/h5ptest"
)

func TestH5PHandlerRecordAttempt(t *testing.T) {
	f := newAPIFixture(t)
	course := f.gen.CreateCourse()
	student := f.gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
	activity, _ := f.gen.CreateH5PActivity(course, "")

	resp, env := f.do(t, http.MethodPost, fmt.Sprintf("/api/v2/h5p/%d/attempts", activity.ID), student.ID,
		dto.RecordAttemptRequest{RawScore: 2, MaxScore: 4})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var attempt dto.AttemptResponse
	decodeData(t, env, &attempt)
	require.Equal(t, 1, attempt.Attempt)

	resp, env = f.do(t, http.MethodPost, fmt.Sprintf("/api/v2/h5p/%d/attempts", activity.ID), student.ID,
		dto.RecordAttemptRequest{RawScore: 5, MaxScore: 4})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "ltefield", env.Details["RawScore"])

	require.NoError(t, f.db.Model(&activity).UpdateColumn("enable_tracking", false).Error)
	resp, _ = f.do(t, http.MethodPost, fmt.Sprintf("/api/v2/h5p/%d/attempts", activity.ID), student.ID,
		dto.RecordAttemptRequest{RawScore: 1, MaxScore: 4})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func uploadPackage(t *testing.T, f apiFixture, activityID, userID uint, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("package", "content.h5p")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v2/h5p/%d/package", activityID), &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(testUserHeader, strconv.FormatUint(uint64(userID), 10))

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestH5PHandlerDeployPackage(t *testing.T) {
	f := newAPIFixture(t)
	course := f.gen.CreateCourse()
	teacher := f.gen.CreateAndEnrol(course, models.EnrolmentRoleEditingTeacher)
	student := f.gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
	activity, _ := f.gen.CreateH5PActivity(course, "")

	essay, err := h5ptest.Essay()
	require.NoError(t, err)

	require.Equal(t, fiber.StatusForbidden, uploadPackage(t, f, activity.ID, student.ID, essay).StatusCode)
	require.Equal(t, fiber.StatusBadRequest, uploadPackage(t, f, activity.ID, teacher.ID, h5ptest.Unzippable()).StatusCode)
	require.Equal(t, fiber.StatusOK, uploadPackage(t, f, activity.ID, teacher.ID, essay).StatusCode)

	var stored models.H5PActivity
	require.NoError(t, f.db.First(&stored, activity.ID).Error)
	require.NotEmpty(t, stored.PackageRef)
}
