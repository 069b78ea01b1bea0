package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-overview-api/internal/handler"
	"github.com/noah-isme/gema-overview-api/internal/middleware"
	"github.com/noah-isme/gema-overview-api/internal/overview"
	"github.com/noah-isme/gema-overview-api/internal/repository"
	"github.com/noah-isme/gema-overview-api/internal/service"
	"github.com/noah-isme/gema-overview-api/internal/storage"
	"github.com/noah-isme/gema-overview-api/internal/testutil"
	"github.com/noah-isme/gema-overview-api/pkg/h5p"
)

const testUserHeader = "X-Test-User"

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Meta    map[string]any    `json:"meta"`
	Details map[string]string `json:"details"`
}

type apiFixture struct {
	app     *fiber.App
	db      *gorm.DB
	gen     *testutil.Generator
	tracker service.ReadTracker
	store   storage.PackageStore
}

// newAPIFixture wires the real services over sqlite. The test user comes from a header instead of a token.
func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db := testutil.NewDB(t)
	validate := validator.New(validator.WithRequiredStructEnabled())

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	inspector, err := h5p.NewInspector()
	require.NoError(t, err)

	forums := repository.NewForumRepository(db)
	courses := repository.NewCourseRepository(db)
	h5pRepo := repository.NewH5PRepository(db)
	tracker := service.NewReadTracker(forums, nil, nil, service.ReadTrackerConfig{}, logger)

	factory := service.NewOverviewFactory(service.OverviewDeps{
		Forums:   forums,
		H5P:      h5pRepo,
		Courses:  courses,
		Tracker:  tracker,
		Packages: service.NewPackageTyper(store, inspector),
		Logger:   logger,
	})

	app := fiber.New()
	api := app.Group("/api/v2", func(c *fiber.Ctx) error {
		if raw := c.Get(testUserHeader); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err == nil {
				c.Locals(middleware.LocalUserID, uint(id))
			}
		}
		return c.Next()
	})
	handler.NewOverviewHandler(service.NewOverviewService(courses, factory, logger), logger).Register(api)
	handler.NewForumHandler(service.NewForumService(forums, courses, tracker, overview.ForumSettings{}, validate, logger), validate, logger).Register(api.Group("/forums"))
	handler.NewH5PHandler(service.NewH5PService(h5pRepo, courses, store, inspector, validate, logger), logger).Register(api.Group("/h5p"))
	handler.NewAdminCacheHandler(tracker, logger).Register(api.Group("/admin"))

	return apiFixture{app: app, db: db, gen: testutil.NewGenerator(t, db), tracker: tracker, store: store}
}

func (f apiFixture) do(t *testing.T, method, path string, userID uint, body any) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set(testUserHeader, strconv.FormatUint(uint64(userID), 10))
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	var out envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp, out
}

func decodeData(t *testing.T, env envelope, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, target))
}
