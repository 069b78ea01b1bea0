package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-overview-api/internal/dto"
	"github.com/noah-isme/gema-overview-api/internal/models"
	"github.com/noah-isme/gema-overview-api/internal/observability"
	"github.com/noah-isme/gema-overview-api/internal/overview"
	"github.com/noah-isme/gema-overview-api/internal/repository"
)

// ErrCourseModuleNotFound indicates the requested course module does not exist.
var ErrCourseModuleNotFound = errors.New("course module not found")

// OverviewService computes activity overviews for a requesting user.
type OverviewService interface {
	ActivityOverview(ctx context.Context, cmID, userID uint) (dto.ActivityOverviewResponse, error)
	CourseOverview(ctx context.Context, courseID uint, moduleType string, userID uint) (dto.CourseOverviewResponse, error)
}

type overviewService struct {
	courses repository.CourseRepository
	factory *overview.Factory
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewOverviewService builds the overview service on top of a provider factory.
func NewOverviewService(courses repository.CourseRepository, factory *overview.Factory, logger zerolog.Logger) OverviewService {
	return &overviewService{
		courses: courses,
		factory: factory,
		logger:  logger.With().Str("component", "overview_service").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/gema-overview-api/internal/service/overview"),
	}
}

func (s *overviewService) ActivityOverview(ctx context.Context, cmID, userID uint) (dto.ActivityOverviewResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "overview.activity", trace.WithAttributes(
		attribute.Int64("cm.id", int64(cmID)),
		attribute.Int64("user.id", int64(userID)),
	))
	defer span.End()

	cm, err := s.courses.GetCourseModule(spanCtx, cmID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ActivityOverviewResponse{}, ErrCourseModuleNotFound
	}
	if err != nil {
		return dto.ActivityOverviewResponse{}, err
	}

	viewer, err := loadViewer(spanCtx, s.courses, cm.CourseID, userID)
	if err != nil {
		return dto.ActivityOverviewResponse{}, err
	}

	response, err := s.build(spanCtx, cm, viewer)
	if err != nil {
		span.RecordError(err)
		return dto.ActivityOverviewResponse{}, err
	}
	return response, nil
}

func (s *overviewService) CourseOverview(ctx context.Context, courseID uint, moduleType string, userID uint) (dto.CourseOverviewResponse, error) {
	if !s.factory.Supports(moduleType) {
		return dto.CourseOverviewResponse{}, fmt.Errorf("%w: %s", overview.ErrUnsupportedModule, moduleType)
	}

	spanCtx, span := s.tracer.Start(ctx, "overview.course", trace.WithAttributes(
		attribute.Int64("course.id", int64(courseID)),
		attribute.String("module.type", moduleType),
		attribute.Int64("user.id", int64(userID)),
	))
	defer span.End()

	viewer, err := loadViewer(spanCtx, s.courses, courseID, userID)
	if err != nil {
		return dto.CourseOverviewResponse{}, err
	}

	modules, err := s.courses.ListCourseModules(spanCtx, courseID, moduleType)
	if err != nil {
		return dto.CourseOverviewResponse{}, err
	}

	activities := make([]dto.ActivityOverviewResponse, 0, len(modules))
	for _, cm := range modules {
		if !cm.Visible && viewer.Role != overview.RoleTeacher {
			continue
		}
		activity, err := s.build(spanCtx, cm, viewer)
		if err != nil {
			span.RecordError(err)
			return dto.CourseOverviewResponse{}, err
		}
		activities = append(activities, activity)
	}

	return dto.CourseOverviewResponse{
		CourseID:   courseID,
		ModuleType: moduleType,
		Activities: activities,
	}, nil
}

func (s *overviewService) build(ctx context.Context, cm models.CourseModule, viewer overview.Viewer) (dto.ActivityOverviewResponse, error) {
	start := time.Now()
	role := viewer.Role.String()
	defer func() {
		observability.OverviewBuildLatency().WithLabelValues(cm.ModuleType).Observe(time.Since(start).Seconds())
	}()

	provider, err := s.factory.Create(ctx, cm, viewer)
	if err != nil {
		observability.OverviewBuilds().WithLabelValues(cm.ModuleType, role, "error").Inc()
		if errors.Is(err, overview.ErrUnsupportedModule) {
			s.logger.Error().Err(err).Uint("cm_id", cm.ID).Msg("no overview provider registered")
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityOverviewResponse{}, fmt.Errorf("%w: %v", ErrCourseModuleNotFound, err)
		}
		return dto.ActivityOverviewResponse{}, err
	}

	items, err := overview.Collect(ctx, provider)
	if err != nil {
		observability.OverviewBuilds().WithLabelValues(cm.ModuleType, role, "error").Inc()
		return dto.ActivityOverviewResponse{}, err
	}

	observability.OverviewBuilds().WithLabelValues(cm.ModuleType, role, "ok").Inc()
	for _, key := range items.Keys() {
		observability.OverviewItems().WithLabelValues(cm.ModuleType, key).Inc()
	}

	return dto.NewActivityOverviewResponse(cm, viewer.Role, items), nil
}

// OverviewDeps wires the providers of every supported module type.
type OverviewDeps struct {
	Forums   repository.ForumRepository
	H5P      repository.H5PRepository
	Courses  repository.CourseRepository
	Tracker  ReadTracker
	Packages overview.PackageTyper
	Settings overview.ForumSettings
	Logger   zerolog.Logger
}

// NewOverviewFactory registers the forum and H5P providers.
func NewOverviewFactory(deps OverviewDeps) *overview.Factory {
	factory := overview.NewFactory()
	factory.Register(models.ModuleForum, overview.NewForumBuilder(overview.ForumDeps{
		Store:    deps.Forums,
		Unread:   deps.Tracker,
		Settings: deps.Settings,
	}))
	factory.Register(models.ModuleH5PActivity, overview.NewH5PBuilder(overview.H5PDeps{
		Store:    deps.H5P,
		Enrolled: deps.Courses,
		Packages: deps.Packages,
		Logger:   deps.Logger,
	}))
	return factory
}
