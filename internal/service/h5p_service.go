package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-overview-api/internal/dto"
	"github.com/noah-isme/gema-overview-api/internal/models"
	"github.com/noah-isme/gema-overview-api/internal/overview"
	"github.com/noah-isme/gema-overview-api/internal/repository"
	"github.com/noah-isme/gema-overview-api/internal/storage"
	"github.com/noah-isme/gema-overview-api/pkg/h5p"
)

var (
	// ErrActivityNotFound indicates the requested H5P activity does not exist.
	ErrActivityNotFound = errors.New("h5p activity not found")
	// ErrTrackingDisabled indicates the activity does not record attempts.
	ErrTrackingDisabled = errors.New("attempt tracking is disabled for this activity")
	// ErrNoPackage indicates the activity has no deployed package.
	ErrNoPackage = errors.New("h5p activity has no package")
	// ErrInvalidPackage indicates an uploaded file is not a usable H5P package.
	ErrInvalidPackage = errors.New("invalid h5p package")
	// ErrPackageForbidden indicates the user may not deploy packages to the activity.
	ErrPackageForbidden = errors.New("only teachers can deploy h5p packages")
)

// H5PService records attempts on H5P activities and deploys their packages.
type H5PService interface {
	RecordAttempt(ctx context.Context, activityID, userID uint, payload dto.RecordAttemptRequest) (dto.AttemptResponse, error)
	DeployPackage(ctx context.Context, activityID, userID uint, data []byte) (dto.PackageResponse, error)
}

type h5pService struct {
	activities repository.H5PRepository
	courses    repository.CourseRepository
	packages   storage.PackageStore
	inspector  *h5p.Inspector
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewH5PService builds the H5P attempt service.
func NewH5PService(activities repository.H5PRepository, courses repository.CourseRepository, packages storage.PackageStore, inspector *h5p.Inspector, validate *validator.Validate, logger zerolog.Logger) H5PService {
	return &h5pService{
		activities: activities,
		courses:    courses,
		packages:   packages,
		inspector:  inspector,
		validator:  validate,
		logger:     logger.With().Str("component", "h5p_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/gema-overview-api/internal/service/h5p"),
	}
}

func (s *h5pService) RecordAttempt(ctx context.Context, activityID, userID uint, payload dto.RecordAttemptRequest) (dto.AttemptResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AttemptResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "h5p.record_attempt", trace.WithAttributes(
		attribute.Int64("h5p.activity_id", int64(activityID)),
		attribute.Int64("user.id", int64(userID)),
	))
	defer span.End()

	activity, err := s.activities.GetActivity(spanCtx, activityID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AttemptResponse{}, ErrActivityNotFound
	}
	if err != nil {
		return dto.AttemptResponse{}, err
	}
	if !activity.EnableTracking {
		return dto.AttemptResponse{}, ErrTrackingDisabled
	}

	if _, err := loadViewer(spanCtx, s.courses, activity.CourseID, userID); err != nil {
		return dto.AttemptResponse{}, err
	}

	attempt := models.H5PAttempt{
		ActivityID: activity.ID,
		UserID:     userID,
		RawScore:   payload.RawScore,
		MaxScore:   payload.MaxScore,
		Completion: payload.Completion,
		Success:    payload.Success,
	}
	if payload.Result != nil {
		attempt.Result = datatypes.JSONMap(payload.Result)
	}

	if err := s.activities.CreateAttempt(spanCtx, &attempt); err != nil {
		span.RecordError(err)
		return dto.AttemptResponse{}, err
	}

	s.logger.Info().Uint("activity_id", activity.ID).Uint("user_id", userID).Int("attempt", attempt.Attempt).Msg("h5p attempt recorded")
	return dto.NewAttemptResponse(attempt), nil
}

func (s *h5pService) DeployPackage(ctx context.Context, activityID, userID uint, data []byte) (dto.PackageResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "h5p.deploy_package", trace.WithAttributes(
		attribute.Int64("h5p.activity_id", int64(activityID)),
		attribute.Int("h5p.package_bytes", len(data)),
	))
	defer span.End()

	activity, err := s.activities.GetActivity(spanCtx, activityID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.PackageResponse{}, ErrActivityNotFound
	}
	if err != nil {
		return dto.PackageResponse{}, err
	}

	viewer, err := loadViewer(spanCtx, s.courses, activity.CourseID, userID)
	if err != nil {
		return dto.PackageResponse{}, err
	}
	if viewer.Role != overview.RoleTeacher {
		return dto.PackageResponse{}, ErrPackageForbidden
	}

	contentType, err := s.inspector.ContentType(data)
	if err != nil {
		return dto.PackageResponse{}, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}

	ref := fmt.Sprintf("h5p/%d/%s.h5p", activity.ID, uuid.NewString())
	if err := s.packages.Put(spanCtx, ref, bytes.NewReader(data), int64(len(data))); err != nil {
		span.RecordError(err)
		return dto.PackageResponse{}, err
	}
	if err := s.activities.SetPackageRef(spanCtx, activity.ID, ref); err != nil {
		span.RecordError(err)
		return dto.PackageResponse{}, err
	}

	s.logger.Info().Uint("activity_id", activity.ID).Str("package_ref", ref).Str("content_type", contentType).Msg("h5p package deployed")
	return dto.PackageResponse{ActivityID: activity.ID, PackageRef: ref, ContentType: contentType}, nil
}

// PackageTyper resolves content types by reading deployed packages from a store.
type PackageTyper struct {
	store     storage.PackageStore
	inspector *h5p.Inspector
}

// NewPackageTyper builds a typer over store.
func NewPackageTyper(store storage.PackageStore, inspector *h5p.Inspector) *PackageTyper {
	return &PackageTyper{store: store, inspector: inspector}
}

// ContentType returns the content type title of the activity's package.
func (p *PackageTyper) ContentType(ctx context.Context, activity models.H5PActivity) (string, error) {
	if activity.PackageRef == "" {
		return "", ErrNoPackage
	}

	data, err := p.store.Open(ctx, activity.PackageRef)
	if err != nil {
		return "", fmt.Errorf("open package %s: %w", activity.PackageRef, err)
	}

	return p.inspector.ContentType(data)
}
