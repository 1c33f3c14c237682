package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/compass-api/internal/dto"
	"github.com/noah-isme/compass-api/internal/observability"
	"github.com/noah-isme/compass-api/internal/repository"
)

// AssessmentReader serves assessment results to students and parents.
type AssessmentReader interface {
	History(ctx context.Context, actor Actor, studentID uint) (dto.AssessmentHistoryResponse, error)
	Breakdown(ctx context.Context, actor Actor, assessmentID uint) (dto.CriteriaBreakdownResponse, error)
	Children(ctx context.Context, actor Actor) ([]dto.StudentLite, error)
}

type assessmentReader struct {
	assessments repository.AssessmentRepository
	students    repository.StudentRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewAssessmentReader constructs the read side of the assessment workflow. cache may be nil.
func NewAssessmentReader(assessments repository.AssessmentRepository, students repository.StudentRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AssessmentReader {
	return &assessmentReader{
		assessments: assessments,
		students:    students,
		cache:       cache,
		cacheTTL:    ttl,
		tracer:      otel.Tracer("github.com/noah-isme/compass-api/internal/service/results"),
		logger:      logger.With().Str("component", "assessment_reader").Logger(),
	}
}

func historyCacheKey(studentID uint) string {
	return fmt.Sprintf("assessments:student:%d", studentID)
}

func (r *assessmentReader) History(ctx context.Context, actor Actor, studentID uint) (dto.AssessmentHistoryResponse, error) {
	student, err := r.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentHistoryResponse{}, ErrStudentNotFound
		}
		return dto.AssessmentHistoryResponse{}, err
	}
	if !CanViewStudent(actor, student) {
		return dto.AssessmentHistoryResponse{}, ErrNotStudentViewer
	}

	cacheKey := historyCacheKey(studentID)
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.AssessmentHistoryResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.ResultsCacheLookups().WithLabelValues("hit").Inc()
				response.CacheHit = true
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			r.logger.Warn().Err(err).Msg("failed to read results cache")
		}
		observability.ResultsCacheLookups().WithLabelValues("miss").Inc()
	}

	assessments, err := r.assessments.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.AssessmentHistoryResponse{}, err
	}

	response := dto.AssessmentHistoryResponse{
		StudentID: studentID,
		Items:     make([]dto.AssessmentSummary, 0, len(assessments)),
	}
	for _, assessment := range assessments {
		response.Items = append(response.Items, dto.NewAssessmentSummary(assessment))
	}

	if r.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := r.cache.Set(ctx, cacheKey, payload, r.cacheTTL).Err(); err != nil {
				r.logger.Warn().Err(err).Msg("failed to store results cache")
			}
		}
	}

	return response, nil
}

func (r *assessmentReader) Breakdown(ctx context.Context, actor Actor, assessmentID uint) (dto.CriteriaBreakdownResponse, error) {
	ctx, span := r.tracer.Start(ctx, "assessment.breakdown", trace.WithAttributes(
		attribute.Int64("assessment.id", int64(assessmentID)),
		attribute.String("actor.role", actor.Role),
	))
	defer span.End()

	assessment, err := r.assessments.GetWithRatings(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrAssessmentNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.CriteriaBreakdownResponse{}, err
	}

	if !CanViewStudent(actor, assessment.Student) {
		span.SetStatus(codes.Error, "forbidden")
		return dto.CriteriaBreakdownResponse{}, ErrNotStudentViewer
	}

	span.SetAttributes(attribute.Int("assessment.ratings", len(assessment.Ratings)))
	return dto.NewCriteriaBreakdownResponse(assessment), nil
}

// Children lists the students linked to a parent.
func (r *assessmentReader) Children(ctx context.Context, actor Actor) ([]dto.StudentLite, error) {
	if !actor.Is(RoleParent) {
		return nil, ErrForbidden
	}

	children, err := r.students.ChildrenOf(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewStudentLites(children), nil
}
