package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/compass-api/internal/dto"
	"github.com/noah-isme/compass-api/internal/models"
	"github.com/noah-isme/compass-api/internal/observability"
	"github.com/noah-isme/compass-api/internal/repository"
)

const activityEntitySubmission = "submission"

// AssessmentService drives the teacher side of the assessment workflow.
type AssessmentService interface {
	Submissions(ctx context.Context, actor Actor) ([]dto.SubmissionSummary, error)
	Prepare(ctx context.Context, actor Actor, submissionID uint) (dto.AssessmentFormResponse, error)
	Record(ctx context.Context, actor Actor, submissionID uint, payload dto.RecordAssessmentRequest) (dto.RecordAssessmentResponse, error)
}

// AssessmentDependencies groups the collaborators of the assessment service.
type AssessmentDependencies struct {
	Submissions repository.SubmissionRepository
	Assessments repository.AssessmentRepository
	Catalog     CatalogService
	Rubric      repository.CatalogRepository
	Resolver    SubmissionResolver
	Activity    ActivityService
	Events      EventPublisher
	Cache       *redis.Client
}

type assessmentService struct {
	deps      AssessmentDependencies
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAssessmentService constructs the assessment service.
func NewAssessmentService(deps AssessmentDependencies, validate *validator.Validate, logger zerolog.Logger) AssessmentService {
	return &assessmentService{
		deps:      deps,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/compass-api/internal/service/assessment"),
		logger:    logger.With().Str("component", "assessment_service").Logger(),
		now:       time.Now,
	}
}

func (s *assessmentService) Submissions(ctx context.Context, actor Actor) ([]dto.SubmissionSummary, error) {
	if !actor.Is(RoleTeacher) {
		return nil, ErrForbidden
	}

	submissions, err := s.deps.Submissions.ListForTeacher(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.SubmissionSummary, 0, len(submissions))
	for _, submission := range submissions {
		summaries = append(summaries, dto.NewSubmissionSummary(submission))
	}
	return summaries, nil
}

func (s *assessmentService) Prepare(ctx context.Context, actor Actor, submissionID uint) (dto.AssessmentFormResponse, error) {
	target, criteria, levels, err := s.load(ctx, actor, submissionID)
	if err != nil {
		return dto.AssessmentFormResponse{}, err
	}

	rubric, err := s.deps.Rubric.RubricByCompetency(ctx, target.Competency.ID)
	if err != nil {
		return dto.AssessmentFormResponse{}, err
	}

	activity := []dto.ActivityResponse{}
	if s.deps.Activity != nil {
		activity, err = s.deps.Activity.ListForEntity(ctx, activityEntitySubmission, submissionID)
		if err != nil {
			return dto.AssessmentFormResponse{}, err
		}
	}

	return dto.AssessmentFormResponse{
		Submission:        dto.NewSubmissionSummary(target.Submission),
		Competency:        dto.NewCompetencyResponse(target.Competency),
		Students:          dto.NewStudentLites(target.Students),
		Criteria:          dto.NewCriterionResponses(criteria),
		PerformanceLevels: dto.NewPerformanceLevelResponses(levels),
		Rubric:            dto.NewRubricEntryResponses(rubric),
		Activity:          activity,
	}, nil
}

func (s *assessmentService) Record(ctx context.Context, actor Actor, submissionID uint, payload dto.RecordAssessmentRequest) (dto.RecordAssessmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assessment.record", trace.WithAttributes(
		attribute.Int64("assessment.submission_id", int64(submissionID)),
		attribute.Int64("assessment.student_id", int64(payload.StudentID)),
		attribute.Int64("assessment.actor_id", int64(actor.ID)),
	))
	defer span.End()

	response, err := s.record(ctx, actor, submissionID, payload)
	if err != nil {
		reason := rejectionReason(err)
		observability.AssessmentsRejected().WithLabelValues(reason).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		return dto.RecordAssessmentResponse{}, err
	}

	span.SetAttributes(
		attribute.Int64("assessment.id", int64(response.AssessmentID)),
		attribute.Float64("assessment.overall_score", response.OverallScore),
	)
	return response, nil
}

func (s *assessmentService) record(ctx context.Context, actor Actor, submissionID uint, payload dto.RecordAssessmentRequest) (dto.RecordAssessmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RecordAssessmentResponse{}, err
	}

	target, criteria, levels, err := s.load(ctx, actor, submissionID)
	if err != nil {
		return dto.RecordAssessmentResponse{}, err
	}

	ratings, err := s.checkRatings(payload.Ratings, criteria, levels, target.Competency)
	if err != nil {
		return dto.RecordAssessmentResponse{}, err
	}

	if !target.Includes(payload.StudentID) {
		return dto.RecordAssessmentResponse{}, validationErrorf("student %d is not part of this submission", payload.StudentID)
	}

	write := repository.AssessmentWrite{
		SubmissionID: target.Submission.ID,
		StudentID:    payload.StudentID,
		TaskID:       target.Submission.TaskID,
		CompetencyID: target.Competency.ID,
		Feedback:     s.clean(payload.GeneralFeedback),
		Ratings:      ratings,
		AssessedAt:   s.now(),
	}

	assessment, err := s.deps.Assessments.Record(ctx, write)
	if err != nil {
		if errors.Is(err, repository.ErrPerformanceLevelNotFound) {
			return dto.RecordAssessmentResponse{}, validationErrorf("invalid performance level: %v", err)
		}
		return dto.RecordAssessmentResponse{}, err
	}

	var score float64
	if assessment.OverallScore != nil {
		score = *assessment.OverallScore
	}

	kind := "individual"
	if target.Submission.IsGroup() {
		kind = "group"
	}
	observability.AssessmentsRecorded().WithLabelValues(kind).Inc()

	s.afterRecord(ctx, actor, target, assessment, score)

	return dto.RecordAssessmentResponse{
		AssessmentID: assessment.ID,
		StudentID:    assessment.StudentID,
		OverallScore: score,
		AssessedAt:   assessment.AssessedAt,
	}, nil
}

// load authorizes the teacher and gathers the submission's target set, criteria and levels.
func (s *assessmentService) load(ctx context.Context, actor Actor, submissionID uint) (AssessmentTarget, []models.Criterion, []models.PerformanceLevel, error) {
	submission, err := s.deps.Submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AssessmentTarget{}, nil, nil, ErrSubmissionNotFound
		}
		return AssessmentTarget{}, nil, nil, err
	}

	if !CanAssess(actor, submission.Task) {
		return AssessmentTarget{}, nil, nil, ErrNotTaskOwner
	}

	target, err := s.deps.Resolver.Resolve(ctx, submission)
	if err != nil {
		return AssessmentTarget{}, nil, nil, err
	}

	criteria, err := s.deps.Catalog.CriteriaFor(ctx, target.Competency.ID)
	if err != nil {
		return AssessmentTarget{}, nil, nil, err
	}

	levels, err := s.deps.Catalog.PerformanceLevels(ctx)
	if err != nil {
		return AssessmentTarget{}, nil, nil, err
	}

	return target, criteria, levels, nil
}

func (s *assessmentService) checkRatings(inputs []dto.RatingInput, criteria []models.Criterion, levels []models.PerformanceLevel, competency models.Competency) ([]repository.RatingWrite, error) {
	if len(inputs) == 0 {
		return nil, validationErrorf("no criteria selected")
	}

	known := make(map[uint]struct{}, len(criteria))
	for _, criterion := range criteria {
		known[criterion.ID] = struct{}{}
	}

	for _, input := range inputs {
		if _, ok := known[input.CriterionID]; !ok {
			return nil, validationErrorf("criterion %d does not belong to competency %q", input.CriterionID, competency.Name)
		}
	}

	catalog := make(map[uint]struct{}, len(levels))
	for _, level := range levels {
		catalog[level.ID] = struct{}{}
	}

	seen := make(map[uint]struct{}, len(inputs))
	ratings := make([]repository.RatingWrite, 0, len(inputs))
	for _, input := range inputs {
		if _, ok := catalog[input.PerformanceLevelID]; !ok {
			return nil, validationErrorf("performance level %d does not exist", input.PerformanceLevelID)
		}
		if _, dup := seen[input.CriterionID]; dup {
			return nil, validationErrorf("criterion %d rated more than once", input.CriterionID)
		}
		seen[input.CriterionID] = struct{}{}

		ratings = append(ratings, repository.RatingWrite{
			CriterionID:        input.CriterionID,
			PerformanceLevelID: input.PerformanceLevelID,
			Feedback:           s.clean(input.Feedback),
		})
	}

	return ratings, nil
}

// afterRecord runs side effects that must not fail the committed assessment.
func (s *assessmentService) afterRecord(ctx context.Context, actor Actor, target AssessmentTarget, assessment models.Assessment, score float64) {
	if s.deps.Cache != nil {
		if err := s.deps.Cache.Del(ctx, historyCacheKey(assessment.StudentID)).Err(); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", assessment.StudentID).Msg("failed to invalidate results cache")
		}
	}

	if s.deps.Activity != nil {
		submissionID := target.Submission.ID
		_, err := s.deps.Activity.Record(ctx, ActivityEntry{
			Actor:      actor,
			Action:     "assessment.recorded",
			EntityType: activityEntitySubmission,
			EntityID:   &submissionID,
			Metadata: map[string]interface{}{
				"assessment_id": assessment.ID,
				"student_id":    assessment.StudentID,
				"task_id":       assessment.TaskID,
				"competency_id": assessment.CompetencyID,
				"overall_score": score,
			},
		})
		if err != nil {
			s.logger.Warn().Err(err).Uint("assessment_id", assessment.ID).Msg("failed to record assessment activity")
		}
	}

	if s.deps.Events != nil {
		err := s.deps.Events.PublishAssessmentRecorded(ctx, AssessmentRecordedEvent{
			AssessmentID: assessment.ID,
			SubmissionID: target.Submission.ID,
			StudentID:    assessment.StudentID,
			TaskID:       assessment.TaskID,
			CompetencyID: assessment.CompetencyID,
			TeacherID:    actor.ID,
			OverallScore: score,
			AssessedAt:   assessment.AssessedAt,
		})
		if err != nil {
			s.logger.Warn().Err(err).Uint("assessment_id", assessment.ID).Msg("failed to publish assessment event")
		}
	}
}

func (s *assessmentService) clean(text string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(text))
}

func rejectionReason(err error) string {
	var validationErrors validator.ValidationErrors
	switch {
	case IsValidationError(err), errors.As(err, &validationErrors):
		return "validation"
	case errors.Is(err, ErrForbidden):
		return "authorization"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "system"
	}
}
