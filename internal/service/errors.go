package service

import (
	"errors"
	"fmt"
)

// Error kinds returned by the assessment workflow. Specific errors wrap one of these so
// callers can classify them with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("not authorized")
	ErrConfiguration = errors.New("assessment setup incomplete")
)

var (
	// ErrSubmissionNotFound indicates the submission id does not resolve.
	ErrSubmissionNotFound = fmt.Errorf("submission %w", ErrNotFound)
	// ErrAssessmentNotFound indicates the assessment id does not resolve.
	ErrAssessmentNotFound = fmt.Errorf("assessment %w", ErrNotFound)
	// ErrStudentNotFound indicates the student id does not resolve.
	ErrStudentNotFound = fmt.Errorf("student %w", ErrNotFound)
	// ErrCompetencyNotFound indicates the competency id does not resolve.
	ErrCompetencyNotFound = fmt.Errorf("competency %w", ErrNotFound)
	// ErrNoLinkedCompetency indicates the submission's task is not linked to a competency.
	ErrNoLinkedCompetency = fmt.Errorf("task has no linked competency: %w", ErrNotFound)
	// ErrNoStudentsToAssess indicates the submission resolves to an empty target set.
	ErrNoStudentsToAssess = fmt.Errorf("no students to assess: %w", ErrNotFound)

	// ErrNotTaskOwner indicates the teacher does not own the submission's task.
	ErrNotTaskOwner = fmt.Errorf("submission belongs to another teacher's task: %w", ErrForbidden)
	// ErrNotStudentViewer indicates the requester is neither the student nor their parent.
	ErrNotStudentViewer = fmt.Errorf("results belong to another student: %w", ErrForbidden)

	// ErrNoCriteria indicates the competency has no criteria.
	ErrNoCriteria = fmt.Errorf("no criteria configured for this competency: %w", ErrConfiguration)
	// ErrNoPerformanceLevels indicates the performance catalog is empty.
	ErrNoPerformanceLevels = fmt.Errorf("no performance levels configured: %w", ErrConfiguration)

	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided seed token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// ValidationError reports why submitted assessment input was rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
