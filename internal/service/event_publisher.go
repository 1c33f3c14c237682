package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// AssessmentRecordedEvent is emitted after an assessment commits.
type AssessmentRecordedEvent struct {
	EventID      string    `json:"event_id"`
	AssessmentID uint      `json:"assessment_id"`
	SubmissionID uint      `json:"submission_id"`
	StudentID    uint      `json:"student_id"`
	TaskID       uint      `json:"task_id"`
	CompetencyID uint      `json:"competency_id"`
	TeacherID    uint      `json:"teacher_id"`
	OverallScore float64   `json:"overall_score"`
	AssessedAt   time.Time `json:"assessed_at"`
}

// EventPublisher delivers assessment events to downstream consumers.
type EventPublisher interface {
	PublishAssessmentRecorded(ctx context.Context, event AssessmentRecordedEvent) error
}

type natsEventPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSEventPublisher publishes events on the given subject. It returns nil when conn is nil.
func NewNATSEventPublisher(conn *nats.Conn, subject string) EventPublisher {
	if conn == nil || subject == "" {
		return nil
	}
	return &natsEventPublisher{conn: conn, subject: subject}
}

func (p *natsEventPublisher) PublishAssessmentRecorded(ctx context.Context, event AssessmentRecordedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(p.subject)
	msg.Header.Set("Nats-Msg-Id", event.EventID)
	msg.Data = payload

	return p.conn.PublishMsg(msg)
}
