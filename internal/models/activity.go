package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is an audit entry for state-changing actions such as recording an assessment.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}

// All returns every model managed by migrations, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Teacher{},
		&Parent{},
		&Student{},
		&Group{},
		&Competency{},
		&Criterion{},
		&PerformanceLevel{},
		&RubricEntry{},
		&Task{},
		&Submission{},
		&Assessment{},
		&CriteriaRating{},
		&ActivityLog{},
	}
}
