package models

import (
	"time"

	"github.com/google/uuid"
)

// UserCourse is an enrollment. The composite key keeps at most one row per
// user and course. It carries no reference back to a purchase.
type UserCourse struct {
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	CourseID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"course_id"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolled_at"`
}

func (UserCourse) TableName() string {
	return "user_courses"
}
