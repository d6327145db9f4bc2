package models

import "github.com/google/uuid"

const (
	MinRating = 1
	MaxRating = 5
)

type CourseRating struct {
	Base
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_user_course" json:"user_id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_user_course" json:"course_id"`
	Rating   int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
}

func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
