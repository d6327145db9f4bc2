package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CourseProgress struct {
	Base
	UserID            uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_course" json:"user_id"`
	CourseID          uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_course" json:"course_id"`
	CompletedLectures datatypes.JSONSlice[string] `gorm:"column:lecture_completed" json:"lecture_completed"`
	Completed         bool                        `gorm:"not null" json:"completed"`
}

func (CourseProgress) TableName() string {
	return "course_progresses"
}

// AddLecture inserts the id with set semantics and reports whether it was new.
func (p *CourseProgress) AddLecture(lectureID string) bool {
	for _, id := range p.CompletedLectures {
		if id == lectureID {
			return false
		}
	}
	p.CompletedLectures = append(p.CompletedLectures, lectureID)
	return true
}

// Recompute derives the completed flag from the course's current lecture
// count, so new content can flip a finished course back to incomplete.
func (p *CourseProgress) Recompute(totalLectures int64) {
	p.Completed = totalLectures > 0 && int64(len(p.CompletedLectures)) >= totalLectures
}
