package services

import (
	"context"
	"errors"
	"fmt"

	"coursemarket/backend/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Progress struct {
	CompletedLectures []string `json:"completed_lectures"`
	Completed         bool     `json:"completed"`
	Ratio             float64  `json:"ratio"`
	TotalLectures     int64    `json:"total_lectures"`
}

func newProgress(p *models.CourseProgress, total int64) *Progress {
	out := &Progress{CompletedLectures: []string{}, TotalLectures: total}
	if p != nil {
		out.CompletedLectures = append(out.CompletedLectures, p.CompletedLectures...)
		out.Completed = p.Completed
	}
	if total > 0 {
		out.Ratio = float64(len(out.CompletedLectures)) / float64(total)
		if out.Ratio > 1 {
			out.Ratio = 1
		}
	}
	return out
}

type ProgressService struct {
	db *gorm.DB
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{db: db}
}

// MarkLectureComplete adds the lecture to the user's completed set and
// re-evaluates completion against the course's current lecture count.
func (s *ProgressService) MarkLectureComplete(ctx context.Context, userID, courseID, lectureID uuid.UUID) (*Progress, error) {
	db := s.db.WithContext(ctx)
	if err := courseExists(db, courseID); err != nil {
		return nil, err
	}
	if err := requireEnrollment(db, userID, courseID); err != nil {
		return nil, err
	}

	var n int64
	err := db.Model(&models.Lecture{}).
		Joins("JOIN chapters ON chapters.id = lectures.chapter_id").
		Where("lectures.id = ? AND chapters.course_id = ?", lectureID, courseID).
		Count(&n).Error
	if err != nil {
		return nil, fmt.Errorf("find lecture: %w", err)
	}
	if n == 0 {
		return nil, ErrLectureNotFound
	}

	var out *Progress
	err = db.Transaction(func(tx *gorm.DB) error {
		seed := models.CourseProgress{
			UserID:            userID,
			CourseID:          courseID,
			CompletedLectures: datatypes.JSONSlice[string]{},
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return fmt.Errorf("ensure progress: %w", err)
		}

		var progress models.CourseProgress
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			First(&progress).Error; err != nil {
			return fmt.Errorf("lock progress: %w", err)
		}

		total, err := lectureCount(tx, courseID)
		if err != nil {
			return fmt.Errorf("count lectures: %w", err)
		}
		added := progress.AddLecture(lectureID.String())
		wasCompleted := progress.Completed
		progress.Recompute(total)
		if added || wasCompleted != progress.Completed {
			if err := tx.Save(&progress).Error; err != nil {
				return fmt.Errorf("save progress: %w", err)
			}
		}
		out = newProgress(&progress, total)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetProgress returns the zero progress when nothing has been recorded yet.
func (s *ProgressService) GetProgress(ctx context.Context, userID, courseID uuid.UUID) (*Progress, error) {
	db := s.db.WithContext(ctx)
	if err := courseExists(db, courseID); err != nil {
		return nil, err
	}
	total, err := lectureCount(db, courseID)
	if err != nil {
		return nil, fmt.Errorf("count lectures: %w", err)
	}

	var progress models.CourseProgress
	err = db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newProgress(nil, total), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return newProgress(&progress, total), nil
}
