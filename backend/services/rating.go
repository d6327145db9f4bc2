package services

import (
	"context"
	"errors"
	"fmt"

	"coursemarket/backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingService struct {
	db *gorm.DB
}

func NewRatingService(db *gorm.DB) *RatingService {
	return &RatingService{db: db}
}

// RateCourse records or overwrites the user's single rating for a course.
func (s *RatingService) RateCourse(ctx context.Context, userID, courseID uuid.UUID, rating int) error {
	if !models.ValidRating(rating) {
		return ErrInvalidRating
	}
	db := s.db.WithContext(ctx)
	if err := courseExists(db, courseID); err != nil {
		return err
	}
	if err := requireEnrollment(db, userID, courseID); err != nil {
		return err
	}

	row := models.CourseRating{UserID: userID, CourseID: courseID, Rating: rating}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

func (s *RatingService) GetRating(ctx context.Context, userID, courseID uuid.UUID) (int, error) {
	var row models.CourseRating
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrRatingNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("load rating: %w", err)
	}
	return row.Rating, nil
}
