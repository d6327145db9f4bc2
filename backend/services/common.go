package services

import (
	"errors"

	"coursemarket/backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func findPublishedCourse(db *gorm.DB, courseID uuid.UUID) (*models.Course, error) {
	var course models.Course
	err := db.Where("id = ? AND is_published = ?", courseID, true).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func courseExists(db *gorm.DB, courseID uuid.UUID) error {
	var n int64
	if err := db.Model(&models.Course{}).Where("id = ?", courseID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrCourseNotFound
	}
	return nil
}

func isEnrolled(db *gorm.DB, userID, courseID uuid.UUID) (bool, error) {
	var n int64
	err := db.Model(&models.UserCourse{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&n).Error
	return n > 0, err
}

func requireEnrollment(db *gorm.DB, userID, courseID uuid.UUID) error {
	ok, err := isEnrolled(db, userID, courseID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotEnrolled
	}
	return nil
}

func lectureCount(db *gorm.DB, courseID uuid.UUID) (int64, error) {
	var n int64
	err := db.Model(&models.Lecture{}).
		Joins("JOIN chapters ON chapters.id = lectures.chapter_id").
		Where("chapters.course_id = ?", courseID).
		Count(&n).Error
	return n, err
}
