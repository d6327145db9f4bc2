package services

import (
	"context"
	"errors"
	"fmt"

	"coursemarket/backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) ListPublished(ctx context.Context, page, pageSize int) ([]models.Course, int64, error) {
	db := s.db.WithContext(ctx).Model(&models.Course{}).Where("is_published = ?", true).Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	var courses []models.Course
	if err := db.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}
	return courses, total, nil
}

// GetPublished loads a published course with chapters and lectures sorted by
// their order fields.
func (s *CatalogService) GetPublished(ctx context.Context, courseID uuid.UUID) (*models.Course, error) {
	var course models.Course
	err := models.OrderedChapters(s.db.WithContext(ctx)).
		Where("id = ? AND is_published = ?", courseID, true).
		First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	return &course, nil
}
