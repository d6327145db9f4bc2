package models

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

type Course struct {
	Base
	Title        string          `gorm:"type:varchar(255);not null" json:"course_title"`
	Description  string          `gorm:"type:text;not null" json:"course_description"`
	ThumbnailURL string          `gorm:"type:varchar(255)" json:"course_thumbnail"`
	Price        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"course_price"`
	Discount     decimal.Decimal `gorm:"type:numeric(5,2);not null;check:discount >= 0 AND discount <= 100" json:"discount"`
	IsPublished  bool            `gorm:"not null" json:"is_published"`
	EducatorID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"educator_id"`

	Chapters    []Chapter        `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course_content,omitempty"`
	Purchases   []Purchase       `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Enrollments []UserCourse     `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Progress    []CourseProgress `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Ratings     []CourseRating   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// Chapter and Lecture order fields are sort keys only; duplicates and gaps are
// allowed and ties fall back to insertion time.
type Chapter struct {
	Base
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Order    int       `gorm:"column:chapter_order;not null" json:"chapter_order"`
	Title    string    `gorm:"column:chapter_title;type:varchar(255);not null" json:"chapter_title"`
	Lectures []Lecture `gorm:"foreignKey:ChapterID;constraint:OnDelete:CASCADE" json:"chapter_content"`
}

type Lecture struct {
	Base
	ChapterID     uuid.UUID `gorm:"type:uuid;not null;index" json:"chapter_id"`
	Title         string    `gorm:"column:lecture_title;type:varchar(255);not null" json:"lecture_title"`
	Duration      int       `gorm:"column:lecture_duration;not null" json:"lecture_duration"`
	URL           string    `gorm:"column:lecture_url;type:varchar(255);not null" json:"lecture_url"`
	IsPreviewFree bool      `gorm:"not null" json:"is_preview_free"`
	Order         int       `gorm:"column:lecture_order;not null" json:"lecture_order"`
}

// DiscountedPrice is price * (100 - discount) / 100 rounded half away from
// zero to cents.
func (c *Course) DiscountedPrice() decimal.Decimal {
	return c.Price.Mul(hundred.Sub(c.Discount)).Div(hundred).Round(2)
}

func (c *Course) BeforeSave(tx *gorm.DB) error {
	if c.Price.IsNegative() {
		return errors.New("course price must not be negative")
	}
	if c.Discount.IsNegative() || c.Discount.GreaterThan(hundred) {
		return errors.New("course discount must be between 0 and 100")
	}
	return nil
}

// OrderedChapters preloads chapters and lectures in their advisory order.
func OrderedChapters(db *gorm.DB) *gorm.DB {
	return db.Preload("Chapters", func(db *gorm.DB) *gorm.DB {
		return db.Order("chapter_order ASC, created_at ASC")
	}).Preload("Chapters.Lectures", func(db *gorm.DB) *gorm.DB {
		return db.Order("lecture_order ASC, created_at ASC")
	})
}
