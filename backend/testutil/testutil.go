// Package testutil builds throwaway SQLite databases and fixtures.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"coursemarket/backend/config"
	"coursemarket/backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Config() *config.Config {
	return &config.Config{
		DBDriver:            "sqlite",
		JWTSecret:           "testsecret",
		JWTTTL:              time.Hour,
		Currency:            "usd",
		FrontendURL:         "http://localhost:5173",
		GatewayTimeout:      2 * time.Second,
		LogFormat:           "console",
		ReconcileStaleAfter: time.Minute,
	}
}

// NewDB opens a private in-memory database and migrates it. A single open
// connection serializes concurrent transactions the way row locks would.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	id := uuid.New()
	user := &models.User{
		Name:         "user-" + id.String()[:8],
		Email:        id.String()[:8] + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// CourseSpec describes a fixture course. Lectures lists lecture counts per
// chapter.
type CourseSpec struct {
	Price       string
	Discount    string
	Unpublished bool
	Lectures    []int
}

func CreateCourse(t *testing.T, db *gorm.DB, educator *models.User, spec CourseSpec) *models.Course {
	t.Helper()
	if spec.Price == "" {
		spec.Price = "0"
	}
	if spec.Discount == "" {
		spec.Discount = "0"
	}
	course := &models.Course{
		Title:       "Course " + uuid.NewString()[:8],
		Description: "fixture",
		Price:       decimal.RequireFromString(spec.Price),
		Discount:    decimal.RequireFromString(spec.Discount),
		IsPublished: !spec.Unpublished,
		EducatorID:  educator.ID,
	}
	for ci, n := range spec.Lectures {
		chapter := models.Chapter{Order: ci + 1, Title: fmt.Sprintf("Chapter %d", ci+1)}
		for li := 0; li < n; li++ {
			chapter.Lectures = append(chapter.Lectures, models.Lecture{
				Title:    fmt.Sprintf("Lecture %d.%d", ci+1, li+1),
				Duration: 10,
				URL:      "https://video.test/" + uuid.NewString(),
				Order:    li + 1,
			})
		}
		course.Chapters = append(course.Chapters, chapter)
	}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("create course: %v", err)
	}
	return course
}

// LectureIDs returns the course's lecture ids in chapter/lecture order.
func LectureIDs(course *models.Course) []uuid.UUID {
	var ids []uuid.UUID
	for _, ch := range course.Chapters {
		for _, l := range ch.Lectures {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

func Enroll(t *testing.T, db *gorm.DB, user *models.User, course *models.Course) {
	t.Helper()
	row := models.UserCourse{UserID: user.ID, CourseID: course.ID, EnrolledAt: time.Now()}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("enroll: %v", err)
	}
}
