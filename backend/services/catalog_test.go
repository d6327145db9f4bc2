package services

import (
	"context"
	"testing"
	"time"

	"coursemarket/backend/models"
	"coursemarket/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPublishedOrdersContent(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewCatalogService(db)
	educator := testutil.CreateUser(t, db, models.RoleEducator)
	course := testutil.CreateCourse(t, db, educator, testutil.CourseSpec{Price: "10"})

	base := time.Now()
	chapters := []models.Chapter{
		{CourseID: course.ID, Order: 2, Title: "second"},
		{CourseID: course.ID, Order: 1, Title: "first-a"},
		{CourseID: course.ID, Order: 1, Title: "first-b"},
	}
	for i := range chapters {
		chapters[i].CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, db.Create(&chapters[i]).Error)
	}
	lectures := []models.Lecture{
		{ChapterID: chapters[0].ID, Order: 5, Title: "late", URL: "u"},
		{ChapterID: chapters[0].ID, Order: 5, Title: "later", URL: "u"},
		{ChapterID: chapters[0].ID, Order: 1, Title: "early", URL: "u"},
	}
	for i := range lectures {
		lectures[i].CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, db.Create(&lectures[i]).Error)
	}

	got, err := svc.GetPublished(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, got.Chapters, 3)
	assert.Equal(t, []string{"first-a", "first-b", "second"},
		[]string{got.Chapters[0].Title, got.Chapters[1].Title, got.Chapters[2].Title})

	second := got.Chapters[2].Lectures
	require.Len(t, second, 3)
	assert.Equal(t, []string{"early", "late", "later"},
		[]string{second[0].Title, second[1].Title, second[2].Title})
}

func TestListPublishedPaginates(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewCatalogService(db)
	educator := testutil.CreateUser(t, db, models.RoleEducator)
	for i := 0; i < 3; i++ {
		testutil.CreateCourse(t, db, educator, testutil.CourseSpec{Price: "10"})
	}
	testutil.CreateCourse(t, db, educator, testutil.CourseSpec{Price: "10", Unpublished: true})

	courses, total, err := svc.ListPublished(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, courses, 2)

	courses, _, err = svc.ListPublished(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, courses, 1)
}
