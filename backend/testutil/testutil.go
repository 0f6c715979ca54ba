// Package testutil provides an in-memory database and seed helpers for tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"learnflow/backend/models"
	"learnflow/backend/utils"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// DB returns a fresh, migrated in-memory sqlite database private to tb.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(tb.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("test db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := utils.Migrate(db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return db
}

func Logger(tb testing.TB) *zap.Logger {
	return zaptest.NewLogger(tb)
}

func SeedUser(tb testing.TB, db *gorm.DB, username, role string) *models.User {
	tb.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SectionSeed describes one section; chapters get order = position.
type SectionSeed struct {
	Title    string
	Order    int
	Chapters []string
	Kind     models.ContentKind
	Quiz     bool
}

// SeedCourse creates a course and returns it with sections, chapters and
// quizzes populated in creation order.
func SeedCourse(tb testing.TB, db *gorm.DB, title string, sections ...SectionSeed) *models.Course {
	tb.Helper()
	course := &models.Course{Title: title}
	if err := db.Create(course).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}

	for i, ss := range sections {
		order := ss.Order
		if order == 0 {
			order = i + 1
		}
		section := models.Section{CourseID: course.ID, Title: ss.Title, OrderIndex: order}
		if err := db.Create(&section).Error; err != nil {
			tb.Fatalf("seed section: %v", err)
		}
		kind := ss.Kind
		if kind == "" {
			kind = models.ContentText
		}
		for j, chTitle := range ss.Chapters {
			ch := models.Chapter{SectionID: section.ID, Title: chTitle, Kind: kind, OrderIndex: j + 1}
			if err := db.Create(&ch).Error; err != nil {
				tb.Fatalf("seed chapter: %v", err)
			}
			section.Chapters = append(section.Chapters, ch)
		}
		if ss.Quiz {
			quiz := models.Quiz{SectionID: section.ID, Title: ss.Title + " quiz"}
			if err := db.Create(&quiz).Error; err != nil {
				tb.Fatalf("seed quiz: %v", err)
			}
			q := models.QuizQuestion{QuizID: quiz.ID, Question: "Why?", Options: datatypes.JSON(`["because","why not"]`), SequenceOrder: 1}
			if err := db.Create(&q).Error; err != nil {
				tb.Fatalf("seed quiz question: %v", err)
			}
			section.Quiz = &quiz
		}
		course.Sections = append(course.Sections, section)
	}
	return course
}

func SeedEnrollment(tb testing.TB, db *gorm.DB, userID, courseID uint) {
	tb.Helper()
	if err := db.Create(&models.Enrollment{UserID: userID, CourseID: courseID, Status: "ENROLLED"}).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
}
