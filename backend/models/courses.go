package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContentKind is the presentation kind of a chapter.
type ContentKind string

const (
	ContentVideo ContentKind = "video"
	ContentText  ContentKind = "text"
	ContentOther ContentKind = "other"
)

// ParseContentKind maps unknown kinds to ContentOther.
func ParseContentKind(s string) ContentKind {
	switch ContentKind(s) {
	case ContentVideo, ContentText:
		return ContentKind(s)
	default:
		return ContentOther
	}
}

type Course struct {
	gorm.Model
	Title       string
	ShortDesc   string
	Description string
	Difficulty  string // beginner, intermediate, advanced
	AuthorID    uint
	LogoURL     string
	Sections    []Section
}

// Section ordering within a course is (OrderIndex, ID).
type Section struct {
	gorm.Model
	CourseID   uint `gorm:"index;not null"`
	Title      string
	OrderIndex int `gorm:"default:0"`
	Chapters   []Chapter
	Quiz       *Quiz
}

// Chapter ordering within a section is (OrderIndex, ID).
type Chapter struct {
	gorm.Model
	SectionID  uint `gorm:"index;not null"`
	Title      string
	Kind       ContentKind `gorm:"type:varchar(16);default:'other'"`
	Body       string      `gorm:"type:text"`
	VideoURL   string
	OrderIndex int `gorm:"default:0"`
}

// Quiz is at most one per section.
type Quiz struct {
	gorm.Model
	SectionID uint `gorm:"uniqueIndex;not null"`
	Title     string
	Questions []QuizQuestion
}

type QuizQuestion struct {
	gorm.Model
	QuizID        uint `gorm:"index;not null"`
	Question      string
	Options       datatypes.JSON // array of option strings
	SequenceOrder int
}
