package models

import "gorm.io/gorm"

const RoleAdmin = "admin"

type User struct {
	gorm.Model
	Username     string `gorm:"unique;not null"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"default:user"` // user, admin
}

// All lists every model for migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&Section{},
		&Chapter{},
		&Quiz{},
		&QuizQuestion{},
		&Enrollment{},
		&ChapterProgress{},
		&SectionAccess{},
		&QuizAttempt{},
		&CourseProgress{},
	}
}
