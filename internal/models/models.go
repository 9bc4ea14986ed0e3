// internal/models/models.go

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Question is a row in the question bank. The bank is read-only from the
// game's perspective; rows are loaded out of band.
type Question struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	Content    string    `gorm:"not null"` // Question text
	Difficulty string    `gorm:"not null;index"`
	Answers    []Answer  `gorm:"foreignKey:QuestionID"`
	CreatedAt  time.Time
}

// Answer is one board slot of a question. Points come from the answer's
// difficulty score and are fixed once the question is drawn into a round.
type Answer struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	QuestionID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Content      string    `gorm:"not null"`
	Points       int       `gorm:"not null"`
	DisplayOrder int       `gorm:"not null"`
}

// BeforeCreate hooks to generate UUIDs
func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
