package db

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var ErrInvalidPositionType = errors.New("invalid position type")

type PositionType string

const (
	PositionIntern    PositionType = "intern"
	PositionVolunteer PositionType = "volunteer"
)

func (p PositionType) Valid() bool {
	return p == PositionIntern || p == PositionVolunteer
}

// Applicant is one submitted application. Rows are written once and never
// updated; optional text fields are NULL when not provided.
type Applicant struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	Name         string       `json:"name" gorm:"size:255;not null"`
	Email        string       `json:"email" gorm:"size:191;not null;uniqueIndex"`
	Phone        *string      `json:"phone" gorm:"size:50"`
	PositionType PositionType `json:"position_type" gorm:"size:20;not null;index"`
	Department   string       `json:"department" gorm:"size:100;not null;index"`
	Experience   *string      `json:"experience" gorm:"type:text"`
	Motivation   *string      `json:"motivation" gorm:"type:text"`
	Availability *string      `json:"availability" gorm:"type:text"`
	SubmittedAt  time.Time    `json:"submitted_at" gorm:"not null;autoCreateTime;index"`
}

func (Applicant) TableName() string { return "applicants" }

// BeforeCreate refuses rows with a position type outside the enumeration.
func (a *Applicant) BeforeCreate(*gorm.DB) error {
	if !a.PositionType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPositionType, a.PositionType)
	}
	return nil
}
