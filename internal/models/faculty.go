package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Faculty is a faculty document. Years is an embedded sub-collection: each
// academic year owns its semester subject configuration and is addressed by
// its own _id through the generic embedded handlers.
type Faculty struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name       string             `bson:"name" json:"name"`
	Image      string             `bson:"image,omitempty" json:"image,omitempty"`
	University primitive.ObjectID `bson:"university,omitempty" json:"university,omitempty"`
	Years      []FacultyYear      `bson:"years,omitempty" json:"years,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt,omitempty"`
}

// FacultyYear configures one study year of a faculty.
type FacultyYear struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Number         int                `bson:"number" json:"number"`
	FirstSemester  SemesterPlan       `bson:"firstSemester" json:"firstSemester"`
	SecondSemester SemesterPlan       `bson:"secondSemester" json:"secondSemester"`
}

// SemesterPlan lists the subjects taught in one semester of a faculty year.
type SemesterPlan struct {
	Subjects []SubjectConfig `bson:"subjects" json:"subjects"`
}

// SubjectConfig is the faculty-level grading/pricing configuration of a
// subject, matched by name when results are recorded.
type SubjectConfig struct {
	Name                   string  `bson:"name" json:"name"`
	Image                  string  `bson:"image,omitempty" json:"image,omitempty"`
	MaxScore               float64 `bson:"maxScore" json:"maxScore"`
	PassingMarksPercentage float64 `bson:"passingMarksPercentage" json:"passingMarksPercentage"`
	NumberOfHours          float64 `bson:"numberOfHours,omitempty" json:"numberOfHours,omitempty"`
	HourPrice              float64 `bson:"hourPrice,omitempty" json:"hourPrice,omitempty"`
	Cost                   float64 `bson:"cost,omitempty" json:"cost,omitempty"`
}
