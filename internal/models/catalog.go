package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// University is a top-level institution document.
type University struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt,omitempty"`
}

// Department groups courses inside a faculty.
type Department struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Faculty   primitive.ObjectID `bson:"faculty,omitempty" json:"faculty,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt,omitempty"`
}

// Course is a priced, taught unit offered by a department.
type Course struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name          string             `bson:"name" json:"name"`
	Image         string             `bson:"image,omitempty" json:"image,omitempty"`
	Department    primitive.ObjectID `bson:"department,omitempty" json:"department,omitempty"`
	NumberOfHours float64            `bson:"numberOfHours,omitempty" json:"numberOfHours,omitempty"`
	HourPrice     float64            `bson:"hourPrice,omitempty" json:"hourPrice,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt,omitempty"`
}

// Subject is the catalog entry students see; grading bounds live in the
// faculty year configuration (SubjectConfig).
type Subject struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name          string             `bson:"name" json:"name"`
	Image         string             `bson:"image,omitempty" json:"image,omitempty"`
	Year          int                `bson:"year,omitempty" json:"year,omitempty"`
	Semester      int                `bson:"semester,omitempty" json:"semester,omitempty"`
	NumberOfHours float64            `bson:"numberOfHours,omitempty" json:"numberOfHours,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt,omitempty"`
}

// StudentCourseRecord links a student to a course for one academic year and
// term. The (user, course, academicYear, term) tuple is unique; the store
// index is the authoritative guard.
type StudentCourseRecord struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User              primitive.ObjectID `bson:"user" json:"user"`
	Course            primitive.ObjectID `bson:"course" json:"course"`
	StudentNationalID string             `bson:"studentNationalId" json:"studentNationalId"`
	AcademicYear      int                `bson:"academicYear" json:"academicYear"`
	Term              float64            `bson:"term" json:"term"`
	PreFinalScore     *float64           `bson:"preFinalScore,omitempty" json:"preFinalScore,omitempty"`
	FinalExamScore    *float64           `bson:"finalExamScore,omitempty" json:"finalExamScore,omitempty"`
	AttendanceCount   int                `bson:"attendanceCount,omitempty" json:"attendanceCount,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt,omitempty"`
}
