package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role values accepted on user accounts.
const (
	RoleSuperAdmin         = "superadmin"
	RoleAdmin              = "admin"
	RoleManager            = "manager"
	RoleUniversityAdmin    = "university-system-admin"
	RoleFacultySystemAdmin = "faculty-system-admin"
	RoleUser               = "user"
	RoleStudent            = "student"
)

// User is an account document. Staff accounts use the administrative fields;
// student accounts additionally carry enrollment data and the embedded
// academic-years result history.
type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FullName          string             `bson:"fullName,omitempty" json:"fullName,omitempty"`
	Nickname          string             `bson:"nickname,omitempty" json:"nickname,omitempty"`
	NationalID        string             `bson:"nationalId,omitempty" json:"nationalId,omitempty"`
	AccountNumber     string             `bson:"accountNumber,omitempty" json:"accountNumber,omitempty"`
	Email             string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone             string             `bson:"phone,omitempty" json:"phone,omitempty"`
	ProfileImg        string             `bson:"profileImg,omitempty" json:"profileImg,omitempty"`
	Password          string             `bson:"password,omitempty" json:"-"`
	PasswordChangedAt *time.Time         `bson:"passwordChangedAt,omitempty" json:"-"`
	Role              string             `bson:"role" json:"role"`
	Status            string             `bson:"status,omitempty" json:"status,omitempty"`
	Gender            string             `bson:"gender,omitempty" json:"gender,omitempty"`
	DateBirth         *time.Time         `bson:"dateBirth,omitempty" json:"dateBirth,omitempty"`

	// student enrollment
	Faculty    primitive.ObjectID `bson:"faculty,omitempty" json:"faculty,omitempty"`
	Year       int                `bson:"year,omitempty" json:"year,omitempty"`
	Department string             `bson:"department,omitempty" json:"department,omitempty"`
	Major      string             `bson:"major,omitempty" json:"major,omitempty"`
	Years      []AcademicYear     `bson:"years,omitempty" json:"years,omitempty"`

	Deleted   bool       `bson:"deleted,omitempty" json:"-"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty" json:"-"`
	DeletedBy string     `bson:"deletedBy,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt,omitempty"`
}

// AcademicYear groups a student's results for one enrollment year.
type AcademicYear struct {
	Number         int      `bson:"number" json:"number"`
	FirstSemester  Semester `bson:"firstSemester" json:"firstSemester"`
	SecondSemester Semester `bson:"secondSemester" json:"secondSemester"`
}

// Semester holds the recorded results of one term.
type Semester struct {
	Results []Result `bson:"results" json:"results"`
}

// Result is one recorded score. Subject keeps the identifying triple; the
// grading bounds are copied from the faculty subject configuration at record
// time so later configuration edits do not rewrite history.
type Result struct {
	Subject                ResultSubject `bson:"subject" json:"subject"`
	MaxScore               float64       `bson:"maxScore" json:"maxScore"`
	PassingMarksPercentage float64       `bson:"passingMarksPercentage" json:"passingMarksPercentage"`
	Score                  float64       `bson:"score" json:"score"`
}

// ResultSubject identifies the subject a result belongs to. Semester is
// stored as 1 or 2.
type ResultSubject struct {
	Name     string `bson:"name" json:"name"`
	Year     int    `bson:"year" json:"year"`
	Semester int    `bson:"semester" json:"semester"`
}
