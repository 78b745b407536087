package students

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tcmng/tcmng-server/internal/apperr"
	"github.com/tcmng/tcmng-server/internal/models"
	"github.com/tcmng/tcmng-server/pkg/logger"
)

// StudentView is the public read model served by the national-id lookup.
// Result subjects are enriched from the faculty configuration; the faculty
// years themselves are not exposed.
type StudentView struct {
	ID         primitive.ObjectID `json:"_id"`
	FullName   string             `json:"fullName"`
	NationalID string             `json:"nationalId"`
	Gender     string             `json:"gender,omitempty"`
	Year       int                `json:"year,omitempty"`
	Department string             `json:"department,omitempty"`
	Major      string             `json:"major,omitempty"`
	Faculty    FacultyView        `json:"faculty"`
	Years      []YearView         `json:"years"`
}

type FacultyView struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Image string             `json:"image,omitempty"`
}

type YearView struct {
	Number         int          `json:"number"`
	FirstSemester  SemesterView `json:"firstSemester"`
	SecondSemester SemesterView `json:"secondSemester"`
}

type SemesterView struct {
	Results []ResultView `json:"results"`
}

type ResultView struct {
	Subject                SubjectView `json:"subject"`
	MaxScore               float64     `json:"maxScore"`
	PassingMarksPercentage float64     `json:"passingMarksPercentage"`
	Score                  float64     `json:"score"`
}

type SubjectView struct {
	Name          string  `json:"name"`
	Image         string  `json:"image,omitempty"`
	NumberOfHours float64 `json:"numberOfHours,omitempty"`
	HourPrice     float64 `json:"hourPrice,omitempty"`
	Cost          float64 `json:"cost,omitempty"`
}

// GetByNationalID looks a student up by national id, cache first. Misses
// read the store, enrich the result subjects from the faculty configuration
// and write back with create-if-absent semantics.
func (s *Service) GetByNationalID(ctx context.Context, nationalID string) (*StudentView, error) {
	var cached StudentView
	hit, err := s.cache.Get(ctx, nationalID, &cached)
	if err != nil {
		logger.Warnf("students: cache read for %s failed: %v", nationalID, err)
	}
	if hit {
		return &cached, nil
	}

	var student models.User
	err = s.users.FindOne(ctx,
		bson.M{"nationalId": nationalID, "deleted": bson.M{"$ne": true}},
		options.FindOne().SetProjection(bson.D{
			{Key: "fullName", Value: 1},
			{Key: "nationalId", Value: 1},
			{Key: "gender", Value: 1},
			{Key: "year", Value: 1},
			{Key: "department", Value: 1},
			{Key: "major", Value: 1},
			{Key: "years", Value: 1},
			{Key: "faculty", Value: 1},
		})).Decode(&student)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("No student for this national ID %s", nationalID)
		}
		return nil, err
	}

	var faculty models.Faculty
	if !student.Faculty.IsZero() {
		err = s.faculties.FindOne(ctx, bson.M{"_id": student.Faculty},
			options.FindOne().SetProjection(bson.D{
				{Key: "name", Value: 1},
				{Key: "image", Value: 1},
				{Key: "years", Value: 1},
			})).Decode(&faculty)
		if err != nil && err != mongo.ErrNoDocuments {
			return nil, err
		}
	}

	view := buildStudentView(&student, &faculty)

	if _, err := s.cache.Set(ctx, nationalID, view, studentCacheTTL); err != nil {
		logger.Warnf("students: cache write for %s failed: %v", nationalID, err)
	}
	return view, nil
}

func buildStudentView(student *models.User, faculty *models.Faculty) *StudentView {
	view := &StudentView{
		ID:         student.ID,
		FullName:   student.FullName,
		NationalID: student.NationalID,
		Gender:     student.Gender,
		Year:       student.Year,
		Department: student.Department,
		Major:      student.Major,
		Faculty: FacultyView{
			ID:    faculty.ID,
			Name:  faculty.Name,
			Image: faculty.Image,
		},
		Years: make([]YearView, 0, len(student.Years)),
	}

	for _, y := range student.Years {
		view.Years = append(view.Years, YearView{
			Number:         y.Number,
			FirstSemester:  SemesterView{Results: enrichResults(y.FirstSemester.Results, faculty.Years)},
			SecondSemester: SemesterView{Results: enrichResults(y.SecondSemester.Results, faculty.Years)},
		})
	}
	return view
}

// enrichResults swaps the stored subject triple for the faculty's subject
// configuration (image, hours, pricing). Subjects dropped from the faculty
// configuration keep their recorded name.
func enrichResults(results []models.Result, facultyYears []models.FacultyYear) []ResultView {
	out := make([]ResultView, 0, len(results))
	for _, r := range results {
		subject := SubjectView{Name: r.Subject.Name}
		if cfg := findSubject(facultyYears, r.Subject.Name, r.Subject.Year, r.Subject.Semester); cfg != nil {
			subject = SubjectView{
				Name:          cfg.Name,
				Image:         cfg.Image,
				NumberOfHours: cfg.NumberOfHours,
				HourPrice:     cfg.HourPrice,
				Cost:          cfg.Cost,
			}
		}
		out = append(out, ResultView{
			Subject:                subject,
			MaxScore:               r.MaxScore,
			PassingMarksPercentage: r.PassingMarksPercentage,
			Score:                  r.Score,
		})
	}
	return out
}
