package students

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/tcmng/tcmng-server/internal/apperr"
	"github.com/tcmng/tcmng-server/internal/cache"
	"github.com/tcmng/tcmng-server/internal/models"
	"github.com/tcmng/tcmng-server/pkg/logger"
)

const (
	// bcryptCost matches the cost used across the auth endpoints.
	bcryptCost = 12

	// maxAccountAttempts bounds the regenerate-and-retry loop on account
	// number collisions.
	maxAccountAttempts = 10

	// studentCacheTTL is how long a student lookup stays cached.
	studentCacheTTL = 900 * time.Second
)

// Service implements the student-specific endpoints that do not fit the
// generic resource handlers: enrollment, result recording and the cached
// national-id lookup.
type Service struct {
	users     *mongo.Collection
	faculties *mongo.Collection
	cache     *cache.Cache
}

func NewService(db *mongo.Database) *Service {
	return &Service{
		users:     db.Collection("users"),
		faculties: db.Collection("faculties"),
		cache:     cache.New("user"),
	}
}

// CreateStudentInput is the enrollment request body. DateBirth accepts
// "2006-01-02" or RFC 3339; when absent it is derived from the national id.
type CreateStudentInput struct {
	FullName   string `json:"fullName" form:"fullName"`
	Nickname   string `json:"nickname" form:"nickname"`
	NationalID string `json:"nationalId" form:"nationalId"`
	Email      string `json:"email" form:"email"`
	Phone      string `json:"phone" form:"phone"`
	ProfileImg string `json:"profileImg" form:"profileImg"`
	Password   string `json:"password" form:"password"`
	Gender     string `json:"gender" form:"gender"`
	DateBirth  string `json:"dateBirth" form:"dateBirth"`
	Faculty    string `json:"faculty" form:"faculty"`
	Year       int    `json:"year" form:"year"`
	Department string `json:"department" form:"department"`
	Major      string `json:"major" form:"major"`
}

// CreateStudent enrolls a new student account. The birth date falls back to
// the one encoded in the national id, the password falls back to the birth
// date, and the account number is generated, regenerating on collision with
// the unique index as the authoritative guard.
func (s *Service) CreateStudent(ctx context.Context, in CreateStudentInput) (*models.User, error) {
	birth, err := resolveBirthDate(in.DateBirth, in.NationalID)
	if err != nil {
		return nil, err
	}

	password := in.Password
	if password == "" {
		password = DefaultPassword(birth)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	var faculty primitive.ObjectID
	if in.Faculty != "" {
		faculty, err = primitive.ObjectIDFromHex(in.Faculty)
		if err != nil {
			return nil, apperr.BadRequest("Invalid id format: %s", in.Faculty)
		}
	}

	now := time.Now().UTC()
	student := &models.User{
		FullName:   in.FullName,
		Nickname:   in.Nickname,
		NationalID: in.NationalID,
		Email:      in.Email,
		Phone:      in.Phone,
		ProfileImg: in.ProfileImg,
		Password:   string(hashed),
		Role:       models.RoleStudent,
		Gender:     in.Gender,
		DateBirth:  &birth,
		Faculty:    faculty,
		Year:       in.Year,
		Department: in.Department,
		Major:      in.Major,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	for attempt := 0; attempt < maxAccountAttempts; attempt++ {
		student.ID = primitive.NewObjectID()
		student.AccountNumber = NewAccountNumber()

		_, err = s.users.InsertOne(ctx, student)
		if err == nil {
			student.Password = ""
			return student, nil
		}
		if mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), "accountNumber") {
			continue
		}
		return nil, err
	}
	return nil, apperr.Internal("Could not allocate a unique account number")
}

func resolveBirthDate(dateBirth, nationalID string) (time.Time, error) {
	if dateBirth == "" {
		if nationalID == "" {
			return time.Time{}, apperr.BadRequest("Either dateBirth or nationalId is required")
		}
		birth, err := BirthDateFromNationalID(nationalID)
		if err != nil {
			return time.Time{}, apperr.BadRequest("Invalid national id %s", nationalID)
		}
		return birth, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if birth, err := time.Parse(layout, dateBirth); err == nil {
			return birth, nil
		}
	}
	return time.Time{}, apperr.BadRequest("Invalid dateBirth %s", dateBirth)
}

// BirthDateFromNationalID decodes the birth date encoded in a 14-digit
// national id: a century digit (2 for 1900s, 3 for 2000s) followed by
// yymmdd.
func BirthDateFromNationalID(nationalID string) (time.Time, error) {
	if len(nationalID) != 14 {
		return time.Time{}, fmt.Errorf("national id must be 14 digits, got %d", len(nationalID))
	}
	for _, r := range nationalID {
		if r < '0' || r > '9' {
			return time.Time{}, fmt.Errorf("national id must be numeric")
		}
	}

	var century int
	switch nationalID[0] {
	case '2':
		century = 1900
	case '3':
		century = 2000
	default:
		return time.Time{}, fmt.Errorf("unknown century digit %c", nationalID[0])
	}

	yy := int(nationalID[1]-'0')*10 + int(nationalID[2]-'0')
	mm := int(nationalID[3]-'0')*10 + int(nationalID[4]-'0')
	dd := int(nationalID[5]-'0')*10 + int(nationalID[6]-'0')

	birth := time.Date(century+yy, time.Month(mm), dd, 0, 0, 0, 0, time.UTC)
	if birth.Year() != century+yy || int(birth.Month()) != mm || birth.Day() != dd {
		return time.Time{}, fmt.Errorf("national id encodes invalid date %02d-%02d", mm, dd)
	}
	return birth, nil
}

// DefaultPassword is the initial student password derived from the birth
// date, rendered without zero padding.
func DefaultPassword(birth time.Time) string {
	return fmt.Sprintf("%d%d%d", birth.Year(), int(birth.Month()), birth.Day())
}

// NewAccountNumber generates a 10-digit account number with a non-zero
// leading digit. Uniqueness is enforced by the store index, not here.
func NewAccountNumber() string {
	n, err := rand.Int(rand.Reader, big.NewInt(9_000_000_000))
	if err != nil {
		// crypto/rand only fails when the platform source is broken
		panic(err)
	}
	return fmt.Sprintf("%d", n.Int64()+1_000_000_000)
}

// AddResultInput records one score. Semester selects the bucket of the
// student's academic year; Subject identifies the graded subject within the
// faculty configuration.
type AddResultInput struct {
	Year     int     `json:"year"`
	Semester string  `json:"semester"`
	Score    float64 `json:"score"`
	Subject  struct {
		Name     string `json:"name"`
		Year     int    `json:"year"`
		Semester string `json:"semester"`
	} `json:"subject"`
}

// AddResult appends a score to the student's years array. The grading
// bounds are copied from the faculty subject configuration at record time.
func (s *Service) AddResult(ctx context.Context, id primitive.ObjectID, in AddResultInput) (*models.User, error) {
	semesterIdx, err := semesterIndex(in.Semester)
	if err != nil {
		return nil, err
	}

	var student models.User
	err = s.users.FindOne(ctx, bson.M{
		"_id":     id,
		"role":    models.RoleStudent,
		"deleted": bson.M{"$ne": true},
	}).Decode(&student)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("No user found with ID %s", id.Hex())
		}
		return nil, err
	}

	year := in.Year
	if year == 0 {
		year = student.Year
	}
	if student.Year < year {
		return nil, apperr.BadRequest(
			"The result of year %d and student in year %d cannot be recorded", year, student.Year)
	}

	subjectYear := in.Subject.Year
	if subjectYear == 0 {
		subjectYear = student.Year
	}
	subjectSemester := semesterIdx
	if in.Subject.Semester != "" {
		subjectSemester, err = semesterIndex(in.Subject.Semester)
		if err != nil {
			return nil, err
		}
	}

	var faculty models.Faculty
	err = s.faculties.FindOne(ctx, bson.M{"_id": student.Faculty},
		options.FindOne().SetProjection(bson.D{{Key: "years", Value: 1}})).Decode(&faculty)
	if err != nil && err != mongo.ErrNoDocuments {
		return nil, err
	}

	cfg := findSubject(faculty.Years, in.Subject.Name, subjectYear, subjectSemester)
	if cfg == nil {
		return nil, apperr.BadRequest("No subject %s configured for year %d", in.Subject.Name, subjectYear)
	}
	if in.Score > cfg.MaxScore {
		return nil, apperr.BadRequest("Max score in subject is %v", cfg.MaxScore)
	}

	result := models.Result{
		Subject: models.ResultSubject{
			Name:     in.Subject.Name,
			Year:     subjectYear,
			Semester: subjectSemester,
		},
		MaxScore:               cfg.MaxScore,
		PassingMarksPercentage: cfg.PassingMarksPercentage,
		Score:                  in.Score,
	}

	student.Years = appendResult(student.Years, year, semesterIdx, result)
	student.UpdatedAt = time.Now().UTC()

	_, err = s.users.UpdateOne(ctx, bson.M{"_id": student.ID}, bson.M{"$set": bson.M{
		"years":     student.Years,
		"updatedAt": student.UpdatedAt,
	}})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, student.NationalID)
	student.Password = ""
	return &student, nil
}

func (s *Service) invalidate(ctx context.Context, nationalID string) {
	if nationalID == "" {
		return
	}
	if _, err := s.cache.Delete(ctx, nationalID); err != nil {
		logger.Warnf("students: cache invalidation for %s failed: %v", nationalID, err)
	}
}

func semesterIndex(semester string) (int, error) {
	switch semester {
	case "firstSemester":
		return 1, nil
	case "secondSemester":
		return 2, nil
	default:
		return 0, apperr.BadRequest("Invalid semester %s", semester)
	}
}

// appendResult pushes the result into the matching academic-year bucket,
// creating the year entry when the student has no results for it yet.
func appendResult(years []models.AcademicYear, year, semester int, r models.Result) []models.AcademicYear {
	for i := range years {
		if years[i].Number != year {
			continue
		}
		if semester == 1 {
			years[i].FirstSemester.Results = append(years[i].FirstSemester.Results, r)
		} else {
			years[i].SecondSemester.Results = append(years[i].SecondSemester.Results, r)
		}
		return years
	}

	entry := models.AcademicYear{Number: year}
	if semester == 1 {
		entry.FirstSemester.Results = []models.Result{r}
	} else {
		entry.SecondSemester.Results = []models.Result{r}
	}
	return append(years, entry)
}

func findSubject(years []models.FacultyYear, name string, year, semester int) *models.SubjectConfig {
	for i := range years {
		if years[i].Number != year {
			continue
		}
		plan := years[i].FirstSemester
		if semester == 2 {
			plan = years[i].SecondSemester
		}
		for j := range plan.Subjects {
			if plan.Subjects[j].Name == name {
				return &plan.Subjects[j]
			}
		}
	}
	return nil
}
