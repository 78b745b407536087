package students

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tcmng/tcmng-server/internal/apperr"
	"github.com/tcmng/tcmng-server/internal/models"
)

func TestBirthDateFromNationalID(t *testing.T) {
	birth, err := BirthDateFromNationalID("29805120123456")
	require.NoError(t, err)
	require.Equal(t, time.Date(1998, 5, 12, 0, 0, 0, 0, time.UTC), birth)

	birth, err = BirthDateFromNationalID("30401030123456")
	require.NoError(t, err)
	require.Equal(t, time.Date(2004, 1, 3, 0, 0, 0, 0, time.UTC), birth)
}

func TestBirthDateFromNationalID_Invalid(t *testing.T) {
	for _, id := range []string{
		"2980512",        // too short
		"2980512012345x", // non numeric
		"19805120123456", // bad century digit
		"29813120123456", // month out of range
		"29802310123456", // day out of range
	} {
		_, err := BirthDateFromNationalID(id)
		require.Error(t, err, id)
	}
}

func TestDefaultPassword_NoZeroPadding(t *testing.T) {
	birth := time.Date(1998, 5, 3, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "199853", DefaultPassword(birth))

	birth = time.Date(2004, 11, 25, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "20041125", DefaultPassword(birth))
}

func TestNewAccountNumber(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := NewAccountNumber()
		require.Len(t, n, 10)
		require.NotEqual(t, byte('0'), n[0])
		seen[n] = true
	}
	// collisions over 100 draws from a 9e9 space would indicate a broken generator
	require.Greater(t, len(seen), 90)
}

func TestSemesterIndex(t *testing.T) {
	idx, err := semesterIndex("firstSemester")
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	idx, err = semesterIndex("secondSemester")
	require.NoError(t, err)
	require.Equal(t, 2, idx)

	_, err = semesterIndex("summer")
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, apperr.Status(err))
}

func TestAppendResult_ExistingYear(t *testing.T) {
	years := []models.AcademicYear{{Number: 2}}
	r := models.Result{Score: 40}

	years = appendResult(years, 2, 1, r)
	require.Len(t, years, 1)
	require.Len(t, years[0].FirstSemester.Results, 1)
	require.Empty(t, years[0].SecondSemester.Results)

	years = appendResult(years, 2, 2, r)
	require.Len(t, years, 1)
	require.Len(t, years[0].SecondSemester.Results, 1)
}

func TestAppendResult_NewYear(t *testing.T) {
	years := appendResult(nil, 1, 2, models.Result{Score: 55})
	require.Len(t, years, 1)
	require.Equal(t, 1, years[0].Number)
	require.Empty(t, years[0].FirstSemester.Results)
	require.Len(t, years[0].SecondSemester.Results, 1)
}

func facultyFixture() []models.FacultyYear {
	return []models.FacultyYear{
		{
			Number: 1,
			FirstSemester: models.SemesterPlan{Subjects: []models.SubjectConfig{
				{Name: "Calculus", MaxScore: 100, PassingMarksPercentage: 50},
			}},
			SecondSemester: models.SemesterPlan{Subjects: []models.SubjectConfig{
				{Name: "Physics", MaxScore: 80, PassingMarksPercentage: 60, NumberOfHours: 3, HourPrice: 200, Cost: 600},
			}},
		},
	}
}

func TestFindSubject(t *testing.T) {
	years := facultyFixture()

	cfg := findSubject(years, "Calculus", 1, 1)
	require.NotNil(t, cfg)
	require.Equal(t, float64(100), cfg.MaxScore)

	cfg = findSubject(years, "Physics", 1, 2)
	require.NotNil(t, cfg)
	require.Equal(t, float64(80), cfg.MaxScore)

	require.Nil(t, findSubject(years, "Physics", 1, 1))
	require.Nil(t, findSubject(years, "Chemistry", 1, 2))
	require.Nil(t, findSubject(years, "Calculus", 2, 1))
}

func TestEnrichResults(t *testing.T) {
	years := facultyFixture()
	results := []models.Result{
		{
			Subject:  models.ResultSubject{Name: "Physics", Year: 1, Semester: 2},
			MaxScore: 80, PassingMarksPercentage: 60, Score: 71,
		},
		{
			// removed from the faculty configuration since recording
			Subject:  models.ResultSubject{Name: "Latin", Year: 1, Semester: 1},
			MaxScore: 100, PassingMarksPercentage: 50, Score: 88,
		},
	}

	views := enrichResults(results, years)
	require.Len(t, views, 2)

	require.Equal(t, "Physics", views[0].Subject.Name)
	require.Equal(t, float64(3), views[0].Subject.NumberOfHours)
	require.Equal(t, float64(600), views[0].Subject.Cost)
	require.Equal(t, float64(71), views[0].Score)

	require.Equal(t, "Latin", views[1].Subject.Name)
	require.Zero(t, views[1].Subject.NumberOfHours)
	require.Equal(t, float64(88), views[1].Score)
}
