package records

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tcmng/tcmng-server/internal/apperr"
)

// these paths reject before any store access, so a zero Service suffices

func TestCreate_RequiresAScore(t *testing.T) {
	s := &Service{}
	_, err := s.Create(context.Background(), CreateInput{
		Course:            primitive.NewObjectID().Hex(),
		StudentNationalID: "29805120123456",
		AcademicYear:      2024,
		Term:              1,
	})
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, apperr.Status(err))
	require.Contains(t, apperr.Message(err), "preFinalScore, finalExamScore, or both")
}

func TestCreate_RejectsMalformedCourseID(t *testing.T) {
	score := 50.0
	s := &Service{}
	_, err := s.Create(context.Background(), CreateInput{
		Course:            "not-an-id",
		StudentNationalID: "29805120123456",
		AcademicYear:      2024,
		Term:              1,
		PreFinalScore:     &score,
	})
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, apperr.Status(err))
}

func TestCheckUpdate_RejectsRemovingBothScores(t *testing.T) {
	s := &Service{}
	_, err := s.CheckUpdate(context.Background(), primitive.NewObjectID(), map[string]interface{}{
		"preFinalScore":  nil,
		"finalExamScore": nil,
	})
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, apperr.Status(err))
	require.Contains(t, apperr.Message(err), "cannot be removed")
}

func TestCheckUpdate_ScoreOnlyBodyNeedsNoLookups(t *testing.T) {
	s := &Service{}
	resolved, err := s.CheckUpdate(context.Background(), primitive.NewObjectID(), map[string]interface{}{
		"preFinalScore": 42.0,
	})
	require.NoError(t, err)
	require.Nil(t, resolved)
}
