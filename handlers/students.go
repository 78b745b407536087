package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tcmng/tcmng-server/internal/apperr"
	"github.com/tcmng/tcmng-server/internal/images"
	"github.com/tcmng/tcmng-server/internal/students"
)

// Students is the HTTP glue over the student service endpoints.
type Students struct {
	svc *students.Service
}

func NewStudents(svc *students.Service) *Students {
	return &Students{svc: svc}
}

func (s *Students) Create(c *gin.Context) {
	var in students.CreateStudentInput
	if err := c.ShouldBind(&in); err != nil {
		apperr.Abort(c, apperr.BadRequest("invalid request body: %v", err))
		return
	}
	if img := images.Uploaded(c)["profileImg"]; img != "" {
		in.ProfileImg = img
	}

	student, err := s.svc.CreateStudent(c.Request.Context(), in)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": student})
}

func (s *Students) AddResults(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		apperr.Abort(c, apperr.BadRequest("Invalid id format: %s", c.Param("id")))
		return
	}
	var in students.AddResultInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperr.Abort(c, apperr.BadRequest("invalid request body: %v", err))
		return
	}

	student, err := s.svc.AddResult(c.Request.Context(), id, in)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": student})
}

// GetByNationalID serves the cached public student lookup. The id path
// parameter carries the national id, not an object id.
func (s *Students) GetByNationalID(c *gin.Context) {
	view, err := s.svc.GetByNationalID(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}
