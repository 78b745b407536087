package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tcmng/tcmng-server/internal/apperr"
	"github.com/tcmng/tcmng-server/internal/records"
	"github.com/tcmng/tcmng-server/internal/resource"
)

// recordBodyFields is the allow-list applied to record update bodies.
var recordBodyFields = []string{
	"course", "studentNationalId", "academicYear", "term",
	"preFinalScore", "finalExamScore", "attendanceCount",
}

// Records covers the student-course-record operations the generic handlers
// cannot express: creation and updates both re-resolve the student reference
// and guard the unique tuple.
type Records struct {
	svc *records.Service
	col *mongo.Collection
}

func NewRecords(svc *records.Service, db *mongo.Database) *Records {
	return &Records{svc: svc, col: db.Collection("studentCourseRecords")}
}

func (r *Records) Create(c *gin.Context) {
	var in records.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperr.Abort(c, apperr.BadRequest("invalid request body: %v", err))
		return
	}

	record, err := r.svc.Create(c.Request.Context(), in)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": record})
}

func (r *Records) Update(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		apperr.Abort(c, apperr.BadRequest("Invalid id format: %s", c.Param("id")))
		return
	}

	raw := map[string]interface{}{}
	if err := c.ShouldBindJSON(&raw); err != nil && err != io.EOF {
		apperr.Abort(c, apperr.BadRequest("invalid request body: %v", err))
		return
	}
	body := map[string]interface{}{}
	for _, field := range recordBodyFields {
		if v, ok := raw[field]; ok {
			body[field] = v
		}
	}

	resolvedUser, err := r.svc.CheckUpdate(ctx, id, body)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	if course, ok := body["course"].(string); ok {
		// validated by CheckUpdate
		body["course"], _ = primitive.ObjectIDFromHex(course)
	}

	op := resource.BuildUpdateOp(body, "")
	if resolvedUser != nil {
		op.Set["user"] = *resolvedUser
	}
	if op.Empty() {
		apperr.Abort(c, apperr.BadRequest("No data provided to update"))
		return
	}
	op.Stamp(time.Now().UTC())

	var doc bson.M
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, op.Document(),
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apperr.Abort(c, apperr.NotFound("No studentCourseRecord found with ID %s", id.Hex()))
			return
		}
		if mongo.IsDuplicateKeyError(err) {
			apperr.Abort(c, apperr.BadRequest(
				"Student's course record already exists for this course, user, academic year, and term"))
			return
		}
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": doc})
}
