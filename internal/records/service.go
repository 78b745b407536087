package records

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tcmng/tcmng-server/internal/apperr"
	"github.com/tcmng/tcmng-server/internal/models"
)

const duplicateTupleMsg = "Student's course record already exists for this course, user, academic year, and term"

// Service handles student-course-record creation and the update pre-checks
// that the generic handlers cannot express: both resolve the student behind
// the submitted national id and guard the (user, course, academicYear, term)
// tuple. The pre-checks are best effort; the unique index is the
// authoritative guard.
type Service struct {
	users   *mongo.Collection
	courses *mongo.Collection
	records *mongo.Collection
}

func NewService(db *mongo.Database) *Service {
	return &Service{
		users:   db.Collection("users"),
		courses: db.Collection("courses"),
		records: db.Collection("studentCourseRecords"),
	}
}

// CreateInput is the record creation body. Course is the hex course id; the
// student is identified by national id and resolved to a user reference.
type CreateInput struct {
	Course            string   `json:"course"`
	StudentNationalID string   `json:"studentNationalId"`
	AcademicYear      int      `json:"academicYear"`
	Term              float64  `json:"term"`
	PreFinalScore     *float64 `json:"preFinalScore"`
	FinalExamScore    *float64 `json:"finalExamScore"`
	AttendanceCount   int      `json:"attendanceCount"`
}

// Create inserts a record after checking that the student and course exist.
// The two existence checks are independent reads and are issued together.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.StudentCourseRecord, error) {
	if in.PreFinalScore == nil && in.FinalExamScore == nil {
		return nil, apperr.BadRequest("You must submit your preFinalScore, finalExamScore, or both")
	}

	courseID, err := primitive.ObjectIDFromHex(in.Course)
	if err != nil {
		return nil, apperr.BadRequest("Invalid id format: %s", in.Course)
	}

	userID, err := s.checkStudentAndCourse(ctx, in.StudentNationalID, courseID)
	if err != nil {
		return nil, err
	}

	tuple := bson.M{
		"user":         userID,
		"course":       courseID,
		"academicYear": in.AcademicYear,
		"term":         in.Term,
	}
	if err := s.checkTupleFree(ctx, tuple); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &models.StudentCourseRecord{
		ID:                primitive.NewObjectID(),
		User:              userID,
		Course:            courseID,
		StudentNationalID: in.StudentNationalID,
		AcademicYear:      in.AcademicYear,
		Term:              in.Term,
		PreFinalScore:     in.PreFinalScore,
		FinalExamScore:    in.FinalExamScore,
		AttendanceCount:   in.AttendanceCount,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := s.records.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.BadRequest(duplicateTupleMsg)
		}
		return nil, err
	}
	return record, nil
}

// checkStudentAndCourse runs both existence reads concurrently and reports
// the first friendly failure, student before course.
func (s *Service) checkStudentAndCourse(ctx context.Context, nationalID string, courseID primitive.ObjectID) (primitive.ObjectID, error) {
	var (
		wg        sync.WaitGroup
		userID    primitive.ObjectID
		userErr   error
		courseErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		err := s.users.FindOne(ctx,
			bson.M{"nationalId": nationalID, "deleted": bson.M{"$ne": true}},
			options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})).Decode(&doc)
		if err == mongo.ErrNoDocuments {
			userErr = apperr.BadRequest("No student for this national id: %s", nationalID)
			return
		}
		userErr = err
		userID = doc.ID
	}()
	go func() {
		defer wg.Done()
		err := s.courses.FindOne(ctx, bson.M{"_id": courseID},
			options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})).Err()
		if err == mongo.ErrNoDocuments {
			courseErr = apperr.BadRequest("No course for this id: %s", courseID.Hex())
			return
		}
		courseErr = err
	}()
	wg.Wait()

	if userErr != nil {
		return primitive.NilObjectID, userErr
	}
	if courseErr != nil {
		return primitive.NilObjectID, courseErr
	}
	return userID, nil
}

func (s *Service) checkTupleFree(ctx context.Context, tuple bson.M) error {
	err := s.records.FindOne(ctx, tuple,
		options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})).Err()
	if err == nil {
		return apperr.BadRequest(duplicateTupleMsg)
	}
	if err == mongo.ErrNoDocuments {
		return nil
	}
	return err
}

// CheckUpdate validates a partial update body before the generic handler
// applies it: score fields may not both be removed, the last remaining score
// may not be removed, and changes to the identifying fields re-run the
// existence and tuple checks. It returns the resolved user id when the body
// renames the student, so the caller can persist the reference too.
func (s *Service) CheckUpdate(ctx context.Context, id primitive.ObjectID, body map[string]interface{}) (*primitive.ObjectID, error) {
	preFinal, preFinalSet := body["preFinalScore"]
	finalExam, finalExamSet := body["finalExamScore"]

	if preFinalSet && finalExamSet && preFinal == nil && finalExam == nil {
		return nil, apperr.BadRequest(
			"PreFinalScore and FinalExamScore cannot be removed. At least one of them must have a value")
	}

	var record *models.StudentCourseRecord

	// removing one score requires the other to survive on the record
	var removed string
	if preFinalSet && preFinal == nil && !finalExamSet {
		removed = "preFinalScore"
	} else if finalExamSet && finalExam == nil && !preFinalSet {
		removed = "finalExamScore"
	}
	if removed != "" {
		var err error
		record, err = s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		remaining := record.FinalExamScore
		if removed == "finalExamScore" {
			remaining = record.PreFinalScore
		}
		if remaining == nil {
			return nil, apperr.BadRequest(
				"%s cannot be removed because it is the only score in record. At least one score must be present in record, either preFinalScore, finalExamScore, or both.", removed)
		}
	}

	course, courseSet := body["course"].(string)
	nationalID, nationalIDSet := body["studentNationalId"].(string)
	academicYear, academicYearSet := body["academicYear"]
	term, termSet := body["term"]

	if !courseSet && !nationalIDSet && !academicYearSet && !termSet {
		return nil, nil
	}

	if record == nil {
		var err error
		record, err = s.load(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	tuple := bson.M{
		"_id":          bson.M{"$ne": id},
		"user":         record.User,
		"course":       record.Course,
		"academicYear": record.AcademicYear,
		"term":         record.Term,
	}

	if courseSet {
		courseID, err := primitive.ObjectIDFromHex(course)
		if err != nil {
			return nil, apperr.BadRequest("Invalid id format: %s", course)
		}
		err = s.courses.FindOne(ctx, bson.M{"_id": courseID},
			options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})).Err()
		if err == mongo.ErrNoDocuments {
			return nil, apperr.BadRequest("No course for this id: %s", course)
		}
		if err != nil {
			return nil, err
		}
		tuple["course"] = courseID
	}

	var resolvedUser *primitive.ObjectID
	if nationalIDSet {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		err := s.users.FindOne(ctx,
			bson.M{"nationalId": nationalID, "deleted": bson.M{"$ne": true}},
			options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})).Decode(&doc)
		if err == mongo.ErrNoDocuments {
			return nil, apperr.BadRequest("No student for this national id: %s", nationalID)
		}
		if err != nil {
			return nil, err
		}
		tuple["user"] = doc.ID
		resolvedUser = &doc.ID
	}
	if academicYearSet {
		tuple["academicYear"] = academicYear
	}
	if termSet {
		tuple["term"] = term
	}

	if err := s.checkTupleFree(ctx, tuple); err != nil {
		return nil, err
	}
	return resolvedUser, nil
}

func (s *Service) load(ctx context.Context, id primitive.ObjectID) (*models.StudentCourseRecord, error) {
	var record models.StudentCourseRecord
	err := s.records.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("No studentCourseRecord found with ID %s", id.Hex())
		}
		return nil, err
	}
	return &record, nil
}
