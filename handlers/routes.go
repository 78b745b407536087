package handlers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tcmng/tcmng-server/internal/config"
	"github.com/tcmng/tcmng-server/internal/images"
	"github.com/tcmng/tcmng-server/internal/models"
	"github.com/tcmng/tcmng-server/internal/records"
	"github.com/tcmng/tcmng-server/internal/resource"
	"github.com/tcmng/tcmng-server/internal/students"
	"github.com/tcmng/tcmng-server/pkg/middleware"
)

// userSelect hides credentials on top of the default mask.
const userSelect = "-password -updatedAt -deleted -deletedAt -deletedBy"

// Mount wires every route under /api/v1: the generic CRUD surface per
// resource plus the auth and student endpoints.
func Mount(r *gin.Engine, db *mongo.Database, store images.Store, cfg *config.Config) {
	auth := NewAuth(db, cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	protect := middleware.Protect(cfg.JWT.Secret, auth.LoadUser)
	staffOnly := middleware.AllowedTo(
		models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager,
		models.RoleUniversityAdmin, models.RoleFacultySystemAdmin)
	adminOnly := middleware.AllowedTo(models.RoleSuperAdmin, models.RoleAdmin)

	studentsH := NewStudents(students.NewService(db))
	recordsH := NewRecords(records.NewService(db), db)

	v1 := r.Group("/api/v1")

	v1.POST("/auth/signup", auth.Signup)
	v1.POST("/auth/login", auth.Login)

	mountUsers(v1, db, store, auth, protect, staffOnly, adminOnly, studentsH)
	mountCatalog(v1, db, store, protect, staffOnly)
	mountFaculties(v1, db, store, protect, staffOnly)
	mountRecords(v1, db, store, protect, staffOnly, recordsH)
}

func mountUsers(v1 *gin.RouterGroup, db *mongo.Database, store images.Store,
	auth *Auth, protect, staffOnly, adminOnly gin.HandlerFunc, studentsH *Students) {

	users := resource.New(db, resource.Resource{
		Name:         "user",
		Collection:   "users",
		Select:       userSelect,
		Populate:     &resource.Populate{Path: "faculty", From: "faculties", Select: "name image"},
		SearchFields: []string{"fullName", "nickname", "email", "phone", "nationalId"},
		SoftDelete:   true,
	}, store)
	// updates go through restricted handlers so a plain update can never
	// touch credentials or the results history
	usersUpdate := resource.New(db, resource.Resource{
		Name:       "user",
		Collection: "users",
		Select:     userSelect,
		BodyFields: "fullName nickname phone email profileImg role",
		SoftDelete: true,
	}, store)
	meUpdate := resource.New(db, resource.Resource{
		Name:       "user",
		Collection: "users",
		Select:     userSelect,
		BodyFields: "fullName nickname email phone",
		SoftDelete: true,
	}, store)

	uploadProfile := images.UploadSingle(store, "user", "profileImg")
	opts := resource.Options{ImageKey: "profileImg"}
	createOpts := opts
	createOpts.Transform = hashAccountBody

	u := v1.Group("/users")

	// public cached lookup; the id parameter carries the national id
	u.GET("/students/:id", studentsH.GetByNationalID)

	u.Use(protect)
	u.GET("/getMe", asMe(users.GetOne(opts)))
	u.PUT("/changeMyPassword", auth.ChangeMyPassword)
	u.PUT("/updateMe", asMe(meUpdate.UpdateOne(opts)))

	staff := u.Group("", staffOnly)
	staff.POST("/students", uploadProfile, studentsH.Create)
	staff.POST("/students/:id/results", studentsH.AddResults)

	admin := u.Group("", adminOnly)
	admin.PUT("/changePassword/:id", auth.ChangeUserPassword)
	admin.GET("", users.List(opts))
	admin.POST("", uploadProfile, users.CreateOne(createOpts))
	admin.GET("/:id", users.GetOne(opts))
	admin.PUT("/:id", uploadProfile, usersUpdate.UpdateOne(opts))
	admin.DELETE("/:id", users.SoftDeleteOne())
}

// mountCatalog wires the uniform CRUD resources: universities, departments,
// courses and subjects. Reads need a session; mutations are staff-only.
func mountCatalog(v1 *gin.RouterGroup, db *mongo.Database, store images.Store,
	protect, staffOnly gin.HandlerFunc) {

	for _, res := range []resource.Resource{
		{
			Name:         "university",
			Collection:   "universities",
			SearchFields: []string{"name"},
		},
		{
			Name:         "department",
			Collection:   "departments",
			Populate:     &resource.Populate{Path: "faculty", From: "faculties", Select: "name"},
			SearchFields: []string{"name"},
		},
		{
			Name:         "course",
			Collection:   "courses",
			Populate:     &resource.Populate{Path: "department", From: "departments", Select: "name"},
			SearchFields: []string{"name"},
		},
		{
			Name:         "subject",
			Collection:   "subjects",
			SearchFields: []string{"name"},
		},
	} {
		h := resource.New(db, res, store)
		upload := images.UploadSingle(store, res.Name, "image")

		g := v1.Group("/"+res.Collection, protect)
		g.GET("", h.List(resource.Options{}))
		g.GET("/:id", h.GetOne(resource.Options{}))

		m := g.Group("", staffOnly)
		m.POST("", upload, h.CreateOne(resource.Options{}))
		m.PUT("/:id", upload, h.UpdateOne(resource.Options{}))
		m.DELETE("/:id", h.DeleteOne("image"))
	}
}

// mountFaculties wires the faculty CRUD plus the embedded years routes. The
// item routes carry the parent parameter name so the years sub-routes can
// nest under the same level.
func mountFaculties(v1 *gin.RouterGroup, db *mongo.Database, store images.Store,
	protect, staffOnly gin.HandlerFunc) {

	faculties := resource.New(db, resource.Resource{
		Name:         "faculty",
		Collection:   "faculties",
		Populate:     &resource.Populate{Path: "university", From: "universities", Select: "name image"},
		SearchFields: []string{"name"},
	}, store)
	years := resource.New(db, resource.Resource{
		Name:         "faculty",
		Collection:   "faculties",
		EmbeddedPath: "years",
	}, store)

	upload := images.UploadSingle(store, "faculty", "image")

	g := v1.Group("/faculties", protect)
	g.GET("", faculties.List(resource.Options{}))
	g.GET("/:facultyId", paramAlias("facultyId", "id", faculties.GetOne(resource.Options{})))

	m := g.Group("", staffOnly)
	m.POST("", upload, faculties.CreateOne(resource.Options{}))
	m.PUT("/:facultyId", upload, paramAlias("facultyId", "id", faculties.UpdateOne(resource.Options{})))
	m.DELETE("/:facultyId", paramAlias("facultyId", "id", faculties.DeleteOne("image")))

	m.POST("/:facultyId/years", years.CreateOne(resource.Options{}))
	m.PUT("/:facultyId/years/:id", years.UpdateOne(resource.Options{}))
	m.DELETE("/:facultyId/years/:id", years.DeleteOne())
}

func mountRecords(v1 *gin.RouterGroup, db *mongo.Database, store images.Store,
	protect, staffOnly gin.HandlerFunc, recordsH *Records) {

	h := resource.New(db, resource.Resource{
		Name:       "studentCourseRecord",
		Collection: "studentCourseRecords",
		Populate:   &resource.Populate{Path: "course", From: "courses", Select: "name"},
	}, store)

	g := v1.Group("/studentCourseRecords", protect, staffOnly)
	g.GET("", h.List(resource.Options{}))
	g.GET("/:id", h.GetOne(resource.Options{}))
	g.POST("", recordsH.Create)
	g.PUT("/:id", recordsH.Update)
	g.DELETE("/:id", h.DeleteOne())
}
