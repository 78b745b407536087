package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/tcmng/tcmng-server/internal/apperr"
	"github.com/tcmng/tcmng-server/internal/models"
	"github.com/tcmng/tcmng-server/internal/tokens"
)

const bcryptCost = 12

// Auth implements first-party authentication over the users collection:
// signup, login and the password-change endpoints.
type Auth struct {
	users  *mongo.Collection
	secret string
	ttl    time.Duration
}

func NewAuth(db *mongo.Database, secret string, ttl time.Duration) *Auth {
	return &Auth{users: db.Collection("users"), secret: secret, ttl: ttl}
}

// LoadUser resolves an authenticated token subject to its account. Satisfies
// middleware.UserLoader; a missing or soft-deleted account returns nil, nil.
func (a *Auth) LoadUser(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var user models.User
	err = a.users.FindOne(ctx, bson.M{"_id": oid, "deleted": bson.M{"$ne": true}}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

type signupInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *Auth) Signup(c *gin.Context) {
	var in signupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperr.Abort(c, apperr.BadRequest("invalid request body: %v", err))
		return
	}
	if in.Email == "" || in.Password == "" {
		apperr.Abort(c, apperr.BadRequest("Email and password are required"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		apperr.Abort(c, err)
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:        primitive.NewObjectID(),
		FullName:  in.FullName,
		Email:     in.Email,
		Password:  string(hashed),
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := a.users.InsertOne(c.Request.Context(), user); err != nil {
		apperr.Abort(c, err)
		return
	}

	token, err := tokens.CreateToken(a.secret, user.ID.Hex(), a.ttl)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": user, "token": token})
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *Auth) Login(c *gin.Context) {
	var in loginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperr.Abort(c, apperr.BadRequest("invalid request body: %v", err))
		return
	}

	var user models.User
	err := a.users.FindOne(c.Request.Context(),
		bson.M{"email": in.Email, "deleted": bson.M{"$ne": true}}).Decode(&user)
	if err != nil && err != mongo.ErrNoDocuments {
		apperr.Abort(c, err)
		return
	}
	if err == mongo.ErrNoDocuments ||
		bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		apperr.Abort(c, apperr.Unauthorized("Incorrect email or password"))
		return
	}

	token, err := tokens.CreateToken(a.secret, user.ID.Hex(), a.ttl)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user, "token": token})
}

type passwordInput struct {
	Password string `json:"password"`
}

// setPassword hashes and stores a new password, stamping passwordChangedAt so
// previously minted tokens go stale.
func (a *Auth) setPassword(ctx context.Context, id primitive.ObjectID, password string) (*models.User, error) {
	if password == "" {
		return nil, apperr.BadRequest("Password is required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var user models.User
	err = a.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"password":          string(hashed),
			"passwordChangedAt": now,
			"updatedAt":         now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("No user found with ID %s", id.Hex())
		}
		return nil, err
	}
	return &user, nil
}

// ChangeUserPassword resets another account's password (admin operation).
func (a *Auth) ChangeUserPassword(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		apperr.Abort(c, apperr.BadRequest("Invalid id format: %s", c.Param("id")))
		return
	}
	var in passwordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperr.Abort(c, apperr.BadRequest("invalid request body: %v", err))
		return
	}

	user, err := a.setPassword(c.Request.Context(), id, in.Password)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

// ChangeMyPassword rotates the authenticated user's password and returns a
// fresh token, since the old one is stale from this moment.
func (a *Auth) ChangeMyPassword(c *gin.Context) {
	me := c.MustGet("user").(*models.User)
	var in passwordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperr.Abort(c, apperr.BadRequest("invalid request body: %v", err))
		return
	}

	user, err := a.setPassword(c.Request.Context(), me.ID, in.Password)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	token, err := tokens.CreateToken(a.secret, user.ID.Hex(), a.ttl)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user, "token": token})
}

// asMe rewrites the id path parameter to the authenticated user before
// delegating, so the generic handlers serve the getMe/updateMe endpoints.
func asMe(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		me := c.MustGet("user").(*models.User)
		c.Params = append(c.Params, gin.Param{Key: "id", Value: me.ID.Hex()})
		next(c)
	}
}

// hashAccountBody prepares an account create body: passwords are stored
// bcrypt-hashed and the role defaults to the plain user role.
func hashAccountBody(body map[string]interface{}) (map[string]interface{}, error) {
	if pw, ok := body["password"].(string); ok && pw != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(pw), bcryptCost)
		if err != nil {
			return nil, err
		}
		body["password"] = string(hashed)
	}
	if role, ok := body["role"].(string); !ok || role == "" {
		body["role"] = models.RoleUser
	}
	return body, nil
}

// paramAlias copies a path parameter under a second name before delegating.
// Used where one route level carries differently named parameters.
func paramAlias(from, to string, next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Params = append(c.Params, gin.Param{Key: to, Value: c.Param(from)})
		next(c)
	}
}
