// users.go

package main

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = time.Hour

const invalidCredentials = "Invalid username or password"

// randomToken builds an activation or reset token: 20 random bytes, hex
// encoded.
func randomToken() string {
	b := make([]byte, 20)
	rand.Read(b)
	return hex.EncodeToString(b)
}

type JWTClaims struct {
	UserID string `json:"userId"`
	jwt.StandardClaims
}

func signLoginToken(userID string) (string, error) {
	claims := JWTClaims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

// ----- Registration & activation -----

type registerRequest struct {
	Username    string `json:"username" binding:"required"`
	PhoneNumber string `json:"phonenumber" binding:"required"`
	Address     string `json:"address" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	Role        string `json:"role"`
}

func register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if req.Role == "" {
		req.Role = "user"
	}

	ctx := c.Request.Context()
	err := db.Collection("users").FindOne(ctx, bson.M{
		"$or": bson.A{bson.M{"email": req.Email}, bson.M{"phonenumber": req.PhoneNumber}},
	}).Err()
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email or Phone Number already exists"})
		return
	}
	if err != mongo.ErrNoDocuments {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}

	user := User{
		Username:              req.Username,
		PhoneNumber:           req.PhoneNumber,
		Address:               req.Address,
		Email:                 req.Email,
		Password:              string(hashed),
		Role:                  req.Role,
		IsActive:              false,
		ActivationToken:       randomToken(),
		ActivationTokenExpiry: time.Now().Add(tokenTTL),
	}
	if _, err := db.Collection("users").InsertOne(ctx, user); err != nil {
		logrus.WithError(err).Error("registration insert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}

	activationURL := cfg.BaseURL + "/api/users/activate/" + user.ActivationToken
	body := `Please activate your account by clicking the following link: <a href="` + activationURL + `">Activate Account</a>`
	if err := mailer.Send(req.Email, "Account Activation", body); err != nil {
		logrus.WithError(err).Error("activation email failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Registration successful! Please check your email to activate your account."})
}

func activate(c *gin.Context) {
	ctx := c.Request.Context()
	token := c.Param("token")

	var user User
	err := db.Collection("users").FindOne(ctx, bson.M{
		"activationToken":       token,
		"activationTokenExpiry": bson.M{"$gt": time.Now()},
	}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired activation token"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}

	// Clearing the token is what makes it single-use.
	_, err = db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{
			"$set":   bson.M{"isActive": true},
			"$unset": bson.M{"activationToken": "", "activationTokenExpiry": ""},
		})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}

	c.Redirect(http.StatusFound, cfg.FrontendURL+"/login")
}

// ----- Login -----

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// login looks the user up by username. Unknown user, wrong password and
// inactive account all share one message so callers cannot probe accounts.
func login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var user User
	err := db.Collection("users").FindOne(c.Request.Context(), bson.M{"username": req.Username}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusBadRequest, gin.H{"message": invalidCredentials})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": invalidCredentials})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"message": invalidCredentials})
		return
	}

	token, err := signLoginToken(user.ID.Hex())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}
	user.Password = ""
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"userId":  user.ID.Hex(),
		"token":   token,
	})
}

// ----- Profile -----

func getUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}
	var user User
	err = db.Collection("users").FindOne(c.Request.Context(), bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}
	user.Password = ""
	c.JSON(http.StatusOK, user)
}

// ----- Password reset -----

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var user User
	err := db.Collection("users").FindOne(ctx, bson.M{"email": req.Email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}

	token := randomToken()
	_, err = db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"resetToken": token, "resetTokenExpiry": time.Now().Add(tokenTTL)}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}

	resetURL := cfg.FrontendURL + "/reset-password/" + token
	body := `You requested a password reset. Click the link to reset your password: <a href="` + resetURL + `">Reset Password</a>`
	if err := mailer.Send(req.Email, "Password Reset Request", body); err != nil {
		logrus.WithError(err).Error("reset email failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset email sent"})
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var user User
	err := db.Collection("users").FindOne(ctx, bson.M{
		"resetToken":       req.Token,
		"resetTokenExpiry": bson.M{"$gt": time.Now()},
	}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired token"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}
	_, err = db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{
			"$set":   bson.M{"password": string(hashed)},
			"$unset": bson.M{"resetToken": "", "resetTokenExpiry": ""},
		})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset successfully"})
}

// ----- Admin & listing -----

func listUsersByRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cur, err := db.Collection("users").Find(c.Request.Context(), bson.M{"role": role})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
			return
		}
		users := []User{}
		if err := cur.All(c.Request.Context(), &users); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
			return
		}
		for i := range users {
			users[i].Password = ""
		}
		c.JSON(http.StatusOK, users)
	}
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func updateUserRole(c *gin.Context) {
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if req.Role != "admin" && req.Role != "user" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid role"})
		return
	}
	userID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}

	res, err := db.Collection("users").UpdateOne(c.Request.Context(),
		bson.M{"_id": userID}, bson.M{"$set": bson.M{"role": req.Role}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User role updated successfully"})
}

type updateUserRequest struct {
	Username    string `json:"username"`
	PhoneNumber string `json:"phonenumber"`
	Address     string `json:"address"`
	Email       string `json:"email"`
}

// updateUser merges non-empty request fields over the stored record; omitted
// fields keep their current value.
func updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	userID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}

	ctx := c.Request.Context()
	var user User
	err = db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = req.PhoneNumber
	}
	if req.Address != "" {
		user.Address = req.Address
	}
	if req.Email != "" {
		user.Email = req.Email
	}

	_, err = db.Collection("users").UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{
		"username":    user.Username,
		"phonenumber": user.PhoneNumber,
		"address":     user.Address,
		"email":       user.Email,
	}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}
	user.Password = ""
	c.JSON(http.StatusOK, gin.H{"message": "User details updated successfully", "user": user})
}

func deleteUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}
	res, err := db.Collection("users").DeleteOne(c.Request.Context(), bson.M{"_id": userID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
