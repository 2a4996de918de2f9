package testutil

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"youdo/internal/service"
)

// serverSecret signs the HS256 tokens issued by Server.
var serverSecret = []byte("youdo-test-secret")

// TokenTTL is the lifetime of tokens issued by Server.
const TokenTTL = 24 * time.Hour

const userIDKey = "user_id"

// Server is an httptest server speaking the YouDo API contract, backed by
// a FakeService. Routes live under /api.
type Server struct {
	*httptest.Server
	Fake *FakeService

	// requests records "METHOD /path" for every request received.
	requests []string
	// authHeaders keeps the Authorization header of every request.
	authHeaders []string
}

// NewServer starts a Server and closes it when the test ends.
func NewServer(t *testing.T, fake *FakeService) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{Fake: fake}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.record())

	api := router.Group("/api")
	{
		api.POST("/auth/login", s.handleLogin)
		api.POST("/auth/register", s.handleRegister)

		tasks := api.Group("/tasks")
		tasks.Use(authMiddleware())
		{
			tasks.GET("", s.handleList)
			tasks.POST("", s.handleCreate)
			tasks.PUT("/:id", s.handleUpdate)
			tasks.DELETE("/:id", s.handleDelete)
		}
	}

	s.Server = httptest.NewServer(router)
	t.Cleanup(s.Server.Close)
	return s
}

// APIURL returns the root to configure the client with.
func (s *Server) APIURL() string {
	return s.URL + "/api"
}

// Requests returns the recorded "METHOD /path" lines.
func (s *Server) Requests() []string {
	s.Fake.mu.Lock()
	defer s.Fake.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// AuthHeaders returns the Authorization header of every request, "" when
// absent.
func (s *Server) AuthHeaders() []string {
	s.Fake.mu.Lock()
	defer s.Fake.mu.Unlock()
	return append([]string(nil), s.authHeaders...)
}

// IssueToken signs a token for userID expiring after ttl.
func IssueToken(userID int, email string, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(serverSecret)
	if err != nil {
		panic(err)
	}
	return token
}

func (s *Server) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.Fake.mu.Lock()
		s.requests = append(s.requests, c.Request.Method+" "+c.Request.URL.Path)
		s.authHeaders = append(s.authHeaders, c.GetHeader("Authorization"))
		s.Fake.mu.Unlock()
		c.Next()
	}
}

func authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			errorResponse(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			errorResponse(c, http.StatusUnauthorized, "Invalid authorization format")
			c.Abort()
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return serverSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			errorResponse(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}
		id, ok := claims["user_id"].(float64)
		if !ok {
			errorResponse(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}
		c.Set(userIDKey, int(id))
		c.Next()
	}
}

func (s *Server) handleLogin(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.Fake.Authenticate(req.Email, req.Password)
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Login successful", service.AuthData{
		Token: IssueToken(user.ID, user.Email, TokenTTL),
		User:  user,
	})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.Fake.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusCreated, "User registered successfully", service.AuthData{
		Token: IssueToken(user.ID, user.Email, TokenTTL),
		User:  user,
	})
}

func (s *Server) handleList(c *gin.Context) {
	successResponse(c, http.StatusOK, "Tasks retrieved successfully", s.Fake.ListFor(c.GetInt(userIDKey)))
}

func (s *Server) handleCreate(c *gin.Context) {
	var req service.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	task, err := s.Fake.CreateFor(c.GetInt(userIDKey), req)
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusCreated, "Task created successfully", task)
}

func (s *Server) handleUpdate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid task ID")
		return
	}
	var req service.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	task, err := s.Fake.UpdateFor(c.GetInt(userIDKey), id, req)
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Task updated successfully", task)
}

func (s *Server) handleDelete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid task ID")
		return
	}
	if err := s.Fake.DeleteFor(c.GetInt(userIDKey), id); err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Task deleted successfully", nil)
}

func successResponse(c *gin.Context, status int, message string, data any) {
	c.JSON(status, service.Envelope[any]{Success: true, Message: message, Data: data})
}

func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, service.Envelope[any]{Success: false, Error: message})
}

func failWith(c *gin.Context, err error) {
	var appErr *service.ApplicationError
	if errors.As(err, &appErr) {
		errorResponse(c, appErr.Status, appErr.Message)
		return
	}
	errorResponse(c, http.StatusInternalServerError, fmt.Sprintf("internal error: %v", err))
}
