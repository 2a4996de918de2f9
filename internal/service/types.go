// Package service defines the backend-agnostic interface for task operations.
package service

import "time"

// Priority is the urgency a user assigns to a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the accepted priorities in ascending order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether p is one of the accepted priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a single task item as stored by the remote service.
type Task struct {
	ID          int        `json:"id" yaml:"id"`
	UserID      int        `json:"user_id" yaml:"user_id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	IsCompleted bool       `json:"is_completed" yaml:"is_completed"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at"`
}

// TaskList is the payload of the list operation.
type TaskList struct {
	Tasks []Task `json:"tasks"`
	Total int    `json:"total"`
}

// User is the authenticated account.
type User struct {
	ID    int    `json:"id" yaml:"id"`
	Email string `json:"email" yaml:"email"`
	Name  string `json:"name" yaml:"name"`
}

// AuthData is the payload of login and register.
type AuthData struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// CreateTaskRequest is the body of POST /tasks.
// DueDate, when set, is an RFC 3339 instant (see FormatDue).
type CreateTaskRequest struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *string  `json:"due_date,omitempty"`
}

// UpdateTaskRequest is the body of PUT /tasks/{id}.
// Fields left nil are not sent and keep their stored value. A DueDate
// pointing at "" clears the due date.
type UpdateTaskRequest struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string   `json:"description,omitempty"`
	IsCompleted *bool     `json:"is_completed,omitempty"`
	Priority    *Priority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	DueDate     *string   `json:"due_date,omitempty"`
}

// FormatDue renders a due instant the way the remote service parses it.
func FormatDue(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseDue parses a wire due date. "" means no due date.
func ParseDue(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Envelope is the uniform response wrapper returned by every remote operation.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
	Error   string `json:"error"`
}
