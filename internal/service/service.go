// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Authenticator exchanges credentials for a session token.
type Authenticator interface {
	// Login authenticates an existing account.
	Login(ctx context.Context, req LoginRequest) (AuthData, error)

	// Register creates an account and authenticates it.
	Register(ctx context.Context, req RegisterRequest) (AuthData, error)
}

// TaskService is the task half of the remote contract.
// All calls require a bearer token.
type TaskService interface {
	// ListTasks returns every task of the authenticated user.
	// Results are in API order (no client-side sorting).
	ListTasks(ctx context.Context) (TaskList, error)

	// CreateTask creates a task. The remote service assigns the id
	// and timestamps.
	CreateTask(ctx context.Context, req CreateTaskRequest) (Task, error)

	// UpdateTask replaces the fields present in req.
	UpdateTask(ctx context.Context, id int, req UpdateTaskRequest) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id int) error
}

// Service defines the interface for task backend operations.
// All remote calls go through this interface.
// Commands never import the HTTP client directly.
type Service interface {
	Authenticator
	TaskService
}

// Credentials supplies the bearer token attached to remote calls.
// An empty token means the call is sent without Authorization.
type Credentials interface {
	BearerToken() string
}

// CredentialsFunc adapts a function to Credentials.
type CredentialsFunc func() string

// BearerToken implements Credentials.
func (f CredentialsFunc) BearerToken() string {
	if f == nil {
		return ""
	}
	return f()
}
