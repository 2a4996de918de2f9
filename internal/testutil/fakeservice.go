// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"youdo/internal/service"
)

// Epoch is the clock origin of a FakeService. Each mutation advances the
// clock by one second so created/updated timestamps are strictly ordered.
var Epoch = time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)

// FakeService is an in-memory implementation of service.Service for testing.
// Direct calls act on behalf of UserID; the HTTP Server passes the user from
// the bearer token instead.
type FakeService struct {
	mu         sync.Mutex
	users      map[string]fakeUser // email -> user
	tasks      map[int]service.Task
	nextUserID int
	nextTaskID int
	clock      time.Time
	calls      []string
	listHold   *Hold

	// UserID is the acting user for direct calls.
	UserID int

	// Error injection for testing
	LoginErr      error
	RegisterErr   error
	ListTasksErr  error
	CreateTaskErr error
	UpdateTaskErr error
	DeleteTaskErr error
}

type fakeUser struct {
	service.User
	password string
}

// Hold pauses the next ListTasks call until Release is called.
type Hold struct {
	started  chan struct{}
	released chan struct{}
	once     sync.Once
}

// Started is closed once the held call has begun.
func (h *Hold) Started() <-chan struct{} { return h.started }

// Release lets the held call return.
func (h *Hold) Release() { h.once.Do(func() { close(h.released) }) }

// NewFakeService creates a new FakeService with one user,
// ada@example.com / password123, who is the acting user.
func NewFakeService() *FakeService {
	f := &FakeService{
		users:      make(map[string]fakeUser),
		tasks:      make(map[int]service.Task),
		nextUserID: 1,
		nextTaskID: 1,
		clock:      Epoch,
	}
	u := f.addUser("Ada", "ada@example.com", "password123")
	f.UserID = u.ID
	return f
}

// AddUser registers an account and returns it.
func (f *FakeService) AddUser(name, email, password string) service.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addUser(name, email, password).User
}

func (f *FakeService) addUser(name, email, password string) fakeUser {
	u := fakeUser{
		User:     service.User{ID: f.nextUserID, Email: email, Name: name},
		password: password,
	}
	f.nextUserID++
	f.users[strings.ToLower(email)] = u
	return u
}

// Seed stores t as-is for the acting user, assigning an id and timestamps
// when they are zero. It returns the stored task.
func (f *FakeService) Seed(t service.Task) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t.ID == 0 {
		t.ID = f.nextTaskID
	}
	if t.ID >= f.nextTaskID {
		f.nextTaskID = t.ID + 1
	}
	if t.UserID == 0 {
		t.UserID = f.UserID
	}
	if t.Priority == "" {
		t.Priority = service.PriorityMedium
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = f.tick()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	f.tasks[t.ID] = t
	return t
}

// Task returns the stored task with id.
func (f *FakeService) Task(id int) (service.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	return t, ok
}

// Len returns the number of stored tasks across all users.
func (f *FakeService) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// Calls returns the recorded calls, e.g. "ListTasks" or "DeleteTask 5".
func (f *FakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many recorded calls start with prefix.
func (f *FakeService) CallCount(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// HoldList makes the next ListTasks call block until the Hold is released.
func (f *FakeService) HoldList() *Hold {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := &Hold{started: make(chan struct{}), released: make(chan struct{})}
	f.listHold = h
	return h
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, req service.LoginRequest) (service.AuthData, error) {
	f.record("Login %s", req.Email)
	if f.LoginErr != nil {
		return service.AuthData{}, f.LoginErr
	}
	user, err := f.Authenticate(req.Email, req.Password)
	if err != nil {
		return service.AuthData{}, err
	}
	f.mu.Lock()
	f.UserID = user.ID
	f.mu.Unlock()
	return service.AuthData{Token: FakeToken(user.ID), User: user}, nil
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, req service.RegisterRequest) (service.AuthData, error) {
	f.record("Register %s", req.Email)
	if f.RegisterErr != nil {
		return service.AuthData{}, f.RegisterErr
	}
	user, err := f.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return service.AuthData{}, err
	}
	f.mu.Lock()
	f.UserID = user.ID
	f.mu.Unlock()
	return service.AuthData{Token: FakeToken(user.ID), User: user}, nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) (service.TaskList, error) {
	f.record("ListTasks")
	f.mu.Lock()
	hold := f.listHold
	f.listHold = nil
	f.mu.Unlock()

	if hold != nil {
		close(hold.started)
		select {
		case <-hold.released:
		case <-ctx.Done():
			return service.TaskList{}, ctx.Err()
		}
	}

	if f.ListTasksErr != nil {
		return service.TaskList{}, f.ListTasksErr
	}
	return f.ListFor(f.actingUser()), nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, req service.CreateTaskRequest) (service.Task, error) {
	f.record("CreateTask %s", req.Title)
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	return f.CreateFor(f.actingUser(), req)
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id int, req service.UpdateTaskRequest) (service.Task, error) {
	f.record("UpdateTask %d", id)
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	return f.UpdateFor(f.actingUser(), id, req)
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int) error {
	f.record("DeleteTask %d", id)
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	return f.DeleteFor(f.actingUser(), id)
}

// Authenticate checks an email/password pair.
func (f *FakeService) Authenticate(email, password string) (service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[strings.ToLower(email)]
	if !ok || u.password != password {
		return service.User{}, &service.ApplicationError{Status: 401, Message: "invalid email or password"}
	}
	return u.User, nil
}

// CreateUser registers a new account, rejecting duplicate emails.
func (f *FakeService) CreateUser(name, email, password string) (service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[strings.ToLower(email)]; exists {
		return service.User{}, &service.ApplicationError{Status: 400, Message: "email already registered"}
	}
	return f.addUser(name, email, password).User, nil
}

// ListFor returns the tasks of userID ordered by id.
func (f *FakeService) ListFor(userID int) service.TaskList {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []service.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return service.TaskList{Tasks: out, Total: len(out)}
}

// CreateFor stores a new task for userID.
func (f *FakeService) CreateFor(userID int, req service.CreateTaskRequest) (service.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return service.Task{}, &service.ApplicationError{Status: 400, Message: "title is required"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	priority := req.Priority
	if priority == "" {
		priority = service.PriorityMedium
	}
	var due *time.Time
	if req.DueDate != nil {
		parsed, err := service.ParseDue(*req.DueDate)
		if err != nil {
			return service.Task{}, &service.ApplicationError{Status: 400, Message: "invalid due_date format"}
		}
		due = parsed
	}
	now := f.tick()
	t := service.Task{
		ID:          f.nextTaskID,
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		DueDate:     due,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.nextTaskID++
	f.tasks[t.ID] = t
	return t, nil
}

// UpdateFor applies req to a task owned by userID.
func (f *FakeService) UpdateFor(userID, id int, req service.UpdateTaskRequest) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return service.Task{}, &service.ApplicationError{Status: 404, Message: "task not found"}
	}
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.IsCompleted != nil {
		t.IsCompleted = *req.IsCompleted
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.DueDate != nil {
		due, err := service.ParseDue(*req.DueDate)
		if err != nil {
			return service.Task{}, &service.ApplicationError{Status: 400, Message: "invalid due_date format"}
		}
		t.DueDate = due
	}
	t.UpdatedAt = f.tick()
	f.tasks[id] = t
	return t, nil
}

// DeleteFor removes a task owned by userID.
func (f *FakeService) DeleteFor(userID, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return &service.ApplicationError{Status: 404, Message: "task not found"}
	}
	delete(f.tasks, id)
	return nil
}

// FakeToken is the opaque token FakeService issues to userID.
func FakeToken(userID int) string {
	return fmt.Sprintf("fake-token-%d", userID)
}

func (f *FakeService) actingUser() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.UserID
}

func (f *FakeService) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// tick must be called with mu held.
func (f *FakeService) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}
