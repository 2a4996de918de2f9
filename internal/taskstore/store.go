// Package taskstore keeps the signed-in user's tasks and mediates every
// change to them through the remote service.
package taskstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"youdo/internal/logging"
	"youdo/internal/service"
	"youdo/internal/session"
	"youdo/internal/urgency"
)

var (
	// ErrNotAuthenticated is returned when an operation runs without a session.
	ErrNotAuthenticated = errors.New("not logged in")

	// ErrSessionChanged is returned by a refresh whose session ended or
	// changed while the list request was in flight. Its result is dropped.
	ErrSessionChanged = errors.New("session changed during refresh")

	// ErrSessionExpired wraps a 401 from the remote service.
	ErrSessionExpired = errors.New("session expired")

	// ErrTaskNotFound is returned for ids that are not in the collection.
	ErrTaskNotFound = errors.New("task not found")

	// ErrNoPendingDelete is returned by ConfirmDelete with nothing requested.
	ErrNoPendingDelete = errors.New("no delete pending")
)

// Session is the part of the session store the task store depends on.
type Session interface {
	Active() bool
	Generation() uint64
	Expire() error
	Subscribe(fn func(session.Event)) func()
}

// Draft is the input of Create.
type Draft struct {
	Title       string
	Description string

	// Priority defaults to medium when empty.
	Priority service.Priority

	// Due is a date (YYYY-MM-DD, taken as UTC midnight) or an RFC 3339
	// instant. Empty means no due date.
	Due string
}

// Edit is the input of Update. Nil fields keep the current value.
type Edit struct {
	Title       *string
	Description *string
	Priority    *service.Priority

	// Due uses the Draft format; a pointer to "" clears the due date.
	Due *string
}

// Snapshot is a consistent view of the store.
type Snapshot struct {
	// Pending holds open tasks, newest first.
	Pending []service.Task

	// Completed holds finished tasks, most recently updated first.
	Completed []service.Task

	UrgentCount   int
	Busy          bool
	PendingDelete *int
	Err           error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.With("component", "taskstore")
		}
	}
}

// WithClock overrides the time source used for urgency in notifications.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is safe for concurrent use. Remote calls run outside the lock and
// are neither serialized nor cancelled by one another.
type Store struct {
	svc    service.TaskService
	sess   Session
	logger *slog.Logger
	now    func() time.Time

	mu            sync.Mutex
	tasks         map[int]service.Task
	pendingDelete *int
	busy          bool
	err           error

	subMu       sync.Mutex
	subs        map[int]func(Snapshot)
	nextSubID   int
	unsubscribe func()
}

// New creates an empty Store bound to sess. The collection is cleared
// whenever the session changes.
func New(svc service.TaskService, sess Session, opts ...Option) *Store {
	s := &Store{
		svc:    svc,
		sess:   sess,
		logger: logging.Discard(),
		now:    time.Now,
		tasks:  make(map[int]service.Task),
		subs:   make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.unsubscribe = sess.Subscribe(s.onSession)
	return s
}

// Close detaches the store from its session.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Refresh replaces the collection with the remote list.
func (s *Store) Refresh(ctx context.Context) error {
	s.begin()
	err := s.refresh(ctx)
	s.end(err)
	return err
}

// Create validates d, submits it and refreshes.
func (s *Store) Create(ctx context.Context, d Draft) error {
	s.begin()
	err := s.create(ctx, d)
	s.end(err)
	return err
}

// Update applies e to the task with id and refreshes. The whole record is
// sent, not just the changed fields.
func (s *Store) Update(ctx context.Context, id int, e Edit) error {
	s.begin()
	err := s.update(ctx, id, func(t *service.Task) error { return applyEdit(t, e) })
	s.end(err)
	return err
}

// Toggle flips the completion flag of the task with id.
func (s *Store) Toggle(ctx context.Context, id int) error {
	s.begin()
	err := s.update(ctx, id, func(t *service.Task) error {
		t.IsCompleted = !t.IsCompleted
		return nil
	})
	s.end(err)
	return err
}

// RequestDelete marks id for deletion, replacing any earlier request.
func (s *Store) RequestDelete(id int) error {
	s.mu.Lock()
	if _, ok := s.tasks[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	s.pendingDelete = &id
	s.mu.Unlock()

	s.notify()
	return nil
}

// CancelDelete drops the pending delete, if any.
func (s *Store) CancelDelete() {
	s.mu.Lock()
	s.pendingDelete = nil
	s.mu.Unlock()

	s.notify()
}

// ConfirmDelete deletes the pending task and refreshes. The pending id is
// cleared whether or not the delete succeeds.
func (s *Store) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	pending := s.pendingDelete
	s.pendingDelete = nil
	s.mu.Unlock()

	if pending == nil {
		return ErrNoPendingDelete
	}

	s.begin()
	err := s.remove(ctx, *pending)
	s.end(err)
	return err
}

// Snapshot returns the derived views, classifying urgency against now.
func (s *Store) Snapshot(now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(now)
}

// Pending returns open tasks, newest first.
func (s *Store) Pending() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, _ := s.partitionLocked()
	return pending
}

// Completed returns finished tasks, most recently updated first.
func (s *Store) Completed() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, completed := s.partitionLocked()
	return completed
}

// UrgentCount returns how many open tasks are urgent at now.
func (s *Store) UrgentCount(now time.Time) int {
	return CountUrgent(s.Pending(), now)
}

// Get returns the task with id from the collection.
func (s *Store) Get(id int) (service.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t, ok
}

// Len returns the collection size.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Busy reports whether an operation is in flight. Every operation sets it
// when it starts and clears it when it ends, so with overlapping operations
// the last one to resolve decides the value.
func (s *Store) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Err returns the error of the last operation, or nil.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// PendingDelete returns the id awaiting confirmation.
func (s *Store) PendingDelete() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingDelete == nil {
		return 0, false
	}
	return *s.pendingDelete, true
}

// Subscribe registers fn to receive a Snapshot after each state change and
// returns a function that unregisters it.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// CountUrgent returns how many of tasks have an urgency at now.
func CountUrgent(tasks []service.Task, now time.Time) int {
	n := 0
	for _, t := range tasks {
		if _, ok := urgency.Classify(t.DueDate, now); ok {
			n++
		}
	}
	return n
}

func (s *Store) refresh(ctx context.Context) error {
	if !s.sess.Active() {
		return ErrNotAuthenticated
	}
	gen := s.sess.Generation()

	list, err := s.svc.ListTasks(ctx)
	if err != nil {
		return s.remoteErr("list tasks", err)
	}

	s.mu.Lock()
	if !s.sess.Active() || s.sess.Generation() != gen {
		s.mu.Unlock()
		s.logger.Debug("dropping stale task list", "generation", gen)
		return ErrSessionChanged
	}
	tasks := make(map[int]service.Task, len(list.Tasks))
	for _, t := range list.Tasks {
		tasks[t.ID] = t
	}
	s.tasks = tasks
	s.mu.Unlock()

	s.logger.Debug("tasks refreshed", "count", len(tasks))
	return nil
}

func (s *Store) create(ctx context.Context, d Draft) error {
	if !s.sess.Active() {
		return ErrNotAuthenticated
	}

	req := service.CreateTaskRequest{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Priority:    d.Priority,
	}
	if req.Priority == "" {
		req.Priority = service.PriorityMedium
	}
	due, err := ParseDue(d.Due)
	if err != nil {
		return err
	}
	if due != nil {
		formatted := service.FormatDue(*due)
		req.DueDate = &formatted
	}
	if err := service.Validate(req); err != nil {
		return err
	}

	task, err := s.svc.CreateTask(ctx, req)
	if err != nil {
		return s.remoteErr("create task", err)
	}
	s.logger.Info("task created", "task_id", task.ID)
	return s.refresh(ctx)
}

func (s *Store) update(ctx context.Context, id int, change func(*service.Task) error) error {
	if !s.sess.Active() {
		return ErrNotAuthenticated
	}

	current, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	next := current
	if err := change(&next); err != nil {
		return err
	}
	if next.Title == "" {
		return &service.ValidationError{Field: "title", Reason: "required"}
	}

	req := recordOf(next)
	if err := service.Validate(req); err != nil {
		return err
	}

	if _, err := s.svc.UpdateTask(ctx, id, req); err != nil {
		return s.remoteErr("update task", err)
	}
	s.logger.Info("task updated", "task_id", id)
	return s.refresh(ctx)
}

func (s *Store) remove(ctx context.Context, id int) error {
	if !s.sess.Active() {
		return ErrNotAuthenticated
	}
	if err := s.svc.DeleteTask(ctx, id); err != nil {
		return s.remoteErr("delete task", err)
	}
	s.logger.Info("task deleted", "task_id", id)
	return s.refresh(ctx)
}

// remoteErr expires the session on 401.
func (s *Store) remoteErr(op string, err error) error {
	s.logger.Debug("remote call failed", "op", op, "error", err)
	if service.IsUnauthorized(err) {
		if expireErr := s.sess.Expire(); expireErr != nil {
			s.logger.Warn("failed to clear expired session", "error", expireErr)
		}
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	return err
}

func (s *Store) begin() {
	s.mu.Lock()
	s.busy = true
	s.err = nil
	s.mu.Unlock()
	s.notify()
}

func (s *Store) end(err error) {
	s.mu.Lock()
	s.busy = false
	if !errors.Is(err, ErrSessionChanged) {
		s.err = err
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) onSession(session.Event) {
	s.mu.Lock()
	s.tasks = make(map[int]service.Task)
	s.pendingDelete = nil
	s.err = nil
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	if len(fns) == 0 {
		return
	}

	snap := s.Snapshot(s.now())
	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) snapshotLocked(now time.Time) Snapshot {
	pending, completed := s.partitionLocked()
	snap := Snapshot{
		Pending:     pending,
		Completed:   completed,
		UrgentCount: CountUrgent(pending, now),
		Busy:        s.busy,
		Err:         s.err,
	}
	if s.pendingDelete != nil {
		id := *s.pendingDelete
		snap.PendingDelete = &id
	}
	return snap
}

func (s *Store) partitionLocked() (pending, completed []service.Task) {
	for _, t := range s.tasks {
		if t.IsCompleted {
			completed = append(completed, t)
		} else {
			pending = append(pending, t)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return newer(pending[i].CreatedAt, pending[j].CreatedAt, pending[i].ID, pending[j].ID)
	})
	sort.Slice(completed, func(i, j int) bool {
		return newer(completed[i].UpdatedAt, completed[j].UpdatedAt, completed[i].ID, completed[j].ID)
	})
	return pending, completed
}

// newer orders by time descending, then id descending.
func newer(a, b time.Time, aID, bID int) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aID > bID
}

func applyEdit(t *service.Task, e Edit) error {
	if e.Title != nil {
		t.Title = strings.TrimSpace(*e.Title)
	}
	if e.Description != nil {
		t.Description = strings.TrimSpace(*e.Description)
	}
	if e.Priority != nil {
		t.Priority = *e.Priority
	}
	if e.Due != nil {
		due, err := ParseDue(*e.Due)
		if err != nil {
			return err
		}
		t.DueDate = due
	}
	return nil
}

// recordOf builds the full update payload for t.
func recordOf(t service.Task) service.UpdateTaskRequest {
	title := t.Title
	description := t.Description
	completed := t.IsCompleted
	priority := t.Priority
	due := ""
	if t.DueDate != nil {
		due = service.FormatDue(*t.DueDate)
	}
	return service.UpdateTaskRequest{
		Title:       &title,
		Description: &description,
		IsCompleted: &completed,
		Priority:    &priority,
		DueDate:     &due,
	}
}

// ParseDue accepts YYYY-MM-DD (UTC midnight) or an RFC 3339 instant.
// Empty input yields nil.
func ParseDue(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	return nil, &service.ValidationError{Field: "due_date", Reason: "must be YYYY-MM-DD or RFC 3339"}
}
