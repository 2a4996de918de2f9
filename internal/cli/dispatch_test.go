package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"youdo/internal/backend/googletasks"
	"youdo/internal/backend/youdoapi"
	"youdo/internal/cli"
	"youdo/internal/commands"
	"youdo/internal/config"
	"youdo/internal/exitcode"
	"youdo/internal/service"
	"youdo/internal/testutil"
)

var now = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

// testFactory creates a service factory that returns the given FakeService.
func testFactory(svc *testutil.FakeService) cli.ServiceFactory {
	return func(ctx context.Context, cfg *config.Config, creds service.Credentials, logger *slog.Logger) (service.Service, error) {
		return svc, nil
	}
}

// harness runs commands against one config directory.
type harness struct {
	t    *testing.T
	dir  string
	fake *testutil.FakeService
	opts []cli.Option
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("YOUDO_API_URL", "")
	t.Setenv("YOUDO_STORE", "")
	t.Setenv("YOUDO_TIMEOUT", "")
	t.Setenv("YOUDO_LOG_FILE", "")
	return &harness{
		t:    t,
		dir:  t.TempDir(),
		fake: testutil.NewFakeService(),
		opts: []cli.Option{cli.WithClock(func() time.Time { return now })},
	}
}

// run executes `youdo <cmd> --config <dir> <args...>`.
func (h *harness) run(input string, cmd string, args ...string) (stdout, stderr string, code int) {
	h.t.Helper()
	opts := append([]cli.Option{cli.WithInput(strings.NewReader(input))}, h.opts...)
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(h.fake), opts...)

	full := append([]string{cmd, "--config", h.dir}, args...)
	var outBuf, errBuf bytes.Buffer
	code = d.Run(context.Background(), full, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func (h *harness) login() {
	h.t.Helper()
	_, stderr, code := h.run("", "login", "--email", "ada@example.com", "--password", "password123")
	if code != exitcode.Success {
		h.t.Fatalf("login failed (%d): %s", code, stderr)
	}
}

func expectCode(t *testing.T, want, got int, stderr string) {
	t.Helper()
	if got != want {
		t.Errorf("expected exit code %d, got %d (stderr %q)", want, got, stderr)
	}
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"unknowncmd"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"--quiet"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	h := newHarness(t)

	stdout, stderr, code := h.run("", "help")

	expectCode(t, exitcode.Success, code, stderr)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	h := newHarness(t)

	stdout, stderr, code := h.run("", "version")

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "youdo 0.1.0\n" {
		t.Errorf("expected 'youdo 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	h := newHarness(t)

	_, stderr, code := h.run("", "help", "--unknown")

	expectCode(t, exitcode.UserError, code, stderr)
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_MissingFlagValue(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, stderr, code := h.run("", "add", "--due")

	expectCode(t, exitcode.UserError, code, stderr)
	if stderr != "error: flag needs an argument: -due\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_NotLoggedIn(t *testing.T) {
	h := newHarness(t)

	for _, cmd := range []string{"list", "add", "done", "rm", "whoami"} {
		_, stderr, code := h.run("", cmd, "1")
		expectCode(t, exitcode.AuthError, code, stderr)
		if stderr != "error: not logged in (run: youdo login)\n" {
			t.Errorf("%s: unexpected stderr %q", cmd, stderr)
		}
	}
	if n := len(h.fake.Calls()); n != 0 {
		t.Errorf("expected no remote calls, got %v", h.fake.Calls())
	}
}

func TestLogin_Flags(t *testing.T) {
	h := newHarness(t)

	stdout, stderr, code := h.run("", "login", "--email", "ada@example.com", "--password", "password123")

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "logged in as Ada <ada@example.com>\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}

	stdout, stderr, code = h.run("", "whoami")
	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "Ada <ada@example.com>\n" {
		t.Errorf("unexpected whoami %q", stdout)
	}
}

func TestLogin_Prompts(t *testing.T) {
	h := newHarness(t)

	stdout, stderr, code := h.run("ada@example.com\npassword123\n", "login")

	expectCode(t, exitcode.Success, code, stderr)
	if stderr != "email: password: " {
		t.Errorf("unexpected prompts %q", stderr)
	}
	if stdout != "logged in as Ada <ada@example.com>\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
}

func TestLogin_NoInput(t *testing.T) {
	h := newHarness(t)

	_, stderr, code := h.run("", "login")

	expectCode(t, exitcode.UserError, code, stderr)
	if !strings.HasSuffix(stderr, "error: no input\n") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		code     int
		stderr   string
	}{
		{"wrong password", "ada@example.com", "nope-nope", exitcode.AuthError, "error: invalid email or password\n"},
		{"bad email", "ada", "password123", exitcode.UserError, "error: invalid email: must be a valid email address\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, stderr, code := h.run("", "login", "--email", tt.email, "--password", tt.password)
			expectCode(t, tt.code, code, stderr)
			if stderr != tt.stderr {
				t.Errorf("expected %q, got %q", tt.stderr, stderr)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	stdout, stderr, code := h.run("Grace\n", "register", "--email", "grace@example.com", "--password", "longpassword")

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "logged in as Grace <grace@example.com>\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if stderr != "name: " {
		t.Errorf("unexpected prompts %q", stderr)
	}

	_, stderr, code = h.run("", "register", "--name", "Grace", "--email", "grace@example.com", "--password", "longpassword")
	expectCode(t, exitcode.BackendError, code, stderr)
	if stderr != "error: email already registered\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestList(t *testing.T) {
	h := newHarness(t)
	h.login()
	due := now.AddDate(0, 0, 1)
	h.fake.Seed(service.Task{Title: "Buy milk"})
	h.fake.Seed(service.Task{Title: "Pay rent", Priority: service.PriorityHigh, DueDate: &due})
	h.fake.Seed(service.Task{Title: "Old thing", Priority: service.PriorityLow, IsCompleted: true})

	stdout, stderr, code := h.run("", "list")

	expectCode(t, exitcode.Success, code, stderr)
	expected := "" +
		"   2  [ ] high    Pay rent  (due in 1 days)\n" +
		"   1  [ ] medium  Buy milk\n" +
		"------------\n" +
		"2 pending, 1 completed, 1 urgent\n"
	if stdout != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, stdout)
	}
}

func TestDispatcher_NoArgsRunsList(t *testing.T) {
	h := newHarness(t)
	t.Setenv("XDG_CONFIG_HOME", h.dir)
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(h.fake), h.opts...)

	var stdout, stderr bytes.Buffer
	code := d.Run(context.Background(), nil, &stdout, &stderr)

	// list needs a session and the fresh config dir has none.
	expectCode(t, exitcode.AuthError, code, stderr.String())
	if stderr.String() != "error: not logged in (run: youdo login)\n" {
		t.Errorf("unexpected stderr %q", stderr.String())
	}
}

func TestList_JSON(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.fake.Seed(service.Task{Title: "Buy milk"})
	h.fake.Seed(service.Task{Title: "Done", IsCompleted: true})

	stdout, stderr, code := h.run("", "list", "--all", "--output", "json")

	expectCode(t, exitcode.Success, code, stderr)
	var got struct {
		Pending   []service.Task `json:"pending"`
		Completed []service.Task `json:"completed"`
		Summary   struct {
			Pending   int `json:"pending"`
			Completed int `json:"completed"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, stdout)
	}
	if len(got.Pending) != 1 || len(got.Completed) != 1 {
		t.Errorf("unexpected partition: %+v", got)
	}
	if got.Summary.Pending != 1 || got.Summary.Completed != 1 {
		t.Errorf("unexpected summary: %+v", got.Summary)
	}
}

func TestList_InvalidFormat(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, stderr, code := h.run("", "list", "--output", "xml")

	expectCode(t, exitcode.UserError, code, stderr)
	if stderr != "error: invalid output format: xml\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestList_SessionExpired(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.fake.ListTasksErr = &service.ApplicationError{Status: 401, Message: "Invalid or expired token"}

	_, stderr, code := h.run("", "list")

	expectCode(t, exitcode.AuthError, code, stderr)
	if stderr != "error: session expired (run: youdo login)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}

	// The persisted session was cleared.
	_, stderr, code = h.run("", "whoami")
	expectCode(t, exitcode.AuthError, code, stderr)
}

func TestList_NetworkError(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.fake.ListTasksErr = &service.NetworkError{}

	_, stderr, code := h.run("", "list")

	expectCode(t, exitcode.BackendError, code, stderr)
	if stderr != "error: network error: unable to connect to server\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestAdd(t *testing.T) {
	h := newHarness(t)
	h.login()

	stdout, stderr, code := h.run("", "add", "--priority", "high", "--desc", "quarterly", "--due", "2026-03-12", "Write", "report")

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "ok\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	task, ok := h.fake.Task(1)
	if !ok {
		t.Fatal("expected task 1 to be created")
	}
	if task.Title != "Write report" || task.Description != "quarterly" || task.Priority != service.PriorityHigh {
		t.Errorf("unexpected task: %+v", task)
	}
	if task.DueDate == nil || !task.DueDate.Equal(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected due date: %v", task.DueDate)
	}
}

func TestAdd_Quiet(t *testing.T) {
	h := newHarness(t)
	h.login()

	stdout, stderr, code := h.run("", "create", "--quiet", "Buy milk")

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "" {
		t.Errorf("expected no output with --quiet, got %q", stdout)
	}
	if h.fake.Len() != 1 {
		t.Errorf("expected 1 task, got %d", h.fake.Len())
	}
}

func TestAdd_Errors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stderr string
	}{
		{"no title", nil, "error: title required\n"},
		{"bad priority", []string{"--priority", "urgent", "x"}, "error: invalid priority: must be one of: low medium high\n"},
		{"bad due", []string{"--due", "next week", "x"}, "error: invalid due_date: must be YYYY-MM-DD or RFC 3339\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.login()

			_, stderr, code := h.run("", "add", tt.args...)
			expectCode(t, exitcode.UserError, code, stderr)
			if stderr != tt.stderr {
				t.Errorf("expected %q, got %q", tt.stderr, stderr)
			}
			if h.fake.CallCount("CreateTask") != 0 {
				t.Error("expected no CreateTask call")
			}
		})
	}
}

func TestEdit(t *testing.T) {
	h := newHarness(t)
	h.login()
	due := now
	h.fake.Seed(service.Task{Title: "Draft", Description: "notes", DueDate: &due})

	stdout, stderr, code := h.run("", "edit", "--title", "Final", "--due", "none", "1")

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "ok\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	task, _ := h.fake.Task(1)
	if task.Title != "Final" || task.Description != "notes" || task.DueDate != nil {
		t.Errorf("unexpected task: %+v", task)
	}
}

func TestEdit_Errors(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.fake.Seed(service.Task{Title: "Draft"})

	_, stderr, code := h.run("", "edit", "1")
	expectCode(t, exitcode.UserError, code, stderr)
	if stderr != "error: nothing to change\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}

	_, stderr, code = h.run("", "edit", "--title", "x", "42")
	expectCode(t, exitcode.UserError, code, stderr)
	if stderr != "error: task not found: 42\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}

	_, stderr, code = h.run("", "edit", "--title", "x", "abc")
	expectCode(t, exitcode.UserError, code, stderr)
	if stderr != "error: invalid task id: abc\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDone(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.fake.Seed(service.Task{Title: "One"})
	h.fake.Seed(service.Task{Title: "Two", IsCompleted: true})

	stdout, stderr, code := h.run("", "done", "1", "#2")

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "completed #1\nreopened #2\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	one, _ := h.fake.Task(1)
	two, _ := h.fake.Task(2)
	if !one.IsCompleted || two.IsCompleted {
		t.Errorf("unexpected completion: %v %v", one.IsCompleted, two.IsCompleted)
	}
}

func TestDone_UnknownTaskChangesNothing(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.fake.Seed(service.Task{Title: "One"})

	_, stderr, code := h.run("", "toggle", "1", "99")

	expectCode(t, exitcode.UserError, code, stderr)
	if stderr != "error: task not found: 99\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if h.fake.CallCount("UpdateTask") != 0 {
		t.Error("expected no UpdateTask call")
	}
}

func TestShow(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.fake.Seed(service.Task{Title: "Buy milk", CreatedAt: testutil.Epoch, UpdatedAt: testutil.Epoch})

	stdout, stderr, code := h.run("", "show", "1")

	expectCode(t, exitcode.Success, code, stderr)
	expected := "" +
		"#1 Buy milk\n" +
		"  status:    pending\n" +
		"  priority:  medium\n" +
		"  due:       none\n" +
		"  created:   2026-01-01 09:00\n" +
		"  updated:   2026-01-01 09:00\n" +
		"  description:\n" +
		"    no description provided\n"
	if stdout != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, stdout)
	}
}

func TestRm_Confirmed(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.fake.Seed(service.Task{Title: "Buy milk"})

	stdout, stderr, code := h.run("y\n", "rm", "1")

	expectCode(t, exitcode.Success, code, stderr)
	if stderr != `delete task 1 "Buy milk"? [y/N] ` {
		t.Errorf("unexpected prompt %q", stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if h.fake.Len() != 0 {
		t.Error("expected task deleted")
	}
}

func TestRm_Declined(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.fake.Seed(service.Task{Title: "Buy milk"})

	stdout, stderr, code := h.run("n\n", "rm", "1")

	expectCode(t, exitcode.UserError, code, stderr)
	if stdout != "cancelled\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if h.fake.CallCount("DeleteTask") != 0 {
		t.Error("expected no DeleteTask call")
	}
	if h.fake.Len() != 1 {
		t.Error("expected task kept")
	}
}

func TestRm_Yes(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.fake.Seed(service.Task{Title: "Buy milk"})

	_, stderr, code := h.run("", "delete", "--yes", "1")

	expectCode(t, exitcode.Success, code, stderr)
	if stderr != "" {
		t.Errorf("expected no prompt, got %q", stderr)
	}
	if h.fake.CallCount("DeleteTask 1") != 1 {
		t.Errorf("expected one delete, got %v", h.fake.Calls())
	}
}

func TestRm_RemoteFailure(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.fake.Seed(service.Task{Title: "Buy milk"})
	h.fake.DeleteTaskErr = &service.ApplicationError{Status: 500, Message: "Failed to delete task"}

	_, stderr, code := h.run("", "rm", "-y", "1")

	expectCode(t, exitcode.BackendError, code, stderr)
	if stderr != "error: Failed to delete task\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.login()

	stdout, stderr, code := h.run("", "logout")
	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "ok\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}

	stdout, stderr, code = h.run("", "logout")
	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "not logged in\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}

	_, _, code = h.run("", "list")
	expectCode(t, exitcode.AuthError, code, "")
}

func TestTheme(t *testing.T) {
	h := newHarness(t)

	stdout, stderr, code := h.run("", "theme")
	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "light\n" {
		t.Errorf("expected default theme, got %q", stdout)
	}

	_, stderr, code = h.run("", "theme", "dark")
	expectCode(t, exitcode.Success, code, stderr)

	stdout, _, _ = h.run("", "theme")
	if stdout != "dark\n" {
		t.Errorf("expected dark, got %q", stdout)
	}

	_, stderr, code = h.run("", "theme", "neon")
	expectCode(t, exitcode.UserError, code, stderr)
	if stderr != "error: unknown theme: neon (want light or dark)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

type fakeGoogle struct {
	items []googletasks.Item
	err   error
	list  string
}

func (f *fakeGoogle) OpenTasks(ctx context.Context, listName string) ([]googletasks.Item, error) {
	f.list = listName
	return f.items, f.err
}

func TestImport(t *testing.T) {
	due := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	src := &fakeGoogle{items: []googletasks.Item{
		{Title: "Buy milk", Notes: "2%", Due: &due},
		{Title: "Call mom"},
	}}

	h := newHarness(t)
	h.opts = append(h.opts, cli.WithGoogle(func(ctx context.Context, cfg *config.Config) (commands.GoogleSource, error) {
		return src, nil
	}))
	h.login()

	stdout, stderr, code := h.run("", "import", "--dry-run", "--list", "Errands")
	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "would import: Buy milk\nwould import: Call mom\n" {
		t.Errorf("unexpected dry run %q", stdout)
	}
	if src.list != "Errands" {
		t.Errorf("expected list Errands, got %q", src.list)
	}
	if h.fake.Len() != 0 {
		t.Error("dry run created tasks")
	}

	stdout, stderr, code = h.run("", "import")
	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "imported 2 tasks\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	task, _ := h.fake.Task(1)
	if task.Description != "2%" || task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Errorf("unexpected imported task: %+v", task)
	}
}

func TestImport_TokenRevoked(t *testing.T) {
	h := newHarness(t)
	h.opts = append(h.opts, cli.WithGoogle(func(ctx context.Context, cfg *config.Config) (commands.GoogleSource, error) {
		return &fakeGoogle{err: googletasks.ErrTokenRevoked}, nil
	}))
	h.login()

	_, stderr, code := h.run("", "import")
	expectCode(t, exitcode.AuthError, code, stderr)
}

func TestSQLiteStore(t *testing.T) {
	h := newHarness(t)
	t.Setenv("YOUDO_STORE", "sqlite")
	h.login()

	stdout, stderr, code := h.run("", "whoami")
	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "Ada <ada@example.com>\n" {
		t.Errorf("unexpected whoami %q", stdout)
	}
}

func TestEndToEnd_HTTP(t *testing.T) {
	fake := testutil.NewFakeService()
	srv := testutil.NewServer(t, fake)

	h := newHarness(t)
	h.fake = fake
	t.Setenv("YOUDO_API_URL", srv.APIURL())

	httpFactory := func(ctx context.Context, cfg *config.Config, creds service.Credentials, logger *slog.Logger) (service.Service, error) {
		return youdoapi.New(cfg, creds, youdoapi.WithLogger(logger)), nil
	}
	run := func(input string, args ...string) (string, string, int) {
		opts := append([]cli.Option{cli.WithInput(strings.NewReader(input))}, h.opts...)
		d := cli.NewDispatcher(commands.DefaultRegistry, httpFactory, opts...)
		full := append([]string{args[0], "--config", h.dir}, args[1:]...)
		var outBuf, errBuf bytes.Buffer
		code := d.Run(context.Background(), full, &outBuf, &errBuf)
		return outBuf.String(), errBuf.String(), code
	}

	_, stderr, code := run("", "login", "--email", "ada@example.com", "--password", "password123")
	expectCode(t, exitcode.Success, code, stderr)

	_, stderr, code = run("", "add", "--priority", "low", "Water plants")
	expectCode(t, exitcode.Success, code, stderr)

	stdout, stderr, code := run("", "whoami")
	expectCode(t, exitcode.Success, code, stderr)
	if !strings.HasPrefix(stdout, "Ada <ada@example.com>\ntoken expires ") {
		t.Errorf("unexpected whoami %q", stdout)
	}

	stdout, stderr, code = run("", "list", "-o", "json")
	expectCode(t, exitcode.Success, code, stderr)
	var got struct {
		Pending []service.Task `json:"pending"`
	}
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, stdout)
	}
	if len(got.Pending) != 1 || got.Pending[0].Title != "Water plants" || got.Pending[0].Priority != service.PriorityLow {
		t.Errorf("unexpected tasks: %+v", got.Pending)
	}

	for _, auth := range srv.AuthHeaders()[1:] {
		if !strings.HasPrefix(auth, "Bearer ") {
			t.Errorf("expected bearer token on task calls, got %q", auth)
		}
	}
}
