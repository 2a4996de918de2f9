package commands

import (
	"context"
	"fmt"
	"io"

	"youdo/internal/exitcode"
	"youdo/internal/service"
	"youdo/internal/taskstore"
)

// parseIDArg parses the task id argument and reports usage errors.
func parseIDArg(args []string, errOut io.Writer) (int, int) {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return 0, exitcode.UserError
	}
	return id, exitcode.Success
}

// lookupTask refreshes the collection and returns the task with id.
// A non-zero code means the error has been reported.
func lookupTask(ctx context.Context, env *Env, id int, errOut io.Writer) (service.Task, int) {
	if err := env.Tasks.Refresh(ctx); err != nil {
		return service.Task{}, report(errOut, err)
	}
	task, ok := env.Tasks.Get(id)
	if !ok {
		return service.Task{}, report(errOut, fmt.Errorf("%w: %d", taskstore.ErrTaskNotFound, id))
	}
	return task, exitcode.Success
}
