package worker

import "context"

// FuncTask wraps a function as a Task. Callers capture their inputs and
// outputs in the closure, which keeps the pool free of any knowledge about
// what the work actually is.
type FuncTask struct {
	id string
	fn func(ctx context.Context) error
}

// NewFuncTask creates a task from a function.
func NewFuncTask(id string, fn func(ctx context.Context) error) *FuncTask {
	return &FuncTask{id: id, fn: fn}
}

// ID returns the task identifier.
func (f *FuncTask) ID() string {
	return f.id
}

// Execute runs the wrapped function.
func (f *FuncTask) Execute(ctx context.Context) error {
	return f.fn(ctx)
}

var _ Task = (*FuncTask)(nil)
