package server

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sanonone/spacecol/pkg/engine"
)

// TaskStatus defines the possible states of a task.
type TaskStatus string

const (
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCancelled TaskStatus = "cancelled"
	TaskStatusFailed    TaskStatus = "failed"
)

// TaskView is the JSON form of a task.
type TaskView struct {
	ID      string          `json:"id"`
	Status  TaskStatus      `json:"status"`
	Summary *engine.Summary `json:"summary,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Task represents a background simulation run.
type Task struct {
	ID      string
	Status  TaskStatus
	Summary *engine.Summary
	Error   string

	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.RWMutex
}

// TaskManager tracks background runs. At most one run is active at a time.
type TaskManager struct {
	tasks  map[string]*Task
	active *Task
	mu     sync.RWMutex
}

// NewTaskManager creates a new task manager.
func NewTaskManager() *TaskManager {
	return &TaskManager{
		tasks: make(map[string]*Task),
	}
}

// Start launches run in a goroutine and registers it as the active task.
// It returns false if another task is still running.
func (tm *TaskManager) Start(run func(ctx context.Context) (engine.Summary, error)) (*Task, bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.active != nil && tm.active.View().Status == TaskStatusRunning {
		return tm.active, false
	}

	ctx, cancel := context.WithCancel(context.Background())
	task := &Task{
		ID:     uuid.New().String(),
		Status: TaskStatusRunning,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	tm.tasks[task.ID] = task
	tm.active = task

	go func() {
		defer close(task.done)
		defer cancel()
		summary, err := run(ctx)
		task.finish(summary, err)
	}()
	return task, true
}

// GetTask safely retrieves a task by its ID.
func (tm *TaskManager) GetTask(id string) (*Task, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	task, found := tm.tasks[id]
	return task, found
}

// CancelAll stops every running task and waits for them to return.
func (tm *TaskManager) CancelAll() {
	tm.mu.RLock()
	tasks := make([]*Task, 0, len(tm.tasks))
	for _, t := range tm.tasks {
		tasks = append(tasks, t)
	}
	tm.mu.RUnlock()

	for _, t := range tasks {
		t.Cancel()
		<-t.done
	}
}

// --- Methods for updating a Task ---

// Cancel asks the run to stop. It does not wait.
func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the run has returned.
func (t *Task) Wait() { <-t.done }

func (t *Task) finish(summary engine.Summary, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Summary = &summary
	switch {
	case err != nil:
		t.Status = TaskStatusFailed
		t.Error = err.Error()
	case summary.Reason == engine.StopCancelled:
		t.Status = TaskStatusCancelled
	default:
		t.Status = TaskStatusCompleted
	}
}

// View returns a copy that is safe to encode.
func (t *Task) View() TaskView {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TaskView{ID: t.ID, Status: t.Status, Summary: t.Summary, Error: t.Error}
}
