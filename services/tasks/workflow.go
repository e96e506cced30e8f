package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeWorkflowAdvance       = "workflow:advance"
	TypeWorkflowResponseCheck = "workflow:check_responses"
)

// WorkflowTaskPayload identifies the run a queued task acts on.
type WorkflowTaskPayload struct {
	RunID string `json:"runId"`
}

func NewAdvanceTask(runID string, maxRetry int) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(WorkflowTaskPayload{RunID: runID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeWorkflowAdvance, b)
	opts := []asynq.Option{asynq.MaxRetry(maxRetry)}

	return task, opts, nil
}

func NewResponseCheckTask(runID string, delay time.Duration, maxRetry int) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(WorkflowTaskPayload{RunID: runID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeWorkflowResponseCheck, b)
	opts := []asynq.Option{asynq.MaxRetry(maxRetry)}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}

	return task, opts, nil
}
