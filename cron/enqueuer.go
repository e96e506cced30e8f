package cron

import (
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/rasel1911/onelimo/config"
	"github.com/rasel1911/onelimo/services/tasks"
	"github.com/rasel1911/onelimo/utils"
)

// AsynqEnqueuer hands workflow steps to the durable queue. Enqueue failures
// are logged, never returned: the caller's step already committed and a
// lost task is recovered by re-triggering the run.
type AsynqEnqueuer struct {
	Client   *asynq.Client
	MaxRetry int
}

// NewAsynqEnqueuer builds the enqueuer from app config.
func NewAsynqEnqueuer() *AsynqEnqueuer {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	maxRetry := config.AppConfig.WorkflowMaxRetries
	if maxRetry <= 0 {
		maxRetry = 3
	}
	return &AsynqEnqueuer{Client: client, MaxRetry: maxRetry}
}

func (e *AsynqEnqueuer) EnqueueAdvance(runID string) {
	task, opts, err := tasks.NewAdvanceTask(runID, e.MaxRetry)
	if err == nil {
		_, err = e.Client.Enqueue(task, opts...)
	}
	if err != nil {
		utils.GetLogger().Error("Failed to enqueue advance task",
			zap.Error(err), zap.String("workflowRunId", runID))
	}
}

func (e *AsynqEnqueuer) EnqueueResponseCheck(runID string, delay time.Duration) {
	task, opts, err := tasks.NewResponseCheckTask(runID, delay, e.MaxRetry)
	if err == nil {
		_, err = e.Client.Enqueue(task, opts...)
	}
	if err != nil {
		utils.GetLogger().Error("Failed to enqueue response check task",
			zap.Error(err), zap.String("workflowRunId", runID))
	}
}

// Close releases the underlying queue connection.
func (e *AsynqEnqueuer) Close() error {
	return e.Client.Close()
}
