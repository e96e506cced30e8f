package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/rasel1911/onelimo/config"
	"github.com/rasel1911/onelimo/services/tasks"
	"github.com/rasel1911/onelimo/services/workflow"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// InitWorkflowWorker runs the async worker in background.
func InitWorkflowWorker(workflowSvc workflow.WorkflowService) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	concurrency := config.AppConfig.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeWorkflowAdvance, handleAdvanceTask(workflowSvc))
	mux.HandleFunc(tasks.TypeWorkflowResponseCheck, handleResponseCheckTask(workflowSvc))

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[WorkflowWorker] 🚀 Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[WorkflowWorker] ❌ Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[WorkflowWorker] ❗ Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleAdvanceTask(workflowSvc workflow.WorkflowService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.WorkflowTaskPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[WorkflowHandler] 🔴 Invalid payload: %v", err)
			return err
		}

		log.Printf("[WorkflowHandler] ▶️ Advancing run %s", p.RunID)
		if err := workflowSvc.Advance(ctx, p.RunID); err != nil {
			log.Printf("[WorkflowHandler] ❌ Failed to advance run %s: %v", p.RunID, err)
			return err
		}
		return nil
	}
}

func handleResponseCheckTask(workflowSvc workflow.WorkflowService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.WorkflowTaskPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[WorkflowHandler] 🔴 Invalid payload: %v", err)
			return err
		}

		outcome, err := workflowSvc.EvaluateResponses(ctx, p.RunID)
		if err != nil {
			log.Printf("[WorkflowHandler] ❌ Response check failed for run %s: %v", p.RunID, err)
			return err
		}

		if outcome.Advance {
			log.Printf("[WorkflowHandler] ⏩ Run %s ready, advancing", p.RunID)
			return workflowSvc.Advance(ctx, p.RunID)
		}
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[WorkflowWorker] ⚠️ Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
