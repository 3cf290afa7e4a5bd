package scheduler

import (
	"context"
	"fmt"
	"time"

	"renewalwatch_backend/platform/config"
	"renewalwatch_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner *Runner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner *Runner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		runner: runner,
		log:    log,
	}

	mux.HandleFunc(TaskRiskScanAll, w.handleRiskScanAll)
	mux.HandleFunc(TaskRiskScanAccount, w.handleRiskScanAccount)

	return w, nil
}

func (w *Worker) handleRiskScanAll(ctx context.Context, _ *asynq.Task) error {
	_, err := w.runner.ScanAll(ctx, time.Now().UTC())
	return err
}

func (w *Worker) handleRiskScanAccount(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRiskScanAccountPayload(task)
	if err != nil {
		return err
	}

	accountID, err := uuid.Parse(payload.AccountID)
	if err != nil {
		return err
	}

	return w.runner.ScanAccount(ctx, accountID, time.Now().UTC())
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
