package queue

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

// WorkerConfig dependencias del worker.
type WorkerConfig struct {
	Redis         asynq.RedisConnOpt
	Concurrency   int
	StockScanCron string // vacío desactiva el escaneo periódico
	Handlers      *Handlers
	Log           *logger.Logger
}

// Worker servidor asynq más el scheduler del escaneo.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

// NewWorker registra los procesadores y, si hay cron, la tarea periódica.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Handlers == nil {
		return nil, errors.New("worker: faltan los procesadores")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(cfg.Redis, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueDefault: 1},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskSendEmail, cfg.Handlers.HandleSendEmail)
	mux.HandleFunc(TaskStockScan, cfg.Handlers.HandleStockScan)

	var scheduler *asynq.Scheduler
	if cfg.StockScanCron != "" {
		scheduler = asynq.NewScheduler(cfg.Redis, &asynq.SchedulerOpts{Location: time.UTC})
		if _, err := scheduler.Register(cfg.StockScanCron, NewStockScanTask()); err != nil {
			return nil, err
		}
	}
	return &Worker{server: srv, mux: mux, scheduler: scheduler, log: cfg.Log}, nil
}

// Run procesa trabajos hasta que ctx se cancela.
func (w *Worker) Run(ctx context.Context) error {
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	w.log.Info().Msg("worker iniciado")

	select {
	case <-ctx.Done():
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
		return nil
	case err := <-errCh:
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return err
	}
}
