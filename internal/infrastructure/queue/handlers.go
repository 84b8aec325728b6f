package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/hibiken/asynq"

	"github.com/jhoicas/Apothecary-api/internal/application/inventory"
	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

// scanLockKey garantiza una sola ejecución del escaneo entre varias instancias del worker.
const scanLockKey = "lock:" + TaskStockScan

// StockScanner es el caso de uso del escaneo periódico.
type StockScanner interface {
	Run(ctx context.Context, now time.Time) (*inventory.ScanResult, error)
}

// Handlers procesadores de las tareas del worker.
type Handlers struct {
	mailer  ports.Mailer
	scanner StockScanner
	locker  *redislock.Client
	lockTTL time.Duration
	jobs    *metrics.Jobs
	log     *logger.Logger
	now     func() time.Time
}

// NewHandlers construye los procesadores. locker puede ser nil (sin exclusión entre workers).
func NewHandlers(mailer ports.Mailer, scanner StockScanner, locker *redislock.Client, jobs *metrics.Jobs, log *logger.Logger) *Handlers {
	return &Handlers{
		mailer:  mailer,
		scanner: scanner,
		locker:  locker,
		lockTTL: 5 * time.Minute,
		jobs:    jobs,
		log:     log,
		now:     time.Now,
	}
}

// HandleSendEmail entrega el correo. Un payload ilegible no se reintenta.
func (h *Handlers) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var msg ports.EmailMessage
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		h.log.Error().Err(err).Msg("payload de correo inválido")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	tr := h.jobs.Track(TaskSendEmail)
	if err := h.mailer.Send(ctx, msg); err != nil {
		h.log.Warn().Err(err).Strs("to", msg.To).Msg("envío de correo fallido")
		return tr.End(err)
	}
	return tr.End(nil)
}

// HandleStockScan ejecuta el escaneo si obtiene el lock; si otra instancia lo tiene, termina sin error.
func (h *Handlers) HandleStockScan(ctx context.Context, _ *asynq.Task) error {
	if h.locker != nil {
		lock, err := h.locker.Obtain(ctx, scanLockKey, h.lockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			h.log.Debug().Msg("escaneo de inventario en curso en otra instancia")
			return nil
		}
		if err != nil {
			return fmt.Errorf("obtener lock del escaneo: %w", err)
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				h.log.Warn().Err(err).Msg("no se pudo liberar el lock del escaneo")
			}
		}()
	}

	tr := h.jobs.Track(TaskStockScan)
	res, err := h.scanner.Run(ctx, h.now())
	if err != nil {
		h.log.Error().Err(err).Msg("escaneo de inventario fallido")
		return tr.End(err)
	}
	h.jobs.AddAlerts("low_stock", res.LowStockAlerts)
	h.jobs.AddAlerts("expiry", res.ExpiryAlerts)
	h.log.Info().
		Int("low_stock", res.LowStockAlerts).
		Int("expiry", res.ExpiryAlerts).
		Bool("email", res.EmailQueued).
		Msg("escaneo de inventario")
	return tr.End(nil)
}
