// Package queue encola y procesa trabajos en segundo plano con asynq sobre Redis.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/Apothecary-api/internal/application/ports"
)

const (
	// QueueDefault cola por defecto.
	QueueDefault = "default"
	// TaskSendEmail envía un correo (payload ports.EmailMessage).
	TaskSendEmail = "mail:send"
	// TaskStockScan escaneo periódico de stock bajo y vencimientos.
	TaskStockScan = "inventory:stock-scan"
)

// NewSendEmailTask serializa el correo como tarea.
func NewSendEmailTask(msg ports.EmailMessage) (*asynq.Task, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("serializar correo: %w", err)
	}
	return asynq.NewTask(TaskSendEmail, data, asynq.MaxRetry(5), asynq.Queue(QueueDefault)), nil
}

// NewStockScanTask tarea sin payload; la programa el scheduler.
func NewStockScanTask() *asynq.Task {
	return asynq.NewTask(TaskStockScan, nil, asynq.MaxRetry(1), asynq.Queue(QueueDefault))
}
