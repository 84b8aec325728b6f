package ports

import (
	"context"

	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
)

// EmailMessage correo a enviar (cuerpo HTML).
type EmailMessage struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// TaskEnqueuer encola trabajos para el worker. Nunca debe bloquear la acción principal.
type TaskEnqueuer interface {
	EnqueueEmail(ctx context.Context, msg EmailMessage) error
}

// Mailer entrega correos (lo usa el worker).
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// Notifier crea avisos dentro de la aplicación. Los fallos se registran y no se propagan.
type Notifier interface {
	Notify(ctx context.Context, n *entity.Notification)
}

// NopEnqueuer descarta los trabajos (sin Redis configurado).
type NopEnqueuer struct{}

// EnqueueEmail no hace nada.
func (NopEnqueuer) EnqueueEmail(context.Context, EmailMessage) error { return nil }

// NopNotifier descarta los avisos.
type NopNotifier struct{}

// Notify no hace nada.
func (NopNotifier) Notify(context.Context, *entity.Notification) {}
