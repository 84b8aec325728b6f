package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/Apothecary-api/internal/application/ports"
)

var _ ports.TaskEnqueuer = (*Client)(nil)

// Client encola trabajos desde la API.
type Client struct {
	client *asynq.Client
}

// NewClient construye el cliente asynq.
func NewClient(opt asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(opt)}
}

// EnqueueEmail encola el envío de un correo.
func (c *Client) EnqueueEmail(ctx context.Context, msg ports.EmailMessage) error {
	task, err := NewSendEmailTask(msg)
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("encolar %s: %w", TaskSendEmail, err)
	}
	return nil
}

// Close libera la conexión.
func (c *Client) Close() error {
	return c.client.Close()
}
