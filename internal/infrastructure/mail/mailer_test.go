package mail_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/mail"
	"github.com/jhoicas/Apothecary-api/pkg/config"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

func TestCompose_Cabeceras(t *testing.T) {
	gm, err := mail.Compose("noreply@farmacia.test", ports.EmailMessage{
		To:      []string{"a@farmacia.test", "b@farmacia.test"},
		Subject: "Alertas de inventario (2)",
		Body:    "<p>hola</p>",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = gm.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "noreply@farmacia.test")
	assert.Contains(t, raw, "a@farmacia.test, b@farmacia.test")
	assert.Contains(t, raw, "Content-Type: text/html")
	assert.Equal(t, []string{"Alertas de inventario (2)"}, gm.GetHeader("Subject"))
}

func TestCompose_SinDestinatarios(t *testing.T) {
	_, err := mail.Compose("x@y.z", ports.EmailMessage{Subject: "s"})
	assert.True(t, errors.Is(err, mail.ErrNoRecipients))
}

func TestNew_SinCredencialesSoloRegistra(t *testing.T) {
	m := mail.New(config.EmailConfig{Host: "smtp.test"}, logger.Nop())
	_, ok := m.(*mail.LogMailer)
	require.True(t, ok)
	assert.NoError(t, m.Send(context.Background(), ports.EmailMessage{To: []string{"a@b.c"}, Subject: "s"}))

	smtp := mail.New(config.EmailConfig{Host: "smtp.test", Port: 587, User: "u", Pass: "p"}, logger.Nop())
	_, ok = smtp.(*mail.SMTPMailer)
	assert.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, smtp.Send(ctx, ports.EmailMessage{To: []string{"a@b.c"}}), context.Canceled)
}
