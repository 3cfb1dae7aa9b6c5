package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jhoicas/obra-dashboard/internal/application/ports"
	"github.com/jhoicas/obra-dashboard/pkg/config"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func TestNewEmailNotifier_ConfigIncompleta(t *testing.T) {
	assert.Nil(t, NewEmailNotifier(config.SMTPConfig{Host: "smtp.obra.pe", From: "avisos@obra.pe"}))
	assert.NotNil(t, NewEmailNotifier(config.SMTPConfig{Host: "smtp.obra.pe", Port: 587, From: "avisos@obra.pe", To: []string{"residente@obra.pe"}}))
}

func TestEmailNotifier_Notify(t *testing.T) {
	fake := &fakeSender{}
	n := &EmailNotifier{from: "avisos@obra.pe", to: []string{"a@obra.pe", "b@obra.pe"}, dialer: fake}

	err := n.Notify(context.Background(), ports.Alert{
		ReportID: "r1",
		Fecha:    "2025-01-15",
		Estado:   "CRITICAL_ERROR",
		Mensaje:  "horas <inconsistentes>",
	})
	require.NoError(t, err)
	require.Len(t, fake.sent, 1)

	msg := fake.sent[0]
	assert.Equal(t, []string{"a@obra.pe", "b@obra.pe"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"[Obra] CRITICAL_ERROR en parte r1 (2025-01-15)"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "horas &lt;inconsistentes&gt;")
}

func TestEmailNotifier_ErrorSMTP(t *testing.T) {
	n := &EmailNotifier{from: "x@obra.pe", to: []string{"y@obra.pe"}, dialer: &fakeSender{err: errors.New("535 auth failed")}}
	err := n.Notify(context.Background(), ports.Alert{ReportID: "r1"})
	assert.ErrorContains(t, err, "535")
}

func TestMulti_UneErrores(t *testing.T) {
	a := &EmailNotifier{from: "x@obra.pe", to: []string{"y@obra.pe"}, dialer: &fakeSender{err: errors.New("caído")}}
	b := &fakeSender{}
	m := Multi{a, Noop{}, &EmailNotifier{from: "x@obra.pe", to: []string{"z@obra.pe"}, dialer: b}}

	err := m.Notify(context.Background(), ports.Alert{ReportID: "r2"})
	assert.ErrorContains(t, err, "caído")
	assert.Len(t, b.sent, 1, "un fallo no impide los demás envíos")
}
