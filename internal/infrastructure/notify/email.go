package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/obra-dashboard/internal/application/ports"
	"github.com/jhoicas/obra-dashboard/pkg/config"
)

var _ ports.AlertNotifier = (*EmailNotifier)(nil)

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier envía las alertas de procesamiento por SMTP.
type EmailNotifier struct {
	from   string
	to     []string
	dialer sender
}

// NewEmailNotifier devuelve nil si la configuración SMTP está incompleta;
// el llamador usa entonces Noop.
func NewEmailNotifier(cfg config.SMTPConfig) *EmailNotifier {
	if cfg.Host == "" || cfg.From == "" || len(cfg.To) == 0 {
		return nil
	}
	return &EmailNotifier{
		from:   cfg.From,
		to:     cfg.To,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

func (n *EmailNotifier) Notify(ctx context.Context, alert ports.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.dialer.DialAndSend(buildMessage(n.from, n.to, alert)); err != nil {
		return fmt.Errorf("notify: smtp: %w", err)
	}
	return nil
}

func buildMessage(from string, to []string, alert ports.Alert) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", fmt.Sprintf("[Obra] %s en parte %s (%s)", alert.Estado, alert.ReportID, alert.Fecha))

	var b strings.Builder
	b.WriteString("<h3>Error en el procesamiento del parte diario</h3><ul>")
	fmt.Fprintf(&b, "<li><b>Reporte:</b> %s</li>", html.EscapeString(alert.ReportID))
	fmt.Fprintf(&b, "<li><b>Fecha:</b> %s</li>", html.EscapeString(alert.Fecha))
	fmt.Fprintf(&b, "<li><b>Estado:</b> %s</li>", html.EscapeString(alert.Estado))
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "<pre>%s</pre>", html.EscapeString(alert.Mensaje))
	msg.SetBody("text/html", b.String())
	return msg
}

// Noop descarta las alertas.
type Noop struct{}

func (Noop) Notify(context.Context, ports.Alert) error { return nil }

// Multi reparte la alerta a varios notificadores y une los errores.
type Multi []ports.AlertNotifier

func (m Multi) Notify(ctx context.Context, alert ports.Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
