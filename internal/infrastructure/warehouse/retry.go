package warehouse

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jhoicas/obra-dashboard/internal/infrastructure/postgres"
)

// RetryPolicy reintentos con backoff exponencial para errores transitorios.
type RetryPolicy struct {
	MaxRetries  int
	BaseBackoff time.Duration
	// Timeout por intento; cero = sin límite propio.
	Timeout time.Duration
}

// IsTransient indica si el error merece reintento: plazo vencido, recursos
// agotados, SQLSTATE transitorio de PostgreSQL o "timeout" en el mensaje.
// El resto se propaga de inmediato.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || postgres.IsTransientError(err) {
		return true
	}
	switch status.Code(err) {
	case codes.DeadlineExceeded, codes.ResourceExhausted, codes.Unavailable:
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "deadline exceeded") ||
		strings.Contains(msg, "resource exhausted") ||
		strings.Contains(msg, "resource_exhausted")
}

// Do ejecuta fn con un contexto acotado por intento. Un error no transitorio
// o la cancelación del contexto padre cortan los reintentos.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = p.attempt(ctx, fn)
		if err == nil || !IsTransient(err) || attempt >= p.MaxRetries || ctx.Err() != nil {
			return err
		}
		wait := p.BaseBackoff << attempt
		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
	}
}

func (p RetryPolicy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return fn(actx)
}
