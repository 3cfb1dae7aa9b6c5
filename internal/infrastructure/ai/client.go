// Package ai adaptadores REST de los proveedores de texto (Gemini, Anthropic)
// para el resumen narrativo del dashboard.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jhoicas/obra-dashboard/internal/domain"
)

const maxResponseBytes = 64 * 1024

// ProviderError respuesta no exitosa de un proveedor.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.Status, e.Message)
}

// Is hace que cuota agotada y errores 5xx se traten como servicio no disponible.
func (e *ProviderError) Is(target error) bool {
	return target == domain.ErrUnavailable &&
		(e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// postJSON envía payload y decodifica la respuesta en out. Ante un status
// distinto de 200, errMessage extrae el mensaje del cuerpo si lo reconoce.
func postJSON(
	ctx context.Context,
	client *http.Client,
	provider, url string,
	headers map[string]string,
	payload, out any,
	errMessage func(raw []byte) string,
) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: serializar request: %w", provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: crear request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", provider, ctxErr)
		}
		return fmt.Errorf("%s: %w: %v", provider, domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: leer respuesta: %w", provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return &ProviderError{Provider: provider, Status: resp.StatusCode, Message: errMessage(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: deserializar respuesta: %w", provider, err)
	}
	return nil
}

var errEmptyText = errors.New("respuesta vacía")
