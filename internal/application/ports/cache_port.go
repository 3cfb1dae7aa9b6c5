package ports

import (
	"context"
	"time"
)

// NarrativeCache cachea textos generados por IA indexados por hash del resumen.
// Get devuelve ("", false, nil) ante un fallo de caché.
type NarrativeCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
