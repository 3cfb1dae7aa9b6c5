// Package docstore reúne lo común a los adaptadores del almacén documental:
// expansión de rutas con puntos, conversión numérica y el repositorio de
// reportes construido sobre el puerto DocumentStore.
package docstore

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
)

// MaxBatchWrites límite de escrituras por lote (el de Firestore).
const MaxBatchWrites = repository.MaxBatchWrites

// SplitPath separa una ruta con puntos en sus segmentos.
func SplitPath(dotted string) []string {
	return strings.Split(dotted, ".")
}

// CheckBatch valida el tamaño del lote antes de enviarlo.
func CheckBatch(mutations []repository.Mutation) error {
	if len(mutations) > MaxBatchWrites {
		return fmt.Errorf("%w: %d escrituras (máximo %d)", domain.ErrBatchTooLarge, len(mutations), MaxBatchWrites)
	}
	return nil
}

// Expand convierte un mapa de rutas con puntos en objetos anidados.
// Los valores que ya son mapas se fusionan con lo expandido.
func Expand(flat map[string]any) map[string]any {
	out := make(map[string]any, len(flat))
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_ = SetPath(out, SplitPath(k), flat[k])
	}
	return out
}

// SetPath asigna value en la ruta, creando los objetos intermedios.
// Un mapa asignado sobre otro mapa se fusiona recursivamente.
func SetPath(doc map[string]any, parts []string, value any) error {
	node := doc
	for i, p := range parts[:len(parts)-1] {
		next, ok := node[p]
		if !ok || next == nil {
			child := map[string]any{}
			node[p] = child
			node = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("docstore: %q no es un objeto", strings.Join(parts[:i+1], "."))
		}
		node = child
	}
	last := parts[len(parts)-1]
	if src, ok := value.(map[string]any); ok {
		if dst, ok := node[last].(map[string]any); ok {
			for k, v := range src {
				if err := SetPath(dst, []string{k}, v); err != nil {
					return err
				}
			}
			return nil
		}
	}
	node[last] = value
	return nil
}

// IncrementPath suma delta al número en la ruta (cero si no existe).
func IncrementPath(doc map[string]any, parts []string, delta float64) error {
	current, _ := GetPath(doc, parts)
	base := 0.0
	if current != nil {
		f, ok := ToFloat(current)
		if !ok {
			return fmt.Errorf("docstore: %q no es numérico", strings.Join(parts, "."))
		}
		base = f
	}
	return SetPath(doc, parts, base+delta)
}

// GetPath devuelve el valor anidado en la ruta.
func GetPath(doc map[string]any, parts []string) (any, bool) {
	var node any = doc
	for _, p := range parts {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// ToFloat convierte los tipos numéricos que devuelven los drivers.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Clone copia profunda de un documento (mapas y slices).
func Clone(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Clone(t)
	case repository.Document:
		return Clone(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// ApplyMutation aplica una mutación (que no sea Delete) sobre un documento en memoria.
func ApplyMutation(doc map[string]any, m repository.Mutation, now time.Time) error {
	keys := make([]string, 0, len(m.Set))
	for k := range m.Set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := SetPath(doc, SplitPath(k), cloneValue(m.Set[k])); err != nil {
			return err
		}
	}
	for k, delta := range m.Increments {
		if err := IncrementPath(doc, SplitPath(k), delta); err != nil {
			return err
		}
	}
	for _, k := range m.ServerTimestamps {
		if err := SetPath(doc, SplitPath(k), now); err != nil {
			return err
		}
	}
	return nil
}
