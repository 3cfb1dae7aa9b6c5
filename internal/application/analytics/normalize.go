package analytics

import (
	"sort"
	"strings"
)

// NormalizeDocument devuelve una copia anidada del documento.
//
// Los agregados pueden llegar con dos codificaciones: mapas anidados
// (periodos → diario → 2025-01-15 → horas) o claves aplanadas con puntos
// ("periodos.diario.2025-01-15.horas"). Ambas se expanden a la forma anidada;
// si una misma hoja numérica aparece en las dos, los valores se suman.
func NormalizeDocument(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	mergeInto(out, doc)
	return out
}

func mergeInto(dst, src map[string]any) {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		insert(dst, strings.Split(k, "."), src[k])
	}
}

func insert(dst map[string]any, parts []string, v any) {
	head := parts[0]
	if len(parts) > 1 {
		insert(ensureMap(dst, head), parts[1:], v)
		return
	}
	if m, ok := v.(map[string]any); ok {
		mergeInto(ensureMap(dst, head), m)
		return
	}
	if existing, ok := dst[head]; ok {
		a, okA := number(existing)
		b, okB := number(v)
		if okA && okB {
			dst[head] = a + b
			return
		}
	}
	dst[head] = v
}

func ensureMap(dst map[string]any, key string) map[string]any {
	if m, ok := dst[key].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	dst[key] = m
	return m
}

// number convierte los tipos numéricos que devuelven Firestore y Mongo.
func number(v any) (float64, bool) {
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
	}
	return 0, false
}

// child navega mapas anidados; devuelve nil si algún tramo falta.
func child(doc map[string]any, path ...string) map[string]any {
	cur := doc
	for _, p := range path {
		next, ok := cur[p].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

func text(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return s
}
