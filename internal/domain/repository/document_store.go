package repository

import "context"

// MaxBatchWrites límite de escrituras por lote atómico (el de Firestore).
const MaxBatchWrites = 500

// Document contenido de un documento del almacén documental.
// Los mapas anidados representan objetos; los números llegan como float64 o int64.
type Document map[string]any

// StoredDocument documento con su id, tal como lo devuelve List.
type StoredDocument struct {
	ID   string
	Data Document
}

// Mutation escritura sobre un documento dentro de un lote atómico.
//
// Las claves de Set, Increments y ServerTimestamps son rutas con puntos
// ("periodos.diario.2025-01-15.horas"); el adaptador las expande a objetos
// anidados y las fusiona con el documento existente (merge-upsert).
// Delete elimina el documento e ignora el resto de campos.
type Mutation struct {
	Collection       string
	DocID            string
	Delete           bool
	Set              map[string]any
	Increments       map[string]float64
	ServerTimestamps []string
}

// IsNoop true si la mutación no escribe nada.
func (m Mutation) IsNoop() bool {
	return !m.Delete && len(m.Set) == 0 && len(m.Increments) == 0 && len(m.ServerTimestamps) == 0
}

// TransactFunc recibe el documento actual (nil si no existe) y decide las
// mutaciones a confirmar. Devolver (nil, nil) no escribe nada.
type TransactFunc func(current Document) ([]Mutation, error)

// DocumentStore puerto del almacén documental (Firestore, MongoDB o memoria).
//
// Las colecciones se direccionan por ruta compuesta: "Reports/{id}/activities".
type DocumentStore interface {
	// Get devuelve domain.ErrNotFound si el documento no existe.
	Get(ctx context.Context, collection, id string) (Document, error)
	List(ctx context.Context, collection string) ([]StoredDocument, error)
	// Commit confirma todas las mutaciones o ninguna.
	Commit(ctx context.Context, mutations []Mutation) error
	// Transact lee un documento y confirma las mutaciones que decida fn de
	// forma atómica respecto de ese documento (compare-and-set).
	Transact(ctx context.Context, collection, id string, fn TransactFunc) error
}
