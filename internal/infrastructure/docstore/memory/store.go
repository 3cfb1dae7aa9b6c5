// Package memory implementa el almacén documental en memoria para desarrollo
// local y pruebas. Emula el lote atómico y las transacciones de Firestore.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/docstore"
)

var _ repository.DocumentStore = (*Store)(nil)

// Store almacén documental en memoria.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	now         func() time.Time
	failNext    error
	commits     int
}

// New crea un almacén vacío.
func New() *Store {
	return &Store{
		collections: map[string]map[string]map[string]any{},
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock fija el reloj usado para las marcas de tiempo del servidor.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailNextCommit hace que el próximo Commit (o Transact) falle sin escribir nada.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// Commits número de lotes confirmados con éxito.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Seed guarda un documento tal cual, sin expandir claves con puntos.
// Sirve para reproducir documentos históricos con campos aplanados.
func (s *Store) Seed(collection, id string, doc map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection(collection)[id] = docstore.Clone(doc)
}

func (s *Store) collection(name string) map[string]map[string]any {
	c, ok := s.collections[name]
	if !ok {
		c = map[string]map[string]any{}
		s.collections[name] = c
	}
	return c
}

func (s *Store) Get(_ context.Context, collection, id string) (repository.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	return repository.Document(docstore.Clone(doc)), nil
}

func (s *Store) List(_ context.Context, collection string) ([]repository.StoredDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collections[collection]
	out := make([]repository.StoredDocument, 0, len(docs))
	for id, doc := range docs {
		out = append(out, repository.StoredDocument{ID: id, Data: docstore.Clone(doc)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Commit(_ context.Context, mutations []repository.Mutation) error {
	if err := docstore.CheckBatch(mutations); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(mutations)
}

func (s *Store) Transact(_ context.Context, collection, id string, fn repository.TransactFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var current repository.Document
	if doc, ok := s.collections[collection][id]; ok {
		current = docstore.Clone(doc)
	}
	muts, err := fn(current)
	if err != nil {
		return err
	}
	if len(muts) == 0 {
		return nil
	}
	if err := docstore.CheckBatch(muts); err != nil {
		return err
	}
	return s.commitLocked(muts)
}

// commitLocked aplica el lote sobre copias y solo las publica si todo salió bien.
func (s *Store) commitLocked(mutations []repository.Mutation) error {
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	type key struct{ coll, id string }
	staged := map[key]map[string]any{}
	deleted := map[key]bool{}
	now := s.now()

	for _, m := range mutations {
		if m.Collection == "" || m.DocID == "" || strings.Contains(m.DocID, "/") {
			return fmt.Errorf("%w: ruta de documento inválida %q/%q", domain.ErrInvalidInput, m.Collection, m.DocID)
		}
		k := key{m.Collection, m.DocID}
		if m.Delete {
			delete(staged, k)
			deleted[k] = true
			continue
		}
		doc, ok := staged[k]
		if !ok {
			if deleted[k] {
				doc = map[string]any{}
			} else {
				doc = docstore.Clone(s.collections[m.Collection][m.DocID])
				if doc == nil {
					doc = map[string]any{}
				}
			}
			staged[k] = doc
		}
		delete(deleted, k)
		if err := docstore.ApplyMutation(doc, m, now); err != nil {
			return fmt.Errorf("%s/%s: %w", m.Collection, m.DocID, err)
		}
	}

	for k := range deleted {
		delete(s.collections[k.coll], k.id)
	}
	for k, doc := range staged {
		s.collection(k.coll)[k.id] = doc
	}
	s.commits++
	return nil
}
