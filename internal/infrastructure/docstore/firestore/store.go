// Package firestore adapta el almacén documental a Cloud Firestore mediante
// el Admin SDK de Firebase.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/docstore"
)

var _ repository.DocumentStore = (*Store)(nil)

// Config credenciales del proyecto Firebase.
type Config struct {
	ProjectID       string
	CredentialsFile string // vacío = credenciales por defecto del entorno (ADC)
}

// Store almacén documental sobre Firestore.
type Store struct {
	client *firestore.Client
}

// New inicializa la app de Firebase y devuelve el almacén.
func New(ctx context.Context, cfg Config) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: inicializar firebase: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore: cliente: %w", err)
	}
	return &Store{client: client}, nil
}

// Close libera el cliente gRPC.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Get(ctx context.Context, collection, id string) (repository.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("firestore: leer %s/%s: %w", collection, id, err)
	}
	return snap.Data(), nil
}

func (s *Store) List(ctx context.Context, collection string) ([]repository.StoredDocument, error) {
	snaps, err := s.client.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore: listar %s: %w", collection, err)
	}
	out := make([]repository.StoredDocument, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, repository.StoredDocument{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return out, nil
}

// Commit confirma el lote dentro de una transacción de solo escritura,
// que es atómica igual que un WriteBatch.
func (s *Store) Commit(ctx context.Context, mutations []repository.Mutation) error {
	if err := docstore.CheckBatch(mutations); err != nil {
		return err
	}
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return s.write(tx, mutations)
	})
	if err != nil {
		return fmt.Errorf("firestore: commit: %w", err)
	}
	return nil
}

func (s *Store) Transact(ctx context.Context, collection, id string, fn repository.TransactFunc) error {
	ref := s.client.Collection(collection).Doc(id)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var current repository.Document
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return fmt.Errorf("firestore: leer %s/%s: %w", collection, id, err)
		default:
			current = snap.Data()
		}
		muts, err := fn(current)
		if err != nil {
			return err
		}
		if err := docstore.CheckBatch(muts); err != nil {
			return err
		}
		return s.write(tx, muts)
	})
}

func (s *Store) write(tx *firestore.Transaction, mutations []repository.Mutation) error {
	for _, m := range mutations {
		ref := s.client.Collection(m.Collection).Doc(m.DocID)
		if m.Delete {
			if err := tx.Delete(ref); err != nil {
				return err
			}
			continue
		}
		if m.IsNoop() {
			continue
		}
		if err := tx.Set(ref, toFirestoreData(m), firestore.MergeAll); err != nil {
			return err
		}
	}
	return nil
}

// toFirestoreData expande la mutación a objetos anidados con los
// centinelas de incremento y marca de tiempo del servidor.
func toFirestoreData(m repository.Mutation) map[string]any {
	flat := make(map[string]any, len(m.Set)+len(m.Increments)+len(m.ServerTimestamps))
	for k, v := range m.Set {
		flat[k] = v
	}
	for k, v := range m.Increments {
		flat[k] = firestore.Increment(v)
	}
	for _, k := range m.ServerTimestamps {
		flat[k] = firestore.ServerTimestamp
	}
	return docstore.Expand(flat)
}
