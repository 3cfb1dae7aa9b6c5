// Package mongo adapta el almacén documental a MongoDB. Las subcolecciones
// "Padre/{id}/sub" se guardan en la colección "Padre_sub" con el campo _parent.
// Los lotes usan transacciones multi-documento (requiere replica set).
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/docstore"
)

var _ repository.DocumentStore = (*Store)(nil)

const parentField = "_parent"

// Store almacén documental sobre MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect abre la conexión y verifica con un ping.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: conectar: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// Close cierra la conexión.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// resolve traduce una ruta de colección a colección física y filtro.
func (s *Store) resolve(path, id string) (*mongo.Collection, bson.M, string) {
	name, parent := physicalCollection(path)
	filter := bson.M{}
	if id != "" {
		filter["_id"] = id
	}
	if parent != "" {
		filter[parentField] = parent
	}
	return s.db.Collection(name), filter, parent
}

func physicalCollection(path string) (name, parent string) {
	parts := strings.Split(path, "/")
	if len(parts) == 3 {
		return parts[0] + "_" + parts[2], parts[1]
	}
	return path, ""
}

func (s *Store) Get(ctx context.Context, collection, id string) (repository.Document, error) {
	coll, filter, _ := s.resolve(collection, id)
	var raw bson.M
	err := coll.FindOne(ctx, filter).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: leer %s/%s: %w", collection, id, err)
	}
	return toDocument(raw), nil
}

func (s *Store) List(ctx context.Context, collection string) ([]repository.StoredDocument, error) {
	coll, filter, _ := s.resolve(collection, "")
	cur, err := coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: listar %s: %w", collection, err)
	}
	var raws []bson.M
	if err := cur.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("mongo: decodificar %s: %w", collection, err)
	}
	out := make([]repository.StoredDocument, 0, len(raws))
	for _, raw := range raws {
		id, _ := raw["_id"].(string)
		out = append(out, repository.StoredDocument{ID: id, Data: toDocument(raw)})
	}
	return out, nil
}

func (s *Store) Commit(ctx context.Context, mutations []repository.Mutation) error {
	if err := docstore.CheckBatch(mutations); err != nil {
		return err
	}
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		return s.write(sc, mutations)
	})
}

func (s *Store) Transact(ctx context.Context, collection, id string, fn repository.TransactFunc) error {
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		coll, filter, _ := s.resolve(collection, id)
		var current repository.Document
		var raw bson.M
		err := coll.FindOne(sc, filter).Decode(&raw)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
		case err != nil:
			return fmt.Errorf("mongo: leer %s/%s: %w", collection, id, err)
		default:
			current = toDocument(raw)
		}
		muts, err := fn(current)
		if err != nil {
			return err
		}
		if err := docstore.CheckBatch(muts); err != nil {
			return err
		}
		return s.write(sc, muts)
	})
}

func (s *Store) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo: sesión: %w", err)
	}
	defer session.EndSession(ctx)
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *Store) write(ctx context.Context, mutations []repository.Mutation) error {
	for _, m := range mutations {
		coll, filter, parent := s.resolve(m.Collection, m.DocID)
		if m.Delete {
			if _, err := coll.DeleteOne(ctx, filter); err != nil {
				return fmt.Errorf("mongo: eliminar %s/%s: %w", m.Collection, m.DocID, err)
			}
			continue
		}
		if m.IsNoop() {
			continue
		}
		update := toUpdate(m, parent)
		if _, err := coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
			return fmt.Errorf("mongo: escribir %s/%s: %w", m.Collection, m.DocID, err)
		}
	}
	return nil
}

// toUpdate arma $set/$inc/$currentDate. Los mapas de Set se aplanan a rutas
// con puntos para fusionar en lugar de reemplazar el subdocumento.
func toUpdate(m repository.Mutation, parent string) bson.M {
	update := bson.M{}
	set := bson.M{}
	for k, v := range m.Set {
		flattenInto(set, k, v)
	}
	if parent != "" {
		set[parentField] = parent
	}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(m.Increments) > 0 {
		inc := bson.M{}
		for k, v := range m.Increments {
			inc[k] = v
		}
		update["$inc"] = inc
	}
	if len(m.ServerTimestamps) > 0 {
		dates := bson.M{}
		for _, k := range m.ServerTimestamps {
			dates[k] = true
		}
		update["$currentDate"] = dates
	}
	return update
}

func flattenInto(dst bson.M, prefix string, v any) {
	if m, ok := v.(map[string]any); ok && len(m) > 0 {
		for k, child := range m {
			flattenInto(dst, prefix+"."+k, child)
		}
		return
	}
	dst[prefix] = v
}

// toDocument convierte tipos BSON a mapas y slices planos de Go.
func toDocument(raw bson.M) repository.Document {
	doc := fromBSON(raw).(map[string]any)
	delete(doc, "_id")
	delete(doc, parentField)
	return doc
}

func fromBSON(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = fromBSON(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = fromBSON(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = fromBSON(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromBSON(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case int32:
		return int64(t)
	default:
		return v
	}
}
