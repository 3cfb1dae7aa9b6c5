package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhoicas/obra-dashboard/internal/application/ports"
)

var _ ports.ObjectStorage = (*LocalStorage)(nil)

// LocalStorage guarda archivos en disco; el servidor HTTP los publica bajo baseURL.
type LocalStorage struct {
	dir     string
	baseURL string
}

// NewLocalStorage crea el directorio raíz si no existe.
func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("almacenamiento local: %w", err)
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir directorio raíz (para servirlo como estático).
func (s *LocalStorage) Dir() string { return s.dir }

func (s *LocalStorage) Put(_ context.Context, key string, content []byte, _ string) (string, error) {
	path, rel, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("almacenamiento local: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("almacenamiento local: escribir %s: %w", key, err)
	}
	return s.baseURL + "/" + escapeKey(rel), nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	path, _, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("almacenamiento local: borrar %s: %w", key, err)
	}
	return nil
}

// path limpia la clave para que no salga del directorio raíz y devuelve la
// ruta en disco y la clave relativa resultante.
func (s *LocalStorage) path(key string) (string, string, error) {
	clean := filepath.ToSlash(filepath.Clean("/" + key))
	if clean == "/" {
		return "", "", fmt.Errorf("almacenamiento local: clave vacía")
	}
	rel := strings.TrimPrefix(clean, "/")
	return filepath.Join(s.dir, filepath.FromSlash(rel)), rel, nil
}
