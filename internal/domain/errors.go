package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrInvalidInput  = errors.New("entrada inválida")
	ErrHoursMismatch = errors.New("las horas no coinciden con las actividades del reporte")
	ErrDuplicate     = errors.New("recurso duplicado")
	ErrUnauthorized  = errors.New("no autorizado")
	ErrForbidden     = errors.New("acceso denegado")
	ErrConflict      = errors.New("conflicto con el estado actual")
	ErrUnavailable   = errors.New("servicio no disponible")
	ErrBatchTooLarge = errors.New("el lote excede el máximo de escrituras permitido")
)
