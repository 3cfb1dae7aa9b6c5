package ports

import "context"

// Alert aviso de fallo en el procesamiento de un reporte.
type Alert struct {
	ReportID string
	Fecha    string
	Estado   string
	Mensaje  string
}

// AlertNotifier envía avisos a los responsables de obra.
type AlertNotifier interface {
	Notify(ctx context.Context, alert Alert) error
}
