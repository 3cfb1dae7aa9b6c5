package dto

// NarrativeRequest cuerpo de POST /api/ia/resumen.
type NarrativeRequest struct {
	DashboardQuery
	Tipo string `json:"tipo" validate:"omitempty,oneof=general productividad costos"`
}

// NarrativeDTO texto generado por IA sobre el periodo consultado.
type NarrativeDTO struct {
	Tipo     string    `json:"tipo"`
	Periodo  PeriodDTO `json:"periodo"`
	Texto    string    `json:"texto"`
	Cacheado bool      `json:"cacheado"`
}
