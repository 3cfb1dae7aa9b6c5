package dto

// PageRequest ventana offset/limit sobre el índice de reportes.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage 20 elementos desde el inicio cuando no se indica nada.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	p.Offset = max(p.Offset, 0)
}

// Window límites [start, end) de la página dentro de total elementos.
func (p PageRequest) Window(total int) (int, int) {
	start := min(p.Offset, total)
	return start, min(start+p.Limit, total)
}

// PageResponse metadatos de la página devuelta.
type PageResponse struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// NewPageResponse arma los metadatos a partir de la ventana aplicada.
func NewPageResponse(p PageRequest, total int) PageResponse {
	_, end := p.Window(total)
	return PageResponse{Limit: p.Limit, Offset: p.Offset, Total: total, HasMore: end < total}
}

// ErrorResponse cuerpo de error de la API: código estable y mensaje legible.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
