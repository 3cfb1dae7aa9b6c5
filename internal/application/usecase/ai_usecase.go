package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jhoicas/obra-dashboard/internal/application/analytics"
	"github.com/jhoicas/obra-dashboard/internal/application/dto"
	"github.com/jhoicas/obra-dashboard/internal/application/ports"
	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/pkg/logger"
)

const (
	llmTimeout           = 10 * time.Second
	defaultNarrativeTTL  = 6 * time.Hour
	emptyPeriodNarrative = "No hay registros de producción en el periodo consultado."
)

// SummaryProvider fuente del resumen del dashboard que se narra.
type SummaryProvider interface {
	GetSummary(ctx context.Context, q dto.DashboardQuery) (*dto.DashboardSummaryDTO, error)
}

// AIUseCase orquesta el resumen narrativo asistido por IA.
// Aplica un timeout de 10 segundos en cada llamada al LLM para evitar
// que las latencias externas bloqueen los goroutines del servidor.
type AIUseCase struct {
	summaries SummaryProvider
	llm       ports.TextGenerator
	cache     ports.NarrativeCache // nil = sin caché
	ttl       time.Duration
	log       *logger.Logger
}

// NewAIUseCase construye el caso de uso inyectando el puerto TextGenerator
// (nil = IA no configurada).
func NewAIUseCase(summaries SummaryProvider, llm ports.TextGenerator, cache ports.NarrativeCache, ttl time.Duration, log *logger.Logger) *AIUseCase {
	if ttl <= 0 {
		ttl = defaultNarrativeTTL
	}
	return &AIUseCase{summaries: summaries, llm: llm, cache: cache, ttl: ttl, log: log}
}

// GenerateNarrative arma el resumen del periodo y pide al LLM el texto del tipo
// indicado. El texto se cachea por hash del resumen: mismos datos, mismo texto.
func (uc *AIUseCase) GenerateNarrative(ctx context.Context, req dto.NarrativeRequest) (*dto.NarrativeDTO, error) {
	tipo := req.Tipo
	if tipo == "" {
		tipo = ports.AnalysisGeneral
	}

	summary, err := uc.summaries.GetSummary(ctx, req.DashboardQuery)
	if err != nil {
		return nil, err
	}
	out := &dto.NarrativeDTO{Tipo: tipo, Periodo: summary.Periodo}
	if len(summary.Actividades) == 0 && len(summary.Trabajadores) == 0 {
		out.Texto = emptyPeriodNarrative
		return out, nil
	}

	digest := analytics.Digest(summary)
	key := narrativeKey(tipo, digest)
	if uc.cache != nil {
		if text, ok, err := uc.cache.Get(ctx, key); err != nil {
			uc.log.Warn().Err(err).Str("key", key).Msg("ia: lectura de caché fallida")
		} else if ok {
			out.Texto, out.Cacheado = text, true
			return out, nil
		}
	}

	if uc.llm == nil {
		return nil, fmt.Errorf("%w: proveedor de IA no configurado", domain.ErrUnavailable)
	}

	// Timeout de 10 s: las llamadas a LLMs pueden demorar varios segundos.
	lctx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	text, err := uc.llm.GenerateAnalysis(lctx, digest, tipo)
	if err != nil {
		return nil, fmt.Errorf("resumen IA: %w", err)
	}
	out.Texto = text

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, text, uc.ttl); err != nil {
			uc.log.Warn().Err(err).Str("key", key).Msg("ia: escritura de caché fallida")
		}
	}
	return out, nil
}

func narrativeKey(tipo, digest string) string {
	sum := sha256.Sum256([]byte(digest))
	return "narrativa:" + tipo + ":" + hex.EncodeToString(sum[:])
}
