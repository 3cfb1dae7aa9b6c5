// Package bootstrap arma el grafo de dependencias compartido por la API y obractl.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/obra-dashboard/internal/application/aggregation"
	appanalytics "github.com/jhoicas/obra-dashboard/internal/application/analytics"
	"github.com/jhoicas/obra-dashboard/internal/application/ports"
	"github.com/jhoicas/obra-dashboard/internal/application/usecase"
	"github.com/jhoicas/obra-dashboard/internal/domain/repository"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/ai"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/cache"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/docstore"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/docstore/firestore"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/docstore/memory"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/docstore/mongo"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/export"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/notify"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/pdf"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/storage"
	"github.com/jhoicas/obra-dashboard/internal/infrastructure/warehouse"
	"github.com/jhoicas/obra-dashboard/pkg/config"
	"github.com/jhoicas/obra-dashboard/pkg/logger"
)

// ExportsPath ruta HTTP donde se publican los PDF guardados en disco.
const ExportsPath = "/exports"

// App componentes construidos a partir de la configuración.
type App struct {
	Store     repository.DocumentStore
	Reports   *docstore.ReportRepository
	Writer    *aggregation.Writer
	Trigger   *aggregation.IngestionTrigger
	Rectifier *aggregation.RectificationUseCase
	Rebuild   *aggregation.RebuildUseCase
	Facts     *aggregation.FactExporter // nil sin almacén
	Warehouse *warehouse.SQLWarehouse   // nil sin almacén
	Notifier  ports.AlertNotifier

	ReportUC    *usecase.ReportUseCase
	DashboardUC *appanalytics.DashboardUseCase
	AnalyticsUC *usecase.AnalyticsUseCase
	AIUC        *usecase.AIUseCase

	ExportsDir string // directorio servido en /exports; vacío con S3

	closers []func() error
}

// Close libera conexiones en orden inverso de apertura.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Build conecta almacenes y adaptadores y construye los casos de uso.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	// ═══════════════════════════════════════════════════════════════════════════
	// 1. Almacén documental
	// ═══════════════════════════════════════════════════════════════════════════
	store, closer, err := openDocStore(ctx, cfg.DocStore)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, closer)
	log.Info().Str("driver", cfg.DocStore.Driver).Msg("almacén documental conectado")

	// ═══════════════════════════════════════════════════════════════════════════
	// 2. Almacén de hechos (opcional)
	// ═══════════════════════════════════════════════════════════════════════════
	wh, whClose, err := warehouse.Open(ctx, cfg.Warehouse, log.Component("almacen"))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, whClose)
	a.Reports = docstore.NewReportRepository(store)
	var whRepo repository.WarehouseRepository
	if wh != nil {
		a.Warehouse = wh
		whRepo = wh
		a.Facts = aggregation.NewFactExporter(a.Reports, wh, log.Component("almacen"))
		log.Info().Str("driver", cfg.Warehouse.Driver).Msg("almacén de hechos conectado")
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 3. Exportación del parte, avisos e IA
	// ═══════════════════════════════════════════════════════════════════════════
	var exporter ports.ReportExporter = export.Disabled{}
	var pdfExporter *export.PDFReportExporter
	if cfg.Export.Enabled {
		objects, dir, err := openStorage(ctx, cfg.Export)
		if err != nil {
			return nil, err
		}
		a.ExportsDir = dir
		pdfExporter = export.NewPDFReportExporter(pdf.NewMarotoPDFGenerator(), objects)
		exporter = pdfExporter
	}

	a.Notifier = notify.Noop{}
	if n := notify.NewEmailNotifier(cfg.SMTP); n != nil {
		a.Notifier = n
	}

	llm := textGenerator(cfg.AI)
	narratives, cacheClose := openCache(ctx, cfg, log)
	a.closers = append(a.closers, cacheClose)

	// ═══════════════════════════════════════════════════════════════════════════
	// 4. Casos de uso
	// ═══════════════════════════════════════════════════════════════════════════
	a.Writer = aggregation.NewWriter(store)
	a.Trigger = aggregation.NewIngestionTrigger(a.Reports, a.Writer, exporter, a.Facts, a.Notifier, log.Component("ingesta"))
	a.Rectifier = aggregation.NewRectificationUseCase(a.Reports, a.Writer, a.Facts, a.Notifier, log.Component("rectificacion"))
	a.Rebuild = aggregation.NewRebuildUseCase(a.Reports, a.Writer, log.Component("reconstruccion"))

	a.ReportUC = usecase.NewReportUseCase(a.Reports, a.Trigger, a.Writer, a.Rectifier, a.Facts, log.Component("reportes"))
	if pdfExporter != nil {
		a.ReportUC.WithExportRemover(pdfExporter)
	}
	a.DashboardUC = appanalytics.NewDashboardUseCase(appanalytics.NewReconciler(store))
	a.AnalyticsUC = usecase.NewAnalyticsUseCase(whRepo)
	a.AIUC = usecase.NewAIUseCase(a.DashboardUC, llm, narratives, cfg.AI.CacheTTL, log.Component("ia"))

	ok = true
	return a, nil
}

func openDocStore(ctx context.Context, cfg config.DocStoreConfig) (repository.DocumentStore, func() error, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), func() error { return nil }, nil
	case "mongo":
		s, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return s.Close(cctx)
		}, nil
	case "firestore", "":
		s, err := firestore.New(ctx, firestore.Config{ProjectID: cfg.ProjectID, CredentialsFile: cfg.CredentialsFile})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("bootstrap: driver documental %q no soportado", cfg.Driver)
}

// openStorage usa S3 si hay bucket; si no, el directorio local servido por la API.
func openStorage(ctx context.Context, cfg config.ExportConfig) (ports.ObjectStorage, string, error) {
	if cfg.S3Bucket != "" {
		s, err := storage.NewS3Storage(ctx, cfg)
		if err != nil {
			return nil, "", err
		}
		return s, "", nil
	}
	base := cfg.PublicBaseURL
	if base == "" {
		base = ExportsPath
	}
	local, err := storage.NewLocalStorage(cfg.LocalDir, base)
	if err != nil {
		return nil, "", err
	}
	return local, local.Dir(), nil
}

// textGenerator devuelve nil si el proveedor elegido no tiene API key.
func textGenerator(cfg config.AIConfig) ports.TextGenerator {
	switch cfg.Provider {
	case "anthropic":
		if cfg.AnthropicAPIKey != "" {
			return ai.NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		}
	default:
		if cfg.GeminiAPIKey != "" {
			return ai.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel)
		}
	}
	return nil
}

// openCache usa Redis si REDIS_ADDR está definido; si Redis no responde se
// degrada a la caché en proceso.
func openCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.NarrativeCache, func() error) {
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err == nil {
			return cache.NewRedisCache(rdb), rdb.Close
		}
		log.Warn().Err(err).Msg("redis no disponible, se usa caché en memoria")
	}
	return cache.NewLRUCache(cfg.AI.CacheSize, cfg.AI.CacheTTL), func() error { return nil }
}
