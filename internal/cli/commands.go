package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhoicas/obra-dashboard/internal/bootstrap"
	"github.com/jhoicas/obra-dashboard/internal/domain"
	"github.com/jhoicas/obra-dashboard/internal/domain/entity"
)

// ── reprocesar ────────────────────────────────────────────────────────────────

func (c *CLI) newReprocessCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reprocesar <report-id>...",
		Short: "Ejecuta el pipeline de ingesta de uno o más reportes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				var failed []string
				for _, id := range args {
					res, err := app.ReportUC.Reprocess(ctx, id, force)
					if err != nil {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\tERROR\t%v\n", id, err)
						failed = append(failed, id)
						continue
					}
					note := ""
					if res.Omitido {
						note = "\t(omitido: estado no reprocesable)"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s%s\n", id, res.Estado, note)
				}
				if len(failed) > 0 {
					return fmt.Errorf("reprocesar: %d reporte(s) con error: %s", len(failed), strings.Join(failed, ", "))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "recuperar reportes trabados en PROCESSING")
	return cmd
}

// ── reconstruir ───────────────────────────────────────────────────────────────

func (c *CLI) newRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconstruir",
		Short: "Borra los agregados y los recalcula desde los reportes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				sum, err := app.Rebuild.RebuildAll(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "documentos eliminados: %d\n", sum.DocumentosEliminados)
				fmt.Fprintf(out, "reportes aplicados:    %d\n", sum.ReportesAplicados)
				fmt.Fprintf(out, "reportes omitidos:     %d\n", sum.ReportesOmitidos)
				if len(sum.Fallidos) > 0 {
					fmt.Fprintf(out, "fallidos:              %s\n", strings.Join(sum.Fallidos, ", "))
					return fmt.Errorf("reconstruir: %d reporte(s) no consolidan", len(sum.Fallidos))
				}
				return nil
			})
		},
	}
}

// ── almacen ───────────────────────────────────────────────────────────────────

func (c *CLI) newWarehouseCmd() *cobra.Command {
	var pending bool
	cmd := &cobra.Command{
		Use:   "almacen [report-id]...",
		Short: "Exporta reportes al almacén de hechos (idempotente)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !pending {
				return fmt.Errorf("indique ids de reporte o --pendientes")
			}
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if app.Facts == nil {
					return fmt.Errorf("%w: WAREHOUSE_DRIVER no configurado", domain.ErrUnavailable)
				}
				ids := args
				if pending {
					more, err := pendingWarehouseIDs(ctx, app)
					if err != nil {
						return err
					}
					ids = append(ids, more...)
				}
				var failed int
				for _, id := range ids {
					inserted, err := app.Facts.ExportByID(ctx, id)
					switch {
					case err != nil:
						failed++
						fmt.Fprintf(cmd.OutOrStdout(), "%s\tERROR\t%v\n", id, err)
					case inserted:
						fmt.Fprintf(cmd.OutOrStdout(), "%s\tinsertado\n", id)
					default:
						fmt.Fprintf(cmd.OutOrStdout(), "%s\tya existía\n", id)
					}
				}
				if failed > 0 {
					return fmt.Errorf("almacen: %d reporte(s) con error", failed)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&pending, "pendientes", false, "incluir todos los reportes procesados aún no ingestados")
	return cmd
}

// pendingWarehouseIDs reportes con aporte en el dashboard que no llegaron al almacén.
func pendingWarehouseIDs(ctx context.Context, app *bootstrap.App) ([]string, error) {
	reports, err := app.Reports.List(ctx)
	if err != nil {
		return nil, err
	}
	exportable := []string{
		entity.ReportStatusCompleted,
		entity.ReportStatusPartialError,
		entity.ReportStatusRectified,
	}
	var ids []string
	for _, r := range reports {
		if r.Pasos.DashboardOK && !r.AlmacenIngestado && slices.Contains(exportable, r.Estado) {
			ids = append(ids, r.ID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// ── esquema ───────────────────────────────────────────────────────────────────

func (c *CLI) newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "esquema",
		Short: "Crea las tablas de hechos y resumen diario si no existen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if app.Warehouse == nil {
					return fmt.Errorf("%w: WAREHOUSE_DRIVER no configurado", domain.ErrUnavailable)
				}
				if err := app.Warehouse.EnsureSchema(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "esquema del almacén listo")
				return nil
			})
		},
	}
}
