// Package cli comandos de operación de obractl.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/obra-dashboard/internal/bootstrap"
)

// Opener construye las dependencias; el comando las cierra al terminar.
type Opener func(ctx context.Context) (*bootstrap.App, error)

// Options configuración del CLI.
type Options struct {
	Open    Opener
	Output  io.Writer
	Timeout time.Duration // por comando; 0 = 10 minutos
}

// CLI raíz de obractl.
type CLI struct {
	open    Opener
	timeout time.Duration
	rootCmd *cobra.Command
}

// NewCLI crea el CLI con todos los subcomandos.
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Minute
	}
	c := &CLI{open: opts.Open, timeout: opts.Timeout}
	c.rootCmd = c.newRootCmd()
	c.rootCmd.SetOut(opts.Output)
	c.rootCmd.SetErr(opts.Output)
	return c
}

// Execute ejecuta con los argumentos de os.Args.
func (c *CLI) Execute() error { return c.rootCmd.Execute() }

// ExecuteArgs ejecuta con argumentos explícitos.
func (c *CLI) ExecuteArgs(args ...string) error {
	c.rootCmd.SetArgs(args)
	return c.rootCmd.Execute()
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "obractl",
		Short:         "Operaciones del dashboard de producción de obra",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(c.newReprocessCmd())
	cmd.AddCommand(c.newRebuildCmd())
	cmd.AddCommand(c.newWarehouseCmd())
	cmd.AddCommand(c.newSchemaCmd())
	return cmd
}

// withApp abre las dependencias con timeout y las cierra al terminar.
func (c *CLI) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()

	app, err := c.open(ctx)
	if err != nil {
		return fmt.Errorf("inicializar: %w", err)
	}
	runErr := fn(ctx, app)
	return errors.Join(runErr, app.Close())
}
