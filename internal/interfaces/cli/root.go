// Package cli implementa la herramienta de línea de comandos `nfe`.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/nfe-api/pkg/config"
	"github.com/jhoicas/nfe-api/pkg/logger"
)

// Version se sobrescribe con -ldflags al compilar.
var Version = "dev"

type app struct {
	cfg *config.Config
	log *logger.Logger
}

// NewRootCmd arma el comando raíz con todos los subcomandos.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:               "nfe",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Short:             "Firma y validación de NF-e / NFC-e",
		Long:              "Herramienta para armar, firmar y verificar NF-e modelo 55/65 (leiaute 4.00) con certificado A1.",
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			// los logs van a stderr para no mezclarse con el XML de salida
			a.log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Output: cmd.ErrOrStderr()})
			return nil
		},
	}
	root.AddCommand(
		a.newSignCmd(),
		a.newAccessKeyCmd(),
		a.newCertCmd(),
		a.newVerifyCmd(),
		a.newTokenCmd(),
	)
	return root
}

// Execute ejecuta la CLI y termina el proceso con código 1 si hay error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
