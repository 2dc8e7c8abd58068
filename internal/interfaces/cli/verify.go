package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/nfe-api/internal/infrastructure/nfe/signer"
)

func (a *app) newVerifyCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "verify <signed.xml>",
		Short: "Verifica digest y firma de una NF-e firmada",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("leer %s: %w", args[0], err)
			}
			if mode == "" {
				mode = a.cfg.NFE.Canonicalization
			}
			canon, err := signer.NewCanonicalizer(mode)
			if err != nil {
				return err
			}
			if err := signer.VerifyDocument(string(raw), canon); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "firma válida")
			return err
		},
	}
	cmd.Flags().StringVar(&mode, "c14n", "", "Canonicalización: reduced | c14n (por defecto NFE_CANONICALIZATION)")
	return cmd
}
