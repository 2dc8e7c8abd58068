package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/nfe-api/internal/infrastructure/nfe/signer"
)

func (a *app) newCertCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "cert <file.pfx>",
		Short: "Muestra titular y vigencia de un certificado A1",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = a.cfg.NFE.CertPassword
			}
			id, err := signer.LoadIdentityFromFile(args[0], password)
			if err != nil {
				return err
			}
			defer id.Destroy()

			now := time.Now()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "titular:        %s\n", id.SubjectName())
			fmt.Fprintf(out, "cnpj:           %s\n", id.SubjectCNPJ())
			fmt.Fprintf(out, "not_before:     %s\n", id.NotBefore().Format(time.RFC3339))
			fmt.Fprintf(out, "not_after:      %s\n", id.NotAfter().Format(time.RFC3339))
			fmt.Fprintf(out, "dias_restantes: %d\n", signer.DaysUntilExpiry(id, now))
			if !signer.IsValid(id, now) {
				return fmt.Errorf("el certificado no está vigente")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Contraseña del .pfx (por defecto NFE_CERT_PASSWORD)")
	return cmd
}
