package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/nfe-api/internal/application/dto"
	"github.com/jhoicas/nfe-api/internal/bootstrap"
	domnfe "github.com/jhoicas/nfe-api/internal/domain/nfe"
)

func (a *app) newSignCmd() *cobra.Command {
	var certPath, password, outPath string
	cmd := &cobra.Command{
		Use:   "sign <draft.json>",
		Short: "Arma y firma una NF-e a partir de un borrador JSON",
		Long: `Valida el borrador, calcula la chave de acesso, arma el XML y lo firma con el certificado A1.

El borrador usa el mismo formato que POST /api/nfe. El XML firmado se escribe en stdout
o en --out.

Ejemplo:
  nfe sign nota.json --cert empresa.pfx --password "$NFE_CERT_PASSWORD" --out nota.xml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("leer borrador: %w", err)
			}
			var req dto.EmitInvoiceRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return fmt.Errorf("borrador JSON inválido: %w", err)
			}
			draft, err := req.ToDraft()
			if err != nil {
				return err
			}

			nfeCfg := a.cfg.NFE
			if certPath != "" {
				nfeCfg.CertPath = certPath
			}
			if password != "" {
				nfeCfg.CertPassword = password
			}
			if nfeCfg.CertPath == "" {
				return fmt.Errorf("indique el certificado con --cert o NFE_CERT_PATH")
			}
			emitter, err := bootstrap.NewEmitter(nfeCfg, a.log)
			if err != nil {
				return err
			}
			defer emitter.Identity.Destroy()

			res, err := emitter.UseCase.Emit(cmd.Context(), draft)
			if err != nil {
				if verrs, ok := domnfe.AsValidationErrors(err); ok {
					for _, e := range verrs {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", e.Field, e.Message)
					}
				}
				return err
			}

			if outPath == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Invoice.XMLSigned)
				return err
			}
			if err := os.WriteFile(outPath, []byte(res.Invoice.XMLSigned), 0o644); err != nil {
				return fmt.Errorf("escribir %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", res.AccessKey)
			return nil
		},
	}
	cmd.Flags().StringVar(&certPath, "cert", "", "Ruta al certificado A1 .pfx (por defecto NFE_CERT_PATH)")
	cmd.Flags().StringVar(&password, "password", "", "Contraseña del .pfx (por defecto NFE_CERT_PASSWORD)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Archivo de salida; vacío = stdout")
	return cmd
}
