package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	domnfe "github.com/jhoicas/nfe-api/internal/domain/nfe"
	pkgnfe "github.com/jhoicas/nfe-api/pkg/nfe"
)

func (a *app) newAccessKeyCmd() *cobra.Command {
	var (
		p        domnfe.AccessKeyParams
		issuedAt string
	)
	cmd := &cobra.Command{
		Use:   "access-key",
		Short: "Calcula una chave de acesso de 44 dígitos",
		Example: `  nfe access-key --uf SP --cnpj 11222333000181 --series 1 --number 42 --issued-at 2024-03-15T10:30:00-03:00`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if issuedAt == "" {
				p.IssuedAt = time.Now()
			} else {
				t, err := time.Parse(time.RFC3339, issuedAt)
				if err != nil {
					return fmt.Errorf("--issued-at debe ser RFC 3339: %w", err)
				}
				p.IssuedAt = t
			}
			var opts []domnfe.AccessKeyOption
			if a.cfg.NFE.RegionFallback != "" {
				opts = append(opts, domnfe.WithRegionFallback(a.cfg.NFE.RegionFallback))
			}
			key, err := domnfe.NewAccessKeyGenerator(opts...).Generate(p)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.Region, "uf", "", "UF del emitente (sigla o cUF)")
	f.StringVar(&p.IssuerTaxID, "cnpj", "", "CNPJ o CPF del emitente")
	f.IntVar(&p.Model, "model", pkgnfe.ModelNFe, "Modelo (55 o 65)")
	f.StringVar(&p.Series, "series", "1", "Série")
	f.Int64Var(&p.Sequence, "number", 0, "Número de la nota (nNF)")
	f.IntVar(&p.EmissionType, "tp-emis", pkgnfe.EmissionNormal, "Tipo de emisión")
	f.StringVar(&p.RandomCode, "cnf", "", "cNF de 8 dígitos; vacío = aleatorio")
	f.StringVar(&issuedAt, "issued-at", "", "Fecha de emisión RFC 3339; vacío = ahora")
	_ = cmd.MarkFlagRequired("uf")
	_ = cmd.MarkFlagRequired("cnpj")
	_ = cmd.MarkFlagRequired("number")
	return cmd
}
