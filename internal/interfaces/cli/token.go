package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pkgjwt "github.com/jhoicas/nfe-api/pkg/jwt"
	pkgnfe "github.com/jhoicas/nfe-api/pkg/nfe"
)

// newTokenCmd emite tokens de operador para la API. No hay login: quien tiene JWT_SECRET los firma.
func (a *app) newTokenCmd() *cobra.Command {
	var userID, cnpj, role string
	var ttl int
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un JWT para la API (requiere JWT_SECRET)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.JWT.Secret == "" {
				return fmt.Errorf("JWT_SECRET no configurado")
			}
			switch role {
			case pkgjwt.RoleEmitter, pkgjwt.RoleViewer:
			default:
				return fmt.Errorf("rol %q inválido (emitter|viewer)", role)
			}
			if cnpj != "" {
				if err := pkgnfe.ValidateCNPJ(cnpj); err != nil {
					return err
				}
				cnpj = pkgnfe.OnlyDigits(cnpj)
			}
			if ttl <= 0 {
				ttl = a.cfg.JWT.Expiration
			}
			tok, err := pkgjwt.Generate(a.cfg.JWT.Secret, userID, cnpj, role, a.cfg.JWT.Issuer, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "cli", "Identificador del operador (sub)")
	cmd.Flags().StringVar(&cnpj, "cnpj", "", "CNPJ del emitente autorizado; vacío = cualquiera")
	cmd.Flags().StringVar(&role, "role", pkgjwt.RoleEmitter, "Rol: emitter | viewer")
	cmd.Flags().IntVar(&ttl, "ttl", 0, "Minutos de validez (por defecto JWT_EXPIRATION_MINUTES)")
	return cmd
}
