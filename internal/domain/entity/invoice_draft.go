package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TaxRegime régimen tributario del emisor; define la forma del grupo ICMS de cada ítem.
type TaxRegime int

const (
	RegimeSimples       TaxRegime = iota + 1 // CRT 1
	RegimeSimplesExcess                      // CRT 2
	RegimeNormal                             // CRT 3
)

// CRT devuelve el Código de Regime Tributário.
func (r TaxRegime) CRT() string {
	switch r {
	case RegimeSimples:
		return "1"
	case RegimeSimplesExcess:
		return "2"
	case RegimeNormal:
		return "3"
	}
	return ""
}

// IsSimples indica si el emisor usa CSOSN (grupos ICMSSN*).
func (r TaxRegime) IsSimples() bool {
	return r == RegimeSimples || r == RegimeSimplesExcess
}

func (r TaxRegime) String() string {
	switch r {
	case RegimeSimples:
		return "simples"
	case RegimeSimplesExcess:
		return "simples_excess"
	case RegimeNormal:
		return "normal"
	}
	return fmt.Sprintf("TaxRegime(%d)", int(r))
}

// ParseTaxRegime acepta el nombre ("simples", "simples_excess", "normal") o el CRT ("1".."3").
func ParseTaxRegime(s string) (TaxRegime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simples", "1":
		return RegimeSimples, nil
	case "simples_excess", "2":
		return RegimeSimplesExcess, nil
	case "normal", "3":
		return RegimeNormal, nil
	}
	return 0, fmt.Errorf("régimen tributario %q no soportado", s)
}

// Environment ambiente de emisión (tpAmb).
type Environment int

const (
	EnvironmentProduction   Environment = 1
	EnvironmentHomologation Environment = 2
)

// TpAmb devuelve el valor del campo tpAmb.
func (e Environment) TpAmb() string {
	return fmt.Sprintf("%d", int(e))
}

// ParseEnvironment acepta "production"/"producao"/"1" y "homologation"/"homologacao"/"2".
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "producao", "produção", "1":
		return EnvironmentProduction, nil
	case "homologation", "homologacao", "homologação", "2", "":
		return EnvironmentHomologation, nil
	}
	return 0, fmt.Errorf("ambiente %q no soportado", s)
}

// InvoiceDraft datos de negocio de una NF-e antes de firmar. El núcleo la trata como solo lectura.
type InvoiceDraft struct {
	Issuer    Party         `json:"issuer"`
	Recipient Party         `json:"recipient"`
	Items     []InvoiceItem `json:"items"`

	// DeclaredTotal vNF informado por el llamador; nil = se usa el calculado.
	DeclaredTotal *decimal.Decimal `json:"declared_total,omitempty"`

	Transport       Transport `json:"transport"`
	Payment         Payment   `json:"payment"`
	Notes           string    `json:"notes"` // infCpl
	OperationNature string    `json:"operation_nature"`

	TaxRegime   TaxRegime   `json:"tax_regime"`
	Environment Environment `json:"environment"`

	Model        int       `json:"model"` // 55 o 65
	Series       string    `json:"series"`
	Number       int64     `json:"number"` // nNF; 0 = lo asigna el SequenceProvider
	EmissionType int       `json:"emission_type"`
	IssuedAt     time.Time `json:"issued_at"`

	// ProcessVersion verProc (versión del aplicativo emisor).
	ProcessVersion string `json:"process_version"`
}
