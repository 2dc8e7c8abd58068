// Validaciones de dominio de la NF-e (layout 4.00) antes de generar el XML.
// Se acumulan todas las violaciones: el llamador necesita la lista completa para corregir el borrador.

package nfe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/nfe-api/internal/domain"
	"github.com/jhoicas/nfe-api/internal/domain/entity"
	pkgnfe "github.com/jhoicas/nfe-api/pkg/nfe"
)

// Reglas reportadas en ValidationError.Rule.
const (
	RuleRequired    = "required"
	RuleFormat      = "format"
	RuleCheckDigit  = "check_digit"
	RulePositive    = "positive"
	RuleConsistency = "consistency"
	RuleUnsupported = "unsupported"
)

// tolerance diferencia máxima aceptada entre un valor informado y el calculado (un centavo).
var tolerance = decimal.New(1, -2)

var hundred = decimal.NewFromInt(100)

// ValidationError una regla de negocio violada.
type ValidationError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors conjunto de violaciones. errors.Is(err, domain.ErrInvalidInvoice) es verdadero.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("%s: %s", domain.ErrInvalidInvoice, strings.Join(parts, "; "))
}

func (v ValidationErrors) Is(target error) bool {
	return target == domain.ErrInvalidInvoice
}

// Fields devuelve los campos con error, en orden.
func (v ValidationErrors) Fields() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.Field
	}
	return out
}

// AsValidationErrors extrae ValidationErrors de una cadena de errores.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// ValidateOption ajusta ValidateDraft.
type ValidateOption func(*validateOptions)

type validateOptions struct {
	lenientRegion bool
	pendingNumber bool
}

// WithLenientRegion acepta UF y prefijo de cMun fuera de la tabla; corresponde al
// generador de chave armado con WithRegionFallback.
func WithLenientRegion() ValidateOption {
	return func(o *validateOptions) { o.lenientRegion = true }
}

// WithPendingNumber acepta nNF 0 porque la numeración lo asigna después de validar.
func WithPendingNumber() ValidateOption {
	return func(o *validateOptions) { o.pendingNumber = true }
}

type collector struct {
	errs ValidationErrors
	opts validateOptions
}

func (c *collector) add(field, rule, format string, args ...any) {
	c.errs = append(c.errs, ValidationError{Field: field, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

// ValidateDraft valida el borrador completo. Devuelve nil si no hay violaciones.
func ValidateDraft(draft *entity.InvoiceDraft, opts ...ValidateOption) ValidationErrors {
	c := &collector{}
	for _, opt := range opts {
		opt(&c.opts)
	}
	if draft == nil {
		c.add("draft", RuleRequired, "borrador nulo")
		return c.errs
	}

	validateHeader(c, draft)
	validateIssuer(c, &draft.Issuer)
	validateRecipient(c, &draft.Recipient)

	if len(draft.Items) == 0 {
		c.add("items", RuleRequired, "la NF-e debe tener al menos un ítem")
	}
	for i := range draft.Items {
		validateItem(c, fmt.Sprintf("items[%d]", i), draft.TaxRegime, &draft.Items[i])
	}

	if m := draft.Payment.Method; m != "" && !pkgnfe.ValidPaymentMethods[m] {
		c.add("payment.method", RuleUnsupported, "tPag %q no soportado", m)
	}
	if ind := draft.Payment.Indicator; ind != "" && ind != pkgnfe.PaymentIndicatorCash && ind != pkgnfe.PaymentIndicatorTerm {
		c.add("payment.indicator", RuleUnsupported, "indPag %q no soportado", ind)
	}
	switch draft.Transport.Modality {
	case "", pkgnfe.FreightIssuer, pkgnfe.FreightRecipient, pkgnfe.FreightThird, pkgnfe.FreightNone:
	default:
		c.add("transport.modality", RuleUnsupported, "modFrete %q no soportado", draft.Transport.Modality)
	}

	if draft.DeclaredTotal != nil && len(draft.Items) > 0 {
		computed := ComputeTotals(draft).Total
		if !withinTolerance(*draft.DeclaredTotal, computed) {
			c.add("declared_total", RuleConsistency, "total informado %s difiere del calculado %s",
				draft.DeclaredTotal.StringFixed(2), computed.StringFixed(2))
		}
	}

	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}

func validateHeader(c *collector, d *entity.InvoiceDraft) {
	if strings.TrimSpace(d.OperationNature) == "" {
		c.add("operation_nature", RuleRequired, "natureza da operação obligatoria")
	}
	if d.Model != pkgnfe.ModelNFe && d.Model != pkgnfe.ModelNFCe {
		c.add("model", RuleUnsupported, "modelo %d no soportado (55 o 65)", d.Model)
	}
	if _, err := ParseSeries(d.Series); err != nil {
		c.add("series", RuleFormat, "%v", err)
	}
	pending := d.Number == 0 && c.opts.pendingNumber
	if !pending && (d.Number < 1 || d.Number > maxSequence) {
		c.add("number", RulePositive, "nNF %d fuera de rango 1..%d", d.Number, maxSequence)
	}
	if d.TaxRegime.CRT() == "" {
		c.add("tax_regime", RuleUnsupported, "régimen tributario no informado")
	}
	if d.Environment != entity.EnvironmentProduction && d.Environment != entity.EnvironmentHomologation {
		c.add("environment", RuleUnsupported, "ambiente %d no soportado", int(d.Environment))
	}
	if d.EmissionType < 0 || d.EmissionType > 9 {
		c.add("emission_type", RuleUnsupported, "tpEmis %d fuera de rango", d.EmissionType)
	}
}

func validateIssuer(c *collector, p *entity.Party) {
	if strings.TrimSpace(p.TaxID) == "" {
		c.add("issuer.tax_id", RuleRequired, "CNPJ/CPF del emitente obligatorio")
	} else if err := pkgnfe.ValidateTaxID(p.TaxID); err != nil {
		c.add("issuer.tax_id", RuleCheckDigit, "%v", err)
	}
	if strings.TrimSpace(p.Name) == "" {
		c.add("issuer.name", RuleRequired, "razão social del emitente obligatoria")
	}
	if strings.TrimSpace(p.StateRegistration) == "" {
		c.add("issuer.state_registration", RuleRequired, "inscrição estadual del emitente obligatoria")
	}
	if _, ok := pkgnfe.RegionCode(p.Address.UF); !ok && !c.opts.lenientRegion {
		c.add("issuer.address.uf", RuleUnsupported, "UF %q desconocida", p.Address.UF)
	}
	validateMunicipality(c, "issuer.address.municipality_code", p.Address.MunicipalityCode)
}

func validateRecipient(c *collector, p *entity.Party) {
	if strings.TrimSpace(p.TaxID) == "" {
		c.add("recipient.tax_id", RuleRequired, "CNPJ/CPF del destinatario obligatorio")
	} else if err := pkgnfe.ValidateTaxID(p.TaxID); err != nil {
		c.add("recipient.tax_id", RuleCheckDigit, "%v", err)
	}
	if strings.TrimSpace(p.Name) == "" {
		c.add("recipient.name", RuleRequired, "nombre del destinatario obligatorio")
	}
	if p.Address.MunicipalityCode != "" {
		validateMunicipality(c, "recipient.address.municipality_code", p.Address.MunicipalityCode)
	}
}

func validateMunicipality(c *collector, field, code string) {
	if len(code) != 7 || pkgnfe.OnlyDigits(code) != code {
		c.add(field, RuleFormat, "cMun %q debe tener 7 dígitos", code)
		return
	}
	if !pkgnfe.IsKnownRegionCode(code[:2]) && !c.opts.lenientRegion {
		c.add(field, RuleFormat, "cMun %s no empieza con un cUF conocido", code)
	}
}

func validateItem(c *collector, prefix string, regime entity.TaxRegime, it *entity.InvoiceItem) {
	if strings.TrimSpace(it.Code) == "" {
		c.add(prefix+".code", RuleRequired, "código del producto obligatorio")
	}
	if strings.TrimSpace(it.Description) == "" {
		c.add(prefix+".description", RuleRequired, "descripción del producto obligatoria")
	}
	if len(it.NCM) != 8 || pkgnfe.OnlyDigits(it.NCM) != it.NCM {
		c.add(prefix+".ncm", RuleFormat, "NCM %q debe tener 8 dígitos", it.NCM)
	}
	if len(it.CFOP) != 4 || pkgnfe.OnlyDigits(it.CFOP) != it.CFOP || it.CFOP[0] < '1' || it.CFOP[0] > '7' {
		c.add(prefix+".cfop", RuleFormat, "CFOP %q debe tener 4 dígitos e iniciar en 1..7", it.CFOP)
	}
	if !it.Quantity.IsPositive() {
		c.add(prefix+".quantity", RulePositive, "cantidad debe ser mayor que cero")
	}
	if !it.UnitValue.IsPositive() {
		c.add(prefix+".unit_value", RulePositive, "valor unitario debe ser mayor que cero")
	}
	if !it.TotalValue.IsPositive() {
		c.add(prefix+".total_value", RulePositive, "valor total debe ser mayor que cero")
	}
	if it.Quantity.IsPositive() && it.UnitValue.IsPositive() && it.TotalValue.IsPositive() {
		expected := it.Quantity.Mul(it.UnitValue)
		if !withinTolerance(expected, it.TotalValue) {
			c.add(prefix+".total_value", RuleConsistency, "cantidad × valor unitario = %s difiere del total %s",
				expected.StringFixed(2), it.TotalValue.StringFixed(2))
		}
	}
	if it.Freight.IsNegative() {
		c.add(prefix+".freight", RulePositive, "frete no puede ser negativo")
	}
	if it.Discount.IsNegative() {
		c.add(prefix+".discount", RulePositive, "desconto no puede ser negativo")
	}

	validateICMS(c, prefix+".icms", regime, it)
	validateContribution(c, prefix+".pis", &it.PIS)
	validateContribution(c, prefix+".cofins", &it.COFINS)
	if it.IPI != nil {
		if !pkgnfe.IPITaxedCodes[it.IPI.Code] && !pkgnfe.IPIExemptCodes[it.IPI.Code] {
			c.add(prefix+".ipi.code", RuleUnsupported, "CST de IPI %q no soportado", it.IPI.Code)
		} else if pkgnfe.IPITaxedCodes[it.IPI.Code] {
			checkAmount(c, prefix+".ipi.amount", it.IPI.Base, it.IPI.Rate, it.IPI.Amount)
		}
	}
}

func validateICMS(c *collector, field string, regime entity.TaxRegime, it *entity.InvoiceItem) {
	icms := &it.ICMS
	if regime.IsSimples() {
		hasValues, ok := pkgnfe.ICMSSimplesCodes[icms.Code]
		if !ok {
			c.add(field+".code", RuleUnsupported, "CSOSN %q no válido para Simples Nacional", icms.Code)
			return
		}
		switch {
		case icms.Code == "101":
			checkAmount(c, field+".credit_amount", it.TotalValue, icms.CreditRate, icms.CreditAmount)
		case hasValues:
			checkAmount(c, field+".amount", icms.Base, icms.Rate, icms.Amount)
		}
		return
	}
	hasValues, ok := pkgnfe.ICMSNormalCodes[icms.Code]
	if !ok {
		c.add(field+".code", RuleUnsupported, "CST de ICMS %q no válido para regime normal", icms.Code)
		return
	}
	if hasValues {
		checkAmount(c, field+".amount", icms.Base, icms.Rate, icms.Amount)
	}
}

func validateContribution(c *collector, field string, tax *entity.ContributionTax) {
	switch pkgnfe.ContributionGroup(tax.Code) {
	case "":
		c.add(field+".code", RuleUnsupported, "CST %q no soportado", tax.Code)
	case pkgnfe.ContributionGroupNT:
	default:
		checkAmount(c, field+".amount", tax.Base, tax.Rate, tax.Amount)
	}
}

// checkAmount exige amount ≈ base × rate / 100 (un centavo de tolerancia).
func checkAmount(c *collector, field string, base, rate, amount decimal.Decimal) {
	if base.IsNegative() || rate.IsNegative() || amount.IsNegative() {
		c.add(field, RulePositive, "base, alícuota y valor no pueden ser negativos")
		return
	}
	expected := base.Mul(rate).Div(hundred)
	if !withinTolerance(expected, amount) {
		c.add(field, RuleConsistency, "valor %s difiere de base × alícuota = %s", amount.StringFixed(2), expected.StringFixed(2))
	}
}

func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
