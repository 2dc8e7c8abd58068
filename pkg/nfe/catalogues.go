// Package nfe contiene catálogos y reglas del Manual de Orientação do Contribuinte
// (NF-e / NFC-e, layout 4.00) usados por el builder y las validaciones de dominio.
package nfe

// =============================================================================
// Modelos de documento (mod) y prefijo del atributo Id de infNFe
// =============================================================================

const (
	ModelNFe  = 55 // Nota Fiscal eletrônica
	ModelNFCe = 65 // Nota Fiscal de Consumidor eletrônica

	// IDPrefix antecede la chave de acesso en infNFe@Id.
	IDPrefix = "NFe"
	// LayoutVersion versão do leiaute (infNFe@versao).
	LayoutVersion = "4.00"
	// Namespace por defecto del documento NF-e.
	Namespace = "http://www.portalfiscal.inf.br/nfe"
)

// =============================================================================
// Tipo de emisión (tpEmis)
// =============================================================================

const (
	EmissionNormal        = 1 // Emissão normal
	EmissionContingencyFS = 2 // Contingência FS-IA
	EmissionContingencySV = 6 // Contingência SVC-AN
)

// =============================================================================
// Código de Regime Tributário (CRT)
// =============================================================================

const (
	CRTSimples       = "1" // Simples Nacional
	CRTSimplesExcess = "2" // Simples Nacional, excesso de sublimite de receita bruta
	CRTNormal        = "3" // Regime Normal
)

// =============================================================================
// ICMS: CST (regime normal) y CSOSN (Simples Nacional) soportados por el builder
// =============================================================================

// ICMSNormalCodes CST de ICMS soportados; el valor indica si el grupo lleva base y alícuota.
var ICMSNormalCodes = map[string]bool{
	"00": true,  // Tributada integralmente
	"20": true,  // Com redução de base de cálculo
	"40": false, // Isenta
	"41": false, // Não tributada
	"50": false, // Suspensão
	"60": false, // Cobrado anteriormente por ST
	"90": true,  // Outras
}

// ICMSSimplesCodes CSOSN soportados; el valor indica si el grupo lleva valores.
var ICMSSimplesCodes = map[string]bool{
	"101": true,  // Tributada com permissão de crédito
	"102": false, // Tributada sem permissão de crédito
	"103": false, // Isenção do ICMS para faixa de receita bruta
	"300": false, // Imune
	"400": false, // Não tributada
	"500": false, // ICMS cobrado anteriormente por ST
	"900": true,  // Outros
}

// Modalidad de determinación de la base de cálculo del ICMS (modBC).
const (
	ModBCMargem      = "0" // Margem Valor Agregado (%)
	ModBCPauta       = "1" // Pauta (valor)
	ModBCPrecoMax    = "2" // Preço tabelado máximo
	ModBCValorOper   = "3" // Valor da operação
	DefaultICMSModBC = ModBCValorOper
)

// Origen de la mercadería (orig).
const (
	OriginNational = "0"
)

// =============================================================================
// PIS / COFINS: CST agrupados por grupo XML
// =============================================================================

// Grupos XML de PIS/COFINS.
const (
	ContributionGroupAliq = "Aliq"
	ContributionGroupNT   = "NT"
	ContributionGroupOutr = "Outr"
)

// ContributionGroup devuelve el grupo XML (PISAliq, PISNT, PISOutr...) para un CST, o "" si no es soportado.
func ContributionGroup(cst string) string {
	switch cst {
	case "01", "02":
		return ContributionGroupAliq
	case "04", "05", "06", "07", "08", "09":
		return ContributionGroupNT
	case "49", "50", "51", "52", "53", "54", "55", "56", "60", "61", "62", "63", "64", "65", "66", "67", "70", "71", "72", "73", "74", "75", "98", "99":
		return ContributionGroupOutr
	}
	return ""
}

// =============================================================================
// IPI
// =============================================================================

const (
	// IPIEnqDefault código de enquadramento legal genérico.
	IPIEnqDefault = "999"
)

// IPITaxedCodes CST de IPI tributados (grupo IPITrib); el resto va en IPINT.
var IPITaxedCodes = map[string]bool{"00": true, "49": true, "50": true, "99": true}

// IPIExemptCodes CST de IPI no tributados (grupo IPINT).
var IPIExemptCodes = map[string]bool{
	"01": true, "02": true, "03": true, "04": true, "05": true,
	"51": true, "52": true, "53": true, "54": true, "55": true,
}

// =============================================================================
// Transporte (modFrete)
// =============================================================================

const (
	FreightIssuer    = "0" // Por conta do remetente (CIF)
	FreightRecipient = "1" // Por conta do destinatário (FOB)
	FreightThird     = "2" // Por conta de terceiros
	FreightNone      = "9" // Sem ocorrência de transporte
)

// =============================================================================
// Pagamento (indPag / tPag)
// =============================================================================

const (
	PaymentIndicatorCash = "0" // Pagamento à vista
	PaymentIndicatorTerm = "1" // Pagamento a prazo

	PaymentMethodCash       = "01" // Dinheiro
	PaymentMethodCheck      = "02" // Cheque
	PaymentMethodCreditCard = "03" // Cartão de crédito
	PaymentMethodDebitCard  = "04" // Cartão de débito
	PaymentMethodBoleto     = "15" // Boleto bancário
	PaymentMethodPix        = "17" // PIX
	PaymentMethodNone       = "90" // Sem pagamento
	PaymentMethodOther      = "99" // Outros
	DefaultPaymentMethod    = PaymentMethodCash
)

// ValidPaymentMethods tPag aceptados.
var ValidPaymentMethods = map[string]bool{
	"01": true, "02": true, "03": true, "04": true, "05": true, "10": true, "11": true,
	"12": true, "13": true, "15": true, "16": true, "17": true, "18": true, "19": true,
	"90": true, "99": true,
}

// =============================================================================
// Ambiente y textos fijos
// =============================================================================

const (
	EnvironmentProduction   = "1"
	EnvironmentHomologation = "2"

	// HomologationRecipientName xNome obligatorio del destinatario en homologación.
	HomologationRecipientName = "NF-E EMITIDA EM AMBIENTE DE HOMOLOGACAO - SEM VALOR FISCAL"

	// GTINNone valor de cEAN/cEANTrib cuando el producto no tiene GTIN.
	GTINNone = "SEM GTIN"

	// CountryBrazil código BACEN del país (cPais) y nombre.
	CountryBrazil     = "1058"
	CountryBrazilName = "BRASIL"
)
