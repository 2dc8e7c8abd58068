package entity

import "github.com/shopspring/decimal"

// ICMSTax ICMS de un ítem. Code es CST (regime normal) o CSOSN (Simples Nacional).
type ICMSTax struct {
	Code          string          `json:"code"`
	Modality      string          `json:"modality"` // modBC; vacío = 3 (valor da operação)
	Base          decimal.Decimal `json:"base"`
	Rate          decimal.Decimal `json:"rate"` // porcentaje, ej. 18.0000
	Amount        decimal.Decimal `json:"amount"`
	BaseReduction decimal.Decimal `json:"base_reduction"` // pRedBC (CST 20)
	CreditRate    decimal.Decimal `json:"credit_rate"`    // pCredSN (CSOSN 101)
	CreditAmount  decimal.Decimal `json:"credit_amount"`  // vCredICMSSN (CSOSN 101)
}

// IPITax IPI de un ítem; solo aplica a productos industrializados.
type IPITax struct {
	Code    string          `json:"code"`
	EnqCode string          `json:"enq_code"` // cEnq; vacío = 999
	Base    decimal.Decimal `json:"base"`
	Rate    decimal.Decimal `json:"rate"`
	Amount  decimal.Decimal `json:"amount"`
}

// ContributionTax PIS o COFINS de un ítem.
type ContributionTax struct {
	Code   string          `json:"code"`
	Base   decimal.Decimal `json:"base"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// InvoiceItem representa una línea (det) de la NF-e.
type InvoiceItem struct {
	Code        string          `json:"code"` // cProd
	EAN         string          `json:"ean"`  // cEAN; vacío = SEM GTIN
	Description string          `json:"description"`
	NCM         string          `json:"ncm"`
	CEST        string          `json:"cest"`
	CFOP        string          `json:"cfop"`
	Unit        string          `json:"unit"` // uCom / uTrib
	Quantity    decimal.Decimal `json:"quantity"`
	UnitValue   decimal.Decimal `json:"unit_value"`
	TotalValue  decimal.Decimal `json:"total_value"`
	Freight     decimal.Decimal `json:"freight"`
	Discount    decimal.Decimal `json:"discount"`
	Origin      string          `json:"origin"` // orig; vacío = 0 (nacional)

	ICMS   ICMSTax         `json:"icms"`
	IPI    *IPITax         `json:"ipi,omitempty"`
	PIS    ContributionTax `json:"pis"`
	COFINS ContributionTax `json:"cofins"`
}
