package nfe

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/nfe-api/internal/domain/entity"
	pkgnfe "github.com/jhoicas/nfe-api/pkg/nfe"
)

// Totals valores del grupo ICMSTot.
type Totals struct {
	ICMSBase decimal.Decimal // vBC
	ICMS     decimal.Decimal // vICMS
	Products decimal.Decimal // vProd
	Freight  decimal.Decimal // vFrete
	Discount decimal.Decimal // vDesc
	IPI      decimal.Decimal // vIPI
	PIS      decimal.Decimal // vPIS
	COFINS   decimal.Decimal // vCOFINS
	Total    decimal.Decimal // vNF
}

// ComputeTotals suma los ítems (cada valor redondeado a 2 decimales antes de acumular).
// vNF = vProd - vDesc + vFrete + vIPI.
func ComputeTotals(draft *entity.InvoiceDraft) Totals {
	var t Totals
	for _, it := range draft.Items {
		t.Products = t.Products.Add(it.TotalValue.Round(2))
		t.Freight = t.Freight.Add(it.Freight.Round(2))
		t.Discount = t.Discount.Add(it.Discount.Round(2))
		if icmsHasValues(draft.TaxRegime, it.ICMS.Code) {
			t.ICMSBase = t.ICMSBase.Add(it.ICMS.Base.Round(2))
			t.ICMS = t.ICMS.Add(it.ICMS.Amount.Round(2))
		}
		if it.IPI != nil && pkgnfe.IPITaxedCodes[it.IPI.Code] {
			t.IPI = t.IPI.Add(it.IPI.Amount.Round(2))
		}
		if contributionHasValues(it.PIS.Code) {
			t.PIS = t.PIS.Add(it.PIS.Amount.Round(2))
		}
		if contributionHasValues(it.COFINS.Code) {
			t.COFINS = t.COFINS.Add(it.COFINS.Amount.Round(2))
		}
	}
	t.Total = t.Products.Sub(t.Discount).Add(t.Freight).Add(t.IPI)
	return t
}

// icmsHasValues indica si el grupo ICMS del código lleva base/alícuota/valor propios.
// CSOSN 101 solo informa crédito, no débito de ICMS.
func icmsHasValues(regime entity.TaxRegime, code string) bool {
	if regime.IsSimples() {
		return code == "900"
	}
	return pkgnfe.ICMSNormalCodes[code]
}

func contributionHasValues(code string) bool {
	g := pkgnfe.ContributionGroup(code)
	return g == pkgnfe.ContributionGroupAliq || g == pkgnfe.ContributionGroupOutr
}
