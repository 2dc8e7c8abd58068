// Grupos de impuestos (imposto) de cada ítem según el régimen tributario del emisor.

package nfe

import (
	"github.com/jhoicas/nfe-api/internal/domain/entity"
	pkgnfe "github.com/jhoicas/nfe-api/pkg/nfe"
)

// taxWriter escribe el grupo ICMS del ítem; se elige una sola vez por documento.
type taxWriter interface {
	writeICMS(w *xmlWriter, item *entity.InvoiceItem)
}

func newTaxWriter(regime entity.TaxRegime) taxWriter {
	if regime.IsSimples() {
		return simplesTaxWriter{}
	}
	return normalTaxWriter{}
}

// simplesTaxWriter Simples Nacional (CRT 1 y 2): grupos ICMSSN con CSOSN.
type simplesTaxWriter struct{}

func (simplesTaxWriter) writeICMS(w *xmlWriter, it *entity.InvoiceItem) {
	icms := &it.ICMS
	w.open("ICMS")
	switch icms.Code {
	case "101":
		w.open("ICMSSN101")
		writeOrigin(w, it)
		w.leaf("CSOSN", icms.Code)
		w.rate("pCredSN", icms.CreditRate)
		w.money("vCredICMSSN", icms.CreditAmount)
		w.close("ICMSSN101")
	case "102", "103", "300", "400":
		w.open("ICMSSN102")
		writeOrigin(w, it)
		w.leaf("CSOSN", icms.Code)
		w.close("ICMSSN102")
	case "500":
		w.open("ICMSSN500")
		writeOrigin(w, it)
		w.leaf("CSOSN", icms.Code)
		w.close("ICMSSN500")
	default: // 900
		w.open("ICMSSN900")
		writeOrigin(w, it)
		w.leaf("CSOSN", icms.Code)
		w.leaf("modBC", modality(icms))
		w.money("vBC", icms.Base)
		w.rate("pICMS", icms.Rate)
		w.money("vICMS", icms.Amount)
		if icms.CreditRate.IsPositive() {
			w.rate("pCredSN", icms.CreditRate)
			w.money("vCredICMSSN", icms.CreditAmount)
		}
		w.close("ICMSSN900")
	}
	w.close("ICMS")
}

// normalTaxWriter regime normal (CRT 3): grupos ICMSxx con CST y modalidad de base.
type normalTaxWriter struct{}

func (normalTaxWriter) writeICMS(w *xmlWriter, it *entity.InvoiceItem) {
	icms := &it.ICMS
	w.open("ICMS")
	switch icms.Code {
	case "00":
		w.open("ICMS00")
		writeOrigin(w, it)
		w.leaf("CST", icms.Code)
		w.leaf("modBC", modality(icms))
		w.money("vBC", icms.Base)
		w.rate("pICMS", icms.Rate)
		w.money("vICMS", icms.Amount)
		w.close("ICMS00")
	case "20":
		w.open("ICMS20")
		writeOrigin(w, it)
		w.leaf("CST", icms.Code)
		w.leaf("modBC", modality(icms))
		w.rate("pRedBC", icms.BaseReduction)
		w.money("vBC", icms.Base)
		w.rate("pICMS", icms.Rate)
		w.money("vICMS", icms.Amount)
		w.close("ICMS20")
	case "40", "41", "50":
		w.open("ICMS40")
		writeOrigin(w, it)
		w.leaf("CST", icms.Code)
		w.close("ICMS40")
	case "60":
		w.open("ICMS60")
		writeOrigin(w, it)
		w.leaf("CST", icms.Code)
		w.close("ICMS60")
	default: // 90
		w.open("ICMS90")
		writeOrigin(w, it)
		w.leaf("CST", icms.Code)
		w.leaf("modBC", modality(icms))
		w.money("vBC", icms.Base)
		w.rate("pICMS", icms.Rate)
		w.money("vICMS", icms.Amount)
		w.close("ICMS90")
	}
	w.close("ICMS")
}

func writeOrigin(w *xmlWriter, it *entity.InvoiceItem) {
	orig := it.Origin
	if orig == "" {
		orig = pkgnfe.OriginNational
	}
	w.leaf("orig", orig)
}

func modality(icms *entity.ICMSTax) string {
	if icms.Modality != "" {
		return icms.Modality
	}
	return pkgnfe.DefaultICMSModBC
}

// writeIPI grupo IPI (solo si el ítem lo informa).
func writeIPI(w *xmlWriter, ipi *entity.IPITax) {
	enq := ipi.EnqCode
	if enq == "" {
		enq = pkgnfe.IPIEnqDefault
	}
	w.open("IPI")
	w.leaf("cEnq", enq)
	if pkgnfe.IPITaxedCodes[ipi.Code] {
		w.open("IPITrib")
		w.leaf("CST", ipi.Code)
		w.money("vBC", ipi.Base)
		w.rate("pIPI", ipi.Rate)
		w.money("vIPI", ipi.Amount)
		w.close("IPITrib")
	} else {
		w.open("IPINT")
		w.leaf("CST", ipi.Code)
		w.close("IPINT")
	}
	w.close("IPI")
}

// writeContribution grupos PIS / COFINS (kind = "PIS" o "COFINS").
func writeContribution(w *xmlWriter, kind string, tax *entity.ContributionTax) {
	group := kind + pkgnfe.ContributionGroup(tax.Code)
	w.open(kind)
	w.open(group)
	w.leaf("CST", tax.Code)
	if pkgnfe.ContributionGroup(tax.Code) != pkgnfe.ContributionGroupNT {
		w.money("vBC", tax.Base)
		w.rate("p"+kind, tax.Rate)
		w.money("v"+kind, tax.Amount)
	}
	w.close(group)
	w.close(kind)
}
