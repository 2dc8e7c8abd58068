// Package nfe genera el XML de la NF-e / NFC-e (leiaute 4.00) sin firma.
package nfe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jhoicas/nfe-api/internal/domain/entity"
	domnfe "github.com/jhoicas/nfe-api/internal/domain/nfe"
	pkgnfe "github.com/jhoicas/nfe-api/pkg/nfe"
)

// DefaultProcessVersion verProc cuando ni el borrador ni la configuración lo informan.
const DefaultProcessVersion = "nfe-api 1.0"

// Valores fijos de ide.
const (
	operationOutbound  = "1" // tpNF: saída
	purposeNormal      = "1" // finNFe: normal
	presenceInPerson   = "1" // indPres: operação presencial
	emissionProcessApp = "0" // procEmi: aplicativo do contribuinte
	printDANFEPortrait = "1" // tpImp NF-e
	printDANFENFCe     = "4" // tpImp NFC-e
)

// Destino de la operación (idDest).
const (
	destinationInternal   = "1"
	destinationInterstate = "2"
	destinationForeign    = "3"
)

// Indicador de IE del destinatario (indIEDest).
const (
	recipientContributor = "1"
	recipientExempt      = "2"
	recipientNonContrib  = "9"
)

// homologationItemDescription xProd obligatorio del primer ítem de NFC-e en homologación.
const homologationItemDescription = "NOTA FISCAL EMITIDA EM AMBIENTE DE HOMOLOGACAO - SEM VALOR FISCAL"

// XMLBuilderService construye el XML de la NF-e a partir del borrador validado.
type XMLBuilderService struct {
	keys           *domnfe.AccessKeyGenerator
	processVersion string
}

// NewXMLBuilderService crea el servicio; keys nil usa un generador estricto con crypto/rand.
func NewXMLBuilderService(keys *domnfe.AccessKeyGenerator, processVersion string) *XMLBuilderService {
	if keys == nil {
		keys = domnfe.NewAccessKeyGenerator()
	}
	if processVersion == "" {
		processVersion = DefaultProcessVersion
	}
	return &XMLBuilderService{keys: keys, processVersion: processVersion}
}

// Build valida el borrador y devuelve el XML sin firmar y el Id de infNFe ("NFe" + chave).
// Si hay violaciones devuelve domnfe.ValidationErrors con todas ellas.
func (s *XMLBuilderService) Build(draft *entity.InvoiceDraft) (string, string, error) {
	if errs := domnfe.ValidateDraft(draft, s.keys.ValidateOptions()...); len(errs) > 0 {
		return "", "", errs
	}

	key, err := s.keys.Generate(domnfe.AccessKeyParams{
		Region:       draft.Issuer.Address.UF,
		IssuerTaxID:  draft.Issuer.TaxID,
		Model:        draft.Model,
		Series:       draft.Series,
		Sequence:     draft.Number,
		EmissionType: draft.EmissionType,
		IssuedAt:     draft.IssuedAt,
	})
	if err != nil {
		return "", "", fmt.Errorf("nfe: chave de acesso: %w", err)
	}

	totals := domnfe.ComputeTotals(draft)
	taxes := newTaxWriter(draft.TaxRegime)

	w := &xmlWriter{}
	w.open("NFe", attr{"xmlns", pkgnfe.Namespace})
	// Id antes de versao: mismo orden que produce C14N.
	w.open("infNFe", attr{"Id", key.ID()}, attr{"versao", pkgnfe.LayoutVersion})

	s.writeIde(w, draft, key)
	s.writeEmit(w, draft)
	s.writeDest(w, draft)
	for i := range draft.Items {
		s.writeDet(w, draft, i, taxes)
	}
	s.writeTotal(w, totals)
	s.writeTransp(w, &draft.Transport)
	s.writePag(w, &draft.Payment, totals)
	if notes := strings.TrimSpace(draft.Notes); notes != "" {
		w.open("infAdic")
		w.leaf("infCpl", notes)
		w.close("infAdic")
	}

	w.close("infNFe")
	w.close("NFe")
	return w.String(), key.ID(), nil
}

func (s *XMLBuilderService) writeIde(w *xmlWriter, d *entity.InvoiceDraft, key domnfe.AccessKey) {
	series, _ := domnfe.ParseSeries(d.Series)
	tpImp := printDANFEPortrait
	if d.Model == pkgnfe.ModelNFCe {
		tpImp = printDANFENFCe
	}
	verProc := d.ProcessVersion
	if verProc == "" {
		verProc = s.processVersion
	}

	w.open("ide")
	w.leaf("cUF", key.Region())
	w.leaf("cNF", key.RandomCode())
	w.leaf("natOp", d.OperationNature)
	w.leaf("mod", strconv.Itoa(d.Model))
	w.leaf("serie", strconv.Itoa(series))
	w.leaf("nNF", strconv.FormatInt(d.Number, 10))
	w.leaf("dhEmi", d.IssuedAt.Format("2006-01-02T15:04:05-07:00"))
	w.leaf("tpNF", operationOutbound)
	w.leaf("idDest", destination(d))
	w.leaf("cMunFG", d.Issuer.Address.MunicipalityCode)
	w.leaf("tpImp", tpImp)
	w.leaf("tpEmis", key.EmissionType())
	w.leaf("cDV", key.CheckDigit())
	w.leaf("tpAmb", d.Environment.TpAmb())
	w.leaf("finNFe", purposeNormal)
	w.leaf("indFinal", finalConsumer(d))
	w.leaf("indPres", presenceInPerson)
	w.leaf("procEmi", emissionProcessApp)
	w.leaf("verProc", verProc)
	w.close("ide")
}

func (s *XMLBuilderService) writeEmit(w *xmlWriter, d *entity.InvoiceDraft) {
	p := &d.Issuer
	w.open("emit")
	writeTaxID(w, p.TaxID)
	w.leaf("xNome", p.Name)
	w.leafIf("xFant", p.TradeName)
	writeAddress(w, "enderEmit", &p.Address)
	w.leaf("IE", pkgnfe.OnlyDigits(p.StateRegistration))
	w.leaf("CRT", d.TaxRegime.CRT())
	w.close("emit")
}

func (s *XMLBuilderService) writeDest(w *xmlWriter, d *entity.InvoiceDraft) {
	p := &d.Recipient
	name := p.Name
	if d.Environment == entity.EnvironmentHomologation {
		name = pkgnfe.HomologationRecipientName
	}
	w.open("dest")
	writeTaxID(w, p.TaxID)
	w.leaf("xNome", name)
	if p.Address.Street != "" {
		writeAddress(w, "enderDest", &p.Address)
	}
	ind := recipientIEIndicator(p)
	w.leaf("indIEDest", ind)
	if ind == recipientContributor {
		w.leaf("IE", pkgnfe.OnlyDigits(p.StateRegistration))
	}
	w.leafIf("email", p.Email)
	w.close("dest")
}

func (s *XMLBuilderService) writeDet(w *xmlWriter, d *entity.InvoiceDraft, i int, taxes taxWriter) {
	it := &d.Items[i]
	ean := it.EAN
	if ean == "" {
		ean = pkgnfe.GTINNone
	}
	description := it.Description
	if i == 0 && d.Model == pkgnfe.ModelNFCe && d.Environment == entity.EnvironmentHomologation {
		description = homologationItemDescription
	}

	w.open("det", attr{"nItem", strconv.Itoa(i + 1)})
	w.open("prod")
	w.leaf("cProd", it.Code)
	w.leaf("cEAN", ean)
	w.leaf("xProd", description)
	w.leaf("NCM", it.NCM)
	w.leafIf("CEST", it.CEST)
	w.leaf("CFOP", it.CFOP)
	w.leaf("uCom", it.Unit)
	w.quantity("qCom", it.Quantity)
	w.money("vUnCom", it.UnitValue)
	w.money("vProd", it.TotalValue)
	w.leaf("cEANTrib", ean)
	w.leaf("uTrib", it.Unit)
	w.quantity("qTrib", it.Quantity)
	w.money("vUnTrib", it.UnitValue)
	w.moneyIf("vFrete", it.Freight)
	w.moneyIf("vDesc", it.Discount)
	w.leaf("indTot", "1")
	w.close("prod")

	w.open("imposto")
	taxes.writeICMS(w, it)
	if it.IPI != nil {
		writeIPI(w, it.IPI)
	}
	writeContribution(w, "PIS", &it.PIS)
	writeContribution(w, "COFINS", &it.COFINS)
	w.close("imposto")
	w.close("det")
}

func (s *XMLBuilderService) writeTotal(w *xmlWriter, t domnfe.Totals) {
	w.open("total")
	w.open("ICMSTot")
	w.money("vBC", t.ICMSBase)
	w.money("vICMS", t.ICMS)
	zeroes := []string{"vICMSDeson", "vFCP", "vBCST", "vST", "vFCPST", "vFCPSTRet"}
	for _, tag := range zeroes {
		w.leaf(tag, "0.00")
	}
	w.money("vProd", t.Products)
	w.money("vFrete", t.Freight)
	w.leaf("vSeg", "0.00")
	w.money("vDesc", t.Discount)
	w.leaf("vII", "0.00")
	w.money("vIPI", t.IPI)
	w.leaf("vIPIDevol", "0.00")
	w.money("vPIS", t.PIS)
	w.money("vCOFINS", t.COFINS)
	w.leaf("vOutro", "0.00")
	w.money("vNF", t.Total)
	w.close("ICMSTot")
	w.close("total")
}

func (s *XMLBuilderService) writeTransp(w *xmlWriter, t *entity.Transport) {
	mod := t.Modality
	if mod == "" {
		mod = pkgnfe.FreightNone
	}
	w.open("transp")
	w.leaf("modFrete", mod)
	if c := t.Carrier; c != nil && mod != pkgnfe.FreightNone {
		w.open("transporta")
		if c.TaxID != "" {
			writeTaxID(w, c.TaxID)
		}
		w.leafIf("xNome", c.Name)
		if ie := pkgnfe.OnlyDigits(c.StateRegistration); ie != "" {
			w.leaf("IE", ie)
		}
		w.leafIf("xEnder", c.Address)
		w.leafIf("xMun", c.MunicipalityName)
		w.leafIf("UF", strings.ToUpper(c.UF))
		w.close("transporta")
	}
	w.close("transp")
}

func (s *XMLBuilderService) writePag(w *xmlWriter, p *entity.Payment, t domnfe.Totals) {
	method := p.Method
	if method == "" {
		method = pkgnfe.DefaultPaymentMethod
	}
	indicator := p.Indicator
	if indicator == "" {
		indicator = pkgnfe.PaymentIndicatorCash
	}
	amount := formatMoney(t.Total)
	if method == pkgnfe.PaymentMethodNone {
		amount = "0.00"
	}
	w.open("pag")
	w.open("detPag")
	w.leaf("indPag", indicator)
	w.leaf("tPag", method)
	w.leaf("vPag", amount)
	w.close("detPag")
	w.close("pag")
}

func writeTaxID(w *xmlWriter, taxID string) {
	digits := pkgnfe.OnlyDigits(taxID)
	if pkgnfe.IsCPF(digits) {
		w.leaf("CPF", digits)
		return
	}
	w.leaf("CNPJ", digits)
}

func writeAddress(w *xmlWriter, tag string, a *entity.Address) {
	w.open(tag)
	w.leaf("xLgr", a.Street)
	w.leaf("nro", a.Number)
	w.leafIf("xCpl", a.Complement)
	w.leaf("xBairro", a.District)
	w.leaf("cMun", a.MunicipalityCode)
	w.leaf("xMun", a.MunicipalityName)
	w.leaf("UF", strings.ToUpper(a.UF))
	w.leafIf("CEP", pkgnfe.OnlyDigits(a.ZipCode))
	w.leaf("cPais", pkgnfe.CountryBrazil)
	w.leaf("xPais", pkgnfe.CountryBrazilName)
	w.leafIf("fone", pkgnfe.OnlyDigits(a.Phone))
	w.close(tag)
}

// destination idDest a partir de las UF de emitente y destinatario.
func destination(d *entity.InvoiceDraft) string {
	to := strings.ToUpper(strings.TrimSpace(d.Recipient.Address.UF))
	switch {
	case to == "EX":
		return destinationForeign
	case to == "" || to == strings.ToUpper(strings.TrimSpace(d.Issuer.Address.UF)):
		return destinationInternal
	}
	return destinationInterstate
}

// finalConsumer indFinal: 1 cuando el destinatario es persona física (CPF) o la nota es NFC-e.
func finalConsumer(d *entity.InvoiceDraft) string {
	if d.Model == pkgnfe.ModelNFCe || pkgnfe.IsCPF(d.Recipient.TaxID) {
		return "1"
	}
	return "0"
}

func recipientIEIndicator(p *entity.Party) string {
	ie := strings.ToUpper(strings.TrimSpace(p.StateRegistration))
	switch {
	case ie == "ISENTO":
		return recipientExempt
	case pkgnfe.OnlyDigits(ie) != "":
		return recipientContributor
	}
	return recipientNonContrib
}
