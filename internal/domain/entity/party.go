package entity

// Address endereço de emitente o destinatário (grupos enderEmit / enderDest).
type Address struct {
	Street           string `json:"street"`            // xLgr
	Number           string `json:"number"`            // nro
	Complement       string `json:"complement"`        // xCpl
	District         string `json:"district"`          // xBairro
	MunicipalityCode string `json:"municipality_code"` // cMun, código IBGE de 7 dígitos (2 primeros = cUF)
	MunicipalityName string `json:"municipality_name"` // xMun
	UF               string `json:"uf"`                // sigla de la unidad federativa
	ZipCode          string `json:"zip_code"`          // CEP
	Phone            string `json:"phone"`
}

// Party representa emitente o destinatário de la NF-e.
type Party struct {
	TaxID             string  `json:"tax_id"` // CNPJ (14) o CPF (11), con o sin máscara
	Name              string  `json:"name"`   // xNome / razão social
	TradeName         string  `json:"trade_name"`
	StateRegistration string  `json:"state_registration"` // IE; vacío = no contribuyente
	Email             string  `json:"email"`
	Address           Address `json:"address"`
}

// Carrier transportadora (grupo transporta).
type Carrier struct {
	TaxID             string `json:"tax_id"`
	Name              string `json:"name"`
	StateRegistration string `json:"state_registration"`
	Address           string `json:"address"`
	MunicipalityName  string `json:"municipality_name"`
	UF                string `json:"uf"`
}

// Transport grupo transp. Modality es modFrete ("9" = sem transporte si está vacío).
type Transport struct {
	Modality string   `json:"modality"`
	Carrier  *Carrier `json:"carrier,omitempty"`
}

// Payment grupo pag. Un único detPag por el valor total de la nota.
type Payment struct {
	Method    string `json:"method"`    // tPag; vacío = 01 (dinheiro)
	Indicator string `json:"indicator"` // indPag; vacío = 0 (à vista)
}
