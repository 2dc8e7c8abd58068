package nfe

import "strings"

// regionCodes tabla de códigos IBGE de las 27 unidades federativas (cUF).
var regionCodes = map[string]string{
	"RO": "11", "AC": "12", "AM": "13", "RR": "14", "PA": "15", "AP": "16", "TO": "17",
	"MA": "21", "PI": "22", "CE": "23", "RN": "24", "PB": "25", "PE": "26", "AL": "27",
	"SE": "28", "BA": "29",
	"MG": "31", "ES": "32", "RJ": "33", "SP": "35",
	"PR": "41", "SC": "42", "RS": "43",
	"MS": "50", "MT": "51", "GO": "52", "DF": "53",
}

// RegionCode devuelve el cUF de dos dígitos para una sigla ("SP") o un código ya numérico ("35").
// El segundo valor es false si la región no existe en la tabla.
func RegionCode(region string) (string, bool) {
	r := strings.ToUpper(strings.TrimSpace(region))
	if code, ok := regionCodes[r]; ok {
		return code, true
	}
	for _, code := range regionCodes {
		if code == r {
			return code, true
		}
	}
	return "", false
}

// IsKnownRegionCode indica si un cUF numérico pertenece a la tabla (útil para cMun).
func IsKnownRegionCode(code string) bool {
	if len(code) != 2 || OnlyDigits(code) != code {
		return false
	}
	_, ok := RegionCode(code)
	return ok
}

// Regions devuelve las 27 siglas conocidas.
func Regions() []string {
	out := make([]string, 0, len(regionCodes))
	for uf := range regionCodes {
		out = append(out, uf)
	}
	return out
}
