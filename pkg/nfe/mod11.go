package nfe

import (
	"fmt"
	"unicode"
)

// Mod11 calcula el dígito verificador módulo 11 usado por la SEFAZ (chave de acesso, CNPJ).
// Los pesos 2..maxWeight se aplican de derecha a izquierda y se repiten cíclicamente.
// Si el residuo es 0 o 1 el dígito es 0; en otro caso 11 - residuo.
func Mod11(digits string, maxWeight int) (byte, error) {
	if digits == "" {
		return 0, fmt.Errorf("nfe: no hay dígitos para calcular el módulo 11")
	}
	var sum, weight int = 0, 2
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("nfe: carácter no numérico %q en posición %d", c, i)
		}
		sum += int(c-'0') * weight
		weight++
		if weight > maxWeight {
			weight = 2
		}
	}
	remainder := sum % 11
	if remainder < 2 {
		return '0', nil
	}
	return byte('0' + (11 - remainder)), nil
}

// ValidateCNPJ valida los dos dígitos verificadores de un CNPJ (con o sin máscara).
func ValidateCNPJ(taxID string) error {
	digits := OnlyDigits(taxID)
	if len(digits) != 14 {
		return fmt.Errorf("nfe: CNPJ debe tener 14 dígitos, se encontraron %d", len(digits))
	}
	if allSame(digits) {
		return fmt.Errorf("nfe: CNPJ %s inválido (dígitos repetidos)", digits)
	}
	dv1, _ := Mod11(digits[:12], 9)
	dv2, _ := Mod11(digits[:12]+string(dv1), 9)
	if digits[12] != dv1 || digits[13] != dv2 {
		return fmt.Errorf("nfe: dígitos verificadores del CNPJ inválidos: esperado %c%c, recibido %s", dv1, dv2, digits[12:])
	}
	return nil
}

// ValidateCPF valida los dos dígitos verificadores de un CPF (pesos 2..11 sin ciclo).
func ValidateCPF(taxID string) error {
	digits := OnlyDigits(taxID)
	if len(digits) != 11 {
		return fmt.Errorf("nfe: CPF debe tener 11 dígitos, se encontraron %d", len(digits))
	}
	if allSame(digits) {
		return fmt.Errorf("nfe: CPF %s inválido (dígitos repetidos)", digits)
	}
	dv1, _ := Mod11(digits[:9], 11)
	dv2, _ := Mod11(digits[:9]+string(dv1), 11)
	if digits[9] != dv1 || digits[10] != dv2 {
		return fmt.Errorf("nfe: dígitos verificadores del CPF inválidos: esperado %c%c, recibido %s", dv1, dv2, digits[9:])
	}
	return nil
}

// ValidateTaxID acepta CNPJ (14 dígitos) o CPF (11 dígitos).
func ValidateTaxID(taxID string) error {
	switch len(OnlyDigits(taxID)) {
	case 14:
		return ValidateCNPJ(taxID)
	case 11:
		return ValidateCPF(taxID)
	default:
		return fmt.Errorf("nfe: identificación %q no es CNPJ ni CPF", taxID)
	}
}

// IsCPF indica si la identificación (ya normalizada o no) tiene forma de CPF.
func IsCPF(taxID string) bool {
	return len(OnlyDigits(taxID)) == 11
}

// OnlyDigits deja solo dígitos 0-9.
func OnlyDigits(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) && r < 128 {
			out = append(out, byte(r))
		}
	}
	return string(out)
}

func allSame(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}
