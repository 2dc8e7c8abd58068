// Package nfe: generación de la chave de acesso (44 dígitos) de la NF-e / NFC-e.
// Composición: cUF(2) + AAMM(4) + CNPJ(14) + mod(2) + serie(3) + nNF(9) + tpEmis(1) + cNF(8) + cDV(1).

package nfe

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/nfe-api/internal/domain"
	pkgnfe "github.com/jhoicas/nfe-api/pkg/nfe"
)

// AccessKeyLength longitud fija de la chave de acesso.
const AccessKeyLength = 44

const (
	maxSeries   = 999
	maxSequence = 999_999_999
	randomSpace = 100_000_000
	// maxRandomDraws límite de sorteos de cNF antes de abandonar (el lector nunca debería agotarse).
	maxRandomDraws = 16
)

// AccessKey chave de acesso de 44 dígitos.
type AccessKey string

func (k AccessKey) String() string { return string(k) }

// ID valor del atributo infNFe@Id ("NFe" + chave).
func (k AccessKey) ID() string { return pkgnfe.IDPrefix + string(k) }

func (k AccessKey) Region() string       { return k.segment(0, 2) }
func (k AccessKey) YearMonth() string    { return k.segment(2, 6) }
func (k AccessKey) IssuerTaxID() string  { return k.segment(6, 20) }
func (k AccessKey) Model() string        { return k.segment(20, 22) }
func (k AccessKey) Series() string       { return k.segment(22, 25) }
func (k AccessKey) Sequence() string     { return k.segment(25, 34) }
func (k AccessKey) EmissionType() string { return k.segment(34, 35) }
func (k AccessKey) RandomCode() string   { return k.segment(35, 43) }
func (k AccessKey) CheckDigit() string   { return k.segment(43, 44) }

func (k AccessKey) segment(from, to int) string {
	if len(k) < to {
		return ""
	}
	return string(k[from:to])
}

// AccessKeyParams datos de entrada de la chave.
type AccessKeyParams struct {
	Region       string    // sigla ("SP") o cUF ("35")
	IssuerTaxID  string    // CNPJ o CPF del emitente
	Model        int       // 55 o 65
	Series       string    // 0..999
	Sequence     int64     // nNF 1..999999999
	EmissionType int       // tpEmis 1..9; 0 = emissão normal
	IssuedAt     time.Time // dhEmi
	// RandomCode cNF fijo (8 dígitos) para reprocesar una nota ya numerada; vacío = sortear.
	RandomCode string
}

// AccessKeyGenerator genera chaves de acesso. Es seguro para uso concurrente si el lector aleatorio lo es.
type AccessKeyGenerator struct {
	random         io.Reader
	fallbackRegion string
}

// AccessKeyOption configura el generador.
type AccessKeyOption func(*AccessKeyGenerator)

// WithRandomSource reemplaza crypto/rand como fuente del cNF (tests deterministas).
func WithRandomSource(r io.Reader) AccessKeyOption {
	return func(g *AccessKeyGenerator) { g.random = r }
}

// WithRegionFallback usa region (sigla o cUF) cuando la UF recibida no existe en la tabla.
// Sin esta opción una UF desconocida es domain.ErrUnknownRegion.
func WithRegionFallback(region string) AccessKeyOption {
	return func(g *AccessKeyGenerator) { g.fallbackRegion = region }
}

// NewAccessKeyGenerator crea el generador (modo estricto por defecto).
func NewAccessKeyGenerator(opts ...AccessKeyOption) *AccessKeyGenerator {
	g := &AccessKeyGenerator{random: rand.Reader}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// HasRegionFallback indica si el generador está en modo tolerante de UF.
func (g *AccessKeyGenerator) HasRegionFallback() bool {
	return g.fallbackRegion != ""
}

// ValidateOptions opciones de ValidateDraft coherentes con la política de UF del generador.
func (g *AccessKeyGenerator) ValidateOptions() []ValidateOption {
	if g.HasRegionFallback() {
		return []ValidateOption{WithLenientRegion()}
	}
	return nil
}

// Generate arma la chave de acesso de 44 dígitos.
func (g *AccessKeyGenerator) Generate(p AccessKeyParams) (AccessKey, error) {
	region, err := g.resolveRegion(p.Region)
	if err != nil {
		return "", err
	}
	if p.IssuedAt.IsZero() {
		return "", fmt.Errorf("nfe: %w: fecha de emisión obligatoria", domain.ErrInvalidAccessKey)
	}
	taxID := pkgnfe.OnlyDigits(p.IssuerTaxID)
	if taxID == "" || len(taxID) > 14 {
		return "", fmt.Errorf("nfe: %w: identificación del emitente %q inválida", domain.ErrInvalidAccessKey, p.IssuerTaxID)
	}
	if p.Model != pkgnfe.ModelNFe && p.Model != pkgnfe.ModelNFCe {
		return "", fmt.Errorf("nfe: %w: modelo %d no soportado (55 o 65)", domain.ErrInvalidAccessKey, p.Model)
	}
	series, err := ParseSeries(p.Series)
	if err != nil {
		return "", fmt.Errorf("nfe: %w: %v", domain.ErrInvalidAccessKey, err)
	}
	if p.Sequence < 1 || p.Sequence > maxSequence {
		return "", fmt.Errorf("nfe: %w: número %d fuera de rango 1..%d", domain.ErrInvalidAccessKey, p.Sequence, maxSequence)
	}
	tpEmis := p.EmissionType
	if tpEmis == 0 {
		tpEmis = pkgnfe.EmissionNormal
	}
	if tpEmis < 1 || tpEmis > 9 {
		return "", fmt.Errorf("nfe: %w: tpEmis %d fuera de rango 1..9", domain.ErrInvalidAccessKey, tpEmis)
	}

	cnf := p.RandomCode
	if cnf == "" {
		if cnf, err = g.randomCode(p.Sequence); err != nil {
			return "", err
		}
	} else if len(cnf) != 8 || pkgnfe.OnlyDigits(cnf) != cnf {
		return "", fmt.Errorf("nfe: %w: cNF %q debe tener 8 dígitos", domain.ErrInvalidAccessKey, cnf)
	}

	prefix := region +
		p.IssuedAt.Format("0601") +
		strings.Repeat("0", 14-len(taxID)) + taxID +
		strconv.Itoa(p.Model) +
		fmt.Sprintf("%03d", series) +
		fmt.Sprintf("%09d", p.Sequence) +
		strconv.Itoa(tpEmis) +
		cnf

	dv, err := CheckDigit(prefix)
	if err != nil {
		return "", err
	}
	return AccessKey(prefix + string(dv)), nil
}

func (g *AccessKeyGenerator) resolveRegion(region string) (string, error) {
	if code, ok := pkgnfe.RegionCode(region); ok {
		return code, nil
	}
	if g.fallbackRegion != "" {
		if code, ok := pkgnfe.RegionCode(g.fallbackRegion); ok {
			return code, nil
		}
	}
	return "", fmt.Errorf("nfe: %w: %q", domain.ErrUnknownRegion, region)
}

// randomCode sortea el cNF. La SEFAZ rechaza cNF igual a nNF y secuencias triviales.
func (g *AccessKeyGenerator) randomCode(sequence int64) (string, error) {
	own := fmt.Sprintf("%08d", sequence%randomSpace)
	var buf [4]byte
	for i := 0; i < maxRandomDraws; i++ {
		if _, err := io.ReadFull(g.random, buf[:]); err != nil {
			return "", fmt.Errorf("nfe: generar cNF: %w", err)
		}
		code := fmt.Sprintf("%08d", binary.BigEndian.Uint32(buf[:])%randomSpace)
		if code != own && !weakRandomCode(code) {
			return code, nil
		}
	}
	return "", fmt.Errorf("nfe: generar cNF: %d sorteos sin un código aceptable", maxRandomDraws)
}

func weakRandomCode(code string) bool {
	if code == "12345678" || code == "87654321" {
		return true
	}
	for i := 1; i < len(code); i++ {
		if code[i] != code[0] {
			return false
		}
	}
	return true
}

// CheckDigit calcula el cDV (módulo 11, pesos 2..9) sobre los 43 dígitos previos.
func CheckDigit(prefix string) (byte, error) {
	if len(prefix) != AccessKeyLength-1 {
		return 0, fmt.Errorf("nfe: %w: el prefijo debe tener %d dígitos, tiene %d", domain.ErrInvalidAccessKey, AccessKeyLength-1, len(prefix))
	}
	dv, err := pkgnfe.Mod11(prefix, 9)
	if err != nil {
		return 0, fmt.Errorf("nfe: %w: %v", domain.ErrInvalidAccessKey, err)
	}
	return dv, nil
}

// ParseAccessKey valida longitud, dígitos, cUF, modelo y cDV de una chave recibida.
func ParseAccessKey(s string) (AccessKey, error) {
	if len(s) != AccessKeyLength || pkgnfe.OnlyDigits(s) != s {
		return "", fmt.Errorf("nfe: %w: se esperaban %d dígitos", domain.ErrInvalidAccessKey, AccessKeyLength)
	}
	key := AccessKey(s)
	if !pkgnfe.IsKnownRegionCode(key.Region()) {
		return "", fmt.Errorf("nfe: %w: cUF %s desconocido", domain.ErrInvalidAccessKey, key.Region())
	}
	if m := key.Model(); m != "55" && m != "65" {
		return "", fmt.Errorf("nfe: %w: modelo %s", domain.ErrInvalidAccessKey, m)
	}
	dv, err := CheckDigit(s[:AccessKeyLength-1])
	if err != nil {
		return "", err
	}
	if s[AccessKeyLength-1] != dv {
		return "", fmt.Errorf("nfe: %w: cDV esperado %c, recibido %c", domain.ErrInvalidAccessKey, dv, s[AccessKeyLength-1])
	}
	return key, nil
}

// ParseSeries convierte la série (texto) a entero 0..999.
func ParseSeries(series string) (int, error) {
	if series == "" || len(series) > 3 || pkgnfe.OnlyDigits(series) != series {
		return 0, fmt.Errorf("série %q debe ser numérica de 1 a 3 dígitos", series)
	}
	n, _ := strconv.Atoi(series)
	if n > maxSeries {
		return 0, fmt.Errorf("série %d fuera de rango 0..%d", n, maxSeries)
	}
	return n, nil
}
