package nfe_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/nfe-api/internal/domain"
	"github.com/jhoicas/nfe-api/internal/domain/nfe"
	pkgnfe "github.com/jhoicas/nfe-api/pkg/nfe"
)

// ──────────────────────────────────────────────────────────────────────────────
// Vector de prueba (cNF fijado por la fuente aleatoria = 48151623):
//
//	cUF  AAMM  CNPJ            mod série nNF        tpEmis cNF      cDV
//	35   2403  11222333000181  55  001   000000042  1      48151623 8
// ──────────────────────────────────────────────────────────────────────────────

const testAccessKeyExpected = "35240311222333000181550010000000421481516238"

// 48151623 en big-endian.
var testRandomBytes = []byte{0x02, 0xde, 0xbc, 0x47}

func buildKeyParams() nfe.AccessKeyParams {
	return nfe.AccessKeyParams{
		Region:       "SP",
		IssuerTaxID:  "11222333000181",
		Model:        pkgnfe.ModelNFe,
		Series:       "1",
		Sequence:     42,
		EmissionType: pkgnfe.EmissionNormal,
		IssuedAt:     time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC),
	}
}

func fixedGenerator(random []byte, opts ...nfe.AccessKeyOption) *nfe.AccessKeyGenerator {
	opts = append([]nfe.AccessKeyOption{nfe.WithRandomSource(bytes.NewReader(random))}, opts...)
	return nfe.NewAccessKeyGenerator(opts...)
}

func TestGenerateAccessKey_VectorExacto(t *testing.T) {
	key, err := fixedGenerator(testRandomBytes).Generate(buildKeyParams())
	require.NoError(t, err)
	assert.Equal(t, testAccessKeyExpected, key.String())
	assert.Equal(t, "NFe"+testAccessKeyExpected, key.ID())
}

func TestGenerateAccessKey_Segmentos(t *testing.T) {
	key, err := nfe.NewAccessKeyGenerator().Generate(buildKeyParams())
	require.NoError(t, err)

	assert.Len(t, key.String(), nfe.AccessKeyLength)
	assert.Equal(t, "35", key.Region())
	assert.Equal(t, "2403", key.YearMonth())
	assert.Equal(t, "11222333000181", key.IssuerTaxID())
	assert.Equal(t, "55", key.Model())
	assert.Equal(t, "001", key.Series())
	assert.Equal(t, "000000042", key.Sequence())
	assert.Equal(t, "1", key.EmissionType())
	assert.Len(t, key.RandomCode(), 8)

	dv, err := nfe.CheckDigit(key.String()[:43])
	require.NoError(t, err)
	assert.Equal(t, string(dv), key.CheckDigit(), "el cDV debe recalcularse a partir de los 43 dígitos previos")
}

func TestGenerateAccessKey_SiempreNumerica(t *testing.T) {
	gen := nfe.NewAccessKeyGenerator()
	for i := int64(1); i <= 200; i++ {
		p := buildKeyParams()
		p.Sequence = i * 4_999_999
		key, err := gen.Generate(p)
		require.NoError(t, err)
		assert.Len(t, key.String(), 44)
		assert.Equal(t, pkgnfe.OnlyDigits(key.String()), key.String())
		_, err = nfe.ParseAccessKey(key.String())
		assert.NoError(t, err)
	}
}

func TestGenerateAccessKey_CPFSeRellenaA14(t *testing.T) {
	p := buildKeyParams()
	p.IssuerTaxID = "529.982.247-25"
	key, err := fixedGenerator(testRandomBytes).Generate(p)
	require.NoError(t, err)
	assert.Equal(t, "00052998224725", key.IssuerTaxID())
}

func TestGenerateAccessKey_AceptaCodigoNumericoDeUF(t *testing.T) {
	p := buildKeyParams()
	p.Region = "35"
	key, err := fixedGenerator(testRandomBytes).Generate(p)
	require.NoError(t, err)
	assert.Equal(t, testAccessKeyExpected, key.String())
}

// TestGenerateAccessKey_CNFDistintoDeNNF el cNF sorteado igual al nNF se descarta.
func TestGenerateAccessKey_CNFDistintoDeNNF(t *testing.T) {
	p := buildKeyParams()
	p.Sequence = 48151623
	random := append(append([]byte{}, testRandomBytes...), 0x05, 0x69, 0xc2, 0xef) // 48151623, 90817263
	key, err := fixedGenerator(random).Generate(p)
	require.NoError(t, err)
	assert.Equal(t, "90817263", key.RandomCode())
}

func TestGenerateAccessKey_DescartaCNFTrivial(t *testing.T) {
	random := append([]byte{0x00, 0xbc, 0x61, 0x4e}, testRandomBytes...) // 12345678, 48151623
	key, err := fixedGenerator(random).Generate(buildKeyParams())
	require.NoError(t, err)
	assert.Equal(t, "48151623", key.RandomCode())
}

func TestGenerateAccessKey_CNFInformado(t *testing.T) {
	p := buildKeyParams()
	p.RandomCode = "48151623"
	key, err := fixedGenerator(nil).Generate(p)
	require.NoError(t, err)
	assert.Equal(t, testAccessKeyExpected, key.String())
}

// ── Política de UF desconocida ────────────────────────────────────────────────

func TestGenerateAccessKey_UFDesconocidaEstricto(t *testing.T) {
	p := buildKeyParams()
	p.Region = "XX"
	_, err := nfe.NewAccessKeyGenerator().Generate(p)
	assert.ErrorIs(t, err, domain.ErrUnknownRegion)
}

func TestGenerateAccessKey_UFDesconocidaConFallback(t *testing.T) {
	p := buildKeyParams()
	p.Region = "XX"
	key, err := fixedGenerator(testRandomBytes, nfe.WithRegionFallback("SP")).Generate(p)
	require.NoError(t, err)
	assert.Equal(t, "35", key.Region())
}

func TestGenerateAccessKey_FallbackInvalidoSigueFallando(t *testing.T) {
	p := buildKeyParams()
	p.Region = "XX"
	_, err := nfe.NewAccessKeyGenerator(nfe.WithRegionFallback("ZZ")).Generate(p)
	assert.ErrorIs(t, err, domain.ErrUnknownRegion)
}

// ── Errores de parámetros ─────────────────────────────────────────────────────

func TestGenerateAccessKey_ParametrosInvalidos(t *testing.T) {
	cases := map[string]func(p *nfe.AccessKeyParams){
		"modelo":      func(p *nfe.AccessKeyParams) { p.Model = 57 },
		"serie larga": func(p *nfe.AccessKeyParams) { p.Series = "1000" },
		"serie texto": func(p *nfe.AccessKeyParams) { p.Series = "A1" },
		"nNF cero":    func(p *nfe.AccessKeyParams) { p.Sequence = 0 },
		"nNF grande":  func(p *nfe.AccessKeyParams) { p.Sequence = 1_000_000_000 },
		"tpEmis":      func(p *nfe.AccessKeyParams) { p.EmissionType = 10 },
		"fecha":       func(p *nfe.AccessKeyParams) { p.IssuedAt = time.Time{} },
		"cnpj vacío":  func(p *nfe.AccessKeyParams) { p.IssuerTaxID = "" },
		"cNF corto":   func(p *nfe.AccessKeyParams) { p.RandomCode = "123" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := buildKeyParams()
			mutate(&p)
			_, err := fixedGenerator(testRandomBytes).Generate(p)
			assert.ErrorIs(t, err, domain.ErrInvalidAccessKey)
		})
	}
}

func TestGenerateAccessKey_FuenteAleatoriaAgotada(t *testing.T) {
	_, err := fixedGenerator([]byte{0x01}).Generate(buildKeyParams())
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrInvalidAccessKey))
}

// ── Dígito verificador ────────────────────────────────────────────────────────

func TestCheckDigit_SiempreUnDigito(t *testing.T) {
	prefixes := []string{
		"3524031122233300018155001000000042148151623",
		"0000000000000000000000000000000000000000000",
		"9999999999999999999999999999999999999999999",
		"3524031122233300018165002000000043190817263",
	}
	for _, p := range prefixes {
		dv, err := nfe.CheckDigit(p)
		require.NoError(t, err)
		assert.True(t, dv >= '0' && dv <= '9', "cDV %q fuera de rango para %s", dv, p)
	}
	dv, _ := nfe.CheckDigit("3524031122233300018165002000000043190817263")
	assert.Equal(t, byte('5'), dv)
}

func TestCheckDigit_LongitudIncorrecta(t *testing.T) {
	_, err := nfe.CheckDigit("123")
	assert.ErrorIs(t, err, domain.ErrInvalidAccessKey)
}

func TestParseAccessKey(t *testing.T) {
	key, err := nfe.ParseAccessKey(testAccessKeyExpected)
	require.NoError(t, err)
	assert.Equal(t, "000000042", key.Sequence())

	tampered := testAccessKeyExpected[:43] + "0"
	_, err = nfe.ParseAccessKey(tampered)
	assert.ErrorIs(t, err, domain.ErrInvalidAccessKey)

	_, err = nfe.ParseAccessKey("NFe" + testAccessKeyExpected)
	assert.ErrorIs(t, err, domain.ErrInvalidAccessKey)
}
