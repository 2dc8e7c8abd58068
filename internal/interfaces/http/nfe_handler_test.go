package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/nfe-api/internal/application/billing"
	"github.com/jhoicas/nfe-api/internal/application/dto"
	"github.com/jhoicas/nfe-api/internal/domain/entity"
	domnfe "github.com/jhoicas/nfe-api/internal/domain/nfe"
	infranfe "github.com/jhoicas/nfe-api/internal/infrastructure/nfe"
	"github.com/jhoicas/nfe-api/internal/infrastructure/nfe/signer"
	"github.com/jhoicas/nfe-api/internal/infrastructure/nfe/signer/signertest"
	apphttp "github.com/jhoicas/nfe-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/nfe-api/pkg/jwt"
)

const emitBody = `{
  "issuer": {"tax_id": "11.222.333/0001-81", "name": "EMPRESA TESTE LTDA", "state_registration": "123456789012",
             "address": {"street": "RUA A", "number": "1", "district": "CENTRO", "municipality_code": "3550308",
                         "municipality_name": "SAO PAULO", "uf": "SP"}},
  "recipient": {"tax_id": "52998224725", "name": "FULANO DE TAL"},
  "items": [{"code": "P1", "description": "PRODUTO", "ncm": "84713012", "cfop": "5102", "unit": "UN",
             "quantity": "2", "unit_value": "50", "total_value": "100",
             "icms": {"code": "40"}, "pis": {"code": "07"}, "cofins": {"code": "07"}}],
  "operation_nature": "VENDA",
  "tax_regime": "normal",
  "series": "1",
  "number": 42
}`

func buildNFeApp(t *testing.T) *fiber.App {
	t.Helper()
	fx := signertest.New(t, signertest.Options{})
	identity, err := signer.LoadIdentity(fx.PFX(t, signertest.Password), signertest.Password)
	require.NoError(t, err)

	keys := domnfe.NewAccessKeyGenerator()
	uc := billing.NewEmitInvoiceUseCase(
		infranfe.NewXMLBuilderService(keys, ""),
		signer.NewDigitalSignatureService(nil),
		keys, identity, billing.NewMemorySequence(), nil,
		billing.EmitConfig{CertWarnDays: 30, DefaultSeries: "1"}, nil,
	)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{EmitInvoice: uc, JWTSecret: testJWTSecret})
	return app
}

func doPost(t *testing.T, app *fiber.App, path, body, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	resp := doGet(t, buildNFeApp(t), "/health", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEmit_Creada(t *testing.T) {
	resp := doPost(t, buildNFeApp(t), "/api/nfe", emitBody, tokenFor(t, testCNPJ, pkgjwt.RoleEmitter))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out dto.EmitInvoiceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Len(t, out.AccessKey, 44)
	assert.Equal(t, entity.NFeStatusDraft, out.Status)
	assert.Equal(t, int64(42), out.Number)
	assert.NoError(t, signer.VerifyDocument(out.XMLSigned, nil))
}

func TestEmit_NumeracionAutomatica(t *testing.T) {
	body := strings.Replace(emitBody, `"number": 42`, `"number": 0`, 1)
	resp := doPost(t, buildNFeApp(t), "/api/nfe", body, tokenFor(t, "", pkgjwt.RoleEmitter))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out dto.EmitInvoiceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, int64(1), out.Number)
}

func TestEmit_ErroresDeValidacion_Retorna422(t *testing.T) {
	body := strings.Replace(emitBody, `"operation_nature": "VENDA"`, `"operation_nature": ""`, 1)
	body = strings.Replace(body, `"ncm": "84713012"`, `"ncm": "123"`, 1)

	resp := doPost(t, buildNFeApp(t), "/api/nfe", body, tokenFor(t, testCNPJ, pkgjwt.RoleEmitter))
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var out dto.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	fields := make([]string, 0, len(out.Errors))
	for _, e := range out.Errors {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "operation_nature")
	assert.Contains(t, fields, "items[0].ncm")
}

func TestEmit_CuerpoInvalido_Retorna400(t *testing.T) {
	resp := doPost(t, buildNFeApp(t), "/api/nfe", `{"items": [`, tokenFor(t, testCNPJ, pkgjwt.RoleEmitter))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEmit_RegimenInvalido_Retorna400(t *testing.T) {
	body := strings.Replace(emitBody, `"tax_regime": "normal"`, `"tax_regime": "lucro"`, 1)
	resp := doPost(t, buildNFeApp(t), "/api/nfe", body, tokenFor(t, testCNPJ, pkgjwt.RoleEmitter))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEmit_TokenDeOtroEmitente_Retorna403(t *testing.T) {
	resp := doPost(t, buildNFeApp(t), "/api/nfe", emitBody, tokenFor(t, "12345678000195", pkgjwt.RoleEmitter))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestEmit_RolViewer_Retorna403(t *testing.T) {
	resp := doPost(t, buildNFeApp(t), "/api/nfe", emitBody, tokenFor(t, testCNPJ, pkgjwt.RoleViewer))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestEmit_SinToken_Retorna401(t *testing.T) {
	resp := doPost(t, buildNFeApp(t), "/api/nfe", emitBody, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAccessKey_Retorna200(t *testing.T) {
	body := `{"uf": "SP", "issuer_tax_id": "11222333000181", "series": "1", "number": 42,
	          "issued_at": "2024-03-15T10:30:00-03:00", "random_code": "48151623"}`
	resp := doPost(t, buildNFeApp(t), "/api/nfe/access-key", body, tokenFor(t, "", pkgjwt.RoleViewer))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.AccessKeyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "35240311222333000181550010000000421481516238", out.AccessKey)
	assert.Equal(t, "NFe"+out.AccessKey, out.ID)
	assert.Equal(t, "8", out.CheckDigit)
}

func TestAccessKey_UFDesconocida_Retorna422(t *testing.T) {
	body := `{"uf": "XX", "issuer_tax_id": "11222333000181", "series": "1", "number": 42,
	          "issued_at": "2024-03-15T10:30:00-03:00"}`
	resp := doPost(t, buildNFeApp(t), "/api/nfe/access-key", body, tokenFor(t, "", pkgjwt.RoleViewer))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCertificate_Retorna200(t *testing.T) {
	resp := doGet(t, buildNFeApp(t), "/api/nfe/certificate", tokenFor(t, "", pkgjwt.RoleViewer))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.CertificateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, signertest.CNPJ, out.CNPJ)
	assert.True(t, out.Valid)
	assert.True(t, out.NotAfter.After(time.Now()))
}
