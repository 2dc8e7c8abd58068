package dto_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/nfe-api/internal/application/dto"
	"github.com/jhoicas/nfe-api/internal/domain"
	"github.com/jhoicas/nfe-api/internal/domain/entity"
	domnfe "github.com/jhoicas/nfe-api/internal/domain/nfe"
)

const body = `{
  "issuer": {"tax_id": "11222333000181", "name": "EMPRESA", "address": {"uf": "SP"}},
  "recipient": {"tax_id": "52998224725", "name": "FULANO"},
  "items": [{"code": "P1", "quantity": "2", "unit_value": 50, "total_value": "100.00",
             "icms": {"code": "40"}, "pis": {"code": "07"}, "cofins": {"code": "07"}}],
  "operation_nature": "VENDA",
  "tax_regime": "normal",
  "environment": "production",
  "series": "1",
  "issued_at": "2024-03-15T10:30:00-03:00"
}`

func TestEmitInvoiceRequest_ToDraft(t *testing.T) {
	var req dto.EmitInvoiceRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	d, err := req.ToDraft()
	require.NoError(t, err)
	assert.Equal(t, entity.RegimeNormal, d.TaxRegime)
	assert.Equal(t, entity.EnvironmentProduction, d.Environment)
	assert.Equal(t, 55, d.Model)
	assert.Equal(t, int64(0), d.Number)
	assert.Equal(t, "100", d.Items[0].TotalValue.String())
	assert.Equal(t, "50", d.Items[0].UnitValue.String())
	assert.True(t, d.IssuedAt.Equal(time.Date(2024, 3, 15, 13, 30, 0, 0, time.UTC)))
}

func TestEmitInvoiceRequest_ToDraftErrores(t *testing.T) {
	cases := map[string]dto.EmitInvoiceRequest{
		"regimen":  {TaxRegime: "lucro_real"},
		"ambiente": {TaxRegime: "normal", Environment: "teste"},
		"fecha":    {TaxRegime: "normal", IssuedAt: "15/03/2024"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := req.ToDraft()
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		})
	}
}

func TestAccessKeyRequest_ToParams(t *testing.T) {
	req := dto.AccessKeyRequest{UF: "SP", IssuerTaxID: "11222333000181", Series: "1", Number: 42, IssuedAt: "2024-03-15T10:30:00-03:00"}
	p, err := req.ToParams()
	require.NoError(t, err)
	assert.Equal(t, 55, p.Model)
	assert.Equal(t, int64(42), p.Sequence)

	req.IssuedAt = ""
	_, err = req.ToParams()
	assert.Error(t, err)
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := dto.NewValidationErrorResponse(domnfe.ValidationErrors{
		{Field: "items", Rule: domnfe.RuleRequired, Message: "al menos un ítem"},
		{Field: "issuer.tax_id", Rule: domnfe.RuleCheckDigit, Message: "dv"},
	})
	assert.Equal(t, "VALIDATION", resp.Code)
	require.Len(t, resp.Errors, 2)
	assert.Equal(t, "issuer.tax_id", resp.Errors[1].Field)
}
