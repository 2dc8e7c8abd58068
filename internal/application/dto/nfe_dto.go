package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/nfe-api/internal/application/billing"
	"github.com/jhoicas/nfe-api/internal/domain"
	"github.com/jhoicas/nfe-api/internal/domain/entity"
	domnfe "github.com/jhoicas/nfe-api/internal/domain/nfe"
	pkgnfe "github.com/jhoicas/nfe-api/pkg/nfe"
)

// EmitInvoiceRequest body para POST /api/nfe (y archivo de entrada de `nfe sign`).
// tax_regime: simples | simples_excess | normal | 1..3. environment vacío = el configurado (NFE_ENVIRONMENT).
// model 0 = 55, number 0 = numeración automática, issued_at (RFC 3339) vacío = ahora.
type EmitInvoiceRequest struct {
	Issuer          entity.Party         `json:"issuer"`
	Recipient       entity.Party         `json:"recipient"`
	Items           []entity.InvoiceItem `json:"items"`
	Transport       entity.Transport     `json:"transport"`
	Payment         entity.Payment       `json:"payment"`
	Notes           string               `json:"notes,omitempty"`
	OperationNature string               `json:"operation_nature"`
	TaxRegime       string               `json:"tax_regime"`
	Environment     string               `json:"environment"`
	Model           int                  `json:"model,omitempty"`
	Series          string               `json:"series,omitempty"`
	Number          int64                `json:"number,omitempty"`
	EmissionType    int                  `json:"emission_type,omitempty"`
	IssuedAt        string               `json:"issued_at,omitempty"`
	DeclaredTotal   *decimal.Decimal     `json:"declared_total,omitempty"`
}

// ToDraft convierte el request en el borrador de dominio.
func (r *EmitInvoiceRequest) ToDraft() (*entity.InvoiceDraft, error) {
	regime, err := entity.ParseTaxRegime(r.TaxRegime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	var env entity.Environment
	if r.Environment != "" {
		if env, err = entity.ParseEnvironment(r.Environment); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	}
	var issuedAt time.Time
	if r.IssuedAt != "" {
		if issuedAt, err = time.Parse(time.RFC3339, r.IssuedAt); err != nil {
			return nil, fmt.Errorf("%w: issued_at debe ser RFC 3339: %v", domain.ErrInvalidInput, err)
		}
	}
	model := r.Model
	if model == 0 {
		model = pkgnfe.ModelNFe
	}
	return &entity.InvoiceDraft{
		Issuer:          r.Issuer,
		Recipient:       r.Recipient,
		Items:           r.Items,
		DeclaredTotal:   r.DeclaredTotal,
		Transport:       r.Transport,
		Payment:         r.Payment,
		Notes:           r.Notes,
		OperationNature: r.OperationNature,
		TaxRegime:       regime,
		Environment:     env,
		Model:           model,
		Series:          r.Series,
		Number:          r.Number,
		EmissionType:    r.EmissionType,
		IssuedAt:        issuedAt,
	}, nil
}

// EmitInvoiceResponse NF-e firmada.
type EmitInvoiceResponse struct {
	ID              string     `json:"id"`
	AccessKey       string     `json:"access_key"`
	Model           int        `json:"model"`
	Series          string     `json:"series"`
	Number          int64      `json:"number"`
	Status          string     `json:"status"`
	Protocol        string     `json:"protocol,omitempty"`
	AuthorizedAt    *time.Time `json:"authorized_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	XMLSigned       string     `json:"xml_signed"`
	CertExpiresIn   int        `json:"cert_expires_in_days"`
}

// NewEmitInvoiceResponse arma la respuesta a partir del resultado del caso de uso.
func NewEmitInvoiceResponse(res *billing.EmitResult) EmitInvoiceResponse {
	inv := res.Invoice
	return EmitInvoiceResponse{
		ID:              inv.ID,
		AccessKey:       inv.AccessKey,
		Model:           inv.Model,
		Series:          inv.Series,
		Number:          inv.Number,
		Status:          inv.Status,
		Protocol:        inv.Protocol,
		AuthorizedAt:    inv.AuthorizedAt,
		RejectionReason: inv.RejectionReason,
		XMLSigned:       inv.XMLSigned,
		CertExpiresIn:   res.DaysUntilExpiry,
	}
}

// AccessKeyRequest body para POST /api/nfe/access-key.
type AccessKeyRequest struct {
	UF           string `json:"uf"`
	IssuerTaxID  string `json:"issuer_tax_id"`
	Model        int    `json:"model,omitempty"`
	Series       string `json:"series"`
	Number       int64  `json:"number"`
	EmissionType int    `json:"emission_type,omitempty"`
	IssuedAt     string `json:"issued_at"` // RFC 3339
	RandomCode   string `json:"random_code,omitempty"`
}

// ToParams convierte el request en parámetros del generador.
func (r *AccessKeyRequest) ToParams() (domnfe.AccessKeyParams, error) {
	issuedAt, err := time.Parse(time.RFC3339, r.IssuedAt)
	if err != nil {
		return domnfe.AccessKeyParams{}, fmt.Errorf("%w: issued_at debe ser RFC 3339: %v", domain.ErrInvalidInput, err)
	}
	model := r.Model
	if model == 0 {
		model = pkgnfe.ModelNFe
	}
	return domnfe.AccessKeyParams{
		Region:       r.UF,
		IssuerTaxID:  r.IssuerTaxID,
		Model:        model,
		Series:       r.Series,
		Sequence:     r.Number,
		EmissionType: r.EmissionType,
		IssuedAt:     issuedAt,
		RandomCode:   r.RandomCode,
	}, nil
}

// AccessKeyResponse chave de acesso y sus segmentos.
type AccessKeyResponse struct {
	AccessKey  string `json:"access_key"`
	ID         string `json:"id"`
	Region     string `json:"cuf"`
	RandomCode string `json:"cnf"`
	CheckDigit string `json:"cdv"`
}

// NewAccessKeyResponse arma la respuesta con los segmentos útiles.
func NewAccessKeyResponse(k domnfe.AccessKey) AccessKeyResponse {
	return AccessKeyResponse{
		AccessKey:  k.String(),
		ID:         k.ID(),
		Region:     k.Region(),
		RandomCode: k.RandomCode(),
		CheckDigit: k.CheckDigit(),
	}
}

// CertificateResponse respuesta de GET /api/nfe/certificate.
type CertificateResponse struct {
	Subject         string    `json:"subject"`
	CNPJ            string    `json:"cnpj"`
	NotBefore       time.Time `json:"not_before"`
	NotAfter        time.Time `json:"not_after"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
	Valid           bool      `json:"valid"`
}

// NewCertificateResponse convierte la información del caso de uso.
func NewCertificateResponse(info *billing.CertificateInfo) CertificateResponse {
	return CertificateResponse{
		Subject:         info.Subject,
		CNPJ:            info.CNPJ,
		NotBefore:       info.NotBefore,
		NotAfter:        info.NotAfter,
		DaysUntilExpiry: info.DaysUntilExpiry,
		Valid:           info.Valid,
	}
}
