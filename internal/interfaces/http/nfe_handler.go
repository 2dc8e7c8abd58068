package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/nfe-api/internal/application/billing"
	"github.com/jhoicas/nfe-api/internal/application/dto"
	"github.com/jhoicas/nfe-api/internal/domain"
	domnfe "github.com/jhoicas/nfe-api/internal/domain/nfe"
	"github.com/jhoicas/nfe-api/pkg/logger"
	pkgnfe "github.com/jhoicas/nfe-api/pkg/nfe"
)

// NFeHandler maneja las peticiones HTTP de emisión de NF-e (protegido).
type NFeHandler struct {
	uc  *billing.EmitInvoiceUseCase
	log *logger.Logger
}

// NewNFeHandler construye el handler.
func NewNFeHandler(uc *billing.EmitInvoiceUseCase, log *logger.Logger) *NFeHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &NFeHandler{uc: uc, log: log}
}

// Emit valida, firma y registra una NF-e.
// POST /api/nfe
func (h *NFeHandler) Emit(c *fiber.Ctx) error {
	var in dto.EmitInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	draft, err := in.ToDraft()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	if cnpj := GetCNPJ(c); cnpj != "" && pkgnfe.OnlyDigits(draft.Issuer.TaxID) != cnpj {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "el token no autoriza emitir por este emitente"})
	}

	res, err := h.uc.Emit(c.UserContext(), draft)
	if err != nil {
		return h.emitError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewEmitInvoiceResponse(res))
}

func (h *NFeHandler) emitError(c *fiber.Ctx, err error) error {
	if verrs, ok := domnfe.AsValidationErrors(err); ok {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.NewValidationErrorResponse(verrs))
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrUnknownRegion), errors.Is(err, domain.ErrInvalidAccessKey):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "INVALID_ACCESS_KEY", Message: err.Error()})
	case errors.Is(err, domain.ErrSigningKeyRejected):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "SIGNING_REJECTED", Message: err.Error()})
	case errors.Is(err, domain.ErrCertificateExpired):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "CERTIFICATE_EXPIRED", Message: err.Error()})
	}
	h.log.Error().Err(err).Msg("emisión de NF-e fallida")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

// AccessKey calcula una chave de acesso aislada.
// POST /api/nfe/access-key
func (h *NFeHandler) AccessKey(c *fiber.Ctx) error {
	var in dto.AccessKeyRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	params, err := in.ToParams()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	key, err := h.uc.GenerateAccessKey(params)
	if err != nil {
		return h.emitError(c, err)
	}
	return c.JSON(dto.NewAccessKeyResponse(key))
}

// Certificate datos públicos del certificado A1 configurado.
// GET /api/nfe/certificate
func (h *NFeHandler) Certificate(c *fiber.Ctx) error {
	info, err := h.uc.Certificate()
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "certificado no configurado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.NewCertificateResponse(info))
}
