package dto

import domnfe "github.com/jhoicas/nfe-api/internal/domain/nfe"

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FieldError una violación de validación del borrador.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationErrorResponse cuerpo 422 con todas las violaciones.
type ValidationErrorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}

// NewValidationErrorResponse convierte ValidationErrors del dominio.
func NewValidationErrorResponse(errs domnfe.ValidationErrors) ValidationErrorResponse {
	out := ValidationErrorResponse{
		Code:    "VALIDATION",
		Message: "la NF-e tiene datos inválidos",
		Errors:  make([]FieldError, 0, len(errs)),
	}
	for _, e := range errs {
		out.Errors = append(out.Errors, FieldError{Field: e.Field, Rule: e.Rule, Message: e.Message})
	}
	return out
}
