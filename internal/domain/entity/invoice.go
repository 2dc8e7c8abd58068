package entity

import (
	"fmt"
	"time"

	"github.com/jhoicas/nfe-api/internal/domain"
)

// Estados del ciclo de vida de la NF-e frente a la SEFAZ.
const (
	NFeStatusDraft      = "DRAFT"      // Firmada localmente, sin envío
	NFeStatusSubmitted  = "SUBMITTED"  // Entregada al colaborador de transmisión
	NFeStatusAuthorized = "AUTHORIZED" // Autorizada (protocolo recibido)
	NFeStatusRejected   = "REJECTED"   // Rechazada por la SEFAZ
	NFeStatusCancelled  = "CANCELLED"  // Cancelada después de autorizada
)

var allowedTransitions = map[string][]string{
	NFeStatusDraft:      {NFeStatusSubmitted},
	NFeStatusSubmitted:  {NFeStatusAuthorized, NFeStatusRejected},
	NFeStatusAuthorized: {NFeStatusCancelled},
}

// Invoice registro de una NF-e firmada y su situación ante la autoridad.
type Invoice struct {
	ID              string
	AccessKey       string
	Model           int
	Series          string
	Number          int64
	Environment     Environment
	Status          string
	XMLSigned       string
	Protocol        string // nProt devuelto por la SEFAZ
	AuthorizedAt    *time.Time
	RejectionReason string // cStat + xMotivo
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CanTransition indica si el paso from -> to es válido.
func CanTransition(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionTo cambia el estado o devuelve domain.ErrInvalidTransition.
func (i *Invoice) TransitionTo(status string, at time.Time) error {
	if !CanTransition(i.Status, status) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, i.Status, status)
	}
	i.Status = status
	i.UpdatedAt = at
	return nil
}

// Authorize registra el protocolo de autorización.
func (i *Invoice) Authorize(protocol string, at time.Time) error {
	if err := i.TransitionTo(NFeStatusAuthorized, at); err != nil {
		return err
	}
	i.Protocol = protocol
	i.AuthorizedAt = &at
	return nil
}

// Reject registra el motivo de rechazo.
func (i *Invoice) Reject(reason string, at time.Time) error {
	if err := i.TransitionTo(NFeStatusRejected, at); err != nil {
		return err
	}
	i.RejectionReason = reason
	return nil
}

// AuthorityResponse respuesta del colaborador de transmisión (SEFAZ o archivo local).
// Status vacío deja la nota en SUBMITTED.
type AuthorityResponse struct {
	Status     string // NFeStatusAuthorized o NFeStatusRejected
	Protocol   string
	Reason     string
	ReceivedAt time.Time
}

// Apply aplica la respuesta sobre la nota ya entregada.
func (i *Invoice) Apply(resp *AuthorityResponse, at time.Time) error {
	if resp == nil || resp.Status == "" {
		return nil
	}
	if !resp.ReceivedAt.IsZero() {
		at = resp.ReceivedAt
	}
	switch resp.Status {
	case NFeStatusAuthorized:
		return i.Authorize(resp.Protocol, at)
	case NFeStatusRejected:
		return i.Reject(resp.Reason, at)
	}
	return fmt.Errorf("%w: estado %q desconocido en la respuesta", domain.ErrInvalidTransition, resp.Status)
}
