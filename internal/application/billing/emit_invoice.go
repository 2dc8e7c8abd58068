package billing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/nfe-api/internal/domain"
	"github.com/jhoicas/nfe-api/internal/domain/entity"
	domnfe "github.com/jhoicas/nfe-api/internal/domain/nfe"
	"github.com/jhoicas/nfe-api/internal/infrastructure/nfe/signer"
	"github.com/jhoicas/nfe-api/pkg/logger"
	pkgnfe "github.com/jhoicas/nfe-api/pkg/nfe"
)

// EmitConfig parámetros de emisión.
type EmitConfig struct {
	CertWarnDays  int                // avisar cuando falten menos días para el vencimiento del A1
	DefaultSeries string             // série usada cuando el borrador no la informa
	Environment   entity.Environment // tpAmb cuando el borrador no lo informa; 0 = homologación
	Clock         func() time.Time
}

// EmitResult nota registrada y datos del certificado usado.
type EmitResult struct {
	Invoice         *entity.Invoice
	AccessKey       domnfe.AccessKey
	DaysUntilExpiry int
}

// CertificateInfo datos públicos del certificado de firma.
type CertificateInfo struct {
	Subject         string
	CNPJ            string
	NotBefore       time.Time
	NotAfter        time.Time
	DaysUntilExpiry int
	Valid           bool
}

// EmitInvoiceUseCase orquesta la emisión:
//
//	validación → chave de acesso → XML → firma → verificación → registro → sink
//
// Es síncrono; sink y secuencia son opcionales.
type EmitInvoiceUseCase struct {
	builder  DocumentBuilder
	signer   DocumentSigner
	keys     *domnfe.AccessKeyGenerator
	identity pkgnfe.SigningIdentity
	sequence SequenceProvider
	sink     DocumentSink
	cfg      EmitConfig
	log      *logger.Logger
}

// NewEmitInvoiceUseCase construye el caso de uso. sequence y sink pueden ser nil.
func NewEmitInvoiceUseCase(
	builder DocumentBuilder,
	docSigner DocumentSigner,
	keys *domnfe.AccessKeyGenerator,
	identity pkgnfe.SigningIdentity,
	sequence SequenceProvider,
	sink DocumentSink,
	cfg EmitConfig,
	log *logger.Logger,
) *EmitInvoiceUseCase {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if keys == nil {
		keys = domnfe.NewAccessKeyGenerator()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &EmitInvoiceUseCase{
		builder:  builder,
		signer:   docSigner,
		keys:     keys,
		identity: identity,
		sequence: sequence,
		sink:     sink,
		cfg:      cfg,
		log:      log,
	}
}

// Emit firma una NF-e a partir del borrador. El borrador no se modifica.
// Errores de validación se devuelven como domnfe.ValidationErrors (errors.Is domain.ErrInvalidInvoice).
func (uc *EmitInvoiceUseCase) Emit(ctx context.Context, draft *entity.InvoiceDraft) (*EmitResult, error) {
	if draft == nil {
		return nil, fmt.Errorf("%w: borrador nulo", domain.ErrInvalidInput)
	}
	now := uc.cfg.Clock()

	days, err := uc.checkIdentity(now)
	if err != nil {
		return nil, err
	}
	if err := uc.checkIssuer(draft); err != nil {
		return nil, err
	}

	d := *draft
	if strings.TrimSpace(d.Series) == "" {
		d.Series = uc.cfg.DefaultSeries
	}
	if d.IssuedAt.IsZero() {
		d.IssuedAt = now
	}
	if d.Environment == 0 {
		d.Environment = uc.cfg.Environment
		if d.Environment == 0 {
			d.Environment = entity.EnvironmentHomologation
		}
	}
	if d.Number == 0 {
		if uc.sequence == nil {
			return nil, fmt.Errorf("%w: nNF no informado y sin proveedor de numeración", domain.ErrInvalidInput)
		}
		// validar antes de reservar: un borrador rechazado no debe dejar huecos en la série
		opts := append(uc.keys.ValidateOptions(), domnfe.WithPendingNumber())
		if errs := domnfe.ValidateDraft(&d, opts...); len(errs) > 0 {
			return nil, errs
		}
		series, _ := domnfe.ParseSeries(d.Series)
		d.Series = strconv.Itoa(series)
		if d.Number, err = uc.sequence.Next(ctx, d.Model, d.Series); err != nil {
			return nil, fmt.Errorf("nfe: asignar número: %w", err)
		}
	}

	unsigned, elementID, err := uc.builder.Build(&d)
	if err != nil {
		return nil, err
	}
	signed, err := uc.signer.SignDocument(uc.identity, unsigned, elementID)
	if err != nil {
		return nil, err
	}
	if err := uc.signer.Verify(signed); err != nil {
		return nil, fmt.Errorf("nfe: firma generada no verifica: %w", err)
	}

	key := domnfe.AccessKey(strings.TrimPrefix(elementID, pkgnfe.IDPrefix))
	log := uc.log.Document(key.String())

	inv := &entity.Invoice{
		ID:          uuid.New().String(),
		AccessKey:   key.String(),
		Model:       d.Model,
		Series:      d.Series,
		Number:      d.Number,
		Environment: d.Environment,
		Status:      entity.NFeStatusDraft,
		XMLSigned:   signed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	log.Info().Str("invoice_id", inv.ID).Int64("number", inv.Number).Msg("NF-e firmada")

	if uc.sink != nil {
		resp, err := uc.sink.Submit(ctx, inv)
		if err != nil {
			log.Error().Err(err).Msg("entrega de la NF-e fallida")
			return nil, fmt.Errorf("nfe: entregar documento: %w", err)
		}
		if err := inv.TransitionTo(entity.NFeStatusSubmitted, uc.cfg.Clock()); err != nil {
			return nil, err
		}
		if err := inv.Apply(resp, uc.cfg.Clock()); err != nil {
			return nil, err
		}
		log.Info().Str("status", inv.Status).Msg("NF-e entregada")
	}

	return &EmitResult{Invoice: inv, AccessKey: key, DaysUntilExpiry: days}, nil
}

// GenerateAccessKey calcula una chave de acesso aislada (sin XML ni firma).
func (uc *EmitInvoiceUseCase) GenerateAccessKey(p domnfe.AccessKeyParams) (domnfe.AccessKey, error) {
	return uc.keys.Generate(p)
}

// Certificate datos del certificado configurado.
func (uc *EmitInvoiceUseCase) Certificate() (*CertificateInfo, error) {
	if uc.identity == nil {
		return nil, fmt.Errorf("nfe: %w: certificado no configurado", domain.ErrNotFound)
	}
	now := uc.cfg.Clock()
	return &CertificateInfo{
		Subject:         uc.identity.SubjectName(),
		CNPJ:            uc.identity.SubjectCNPJ(),
		NotBefore:       uc.identity.NotBefore(),
		NotAfter:        uc.identity.NotAfter(),
		DaysUntilExpiry: signer.DaysUntilExpiry(uc.identity, now),
		Valid:           signer.IsValid(uc.identity, now),
	}, nil
}

func (uc *EmitInvoiceUseCase) checkIdentity(now time.Time) (int, error) {
	if uc.identity == nil {
		return 0, fmt.Errorf("nfe: %w: certificado no configurado", domain.ErrSigningKeyRejected)
	}
	if !signer.IsValid(uc.identity, now) {
		return 0, fmt.Errorf("nfe: %w: válido de %s a %s", domain.ErrCertificateExpired,
			uc.identity.NotBefore().Format(time.DateOnly), uc.identity.NotAfter().Format(time.DateOnly))
	}
	days := signer.DaysUntilExpiry(uc.identity, now)
	if days < uc.cfg.CertWarnDays {
		uc.log.Warn().Int("days_until_expiry", days).Str("cnpj", uc.identity.SubjectCNPJ()).
			Msg("el certificado A1 está por vencer")
	}
	return days, nil
}

// checkIssuer la SEFAZ exige que la raíz del CNPJ del certificado (8 dígitos) sea la del emitente.
func (uc *EmitInvoiceUseCase) checkIssuer(draft *entity.InvoiceDraft) error {
	certCNPJ := uc.identity.SubjectCNPJ()
	issuer := pkgnfe.OnlyDigits(draft.Issuer.TaxID)
	if certCNPJ == "" || len(issuer) != 14 {
		return nil
	}
	if certCNPJ[:8] != issuer[:8] {
		return fmt.Errorf("nfe: %w: certificado de %s no puede firmar por %s", domain.ErrSigningKeyRejected, certCNPJ, issuer)
	}
	return nil
}
