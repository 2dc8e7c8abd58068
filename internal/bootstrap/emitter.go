// Package bootstrap arma el caso de uso de emisión a partir de la configuración.
// Lo comparten cmd/api y la CLI.
package bootstrap

import (
	"fmt"

	"github.com/jhoicas/nfe-api/internal/application/billing"
	"github.com/jhoicas/nfe-api/internal/domain/entity"
	domnfe "github.com/jhoicas/nfe-api/internal/domain/nfe"
	infranfe "github.com/jhoicas/nfe-api/internal/infrastructure/nfe"
	"github.com/jhoicas/nfe-api/internal/infrastructure/nfe/signer"
	"github.com/jhoicas/nfe-api/pkg/config"
	"github.com/jhoicas/nfe-api/pkg/logger"
	pkgnfe "github.com/jhoicas/nfe-api/pkg/nfe"
)

// Emitter dependencias armadas.
type Emitter struct {
	UseCase  *billing.EmitInvoiceUseCase
	Signer   *signer.DigitalSignatureService
	Identity pkgnfe.SigningIdentity // nil si NFE_CERT_PATH no está configurado
}

// Option ajusta el armado.
type Option func(*options)

type options struct {
	sequence billing.SequenceProvider
}

// WithSequence reemplaza la numeración en memoria (p. ej. por la de PostgreSQL).
func WithSequence(seq billing.SequenceProvider) Option {
	return func(o *options) { o.sequence = seq }
}

// NewEmitter carga el certificado (si hay ruta) y arma builder, firmador, secuencia y archivo.
func NewEmitter(cfg config.NFEConfig, log *logger.Logger, opts ...Option) (*Emitter, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sequence == nil {
		o.sequence = billing.NewMemorySequence()
	}

	canon, err := signer.NewCanonicalizer(cfg.Canonicalization)
	if err != nil {
		return nil, err
	}
	env, err := entity.ParseEnvironment(cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("config: NFE_ENVIRONMENT: %w", err)
	}

	var keyOpts []domnfe.AccessKeyOption
	if cfg.RegionFallback != "" {
		keyOpts = append(keyOpts, domnfe.WithRegionFallback(cfg.RegionFallback))
	}
	keys := domnfe.NewAccessKeyGenerator(keyOpts...)

	var identity pkgnfe.SigningIdentity
	if cfg.CertPath != "" {
		id, err := signer.LoadIdentityFromFile(cfg.CertPath, cfg.CertPassword)
		if err != nil {
			return nil, fmt.Errorf("cargar certificado A1: %w", err)
		}
		identity = id
	}

	var sink billing.DocumentSink
	if cfg.OutputDir != "" {
		sink = infranfe.NewArchiveSink(nil, cfg.OutputDir)
	}

	svc := signer.NewDigitalSignatureService(canon)
	uc := billing.NewEmitInvoiceUseCase(
		infranfe.NewXMLBuilderService(keys, cfg.ProcessVersion),
		svc,
		keys,
		identity,
		o.sequence,
		sink,
		billing.EmitConfig{
			CertWarnDays:  cfg.CertWarnDays,
			DefaultSeries: cfg.DefaultSeries,
			Environment:   env,
		},
		log,
	)
	return &Emitter{UseCase: uc, Signer: svc, Identity: identity}, nil
}
