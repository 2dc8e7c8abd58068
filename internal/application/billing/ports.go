package billing

import (
	"context"

	"github.com/jhoicas/nfe-api/internal/domain/entity"
	pkgnfe "github.com/jhoicas/nfe-api/pkg/nfe"
)

// DocumentSink recibe la NF-e firmada (transmisión a la SEFAZ, archivo, cola).
// Una respuesta nil o sin Status deja la nota en SUBMITTED.
type DocumentSink interface {
	Submit(ctx context.Context, inv *entity.Invoice) (*entity.AuthorityResponse, error)
}

// SequenceProvider asigna el próximo nNF para modelo y série.
type SequenceProvider interface {
	Next(ctx context.Context, model int, series string) (int64, error)
}

// DocumentBuilder arma el XML sin firmar y devuelve el Id de infNFe.
// Lo implementa *infrastructure/nfe.XMLBuilderService.
type DocumentBuilder interface {
	Build(draft *entity.InvoiceDraft) (xml, elementID string, err error)
}

// DocumentSigner firma y verifica documentos.
// Lo implementa *signer.DigitalSignatureService.
type DocumentSigner interface {
	pkgnfe.Signer
	Verify(signedXML string) error
}
