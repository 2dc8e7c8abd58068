// Carga del certificado e-CNPJ A1 desde un PKCS#12 (.pfx/.p12).

package signer

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"sync"
	"time"

	"software.sslmate.com/src/go-pkcs12"

	"github.com/jhoicas/nfe-api/internal/domain"
	pkgnfe "github.com/jhoicas/nfe-api/pkg/nfe"
)

// Identity identidad de firma extraída del PKCS#12. La llave privada no sale de este paquete:
// los consumidores solo reciben un crypto.Signer.
type Identity struct {
	mu    sync.RWMutex
	key   *rsa.PrivateKey
	cert  *x509.Certificate
	chain []*x509.Certificate
	cnpj  string
}

// LoadIdentity decodifica el PKCS#12 en memoria. No lee disco ni red.
func LoadIdentity(pfx []byte, passphrase string) (*Identity, error) {
	if len(pfx) == 0 {
		return nil, fmt.Errorf("nfe: %w: archivo vacío", domain.ErrMalformedArchive)
	}
	key, cert, chain, err := pkcs12.DecodeChain(pfx, passphrase)
	if err != nil {
		return nil, classifyPKCS12Error(err)
	}
	if cert == nil {
		return nil, fmt.Errorf("nfe: %w", domain.ErrMissingCertificate)
	}
	if key == nil {
		return nil, fmt.Errorf("nfe: %w", domain.ErrMissingPrivateKey)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("nfe: %w: se requiere llave RSA, se recibió %T", domain.ErrSigningKeyRejected, key)
	}
	if pub, ok := cert.PublicKey.(*rsa.PublicKey); !ok || !pub.Equal(&rsaKey.PublicKey) {
		return nil, fmt.Errorf("nfe: %w: el certificado no corresponde a la llave privada", domain.ErrSigningKeyRejected)
	}
	return &Identity{
		key:   rsaKey,
		cert:  cert,
		chain: chain,
		cnpj:  subjectCNPJ(cert),
	}, nil
}

// LoadIdentityFromFile lee el .pfx del disco y delega en LoadIdentity.
func LoadIdentityFromFile(path, passphrase string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leer pfx: %w", err)
	}
	return LoadIdentity(data, passphrase)
}

// classifyPKCS12Error traduce los errores de go-pkcs12 a la taxonomía de dominio.
func classifyPKCS12Error(err error) error {
	switch {
	case errors.Is(err, pkcs12.ErrIncorrectPassword), errors.Is(err, pkcs12.ErrDecryption):
		return fmt.Errorf("nfe: %w", domain.ErrInvalidPassphrase)
	case strings.Contains(err.Error(), "private key missing"):
		return fmt.Errorf("nfe: %w", domain.ErrMissingPrivateKey)
	case strings.Contains(err.Error(), "certificate missing"):
		return fmt.Errorf("nfe: %w", domain.ErrMissingCertificate)
	}
	return fmt.Errorf("nfe: %w: %v", domain.ErrMalformedArchive, err)
}

// subjectCNPJ extrae el CNPJ del CN ICP-Brasil ("RAZAO SOCIAL:11222333000181");
// si no está, usa el atributo serialNumber del subject.
func subjectCNPJ(cert *x509.Certificate) string {
	cn := cert.Subject.CommonName
	if i := strings.LastIndex(cn, ":"); i >= 0 {
		if digits := pkgnfe.OnlyDigits(cn[i+1:]); len(digits) == 14 {
			return digits
		}
	}
	if digits := pkgnfe.OnlyDigits(cert.Subject.SerialNumber); len(digits) == 14 {
		return digits
	}
	return ""
}

// Signer devuelve un crypto.Signer sobre la llave; después de Destroy todas las firmas fallan.
func (i *Identity) Signer() crypto.Signer { return &keySigner{id: i} }

func (i *Identity) Certificate() *x509.Certificate { return i.cert }

// Chain certificados intermedios incluidos en el PKCS#12.
func (i *Identity) Chain() []*x509.Certificate {
	return append([]*x509.Certificate(nil), i.chain...)
}

func (i *Identity) SubjectCNPJ() string { return i.cnpj }

func (i *Identity) SubjectName() string { return i.cert.Subject.CommonName }

func (i *Identity) NotBefore() time.Time { return i.cert.NotBefore }

func (i *Identity) NotAfter() time.Time { return i.cert.NotAfter }

// Destroy sobrescribe con ceros el material privado de la llave.
func (i *Identity) Destroy() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.key == nil {
		return
	}
	zero(i.key.D)
	for _, p := range i.key.Primes {
		zero(p)
	}
	zero(i.key.Precomputed.Dp)
	zero(i.key.Precomputed.Dq)
	zero(i.key.Precomputed.Qinv)
	i.key = nil
}

func zero(n *big.Int) {
	if n == nil {
		return
	}
	words := n.Bits()
	for j := range words {
		words[j] = 0
	}
	n.SetInt64(0)
}

type keySigner struct {
	id *Identity
}

func (s *keySigner) Public() crypto.PublicKey {
	return s.id.cert.PublicKey
}

func (s *keySigner) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	s.id.mu.RLock()
	defer s.id.mu.RUnlock()
	if s.id.key == nil {
		return nil, fmt.Errorf("nfe: %w: identidad destruida", domain.ErrSigningKeyRejected)
	}
	return s.id.key.Sign(rand, digest, opts)
}

// DaysUntilExpiry días completos hasta notAfter; negativo si ya venció.
func DaysUntilExpiry(id pkgnfe.SigningIdentity, now time.Time) int {
	d := id.NotAfter().Sub(now)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}

// IsValid indica si now está dentro de [notBefore, notAfter].
func IsValid(id pkgnfe.SigningIdentity, now time.Time) bool {
	return !now.Before(id.NotBefore()) && !now.After(id.NotAfter())
}

var _ pkgnfe.SigningIdentity = (*Identity)(nil)
