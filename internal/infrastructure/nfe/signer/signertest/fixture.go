// Package signertest genera certificados A1 autofirmados para pruebas.
package signertest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"software.sslmate.com/src/go-pkcs12"
)

// Valores por defecto del certificado de prueba.
const (
	CNPJ       = "11222333000181"
	CommonName = "EMPRESA TESTE LTDA:" + CNPJ
	Password   = "senha-teste"
)

// Options ajusta el certificado generado.
type Options struct {
	CommonName   string
	SerialNumber string // atributo serialNumber del subject
	NotBefore    time.Time
	NotAfter     time.Time
}

// Fixture llave y certificado generados.
type Fixture struct {
	Key  *rsa.PrivateKey
	Cert *x509.Certificate
}

// New genera un par RSA-2048 y un certificado autofirmado.
func New(t testing.TB, opts Options) *Fixture {
	t.Helper()
	if opts.CommonName == "" {
		opts.CommonName = CommonName
	}
	if opts.NotBefore.IsZero() {
		opts.NotBefore = time.Now().Add(-time.Hour)
	}
	if opts.NotAfter.IsZero() {
		opts.NotAfter = time.Now().Add(365 * 24 * time.Hour)
	}
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generar llave: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			CommonName:   opts.CommonName,
			SerialNumber: opts.SerialNumber,
			Organization: []string{"ICP-Brasil"},
			Country:      []string{"BR"},
		},
		NotBefore:   opts.NotBefore,
		NotAfter:    opts.NotAfter,
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageContentCommitment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("crear certificado: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parsear certificado: %v", err)
	}
	return &Fixture{Key: key, Cert: cert}
}

// PFX codifica la llave y el certificado como PKCS#12 (AES-256 / PBKDF2).
func (f *Fixture) PFX(t testing.TB, password string) []byte {
	t.Helper()
	pfx, err := pkcs12.Modern.Encode(f.Key, f.Cert, nil, password)
	if err != nil {
		t.Fatalf("codificar pkcs12: %v", err)
	}
	return pfx
}

// TrustStorePFX PKCS#12 con el certificado y sin llave privada.
func (f *Fixture) TrustStorePFX(t testing.TB, password string) []byte {
	t.Helper()
	pfx, err := pkcs12.Modern.EncodeTrustStore([]*x509.Certificate{f.Cert}, password)
	if err != nil {
		t.Fatalf("codificar truststore: %v", err)
	}
	return pfx
}
