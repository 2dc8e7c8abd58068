// Package nfe: interfaz para firma digital XMLDSig de documentos NF-e.

package nfe

import (
	"crypto"
	"crypto/x509"
	"time"
)

// SigningIdentity es el handle de la identidad de firma (e-CNPJ A1) extraída del PKCS#12.
// No expone los bytes de la llave privada: solo un crypto.Signer.
type SigningIdentity interface {
	Signer() crypto.Signer
	Certificate() *x509.Certificate
	Chain() []*x509.Certificate
	SubjectCNPJ() string
	SubjectName() string
	NotBefore() time.Time
	NotAfter() time.Time
	// Destroy borra el material de la llave privada; la identidad deja de poder firmar.
	Destroy()
}

// Signer firma el XML de una NF-e y devuelve el documento con el nodo Signature insertado
// inmediatamente después del elemento referenciado (infNFe).
type Signer interface {
	SignDocument(identity SigningIdentity, documentXML, elementID string) (string, error)
}
