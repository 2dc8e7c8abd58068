package signer

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/jhoicas/nfe-api/internal/domain"
)

// Verify valida la única Signature del documento con el canonicalizador del servicio.
func (s *DigitalSignatureService) Verify(signedXML string) error {
	return VerifyDocument(signedXML, s.canon)
}

// VerifyDocument recalcula el digest del elemento referenciado y verifica SignatureValue
// con la llave pública del certificado embebido.
func VerifyDocument(signedXML string, canon Canonicalizer) error {
	if canon == nil {
		canon = ReducedCanonicalizer{}
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString(signedXML); err != nil {
		return fmt.Errorf("nfe: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("nfe: documento sin raíz")
	}

	var signatures []*etree.Element
	collectSignatures(root, &signatures)
	if len(signatures) != 1 {
		return fmt.Errorf("nfe: %w: se encontraron %d", domain.ErrSignatureCount, len(signatures))
	}
	sig := signatures[0]

	signedInfo := childByTag(sig, "SignedInfo")
	reference := childByTag(signedInfo, "Reference")
	digestValue := textOf(childByTag(reference, "DigestValue"))
	signatureValue := textOf(childByTag(sig, "SignatureValue"))
	certB64 := textOf(childByTag(childByTag(childByTag(sig, "KeyInfo"), "X509Data"), "X509Certificate"))
	if signedInfo == nil || reference == nil || digestValue == "" || signatureValue == "" || certB64 == "" {
		return fmt.Errorf("nfe: %w: Signature incompleta", domain.ErrSignatureInvalid)
	}

	id := strings.TrimPrefix(reference.SelectAttrValue("URI", ""), "#")
	target := findByID(root, id)
	if target == nil {
		return fmt.Errorf("nfe: %w: Reference URI=#%s", domain.ErrElementNotFound, id)
	}

	svc := &DigitalSignatureService{canon: canon}
	digest, err := svc.digestElement(target)
	if err != nil {
		return err
	}
	if digest != digestValue {
		return fmt.Errorf("nfe: %w: calculado %s, informado %s", domain.ErrDigestMismatch, digest, digestValue)
	}

	fragment, err := serializeElement(signedInfo)
	if err != nil {
		return err
	}
	canonicalSignedInfo, err := canon.Canonicalize(fragment)
	if err != nil {
		return fmt.Errorf("nfe: canonicalizar SignedInfo: %w", err)
	}
	hash := sha1.Sum([]byte(canonicalSignedInfo))

	der, err := base64.StdEncoding.DecodeString(stripSpaces(certB64))
	if err != nil {
		return fmt.Errorf("nfe: %w: X509Certificate no es base64: %v", domain.ErrSignatureInvalid, err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return fmt.Errorf("nfe: %w: X509Certificate: %v", domain.ErrSignatureInvalid, err)
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("nfe: %w: el certificado no tiene llave RSA", domain.ErrSignatureInvalid)
	}
	sigBytes, err := base64.StdEncoding.DecodeString(stripSpaces(signatureValue))
	if err != nil {
		return fmt.Errorf("nfe: %w: SignatureValue no es base64: %v", domain.ErrSignatureInvalid, err)
	}
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA1, hash[:], sigBytes); err != nil {
		return fmt.Errorf("nfe: %w: %v", domain.ErrSignatureInvalid, err)
	}
	return nil
}

func collectSignatures(el *etree.Element, out *[]*etree.Element) {
	for _, child := range el.ChildElements() {
		if child.Tag == SignatureTag {
			*out = append(*out, child)
			continue
		}
		collectSignatures(child, out)
	}
}

func childByTag(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

func textOf(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, s)
}
