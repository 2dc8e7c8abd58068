// Servicio de firma XMLDSig (enveloped, RSA-SHA1) de la NF-e.
// La Signature se inserta como hermana, inmediatamente después de </infNFe>.

package signer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/jhoicas/nfe-api/internal/domain"
	pkgnfe "github.com/jhoicas/nfe-api/pkg/nfe"
)

const signedInfoOpen = `<SignedInfo xmlns="` + NamespaceDS + `">`

// SignatureBlock resultado de la firma de un elemento.
type SignatureBlock struct {
	ReferenceID       string
	SignedInfoXML     string // forma canónica, con xmlns propio
	DigestValue       string
	SignatureValue    string
	CertificateBase64 string
}

// XML serializa el elemento <Signature> completo.
func (b *SignatureBlock) XML() string {
	var sb strings.Builder
	sb.WriteString(`<Signature xmlns="` + NamespaceDS + `">`)
	sb.WriteString(`<SignedInfo>`)
	sb.WriteString(strings.TrimPrefix(b.SignedInfoXML, signedInfoOpen))
	sb.WriteString(`<SignatureValue>` + b.SignatureValue + `</SignatureValue>`)
	sb.WriteString(`<KeyInfo><X509Data><X509Certificate>` + b.CertificateBase64 + `</X509Certificate></X509Data></KeyInfo>`)
	sb.WriteString(`</Signature>`)
	return sb.String()
}

// DigitalSignatureService firma documentos NF-e.
type DigitalSignatureService struct {
	canon Canonicalizer
}

// NewDigitalSignatureService crea el servicio; canon nil equivale a ReducedCanonicalizer.
func NewDigitalSignatureService(canon Canonicalizer) *DigitalSignatureService {
	if canon == nil {
		canon = ReducedCanonicalizer{}
	}
	return &DigitalSignatureService{canon: canon}
}

// Canonicalizer devuelve el canonicalizador configurado.
func (s *DigitalSignatureService) Canonicalizer() Canonicalizer { return s.canon }

// Digest calcula base64(SHA1(canonicalize(elemento con Id == elementID))).
func (s *DigitalSignatureService) Digest(documentXML, elementID string) (string, error) {
	_, target, err := locate(documentXML, elementID)
	if err != nil {
		return "", err
	}
	return s.digestElement(target)
}

// Sign calcula el bloque de firma del elemento con Id == elementID.
func (s *DigitalSignatureService) Sign(identity pkgnfe.SigningIdentity, documentXML, elementID string) (*SignatureBlock, error) {
	block, _, err := s.sign(identity, documentXML, elementID)
	return block, err
}

func (s *DigitalSignatureService) sign(identity pkgnfe.SigningIdentity, documentXML, elementID string) (*SignatureBlock, *etree.Element, error) {
	if identity == nil {
		return nil, nil, fmt.Errorf("nfe: %w: identidad nula", domain.ErrSigningKeyRejected)
	}
	cert := identity.Certificate()
	if cert == nil {
		return nil, nil, fmt.Errorf("nfe: %w", domain.ErrMissingCertificate)
	}

	// 1-2) Digest del elemento referenciado
	_, target, err := locate(documentXML, elementID)
	if err != nil {
		return nil, nil, err
	}
	digestB64, err := s.digestElement(target)
	if err != nil {
		return nil, nil, err
	}

	// 3-4) SignedInfo canónico y su hash
	signedInfoXML := buildSignedInfo(elementID, digestB64)
	canonicalSignedInfo, err := s.canon.Canonicalize(signedInfoXML)
	if err != nil {
		return nil, nil, fmt.Errorf("nfe: canonicalizar SignedInfo: %w", err)
	}
	hash := sha1.Sum([]byte(canonicalSignedInfo))

	// 5) RSA PKCS#1 v1.5 sobre SHA-1
	signer := identity.Signer()
	if signer == nil {
		return nil, nil, fmt.Errorf("nfe: %w: identidad sin llave", domain.ErrSigningKeyRejected)
	}
	if _, ok := signer.Public().(*rsa.PublicKey); !ok {
		return nil, nil, fmt.Errorf("nfe: %w: se requiere llave RSA", domain.ErrSigningKeyRejected)
	}
	signature, err := signer.Sign(rand.Reader, hash[:], crypto.SHA1)
	if err != nil {
		return nil, nil, fmt.Errorf("nfe: %w: %v", domain.ErrSigningKeyRejected, err)
	}

	// 6) KeyInfo
	return &SignatureBlock{
		ReferenceID:       elementID,
		SignedInfoXML:     signedInfoXML,
		DigestValue:       digestB64,
		SignatureValue:    base64.StdEncoding.EncodeToString(signature),
		CertificateBase64: base64.StdEncoding.EncodeToString(cert.Raw),
	}, target, nil
}

// SignDocument firma e inserta la Signature después del cierre del elemento, sobre el XML original.
func (s *DigitalSignatureService) SignDocument(identity pkgnfe.SigningIdentity, documentXML, elementID string) (string, error) {
	block, target, err := s.sign(identity, documentXML, elementID)
	if err != nil {
		return "", err
	}
	return insertAfterElement(documentXML, elementID, target.FullTag(), block.XML())
}

func (s *DigitalSignatureService) digestElement(el *etree.Element) (string, error) {
	fragment, err := serializeElement(el)
	if err != nil {
		return "", err
	}
	canonical, err := s.canon.Canonicalize(fragment)
	if err != nil {
		return "", fmt.Errorf("nfe: canonicalizar %s: %w", el.Tag, err)
	}
	sum := sha1.Sum([]byte(canonical))
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

// buildSignedInfo arma SignedInfo ya en forma canónica (tags de cierre explícitos, xmlns propio).
func buildSignedInfo(elementID, digestB64 string) string {
	var sb strings.Builder
	sb.WriteString(signedInfoOpen)
	sb.WriteString(`<CanonicalizationMethod Algorithm="` + AlgC14N + `"></CanonicalizationMethod>`)
	sb.WriteString(`<SignatureMethod Algorithm="` + AlgRSASHA1 + `"></SignatureMethod>`)
	sb.WriteString(`<Reference URI="#` + escapeAttr(elementID) + `">`)
	sb.WriteString(`<Transforms>`)
	sb.WriteString(`<Transform Algorithm="` + TransformEnveloped + `"></Transform>`)
	sb.WriteString(`<Transform Algorithm="` + AlgC14N + `"></Transform>`)
	sb.WriteString(`</Transforms>`)
	sb.WriteString(`<DigestMethod Algorithm="` + AlgSHA1 + `"></DigestMethod>`)
	sb.WriteString(`<DigestValue>` + digestB64 + `</DigestValue>`)
	sb.WriteString(`</Reference>`)
	sb.WriteString(`</SignedInfo>`)
	return sb.String()
}

func escapeAttr(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// locate parsea el documento y busca el elemento con atributo Id == id.
func locate(documentXML, id string) (*etree.Document, *etree.Element, error) {
	if id == "" {
		return nil, nil, fmt.Errorf("nfe: %w: Id vacío", domain.ErrElementNotFound)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString(documentXML); err != nil {
		return nil, nil, fmt.Errorf("nfe: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, nil, fmt.Errorf("nfe: documento sin raíz")
	}
	el := findByID(root, id)
	if el == nil {
		return nil, nil, fmt.Errorf("nfe: %w: Id=%q", domain.ErrElementNotFound, id)
	}
	return doc, el, nil
}

func findByID(el *etree.Element, id string) *etree.Element {
	if el.SelectAttrValue("Id", "") == id {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

// serializeElement serializa una copia del subárbol: declaraciones xmlns heredadas de los ancestros
// al inicio, Signature descendientes removidas (transform enveloped), tags de cierre explícitos.
func serializeElement(el *etree.Element) (string, error) {
	cp := el.Copy()
	removeSignatures(cp)
	cp.Attr = append(inheritedNamespaces(el), cp.Attr...)

	doc := etree.NewDocument()
	doc.WriteSettings = etree.WriteSettings{
		CanonicalEndTags: true,
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	doc.SetRoot(cp)
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("nfe: serializar %s: %w", el.Tag, err)
	}
	return out, nil
}

// inheritedNamespaces declaraciones xmlns en alcance que el elemento no redeclara.
func inheritedNamespaces(el *etree.Element) []etree.Attr {
	declared := map[string]bool{}
	for _, a := range el.Attr {
		if isNamespaceDecl(a) {
			declared[a.Key] = true
		}
	}
	var out []etree.Attr
	for p := el.Parent(); p != nil; p = p.Parent() {
		for _, a := range p.Attr {
			if !isNamespaceDecl(a) || declared[a.Key] {
				continue
			}
			declared[a.Key] = true
			out = append(out, etree.Attr{Space: a.Space, Key: a.Key, Value: a.Value})
		}
	}
	return out
}

func isNamespaceDecl(a etree.Attr) bool {
	return (a.Space == "" && a.Key == "xmlns") || a.Space == "xmlns"
}

func removeSignatures(el *etree.Element) {
	for _, child := range el.ChildElements() {
		if child.Tag == SignatureTag {
			el.RemoveChild(child)
			continue
		}
		removeSignatures(child)
	}
}

// insertAfterElement inserta fragment tras el cierre del elemento tag con Id == elementID,
// trabajando sobre el XML original. Un elemento vacío (<x Id="..."/>) lo recibe tras "/>".
func insertAfterElement(documentXML, elementID, tag, fragment string) (string, error) {
	open, startEnd := findStartTag(documentXML, elementID, tag)
	if open < 0 {
		return "", fmt.Errorf("nfe: %w: <%s Id=%q> en el XML original", domain.ErrElementNotFound, tag, elementID)
	}
	at := startEnd + 1
	if documentXML[startEnd-1] != '/' {
		closeEnd := matchingClose(documentXML, at, tag)
		if closeEnd < 0 {
			return "", fmt.Errorf("nfe: %w: no se encontró </%s>", domain.ErrElementNotFound, tag)
		}
		at = closeEnd
	}
	return documentXML[:at] + fragment + documentXML[at:], nil
}

// findStartTag devuelve el índice de "<tag" y el de su ">" para el primer tag de apertura
// que lleva el atributo Id exacto; -1 si no existe.
func findStartTag(doc, elementID, tag string) (int, int) {
	for from := 0; ; {
		rel := strings.Index(doc[from:], "<"+tag)
		if rel < 0 {
			return -1, -1
		}
		open := from + rel
		from = open + 1
		if !isNameEnd(doc, open+1+len(tag)) {
			continue
		}
		end := startTagEnd(doc, open)
		if end < 0 {
			return -1, -1
		}
		if hasIDAttr(doc[open+1+len(tag):end], elementID) {
			return open, end
		}
	}
}

// hasIDAttr busca Id="elementID" (o con comillas simples) como atributo propio:
// precedido por espacio, así refId="..." no cuenta.
func hasIDAttr(attrs, elementID string) bool {
	for i := 0; ; {
		rel := strings.Index(attrs[i:], "Id=")
		if rel < 0 {
			return false
		}
		pos := i + rel
		i = pos + 3
		if pos == 0 || !isSpace(attrs[pos-1]) || i >= len(attrs) {
			continue
		}
		q := attrs[i]
		if q != '"' && q != '\'' {
			continue
		}
		val := attrs[i+1:]
		if end := strings.IndexByte(val, q); end >= 0 && val[:end] == elementID {
			return true
		}
	}
}

// startTagEnd índice del ">" que cierra el tag abierto en open, respetando comillas.
func startTagEnd(doc string, open int) int {
	var quote byte
	for i := open + 1; i < len(doc); i++ {
		c := doc[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i
		}
	}
	return -1
}

// matchingClose índice siguiente al "</tag>" que cierra el elemento abierto antes de from,
// contando elementos anidados con el mismo nombre. Salta comentarios y CDATA.
func matchingClose(doc string, from int, tag string) int {
	depth := 1
	for i := from; i < len(doc); {
		rel := strings.IndexByte(doc[i:], '<')
		if rel < 0 {
			return -1
		}
		i += rel
		rest := doc[i:]
		switch {
		case strings.HasPrefix(rest, "<!--"):
			end := strings.Index(rest, "-->")
			if end < 0 {
				return -1
			}
			i += end + 3
		case strings.HasPrefix(rest, "<![CDATA["):
			end := strings.Index(rest, "]]>")
			if end < 0 {
				return -1
			}
			i += end + 3
		case strings.HasPrefix(rest, "</"+tag) && isNameEnd(doc, i+2+len(tag)):
			end := strings.IndexByte(rest, '>')
			if end < 0 {
				return -1
			}
			depth--
			i += end + 1
			if depth == 0 {
				return i
			}
		case strings.HasPrefix(rest, "<"+tag) && isNameEnd(doc, i+1+len(tag)):
			end := startTagEnd(doc, i)
			if end < 0 {
				return -1
			}
			if doc[end-1] != '/' {
				depth++
			}
			i = end + 1
		default:
			i++
		}
	}
	return -1
}

func isNameEnd(doc string, i int) bool {
	return i < len(doc) && (isSpace(doc[i]) || doc[i] == '>' || doc[i] == '/')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

var _ pkgnfe.Signer = (*DigitalSignatureService)(nil)
