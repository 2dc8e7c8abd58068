package signer

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	"github.com/ucarion/c14n"
)

var (
	xmlDeclRe     = regexp.MustCompile(`(?s)<\?xml.*?\?>`)
	xmlCommentRe  = regexp.MustCompile(`(?s)<!--.*?-->`)
	betweenTagsRe = regexp.MustCompile(`>\s+<`)
	lineEndingsRe = regexp.MustCompile(`\r\n?`)
)

// Canonicalizer serializa un fragmento XML de forma determinista para el hash.
type Canonicalizer interface {
	Canonicalize(fragment string) (string, error)
}

// NewCanonicalizer devuelve la implementación del modo indicado; "" equivale a reduced.
func NewCanonicalizer(mode string) (Canonicalizer, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", CanonicalizationReduced:
		return ReducedCanonicalizer{}, nil
	case CanonicalizationInclusive:
		return InclusiveCanonicalizer{}, nil
	}
	return nil, fmt.Errorf("nfe: modo de canonicalización %q no soportado", mode)
}

// ReducedCanonicalizer canonicalización textual reducida, compatible con el verificador actual:
// quita declaración XML y comentarios, elimina espacios entre tags, normaliza saltos de línea a LF
// y recorta. No reordena atributos ni reescribe namespaces.
type ReducedCanonicalizer struct{}

func (ReducedCanonicalizer) Canonicalize(fragment string) (string, error) {
	s := stripMarkup(fragment)
	s = betweenTagsRe.ReplaceAllString(s, "><")
	s = lineEndingsRe.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s), nil
}

// InclusiveCanonicalizer Canonical XML 1.0 (sin comentarios) vía ucarion/c14n.
type InclusiveCanonicalizer struct{}

func (InclusiveCanonicalizer) Canonicalize(fragment string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(strings.TrimSpace(stripMarkup(fragment))))
	dec.Entity = map[string]string{}
	out, err := c14n.Canonicalize(dec)
	if err != nil {
		return "", fmt.Errorf("nfe: c14n: %w", err)
	}
	return string(out), nil
}

func stripMarkup(s string) string {
	s = xmlDeclRe.ReplaceAllString(s, "")
	return xmlCommentRe.ReplaceAllString(s, "")
}
