// Constantes XMLDSig de la firma de la NF-e (Manual de Orientação do Contribuinte, anexo de firma digital).

package signer

// Namespace y algoritmos. RSA-SHA1 es fijo en el protocolo SEFAZ.
const (
	NamespaceDS        = "http://www.w3.org/2000/09/xmldsig#"
	AlgC14N            = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgRSASHA1         = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	AlgSHA1            = "http://www.w3.org/2000/09/xmldsig#sha1"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

// Modos de canonicalización soportados (NFE_CANONICALIZATION).
const (
	CanonicalizationReduced   = "reduced"
	CanonicalizationInclusive = "c14n"
)

// SignatureTag nombre local del elemento de firma.
const SignatureTag = "Signature"
