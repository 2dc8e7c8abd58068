package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")

	// Certificado A1 (PKCS#12).
	ErrInvalidPassphrase  = errors.New("contraseña del certificado inválida")
	ErrMalformedArchive   = errors.New("archivo PKCS#12 malformado")
	ErrMissingPrivateKey  = errors.New("el PKCS#12 no contiene llave privada")
	ErrMissingCertificate = errors.New("el PKCS#12 no contiene certificado")
	ErrCertificateExpired = errors.New("certificado fuera de su periodo de validez")

	// Firma XMLDSig.
	ErrElementNotFound    = errors.New("elemento a firmar no encontrado")
	ErrSigningKeyRejected = errors.New("llave de firma rechazada")
	ErrSignatureCount     = errors.New("el documento debe contener exactamente una Signature")
	ErrDigestMismatch     = errors.New("DigestValue no coincide con el contenido firmado")
	ErrSignatureInvalid   = errors.New("SignatureValue inválido")

	// Chave de acesso y documento.
	ErrUnknownRegion     = errors.New("UF desconocida")
	ErrInvalidAccessKey  = errors.New("chave de acesso inválida")
	ErrInvalidInvoice    = errors.New("NF-e inválida")
	ErrInvalidTransition = errors.New("transición de estado inválida")
)
