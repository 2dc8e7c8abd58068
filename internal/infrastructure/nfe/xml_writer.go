package nfe

import (
	"strings"

	"github.com/shopspring/decimal"
)

// xmlWriter escribe XML sin indentación sobre un strings.Builder.
type xmlWriter struct {
	sb strings.Builder
}

type attr struct {
	name, value string
}

func (w *xmlWriter) open(tag string, attrs ...attr) {
	w.sb.WriteString("<" + tag)
	for _, a := range attrs {
		w.sb.WriteString(" " + a.name + `="` + escapeXML(a.value) + `"`)
	}
	w.sb.WriteString(">")
}

func (w *xmlWriter) close(tag string) {
	w.sb.WriteString("</" + tag + ">")
}

// leaf escribe <tag>valor</tag> con el texto escapado y espacios normalizados.
func (w *xmlWriter) leaf(tag, value string) {
	w.open(tag)
	w.sb.WriteString(escapeXML(cleanText(value)))
	w.close(tag)
}

// leafIf omite el elemento cuando el valor es vacío (campos opcionales del leiaute).
func (w *xmlWriter) leafIf(tag, value string) {
	if strings.TrimSpace(value) != "" {
		w.leaf(tag, value)
	}
}

func (w *xmlWriter) money(tag string, d decimal.Decimal) { w.leaf(tag, formatMoney(d)) }

func (w *xmlWriter) moneyIf(tag string, d decimal.Decimal) {
	if !d.IsZero() {
		w.money(tag, d)
	}
}

func (w *xmlWriter) quantity(tag string, d decimal.Decimal) { w.leaf(tag, formatQuantity(d)) }

func (w *xmlWriter) rate(tag string, d decimal.Decimal) { w.leaf(tag, formatRate(d)) }

func (w *xmlWriter) String() string { return w.sb.String() }

// formatMoney 2 decimales, redondeo half-up, punto decimal.
func formatMoney(d decimal.Decimal) string { return d.StringFixed(2) }

// formatQuantity 4 decimales.
func formatQuantity(d decimal.Decimal) string { return d.StringFixed(4) }

// formatRate alícuotas (pICMS, pPIS...) con 4 decimales.
func formatRate(d decimal.Decimal) string { return d.StringFixed(4) }

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}

// cleanText quita espacios al inicio/fin y colapsa secuencias internas (la SEFAZ rechaza espacios duplicados).
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
