// Package views holds the HTML templates, embedded into the binary.
package views

import (
	"embed"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
)

//go:embed *.tmpl
var FS embed.FS

// Funcs are available to every template.
var Funcs = template.FuncMap{
	"rupiah": Rupiah,
	"add":    func(a, b int) int { return a + b },
	"lines":  func(s string) []string { return strings.Split(s, `\n`) },
}

// Parse loads every embedded template.
func Parse() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(FS, "*.tmpl")
}

// Rupiah formats d as whole rupiah with dot thousands separators,
// e.g. "Rp 1.250.000".
func Rupiah(d decimal.Decimal) string {
	s := d.Round(0).Abs().StringFixed(0)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if d.Round(0).IsNegative() {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}
