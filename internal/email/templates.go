package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type quoteGeneratedEmailData struct {
	baseEmailData
	RecipientName  string
	CompanyName    string
	QuoteNumber    string
	TotalFormatted string
	ValidUntil     string
	HasAttachments bool
}

func renderQuoteGenerated(data QuoteEmail, hasAttachments bool) (string, error) {
	return renderEmailTemplate("quote_generated.html", quoteGeneratedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Tu cotización está lista",
			Heading:  "Tu cotización está lista",
			CTALabel: "Ver cotización",
			CTAURL:   data.PublicURL,
		},
		RecipientName:  data.RecipientName,
		CompanyName:    data.CompanyName,
		QuoteNumber:    data.QuoteNumber,
		TotalFormatted: formatCurrencyMXN(data.TotalCents),
		ValidUntil:     data.ValidUntil,
		HasAttachments: hasAttachments,
	})
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

// formatCurrencyMXN renders cents as $1,234.56.
func formatCurrencyMXN(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	for i := len(whole) - 3; i > 0; i -= 3 {
		whole = whole[:i] + "," + whole[i:]
	}
	return fmt.Sprintf("%s$%s.%02d MXN", sign, whole, cents%100)
}
