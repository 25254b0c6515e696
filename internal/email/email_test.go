package email

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderQuoteGenerated(t *testing.T) {
	html, err := renderQuoteGenerated(QuoteEmail{
		RecipientName: "Ana",
		CompanyName:   "Computel",
		QuoteNumber:   "COT-20261014-001",
		TotalCents:    3770000,
		ValidUntil:    "13/11/2026",
		PublicURL:     "https://cotizador.example.com/api/v1/quotes/abc/pdf",
	}, true)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Hola Ana", "COT-20261014-001", "$37,700.00 MXN", "13/11/2026", "Adjuntamos", "api/v1/quotes/abc/pdf"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in rendered email", want)
		}
	}
}

func TestFormatCurrencyMXN(t *testing.T) {
	cases := map[int64]string{
		0:         "$0.00 MXN",
		850:       "$8.50 MXN",
		123456789: "$1,234,567.89 MXN",
		-5000:     "-$50.00 MXN",
	}
	for cents, want := range cases {
		if got := formatCurrencyMXN(cents); got != want {
			t.Fatalf("formatCurrencyMXN(%d): expected %q, got %q", cents, want, got)
		}
	}
}

func TestBuildMessageAttachesPDF(t *testing.T) {
	s := NewSMTPSender("localhost", 25, "", "", "bot@computel.mx", "Computel")
	msg, err := s.buildMessage("ana@computel.mx", "Cotización", "<p>hola</p>", Attachment{
		Content:  []byte("%PDF-1.4"),
		FileName: "Cotizacion-COT-20261014-001.pdf",
		MIMEType: "application/pdf",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "Cotizacion-COT-20261014-001.pdf") {
		t.Fatalf("expected attachment in message")
	}
}

func TestBuildMessageRejectsBadRecipient(t *testing.T) {
	s := NewSMTPSender("localhost", 25, "", "", "bot@computel.mx", "Computel")
	if _, err := s.buildMessage("not an address", "x", "y"); err == nil {
		t.Fatalf("expected recipient error")
	}
}
