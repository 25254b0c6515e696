// Package pdf provides quote PDF generation using maroto/v2.
// The document carries the Computel header, the employee who requested the
// quote, the line items, IVA and totals, the validity date and a QR code
// pointing at the public download link.
package pdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	qrcode "github.com/skip2/go-qrcode"
)

// ── Colour palette ──────────────────────────────────────────────────────

var (
	colorPrimary   = &props.Color{Red: 17, Green: 24, Blue: 39}    // near-black
	colorSecondary = &props.Color{Red: 107, Green: 114, Blue: 128} // gray-500
	colorAccent    = &props.Color{Red: 0, Green: 102, Blue: 178}   // computel blue
	colorTableHead = &props.Color{Red: 241, Green: 245, Blue: 249} // slate-100
	colorTableAlt  = &props.Color{Red: 249, Green: 250, Blue: 251} // gray-50
	colorBorder    = &props.Color{Red: 226, Green: 232, Blue: 240} // slate-200
)

const qrSizePx = 256

// ── Data struct ─────────────────────────────────────────────────────────

// LineItem is one priced row of the quote.
type LineItem struct {
	Name           string
	SKU            string
	Description    string
	Quantity       int
	UnitPriceCents int64
	LineTotalCents int64
}

// QuotePDFData holds all data needed to generate a quote PDF.
type QuotePDFData struct {
	QuoteNumber string
	CreatedAt   time.Time
	ValidUntil  time.Time

	CompanyName  string
	CompanyEmail string
	CompanyPhone string

	CustomerName  string
	CustomerPhone string

	Items         []LineItem
	SubtotalCents int64
	TaxRateBps    int64
	TaxCents      int64
	TotalCents    int64

	// PublicURL is encoded as a QR code; empty skips it.
	PublicURL string
}

// GenerateQuotePDF creates the quote document.
func GenerateQuotePDF(data QuotePDFData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(12).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	if err := m.RegisterFooter(buildFooter(data)); err != nil {
		return nil, fmt.Errorf("register footer: %w", err)
	}

	m.AddRows(buildHeader(data)...)
	m.AddRows(row.New(1).WithStyle(&props.Cell{
		BorderType:  border.Bottom,
		BorderColor: colorBorder,
	}))
	m.AddRows(row.New(6))

	m.AddRows(buildDetailsBlock(data)...)
	m.AddRows(row.New(6))

	m.AddRows(buildItemsTable(data)...)
	m.AddRows(row.New(4))

	m.AddRows(buildTotalsBlock(data)...)

	qrRows, err := buildQRBlock(data.PublicURL)
	if err != nil {
		return nil, err
	}
	if len(qrRows) > 0 {
		m.AddRows(row.New(8))
		m.AddRows(qrRows...)
	}

	m.AddRows(row.New(8))
	m.AddRows(buildTerms(data)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// ── Header ──────────────────────────────────────────────────────────────

func buildHeader(data QuotePDFData) []core.Row {
	return []core.Row{
		row.New(20).Add(
			col.New(5).Add(text.New(data.CompanyName, props.Text{
				Size:  16,
				Style: fontstyle.Bold,
				Color: colorPrimary,
				Top:   4,
			})),
			col.New(7).Add(
				text.New("COTIZACIÓN", props.Text{
					Size:  22,
					Style: fontstyle.Bold,
					Align: align.Right,
					Color: colorAccent,
				}),
				text.New(data.QuoteNumber, props.Text{
					Size:  11,
					Align: align.Right,
					Color: colorSecondary,
					Top:   12,
				}),
			),
		),
	}
}

// ── Details block ───────────────────────────────────────────────────────

func buildDetailsBlock(data QuotePDFData) []core.Row {
	label := props.Text{Size: 7, Style: fontstyle.Bold, Color: colorAccent}
	labelRight := props.Text{Size: 7, Style: fontstyle.Bold, Color: colorAccent, Align: align.Right}
	meta := props.Text{Size: 8, Color: colorSecondary, Align: align.Right}

	return []core.Row{
		row.New(5).Add(
			col.New(6).Add(text.New("SOLICITADA POR", label)),
			col.New(6).Add(text.New("DATOS DE LA COTIZACIÓN", labelRight)),
		),
		row.New(5).Add(
			col.New(6).Add(text.New(data.CustomerName, props.Text{Size: 9, Style: fontstyle.Bold, Color: colorPrimary})),
			col.New(6).Add(text.New("Fecha: "+data.CreatedAt.Format("02/01/2006"), meta)),
		),
		row.New(5).Add(
			col.New(6).Add(text.New(data.CustomerPhone, props.Text{Size: 8, Color: colorSecondary})),
			col.New(6).Add(text.New("Vigente hasta: "+data.ValidUntil.Format("02/01/2006"), meta)),
		),
	}
}

// ── Line items table ────────────────────────────────────────────────────

func buildItemsTable(data QuotePDFData) []core.Row {
	rows := []core.Row{
		row.New(7).Add(
			col.New(12).Add(text.New("PRODUCTOS", props.Text{
				Size:  8,
				Style: fontstyle.Bold,
				Color: colorAccent,
			})),
		),
	}

	headerStyle := props.Text{Size: 7.5, Style: fontstyle.Bold, Color: colorPrimary, Top: 1.5}
	headerStyleRight := props.Text{Size: 7.5, Style: fontstyle.Bold, Color: colorPrimary, Align: align.Right, Top: 1.5}

	rows = append(rows, row.New(7).Add(
		col.New(5).Add(text.New("Producto", headerStyle)),
		col.New(2).Add(text.New("SKU", headerStyle)),
		col.New(1).Add(text.New("Cant.", headerStyleRight)),
		col.New(2).Add(text.New("Precio unit.", headerStyleRight)),
		col.New(2).Add(text.New("Importe", headerStyleRight)),
	).WithStyle(&props.Cell{
		BackgroundColor: colorTableHead,
		BorderType:      border.Bottom,
		BorderColor:     colorBorder,
	}))

	for i, item := range data.Items {
		rows = append(rows, buildItemRow(item, i))
	}
	return rows
}

func buildItemRow(item LineItem, idx int) core.Row {
	normalStyle := props.Text{Size: 8, Color: colorPrimary, Top: 1}
	rightStyle := props.Text{Size: 8, Color: colorPrimary, Align: align.Right, Top: 1}

	name := item.Name
	if item.Description != "" {
		name += " (" + item.Description + ")"
	}

	r := row.New(7).Add(
		col.New(5).Add(text.New(name, normalStyle)),
		col.New(2).Add(text.New(item.SKU, props.Text{Size: 7, Color: colorSecondary, Top: 1.5})),
		col.New(1).Add(text.New(fmt.Sprintf("%d", item.Quantity), rightStyle)),
		col.New(2).Add(text.New(FormatMoney(item.UnitPriceCents), rightStyle)),
		col.New(2).Add(text.New(FormatMoney(item.LineTotalCents), rightStyle)),
	)

	if idx%2 == 0 {
		r.WithStyle(&props.Cell{BackgroundColor: colorTableAlt})
	}
	return r
}

// ── Totals block ────────────────────────────────────────────────────────

func buildTotalsBlock(data QuotePDFData) []core.Row {
	labelStyle := props.Text{Size: 9, Color: colorSecondary, Align: align.Right}
	valueStyle := props.Text{Size: 9, Color: colorPrimary, Align: align.Right}
	totalStyle := props.Text{Size: 12, Style: fontstyle.Bold, Color: colorPrimary, Align: align.Right, Top: 2}

	return []core.Row{
		row.New(1).WithStyle(&props.Cell{
			BorderType:  border.Bottom,
			BorderColor: colorBorder,
		}),
		row.New(3),
		row.New(6).Add(
			col.New(9).Add(text.New("Subtotal", labelStyle)),
			col.New(3).Add(text.New(FormatMoney(data.SubtotalCents), valueStyle)),
		),
		row.New(6).Add(
			col.New(9).Add(text.New(fmt.Sprintf("IVA %s%%", formatRate(data.TaxRateBps)), labelStyle)),
			col.New(3).Add(text.New(FormatMoney(data.TaxCents), valueStyle)),
		),
		row.New(2),
		row.New(10).Add(
			col.New(9).Add(text.New("TOTAL", totalStyle)),
			col.New(3).Add(text.New(FormatMoney(data.TotalCents), totalStyle)),
		).WithStyle(totalRowStyle()),
	}
}

// totalRowStyle frames the grand total; maroto takes a single border type per cell.
func totalRowStyle() *props.Cell {
	return &props.Cell{
		BackgroundColor: colorTableHead,
		BorderType:      border.Full,
		BorderColor:     colorBorder,
	}
}

// ── QR code ─────────────────────────────────────────────────────────────

func buildQRBlock(url string) ([]core.Row, error) {
	if strings.TrimSpace(url) == "" {
		return nil, nil
	}
	png, err := qrcode.Encode(url, qrcode.Medium, qrSizePx)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}

	return []core.Row{
		row.New(30).Add(
			col.New(3).Add(image.NewFromBytes(png, extension.Png, props.Rect{
				Center:  false,
				Percent: 95,
			})),
			col.New(9).Add(
				text.New("Escanea el código para descargar esta cotización.", props.Text{
					Size:  8,
					Color: colorSecondary,
					Top:   10,
				}),
				text.New(url, props.Text{
					Size:  7,
					Color: colorAccent,
					Top:   16,
				}),
			),
		),
	}, nil
}

// ── Terms ───────────────────────────────────────────────────────────────

func buildTerms(data QuotePDFData) []core.Row {
	termStyle := props.Text{Size: 7, Color: colorSecondary}
	return []core.Row{
		row.New(1).WithStyle(&props.Cell{
			BorderType:  border.Bottom,
			BorderColor: colorBorder,
		}),
		row.New(3),
		row.New(5).Add(
			col.New(12).Add(text.New("CONDICIONES", props.Text{
				Size:  7,
				Style: fontstyle.Bold,
				Color: colorAccent,
			})),
		),
		row.New(4).Add(col.New(12).Add(text.New(
			"1.  Precios en pesos mexicanos (MXN), sujetos a disponibilidad de inventario.",
			termStyle,
		))),
		row.New(4).Add(col.New(12).Add(text.New(
			fmt.Sprintf("2.  Cotización válida hasta el %s.", data.ValidUntil.Format("02/01/2006")),
			termStyle,
		))),
		row.New(4).Add(col.New(12).Add(text.New(
			"3.  Las cantidades pueden ajustarse a las existencias al momento de surtir el pedido.",
			termStyle,
		))),
	}
}

// ── Footer (registered, repeats on every page) ──────────────────────────

func buildFooter(data QuotePDFData) core.Row {
	parts := []string{data.CompanyName}
	if data.CompanyPhone != "" {
		parts = append(parts, "Tel: "+data.CompanyPhone)
	}
	if data.CompanyEmail != "" {
		parts = append(parts, data.CompanyEmail)
	}

	return row.New(10).Add(
		col.New(12).Add(
			text.New(joinParts(parts, "  ·  "), props.Text{
				Size:  6.5,
				Color: colorSecondary,
				Align: align.Center,
				Top:   4,
			}),
		),
	).WithStyle(&props.Cell{
		BorderType:  border.Top,
		BorderColor: colorBorder,
	})
}

// ── Helpers ─────────────────────────────────────────────────────────────

// FormatMoney renders cents as "$1,234.56".
func FormatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := fmt.Sprintf("%d", cents/100)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), cents%100)
}

func formatRate(bps int64) string {
	if bps%100 == 0 {
		return fmt.Sprintf("%d", bps/100)
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", float64(bps)/100), "0"), ".")
}

func joinParts(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
