package engine

import (
	"fmt"
	"strings"

	"cotizador_backend/internal/conversation/domain"
)

const (
	replyCollectPrompt = "Perfecto! Te ayudo a generar una cotización. 📋\n\n" +
		"Puedes decirme los productos que necesitas de varias formas:\n" +
		"• 'Necesito 100 hojas de papel bond A4'\n" +
		"• 'Quiero lápices, borradores y cuadernos'\n" +
		"• 'Me das precio de calculadoras científicas'\n\n" +
		"¿Qué productos necesitas?"

	replyCatalogPrompt = "Te puedo ayudar a buscar productos. 🔍\n\n" +
		"Tenemos una amplia variedad:\n" +
		"• Papel (bond, couché, cartulina)\n" +
		"• Útiles escolares (lápices, colores, borradores)\n" +
		"• Artículos de oficina (folders, calculadoras)\n" +
		"• Cuadernos y libretas\n\n" +
		"¿Qué producto específico buscas?"

	replyNoProductsIdentified = "No pude identificar productos específicos en tu mensaje. 🤔\n\n" +
		"Intenta ser más específico, por ejemplo:\n" +
		"• '50 hojas de papel bond'\n" +
		"• '2 calculadoras científicas'\n" +
		"• 'folders manila tamaño carta'\n\n" +
		"¿Qué productos necesitas?"

	replyNothingToFinalize = "Aún no tienes productos agregados a tu cotización. 📝\n\n" +
		"¿Qué productos necesitas agregar?"

	replyStillCollecting = "Perfecto, sigo anotando productos. ¿Qué más necesitas agregar a tu cotización?"

	replyConfirmAgain = "¿Confirmas que proceda con la cotización de estos productos? 🤔\n\n" +
		"Responde 'sí' para continuar o 'modificar' si quieres hacer cambios."

	replyModify = "Sin problema, puedes modificar tu lista. ✏️\n\n" +
		"¿Qué cambios quieres hacer?"

	replyGenerating = "Generando tu cotización final... ⏳"

	replyNothingToQuote = "No hay productos para cotizar. ¿Qué productos necesitas?"

	replyQuoteFailed = "Lo siento, ocurrió un error al generar tu cotización. ❌\n\n" +
		"Por favor intenta de nuevo o contacta a nuestro equipo de soporte."

	replyCancelled = "Proceso cancelado. ✅\n\n" +
		"¿En qué más te puedo ayudar?"

	replyGoodbye = "¡Gracias por usar nuestro servicio! 👋\n\n" +
		"Fue un placer ayudarte. Si necesitas algo más, no dudes en escribir.\n" +
		"¡Que tengas un excelente día!"

	replyResponderUnavailable = "Lo siento, ocurrió un error al procesar tu mensaje. ¿Podrías intentarlo de nuevo?"

	replyEmptyStatus = "Aún no tienes productos en tu cotización. 📋\n\n" +
		"¿Qué productos necesitas agregar?"

	replyFallbackQuotePrompt = "Perfecto! Te ayudo a generar una cotización. 📋\n\n" +
		"Dime qué productos necesitas, por ejemplo:\n" +
		"• 'Necesito 100 hojas de papel bond'\n" +
		"• 'Quiero lápices mongol'\n" +
		"• 'Me das precio de calculadoras casio'\n\n" +
		"¿Qué productos necesitas?"

	replyFallbackGeneral = "Te ayudo con cotizaciones de papelería. 📝\n\n" +
		"Puedes decir:\n" +
		"• 'Necesito una cotización'\n" +
		"• 'Quiero lápices y papel'\n" +
		"• 'Ayuda'\n\n" +
		"¿Qué necesitas?"

	addMoreQuestion = "¿Quieres agregar más productos o generar la cotización?"
)

func formatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func renderGreeting(name string) string {
	return fmt.Sprintf("¡Hola %s! 👋 Soy tu asistente de cotizaciones de Computel.\n\n", name) +
		"Te puedo ayudar a:\n" +
		"• Generar cotizaciones de productos 📝\n" +
		"• Consultar precios y disponibilidad 💰\n" +
		"• Buscar productos específicos 🔍\n\n" +
		"¿En qué te puedo ayudar hoy?"
}

func renderFallbackGreeting(name string) string {
	return fmt.Sprintf("¡Hola %s! 👋 Soy tu asistente de cotizaciones de Computel. ¿En qué puedo ayudarte hoy?", name)
}

func renderReset(name string) string {
	return "🔄 **Sesión reiniciada exitosamente** 🔄\n\n" +
		fmt.Sprintf("¡Hola %s! 👋 \n\n", name) +
		"Estamos empezando desde cero. ¿En qué puedo ayudarte?\n\n" +
		"Puedes decir:\n" +
		"• 'Quiero una cotización'\n" +
		"• 'Necesito productos de papelería'\n" +
		"• 'Ayuda'\n\n" +
		"💡 **Tip**: Di 'reiniciar' en cualquier momento para empezar de nuevo."
}

func renderHelp(state domain.State) string {
	base := "Te puedo ayudar con: 🤖\n\n" +
		"• Generar cotizaciones\n" +
		"• Buscar productos y precios\n" +
		"• Consultar disponibilidad\n\n"

	switch state {
	case domain.StateRecopilando:
		return base + "Ahora estás agregando productos. Dime qué necesitas o escribe 'listo' para continuar."
	case domain.StateValidando:
		return base + "Estás validando tu cotización. Confirma con 'sí' o pide modificaciones."
	default:
		return base + "¿En qué te puedo ayudar específicamente?"
	}
}

// renderMatches reports what one match/merge pass added and what it missed.
func renderMatches(found []domain.AccumulationRecord, notFound []string) string {
	var lines []string

	for _, rec := range found {
		opt, _ := rec.Accepted()
		if len(rec.Options) == 1 {
			lines = append(lines, fmt.Sprintf("✅ Agregado: **%dx %s** - %s c/u", rec.Quantity(), opt.Name, formatMoney(opt.PriceCents)))
			continue
		}
		lines = append(lines, fmt.Sprintf("\n🔍 Para '%s' encontré %d opciones:", rec.Requested.Name, len(rec.Options)))
		for i, o := range rec.Options {
			stock := ""
			if o.StockQuantity > 0 {
				stock = fmt.Sprintf(" (Stock: %d)", o.StockQuantity)
			}
			lines = append(lines, fmt.Sprintf("  %d. **%s** - %s c/u%s", i+1, o.Name, formatMoney(o.PriceCents), stock))
		}
		lines = append(lines, "  → Agregué la opción 1: "+opt.Name)
	}

	if len(notFound) > 0 {
		lines = append(lines, "\n❌ No encontré:")
		for _, name := range notFound {
			lines = append(lines, "  • "+name)
		}
		lines = append(lines, "\n💡 **Tip**: Intenta con otros términos. Ejemplos: 'papel bond', 'pluma bic', 'calculadora'")
	}

	lines = append(lines, "\n"+addMoreQuestion)
	return strings.Join(lines, "\n")
}

// renderStatus lists the accumulated records by requested name.
func renderStatus(records []domain.AccumulationRecord) string {
	if len(records) == 0 {
		return replyEmptyStatus
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hasta ahora tienes **%d producto(s)** en tu cotización:\n\n", len(records))
	for i, rec := range records {
		fmt.Fprintf(&b, "%d. %dx %s\n", i+1, rec.Quantity(), rec.Requested.Name)
	}
	b.WriteString("\n¿Quieres agregar más productos o generar la cotización?")
	return b.String()
}

// renderSummary is the validation summary. With taxRateBps > 0 it also
// itemizes tax and total.
func renderSummary(records []domain.AccumulationRecord, taxRateBps int64) string {
	var b strings.Builder
	b.WriteString("Resumen de tu cotización: 📋\n\n")

	for _, rec := range records {
		opt, ok := rec.Accepted()
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "• %dx **%s**\n", rec.Quantity(), opt.Name)
		fmt.Fprintf(&b, "  %s c/u = **%s**\n\n", formatMoney(opt.PriceCents), formatMoney(rec.LineTotalCents()))
	}

	subtotal := domain.SubtotalCents(records)
	if taxRateBps > 0 {
		tax := taxCents(subtotal, taxRateBps)
		fmt.Fprintf(&b, "**Subtotal: %s**\n", formatMoney(subtotal))
		fmt.Fprintf(&b, "**IVA (%s%%): %s**\n", formatRate(taxRateBps), formatMoney(tax))
		fmt.Fprintf(&b, "**Total: %s**\n", formatMoney(subtotal+tax))
	} else {
		fmt.Fprintf(&b, "**Subtotal estimado: %s**\n", formatMoney(subtotal))
	}
	b.WriteString("\n¿Confirmas que proceda con esta cotización?")
	return b.String()
}

func renderFallbackAdded(records []domain.AccumulationRecord) string {
	var b strings.Builder
	b.WriteString("Productos agregados: ✅\n\n")
	for _, rec := range records {
		opt, _ := rec.Accepted()
		fmt.Fprintf(&b, "• %dx %s - %s c/u\n", rec.Quantity(), opt.Name, formatMoney(opt.PriceCents))
	}
	b.WriteString("\n" + addMoreQuestion)
	return b.String()
}

func renderQuoteCreated(q domain.QuoteResult, pdfURL string, validityDays int) string {
	return "¡Cotización generada exitosamente! 🎉\n\n" +
		fmt.Sprintf("📋 **Número de cotización:** %s\n", q.Number) +
		fmt.Sprintf("💰 **Total:** %s MXN\n", formatMoney(q.TotalCents)) +
		fmt.Sprintf("📄 **PDF:** %s\n\n", pdfURL) +
		fmt.Sprintf("Tu cotización incluye %d producto(s) y está válida por %d días.\n\n", q.ItemCount, validityDays) +
		"Para realizar tu pedido, confirma por WhatsApp o llámanos al (55) 1234-5678.\n\n" +
		"¡Gracias por elegir Computel! 🙏"
}

// taxCents rounds half up to the nearest cent.
func taxCents(subtotal, rateBps int64) int64 {
	return (subtotal*rateBps + 5000) / 10000
}

func formatRate(bps int64) string {
	if bps%100 == 0 {
		return fmt.Sprintf("%d", bps/100)
	}
	return fmt.Sprintf("%d.%02d", bps/100, bps%100)
}
