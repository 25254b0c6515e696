package nlu

import (
	"fmt"
	"strings"

	"cotizador_backend/internal/conversation/domain"
)

func classifierInstruction() string {
	intents := make([]string, 0, len(domain.ClassifierIntents))
	for _, in := range domain.ClassifierIntents {
		intents = append(intents, string(in))
	}

	return `Analiza el mensaje del usuario y determina su intención principal.

RESPONDE EXACTAMENTE en este formato (incluyendo las llaves):
{
    "intent": "INTENT_NAME",
    "confidence": 0.95,
    "entities": ["entidad1", "entidad2"]
}

INTENCIONES POSIBLES:
- SALUDO: El usuario saluda o inicia conversación
- COTIZAR: Quiere una cotización o conocer precios
- BUSCAR_PRODUCTOS: Busca productos específicos o información del catálogo
- AGREGAR_PRODUCTO: Quiere agregar un producto a su cotización
- MODIFICAR_CANTIDAD: Quiere cambiar cantidades de productos
- FINALIZAR_COTIZACION: Quiere completar, generar o finalizar la cotización. Palabras clave: "generar", "finalizar", "terminar", "listo", "es todo", "ya está"
- CANCELAR: Quiere cancelar el proceso
- AYUDA: Pide ayuda o información sobre cómo funciona
- DESPEDIDA: Se despide o termina la conversación
- OTRO: Cualquier otra intención no clasificada

IMPORTANTE:
- "intent" debe ser uno de: ` + strings.Join(intents, ", ") + `
- "confidence" es un número entre 0 y 1
- Tu respuesta debe ser SOLO el JSON, sin texto adicional antes o después.`
}

func extractorInstruction() string {
	return `Eres un experto en identificar productos de papelería y oficina mencionados en mensajes.

Analiza el mensaje y extrae TODOS los productos mencionados, incluyendo cantidades si se especifican.

NORMALIZACIÓN ESTRICTA:
- El "name" debe ser específico y consistente, sin acentos y en minúsculas
- "calculadoras científicas" → "calculadora cientifica"
- "hojas bond" / "papel bond" → "papel bond"
- "lápices" / "lapiceros" → "lapiz"
- "plumas BIC" → "pluma bic"
- "cuadernos" → "cuaderno"

Responde SIEMPRE en formato JSON:
{
    "products": [
        {"name": "nombre normalizado", "quantity": 10, "unit": "piezas", "description": "detalle adicional"}
    ]
}

Si no se especifica cantidad, usa 1.
Si no hay productos mencionados, devuelve "products": [].`
}

func responderInstruction() string {
	return `Eres el asistente virtual de COMPUTEL, una empresa mexicana de papelería y artículos de oficina.

PERSONALIDAD:
- Amigable, profesional y eficiente
- Usas lenguaje natural mexicano y tuteas al cliente
- Conoces productos de papelería

TU TRABAJO:
1. Ayudar a encontrar productos
2. Guiar el proceso de cotización de manera natural

REGLAS:
- NUNCA inventes precios ni productos
- Si no sabes algo, pide más información
- Mantén las respuestas breves
- Usa emojis con moderación`
}

func classifierPrompt(text string, state domain.State, productCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mensaje del usuario: '%s'", text)
	if state != "" {
		fmt.Fprintf(&b, "\nEstado actual de la conversación: %s", state)
	}
	if productCount > 0 {
		fmt.Fprintf(&b, "\nProductos en proceso: %d items", productCount)
	}
	return b.String()
}

func responderPrompt(text string, conv *domain.Conversation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cliente dice: '%s'", text)
	if conv != nil {
		fmt.Fprintf(&b, "\n\nContexto: El cliente está en estado '%s'", conv.State)
		if n := len(conv.ProductsInProgress); n > 0 {
			fmt.Fprintf(&b, "\nProductos agregados hasta ahora: %d items", n)
		}
	}
	return b.String()
}
