// Package domain holds the conversation aggregate and the closed vocabularies
// of conversational states, lifecycle statuses and intents.
package domain

import "fmt"

// State is the phase of the quoting workflow a conversation is in.
type State string

const (
	StateConversando State = "conversando"
	StateRecopilando State = "recopilando"
	StateValidando   State = "validando"
	StateRevisando   State = "revisando"
	StateCotizando   State = "cotizando"
	StateFinalizado  State = "finalizado"
)

// InitialState is assigned to every new conversation.
const InitialState = StateConversando

// States lists every conversational state.
var States = []State{
	StateConversando,
	StateRecopilando,
	StateValidando,
	StateRevisando,
	StateCotizando,
	StateFinalizado,
}

// ParseState validates a persisted state value.
func ParseState(s string) (State, error) {
	for _, st := range States {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown conversation state %q", s)
}

// IsTerminal reports whether the conversation accepts no further workflow input.
func (s State) IsTerminal() bool {
	return s == StateFinalizado
}

// Status is the lifecycle of the conversation row, independent of State.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusTimeout   Status = "timeout"
)

// ParseStatus validates a persisted status value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusCompleted, StatusCancelled, StatusTimeout:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown conversation status %q", s)
}

// Intent is the normalized purpose of a user message.
type Intent string

const (
	IntentSaludo              Intent = "SALUDO"
	IntentCotizar             Intent = "COTIZAR"
	IntentBuscarProductos     Intent = "BUSCAR_PRODUCTOS"
	IntentAgregarProducto     Intent = "AGREGAR_PRODUCTO"
	IntentModificarCantidad   Intent = "MODIFICAR_CANTIDAD"
	IntentFinalizarCotizacion Intent = "FINALIZAR_COTIZACION"
	IntentCancelar            Intent = "CANCELAR"
	IntentAyuda               Intent = "AYUDA"
	IntentDespedida           Intent = "DESPEDIDA"
	IntentOtro                Intent = "OTRO"

	// Produced only by the keyword rules, never by the classifier.
	IntentReset     Intent = "RESET"
	IntentConfirmar Intent = "CONFIRMAR"
	IntentModificar Intent = "MODIFICAR"
)

// ClassifierIntents is the vocabulary the language model may answer with.
var ClassifierIntents = []Intent{
	IntentSaludo,
	IntentCotizar,
	IntentBuscarProductos,
	IntentAgregarProducto,
	IntentModificarCantidad,
	IntentFinalizarCotizacion,
	IntentCancelar,
	IntentAyuda,
	IntentDespedida,
	IntentOtro,
}

// ParseClassifierIntent accepts only values from ClassifierIntents.
func ParseClassifierIntent(s string) (Intent, error) {
	for _, in := range ClassifierIntents {
		if string(in) == s {
			return in, nil
		}
	}
	return "", fmt.Errorf("unknown intent %q", s)
}

// IntentSource records which path decided the intent of a turn.
type IntentSource string

const (
	SourceClassifier IntentSource = "classifier"
	SourceFallback   IntentSource = "fallback"
	SourceReset      IntentSource = "reset"
)

// Classification is a validated classifier answer.
type Classification struct {
	Intent     Intent
	Confidence float64
	Entities   []string
}
